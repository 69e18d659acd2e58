package dto

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	Name   string `json:"name" binding:"required"`
	Client string `json:"client" binding:"required"`
	Type   string `json:"type,omitempty" binding:"omitempty,oneof='T & Material' 'Fixed Price' 'Retainer'"`
	PMID   *uint  `json:"pmId,omitempty"`
}

// UpdateProjectRequest represents a request to update a project
type UpdateProjectRequest struct {
	Name   *string `json:"name,omitempty"`
	Client *string `json:"client,omitempty"`
	Type   *string `json:"type,omitempty" binding:"omitempty,oneof='T & Material' 'Fixed Price' 'Retainer'"`
	PMID   *uint   `json:"pmId,omitempty"`
	Status *string `json:"status,omitempty" binding:"omitempty,oneof=active closed"`

	// UnassignPM clears the PM when true; a nil PMID alone means "not sent"
	UnassignPM bool `json:"unassignPm,omitempty"`
}
