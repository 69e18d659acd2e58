package database

import (
	"time"
)

// UserRole represents the role of a user
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RolePM    UserRole = "pm"
	RoleExec  UserRole = "exec"
)

// ValidRole reports whether the role is one of the known roles
func ValidRole(r UserRole) bool {
	switch r {
	case RoleAdmin, RolePM, RoleExec:
		return true
	}
	return false
}

// User represents an account that can sign in
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"` // stored lowercase
	Password  string    `json:"-" gorm:"not null"`                                   // bcrypt hash, not exposed in JSON
	Role      UserRole  `json:"role" gorm:"type:varchar(10);not null"`
	IsActive  bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContractType represents the commercial model of a project
type ContractType string

const (
	ContractTimeMaterial ContractType = "T & Material"
	ContractFixedPrice   ContractType = "Fixed Price"
	ContractRetainer     ContractType = "Retainer"
)

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusActive ProjectStatus = "active"
	ProjectStatusClosed ProjectStatus = "closed"
)

// Project represents a client engagement tracked by weekly reports
type Project struct {
	ID        uint          `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string        `json:"name" gorm:"type:varchar(200);not null"`
	Client    string        `json:"client" gorm:"type:varchar(200);not null"`
	Type      ContractType  `json:"type" gorm:"type:varchar(20);not null;default:'T & Material'"`
	PMID      *uint         `json:"pmId" gorm:"index"`
	Status    ProjectStatus `json:"status" gorm:"type:varchar(10);not null;default:'active'"`
	ClosedAt  *time.Time    `json:"closedAt"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// RagStatus is the Red/Amber/Green health indicator
type RagStatus string

const (
	RagRed   RagStatus = "Red"
	RagAmber RagStatus = "Amber"
	RagGreen RagStatus = "Green"
	// RagNA is only valid for prevRag, when no prior week report exists
	RagNA RagStatus = "NA"
)

// ValidRag reports whether the status is a submittable RAG value
func ValidRag(r RagStatus) bool {
	switch r {
	case RagRed, RagAmber, RagGreen:
		return true
	}
	return false
}

// DeliverableType classifies a deliverable line item
type DeliverableType string

const (
	DeliverableStory  DeliverableType = "Story"
	DeliverableHotfix DeliverableType = "Hotfix"
	DeliverableBug    DeliverableType = "Bug"
	DeliverableTask   DeliverableType = "Task"
	DeliverableOther  DeliverableType = "Other"
)

// DeliverableStatus tracks progress of a deliverable
type DeliverableStatus string

const (
	DeliverableOnTrack   DeliverableStatus = "On Track"
	DeliverableCompleted DeliverableStatus = "Completed"
	DeliverableDelayed   DeliverableStatus = "Delayed"
	DeliverableAtRisk    DeliverableStatus = "At Risk"
)

// Deliverable is one work item listed on a weekly report
type Deliverable struct {
	Type        DeliverableType   `json:"type"`
	Task        string            `json:"task"`
	Owner       string            `json:"owner,omitempty"`
	ETA         *time.Time        `json:"eta,omitempty"`
	Status      DeliverableStatus `json:"status"`
	DelayReason string            `json:"delayReason,omitempty"`
}

// Attrition is one engineer leaving or at risk of leaving
type Attrition struct {
	EngineerName     string `json:"engineerName"`
	InformedToClient bool   `json:"informedToClient"`
	Billable         bool   `json:"billable"`
	KeyPlayer        bool   `json:"keyPlayer"`
	ActionTaken      string `json:"actionTaken,omitempty"`
	Comments         string `json:"comments,omitempty"`
}

// EscalationSeverity ranks an escalation
type EscalationSeverity string

const (
	SeverityLow      EscalationSeverity = "Low"
	SeverityMedium   EscalationSeverity = "Medium"
	SeverityMajor    EscalationSeverity = "Major"
	SeverityCritical EscalationSeverity = "Critical"
)

// EscalationStatus tracks the handling of an escalation
type EscalationStatus string

const (
	EscalationOpen       EscalationStatus = "Open"
	EscalationInProgress EscalationStatus = "In Progress"
	EscalationResolved   EscalationStatus = "Resolved"
)

// Escalation is one client escalation reported in a week
type Escalation struct {
	EngineerName string             `json:"engineerName,omitempty"`
	Details      string             `json:"details"`
	Severity     EscalationSeverity `json:"severity"`
	ActionTaken  string             `json:"actionTaken,omitempty"`
	Status       EscalationStatus   `json:"status"`
	Comments     string             `json:"comments,omitempty"`
}

// WeeklyReport is the central entity: one health report per project per ISO week.
// The composite unique index on (project_id, week_key) is what enforces the
// one-report-per-project-per-week invariant; upserts target that index.
type WeeklyReport struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProjectID uint   `json:"projectId" gorm:"not null;uniqueIndex:idx_reports_project_week"`
	PMID      uint   `json:"pmId" gorm:"not null;index"`

	// weekKey is the canonical identity ("YYYY-WW"); weekStartDate is its
	// range-queryable shadow, always the Monday of the same ISO week.
	WeekKey       string    `json:"weekKey" gorm:"type:varchar(7);not null;uniqueIndex:idx_reports_project_week"`
	WeekStartDate time.Time `json:"weekStartDate" gorm:"not null;index"`

	Rag     RagStatus `json:"rag" gorm:"type:varchar(5);not null"`
	PrevRag RagStatus `json:"prevRag" gorm:"type:varchar(5);not null;default:'NA'"`

	ReasonForRag   string `json:"reasonForRag" gorm:"type:text"`
	PathToGreen    string `json:"pathToGreen" gorm:"type:text"`
	OverallSummary string `json:"overallSummary" gorm:"type:text"`

	// TeamSize is the legacy combined field kept for historical data;
	// readers should go through EffectiveTeamSize.
	TeamSize        string `json:"teamSize" gorm:"type:varchar(50)"`
	PlannedTeamSize string `json:"plannedTeamSize" gorm:"type:varchar(50)"`
	ActualTeamSize  string `json:"actualTeamSize" gorm:"type:varchar(50)"`

	BillingCount         int `json:"billingCount" gorm:"not null;default:0"`
	CurrentBillableCount int `json:"currentBillableCount" gorm:"not null;default:0"`
	YetToBill            int `json:"yetToBill" gorm:"not null;default:0"`
	Buffer               int `json:"buffer" gorm:"not null;default:0"`

	Deliverables []Deliverable `json:"deliverables,omitempty" gorm:"serializer:json;type:text"`
	Attrition    []Attrition   `json:"attrition,omitempty" gorm:"serializer:json;type:text"`
	Escalations  []Escalation  `json:"escalations,omitempty" gorm:"serializer:json;type:text"`

	SubmittedAt  time.Time `json:"submittedAt" gorm:"not null"`
	LastEditedAt time.Time `json:"lastEditedAt" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// EffectiveTeamSize prefers the split planned/actual fields and falls back to
// the legacy combined field only when both split fields are absent.
func (r *WeeklyReport) EffectiveTeamSize() string {
	if r.PlannedTeamSize == "" && r.ActualTeamSize == "" {
		return r.TeamSize
	}
	if r.ActualTeamSize == "" {
		return r.PlannedTeamSize
	}
	if r.PlannedTeamSize == "" {
		return r.ActualTeamSize
	}
	return r.PlannedTeamSize + " / " + r.ActualTeamSize
}
