package dto

import "time"

// DeliverableInput is one work item on a submission
type DeliverableInput struct {
	Type        string     `json:"type,omitempty" binding:"omitempty,oneof=Story Hotfix Bug Task Other"`
	Task        string     `json:"task" binding:"required"`
	Owner       string     `json:"owner,omitempty"`
	ETA         *time.Time `json:"eta,omitempty"`
	Status      string     `json:"status,omitempty" binding:"omitempty,oneof='On Track' 'Completed' 'Delayed' 'At Risk'"`
	DelayReason string     `json:"delayReason,omitempty"`
}

// AttritionInput is one attrition entry on a submission. Billable defaults
// to true when omitted.
type AttritionInput struct {
	EngineerName     string `json:"engineerName" binding:"required"`
	InformedToClient bool   `json:"informedToClient"`
	Billable         *bool  `json:"billable,omitempty"`
	KeyPlayer        bool   `json:"keyPlayer"`
	ActionTaken      string `json:"actionTaken,omitempty"`
	Comments         string `json:"comments,omitempty"`
}

// EscalationInput is one escalation entry on a submission
type EscalationInput struct {
	EngineerName string `json:"engineerName,omitempty"`
	Details      string `json:"details" binding:"required"`
	Severity     string `json:"severity,omitempty" binding:"omitempty,oneof=Low Medium Major Critical"`
	ActionTaken  string `json:"actionTaken,omitempty"`
	Status       string `json:"status,omitempty" binding:"omitempty,oneof=Open 'In Progress' Resolved"`
	Comments     string `json:"comments,omitempty"`
}

// SubmitReportRequest represents a weekly report submission. yetToBill is
// derived server-side and never accepted as input.
type SubmitReportRequest struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	Rag       string `json:"rag" binding:"required,oneof=Red Amber Green"`

	ReasonForRag   string `json:"reasonForRag,omitempty"`
	PathToGreen    string `json:"pathToGreen,omitempty"`
	OverallSummary string `json:"overallSummary,omitempty"`

	TeamSize        string `json:"teamSize,omitempty"`
	PlannedTeamSize string `json:"plannedTeamSize,omitempty"`
	ActualTeamSize  string `json:"actualTeamSize,omitempty"`

	BillingCount         int `json:"billingCount" binding:"min=0"`
	CurrentBillableCount int `json:"currentBillableCount" binding:"min=0"`
	Buffer               int `json:"buffer" binding:"min=0"`

	Deliverables []DeliverableInput `json:"deliverables,omitempty"`
	Attrition    []AttritionInput   `json:"attrition,omitempty"`
	Escalations  []EscalationInput  `json:"escalations,omitempty"`
}

// ListReportsQuery carries the query string filters of GET /api/reports
type ListReportsQuery struct {
	ProjectID  uint   `form:"projectId"`
	WeekKey    string `form:"weekKey"`
	From       string `form:"from"`
	To         string `form:"to"`
	MonthsBack int    `form:"months"`
	Summary    bool   `form:"summary"`
}

// SendDigestResponse reports a dispatch outcome: how many of the intended
// recipients were reached.
type SendDigestResponse struct {
	WeekKey string `json:"weekKey"`
	Total   int    `json:"total"`
	Sent    int    `json:"sent"`
}
