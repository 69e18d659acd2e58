package database

import (
	"context"
	"time"
)

// ReportSubmission carries everything a PM supplies when submitting the
// current week's report. Week identity, prevRag and yetToBill are derived by
// the store, never taken as input.
type ReportSubmission struct {
	ProjectID uint
	PMID      uint

	Rag            RagStatus
	ReasonForRag   string
	PathToGreen    string
	OverallSummary string

	TeamSize        string
	PlannedTeamSize string
	ActualTeamSize  string

	BillingCount         int
	CurrentBillableCount int
	Buffer               int

	Deliverables []Deliverable
	Attrition    []Attrition
	Escalations  []Escalation
}

// ReportFilter is a conjunction of optional predicates for QueryReports.
// WeekKey takes precedence over the From/To range when both are set.
// A nil ProjectIDs slice means unconstrained; an empty non-nil slice is the
// caller's job to short-circuit before querying.
type ReportFilter struct {
	ProjectIDs []uint
	WeekKey    string
	From       *time.Time
	To         *time.Time
	Ascending  bool
	// Summary omits the deliverable/attrition/escalation payloads
	Summary bool
}

// Database defines the persistence operations of the tracker.
type Database interface {
	// Close closes the database connection.
	Close() error

	// Transaction runs fn inside a transaction carried on the context.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// CreateUser creates a user; the email is stored lowercase and must be
	// unique (ErrConflict on duplicates).
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID gets a user by id.
	GetUserByID(ctx context.Context, id uint) (*User, error)

	// GetUserByEmail gets a user by email, case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UpdateUser saves the user's mutable fields.
	UpdateUser(ctx context.Context, user *User) error

	// UpdateUserPassword replaces the stored password hash.
	UpdateUserPassword(ctx context.Context, id uint, passwordHash string) error

	// DeleteUser removes a user and unassigns any projects they manage.
	DeleteUser(ctx context.Context, id uint) error

	// ListUsers lists all users.
	ListUsers(ctx context.Context) ([]*User, error)

	// ListActiveUsersByRole lists active users with the given role.
	ListActiveUsersByRole(ctx context.Context, role UserRole) ([]*User, error)

	// CreateProject creates a project.
	CreateProject(ctx context.Context, project *Project) error

	// GetProjectByID gets a project by id.
	GetProjectByID(ctx context.Context, id uint) (*Project, error)

	// UpdateProject saves a project; status transitions set or clear
	// closedAt.
	UpdateProject(ctx context.Context, project *Project) error

	// DeleteProject removes a project and all of its weekly reports.
	DeleteProject(ctx context.Context, id uint) error

	// ListProjects lists all projects.
	ListProjects(ctx context.Context) ([]*Project, error)

	// ListProjectsByPM lists the projects assigned to a PM, any status.
	ListProjectsByPM(ctx context.Context, pmID uint) ([]*Project, error)

	// ListActiveProjects lists projects with status active.
	ListActiveProjects(ctx context.Context) ([]*Project, error)

	// UpsertWeeklyReport creates or wholesale-replaces the report for the
	// submission's project and the ISO week containing now. The project must
	// be active and assigned to the submitting PM. Exactly one report exists
	// per (project, week) afterwards; concurrent submissions resolve to
	// last-write-wins.
	UpsertWeeklyReport(ctx context.Context, sub *ReportSubmission, now time.Time) (*WeeklyReport, error)

	// GetReportByProjectAndWeek is an exact lookup; ErrNotFound when absent.
	GetReportByProjectAndWeek(ctx context.Context, projectID uint, weekKey string) (*WeeklyReport, error)

	// QueryReports returns reports matching the filter, ordered by
	// weekStartDate (descending unless filter.Ascending).
	QueryReports(ctx context.Context, filter *ReportFilter) ([]*WeeklyReport, error)

	// PurgeExpiredReports deletes reports whose weekStartDate falls before
	// the cutoff and returns the number deleted. Safe to run repeatedly.
	PurgeExpiredReports(ctx context.Context, cutoff time.Time) (int64, error)
}
