package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amoylab/ragtrack/pkg/week"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements the Database interface on top of gorm. The dialector is
// supplied by the per-driver constructors.
type Store struct {
	db *gorm.DB
}

func newStore(gormDB *gorm.DB) (Database, error) {
	if err := gormDB.AutoMigrate(&User{}, &Project{}, &WeeklyReport{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: gormDB}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn inside a transaction carried on the context
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTransaction(ctx, tx))
	})
}

// isDuplicateErr recognizes unique constraint violations across drivers
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "Duplicate entry")
}

func (s *Store) CreateUser(ctx context.Context, user *User) error {
	if !ValidRole(user.Role) {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, user.Role)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	var count int64
	if err := getDBFromContext(ctx, s.db).Model(&User{}).
		Where("email = ?", user.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: email %s already exists", ErrConflict, user.Email)
	}

	if err := getDBFromContext(ctx, s.db).Create(user).Error; err != nil {
		if isDuplicateErr(err) {
			return fmt.Errorf("%w: email %s already exists", ErrConflict, user.Email)
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	err := getDBFromContext(ctx, s.db).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := getDBFromContext(ctx, s.db).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, email)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *User) error {
	if !ValidRole(user.Role) {
		return fmt.Errorf("%w: invalid role %q", ErrValidation, user.Role)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	var count int64
	if err := getDBFromContext(ctx, s.db).Model(&User{}).
		Where("email = ? AND id <> ?", user.Email, user.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: email %s already exists", ErrConflict, user.Email)
	}

	res := getDBFromContext(ctx, s.db).Model(&User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
			"is_active": user.IsActive,
		})
	if res.Error != nil {
		if isDuplicateErr(res.Error) {
			return fmt.Errorf("%w: email %s already exists", ErrConflict, user.Email)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, user.ID)
	}
	return nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, id uint, passwordHash string) error {
	res := getDBFromContext(ctx, s.db).Model(&User{}).
		Where("id = ?", id).
		Update("password", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return nil
}

// DeleteUser removes the user and unassigns any projects they manage, in one
// transaction.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return err
	}
	return s.Transaction(ctx, func(ctx context.Context) error {
		tx := getDBFromContext(ctx, s.db)
		if err := tx.Model(&Project{}).
			Where("pm_id = ?", id).
			Update("pm_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&User{}, id).Error
	})
}

func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	err := getDBFromContext(ctx, s.db).
		Order("name asc").
		Find(&users).Error
	return users, err
}

func (s *Store) ListActiveUsersByRole(ctx context.Context, role UserRole) ([]*User, error) {
	var users []*User
	err := getDBFromContext(ctx, s.db).
		Where("role = ? AND is_active = ?", role, true).
		Order("name asc").
		Find(&users).Error
	return users, err
}

func (s *Store) CreateProject(ctx context.Context, project *Project) error {
	if project.Type == "" {
		project.Type = ContractTimeMaterial
	}
	if project.Status == "" {
		project.Status = ProjectStatusActive
	}
	return getDBFromContext(ctx, s.db).Create(project).Error
}

func (s *Store) GetProjectByID(ctx context.Context, id uint) (*Project, error) {
	var project Project
	err := getDBFromContext(ctx, s.db).First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject saves the project. Closing a project stamps closedAt;
// reopening clears it.
func (s *Store) UpdateProject(ctx context.Context, project *Project) error {
	current, err := s.GetProjectByID(ctx, project.ID)
	if err != nil {
		return err
	}

	if project.Status != current.Status {
		if project.Status == ProjectStatusClosed {
			now := time.Now()
			project.ClosedAt = &now
		} else {
			project.ClosedAt = nil
		}
	} else {
		project.ClosedAt = current.ClosedAt
	}
	project.CreatedAt = current.CreatedAt

	return getDBFromContext(ctx, s.db).Save(project).Error
}

// DeleteProject removes the project and all of its weekly reports, in one
// transaction.
func (s *Store) DeleteProject(ctx context.Context, id uint) error {
	if _, err := s.GetProjectByID(ctx, id); err != nil {
		return err
	}
	return s.Transaction(ctx, func(ctx context.Context) error {
		tx := getDBFromContext(ctx, s.db)
		if err := tx.Where("project_id = ?", id).Delete(&WeeklyReport{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Project{}, id).Error
	})
}

func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	var projects []*Project
	err := getDBFromContext(ctx, s.db).
		Order("name asc").
		Find(&projects).Error
	return projects, err
}

func (s *Store) ListProjectsByPM(ctx context.Context, pmID uint) ([]*Project, error) {
	var projects []*Project
	err := getDBFromContext(ctx, s.db).
		Where("pm_id = ?", pmID).
		Order("name asc").
		Find(&projects).Error
	return projects, err
}

func (s *Store) ListActiveProjects(ctx context.Context) ([]*Project, error) {
	var projects []*Project
	err := getDBFromContext(ctx, s.db).
		Where("status = ?", ProjectStatusActive).
		Order("name asc").
		Find(&projects).Error
	return projects, err
}

// reportUpdateColumns are the columns replaced when an upsert hits an existing
// (project, week) row. prevRag and submittedAt are insert-only.
var reportUpdateColumns = []string{
	"pm_id",
	"rag",
	"reason_for_rag",
	"path_to_green",
	"overall_summary",
	"team_size",
	"planned_team_size",
	"actual_team_size",
	"billing_count",
	"current_billable_count",
	"yet_to_bill",
	"buffer",
	"deliverables",
	"attrition",
	"escalations",
	"last_edited_at",
	"updated_at",
}

func (s *Store) UpsertWeeklyReport(ctx context.Context, sub *ReportSubmission, now time.Time) (*WeeklyReport, error) {
	if sub == nil {
		return nil, fmt.Errorf("%w: empty submission", ErrValidation)
	}
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	project, err := s.GetProjectByID(ctx, sub.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.PMID == nil || *project.PMID != sub.PMID {
		return nil, fmt.Errorf("%w: project %d is not assigned to pm %d", ErrAccessDenied, sub.ProjectID, sub.PMID)
	}
	if project.Status != ProjectStatusActive {
		return nil, fmt.Errorf("%w: project %d is closed", ErrAccessDenied, sub.ProjectID)
	}

	weekKey := week.Key(now)
	weekStart := week.Start(now)

	// prevRag comes from the immediately preceding ISO week, or NA. It is
	// computed once here; the conflict update below never touches it, so a
	// later edit of the prior week does not rewrite it.
	prevRag := RagNA
	prev, err := s.GetReportByProjectAndWeek(ctx, sub.ProjectID, week.Key(weekStart.AddDate(0, 0, -7)))
	if err == nil {
		prevRag = prev.Rag
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	yetToBill := sub.BillingCount - sub.CurrentBillableCount
	if yetToBill < 0 {
		yetToBill = 0
	}

	report := &WeeklyReport{
		ID:                   uuid.NewString(),
		ProjectID:            sub.ProjectID,
		PMID:                 sub.PMID,
		WeekKey:              weekKey,
		WeekStartDate:        weekStart,
		Rag:                  sub.Rag,
		PrevRag:              prevRag,
		ReasonForRag:         sub.ReasonForRag,
		PathToGreen:          sub.PathToGreen,
		OverallSummary:       sub.OverallSummary,
		TeamSize:             sub.TeamSize,
		PlannedTeamSize:      sub.PlannedTeamSize,
		ActualTeamSize:       sub.ActualTeamSize,
		BillingCount:         sub.BillingCount,
		CurrentBillableCount: sub.CurrentBillableCount,
		YetToBill:            yetToBill,
		Buffer:               sub.Buffer,
		Deliverables:         sub.Deliverables,
		Attrition:            sub.Attrition,
		Escalations:          sub.Escalations,
		SubmittedAt:          now,
		LastEditedAt:         now,
	}

	// Single-statement upsert on the (project_id, week_key) unique index.
	// Concurrent submissions for the same week resolve to last-write-wins
	// with exactly one row remaining.
	err = getDBFromContext(ctx, s.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "week_key"}},
		DoUpdates: clause.AssignmentColumns(reportUpdateColumns),
	}).Create(report).Error
	if err != nil {
		return nil, err
	}

	return s.GetReportByProjectAndWeek(ctx, sub.ProjectID, weekKey)
}

func (s *Store) GetReportByProjectAndWeek(ctx context.Context, projectID uint, weekKey string) (*WeeklyReport, error) {
	var report WeeklyReport
	err := getDBFromContext(ctx, s.db).
		Where("project_id = ? AND week_key = ?", projectID, weekKey).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: report for project %d week %s", ErrNotFound, projectID, weekKey)
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *Store) QueryReports(ctx context.Context, filter *ReportFilter) ([]*WeeklyReport, error) {
	if filter == nil {
		filter = &ReportFilter{}
	}

	q := getDBFromContext(ctx, s.db).Model(&WeeklyReport{})
	if filter.ProjectIDs != nil {
		if len(filter.ProjectIDs) == 0 {
			return []*WeeklyReport{}, nil
		}
		q = q.Where("project_id IN ?", filter.ProjectIDs)
	}
	if filter.WeekKey != "" {
		q = q.Where("week_key = ?", filter.WeekKey)
	} else {
		if filter.From != nil {
			q = q.Where("week_start_date >= ?", *filter.From)
		}
		if filter.To != nil {
			q = q.Where("week_start_date <= ?", *filter.To)
		}
	}

	order := "week_start_date desc"
	if filter.Ascending {
		order = "week_start_date asc"
	}
	q = q.Order(order)

	if filter.Summary {
		q = q.Omit("Deliverables", "Attrition", "Escalations")
	}

	var reports []*WeeklyReport
	err := q.Find(&reports).Error
	return reports, err
}

func (s *Store) PurgeExpiredReports(ctx context.Context, cutoff time.Time) (int64, error) {
	res := getDBFromContext(ctx, s.db).
		Where("week_start_date < ?", cutoff).
		Delete(&WeeklyReport{})
	return res.RowsAffected, res.Error
}

func validateSubmission(sub *ReportSubmission) error {
	if !ValidRag(sub.Rag) {
		return fmt.Errorf("%w: rag must be Red, Amber or Green", ErrValidation)
	}
	if sub.BillingCount < 0 || sub.CurrentBillableCount < 0 || sub.Buffer < 0 {
		return fmt.Errorf("%w: billing fields must be non-negative", ErrValidation)
	}

	for i := range sub.Deliverables {
		d := &sub.Deliverables[i]
		if strings.TrimSpace(d.Task) == "" {
			return fmt.Errorf("%w: deliverable task is required", ErrValidation)
		}
		if d.Type == "" {
			d.Type = DeliverableTask
		}
		if d.Status == "" {
			d.Status = DeliverableOnTrack
		}
		switch d.Type {
		case DeliverableStory, DeliverableHotfix, DeliverableBug, DeliverableTask, DeliverableOther:
		default:
			return fmt.Errorf("%w: unknown deliverable type %q", ErrValidation, d.Type)
		}
		switch d.Status {
		case DeliverableOnTrack, DeliverableCompleted, DeliverableDelayed, DeliverableAtRisk:
		default:
			return fmt.Errorf("%w: unknown deliverable status %q", ErrValidation, d.Status)
		}
	}

	for i := range sub.Attrition {
		if strings.TrimSpace(sub.Attrition[i].EngineerName) == "" {
			return fmt.Errorf("%w: attrition engineer name is required", ErrValidation)
		}
	}

	for i := range sub.Escalations {
		e := &sub.Escalations[i]
		if strings.TrimSpace(e.Details) == "" {
			return fmt.Errorf("%w: escalation details are required", ErrValidation)
		}
		if e.Severity == "" {
			e.Severity = SeverityMedium
		}
		if e.Status == "" {
			e.Status = EscalationOpen
		}
		switch e.Severity {
		case SeverityLow, SeverityMedium, SeverityMajor, SeverityCritical:
		default:
			return fmt.Errorf("%w: unknown escalation severity %q", ErrValidation, e.Severity)
		}
		switch e.Status {
		case EscalationOpen, EscalationInProgress, EscalationResolved:
		default:
			return fmt.Errorf("%w: unknown escalation status %q", ErrValidation, e.Status)
		}
	}

	return nil
}
