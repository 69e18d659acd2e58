// Package report is the role-aware read API over the report store, plus the
// advisory RAG scoring heuristic.
package report

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
	"github.com/amoylab/ragtrack/internal/apiserver/scope"
	"github.com/amoylab/ragtrack/pkg/week"
)

var weekKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// defaultWeekWindow is how many weeks the selector offers at most.
const defaultWeekWindow = 26

// ListOptions narrows a List call. A zero ProjectID means no explicit
// project; WeekKey takes precedence over the date range.
type ListOptions struct {
	ProjectID  uint
	WeekKey    string
	From       *time.Time
	To         *time.Time
	MonthsBack int
	Summary    bool
}

// Snapshot is the current-week view: submitted reports plus the active
// projects still missing one.
type Snapshot struct {
	WeekKey string                   `json:"weekKey"`
	Reports []*database.WeeklyReport `json:"reports"`
	Pending []*database.Project      `json:"pending"`
}

// Service serves dashboards, history and snapshots under role scoping.
type Service struct {
	db    database.Database
	scope *scope.Resolver
	cal   *week.Calendar
	now   func() time.Time
}

// NewService creates a new report query service
func NewService(db database.Database, resolver *scope.Resolver, cal *week.Calendar) *Service {
	return &Service{
		db:    db,
		scope: resolver,
		cal:   cal,
		now:   time.Now,
	}
}

// List returns the caller's visible reports, newest first. The retention
// cutoff is a hard lower bound: monthsBack and explicit from dates can
// narrow the window but never reach past it.
func (s *Service) List(ctx context.Context, caller scope.Caller, opts ListOptions) ([]*database.WeeklyReport, error) {
	sc, err := s.scope.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}

	filter := &database.ReportFilter{Summary: opts.Summary}
	if opts.ProjectID != 0 {
		if err := s.scope.Authorize(sc, opts.ProjectID); err != nil {
			return nil, err
		}
		filter.ProjectIDs = []uint{opts.ProjectID}
	} else if !sc.All {
		filter.ProjectIDs = sc.ProjectIDs
		if filter.ProjectIDs == nil {
			filter.ProjectIDs = []uint{}
		}
	}

	if opts.WeekKey != "" {
		if !weekKeyPattern.MatchString(opts.WeekKey) {
			return nil, fmt.Errorf("%w: malformed week key %q", database.ErrValidation, opts.WeekKey)
		}
		filter.WeekKey = opts.WeekKey
		return s.db.QueryReports(ctx, filter)
	}

	now := s.now()
	cutoff := s.cal.Cutoff(now)

	from := cutoff
	if opts.MonthsBack > 0 {
		months := opts.MonthsBack
		if months < 1 {
			months = 1
		}
		if months > s.cal.RetentionMonths {
			months = s.cal.RetentionMonths
		}
		from = now.AddDate(0, -months, 0)
	} else if opts.From != nil {
		from = *opts.From
	}
	if from.Before(cutoff) {
		from = cutoff
	}

	to := now
	if opts.To != nil && opts.To.Before(now) {
		to = *opts.To
	}

	filter.From = &from
	filter.To = &to
	return s.db.QueryReports(ctx, filter)
}

// CurrentWeekSnapshot returns this week's reports in scope plus the pending
// set: visible active projects with no report yet, by set difference.
func (s *Service) CurrentWeekSnapshot(ctx context.Context, caller scope.Caller) (*Snapshot, error) {
	sc, err := s.scope.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}

	weekKey := week.Key(s.now())
	filter := &database.ReportFilter{WeekKey: weekKey}
	if !sc.All {
		filter.ProjectIDs = sc.ProjectIDs
		if filter.ProjectIDs == nil {
			filter.ProjectIDs = []uint{}
		}
	}

	reports, err := s.db.QueryReports(ctx, filter)
	if err != nil {
		return nil, err
	}

	active, err := s.db.ListActiveProjects(ctx)
	if err != nil {
		return nil, err
	}

	submitted := make(map[uint]bool, len(reports))
	for _, r := range reports {
		submitted[r.ProjectID] = true
	}

	pending := make([]*database.Project, 0)
	for _, p := range active {
		if !sc.Contains(p.ID) {
			continue
		}
		if !submitted[p.ID] {
			pending = append(pending, p)
		}
	}

	return &Snapshot{WeekKey: weekKey, Reports: reports, Pending: pending}, nil
}

// Weeks returns the selectable reporting weeks, most recent first, clamped
// to the retention window. Used by the history week selector.
func (s *Service) Weeks() []week.Week {
	return s.cal.Range(s.now(), defaultWeekWindow)
}

// History returns a project's reports within the retention window, oldest
// first, in summary projection. PMs can only read their own projects.
func (s *Service) History(ctx context.Context, caller scope.Caller, projectID uint) ([]*database.WeeklyReport, error) {
	if _, err := s.db.GetProjectByID(ctx, projectID); err != nil {
		return nil, err
	}

	sc, err := s.scope.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := s.scope.Authorize(sc, projectID); err != nil {
		return nil, err
	}

	cutoff := s.cal.Cutoff(s.now())
	return s.db.QueryReports(ctx, &database.ReportFilter{
		ProjectIDs: []uint{projectID},
		From:       &cutoff,
		Ascending:  true,
		Summary:    true,
	})
}
