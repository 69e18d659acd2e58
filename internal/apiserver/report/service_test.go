package report

import (
	"context"
	"testing"
	"time"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
	"github.com/amoylab/ragtrack/internal/apiserver/scope"
	"github.com/amoylab/ragtrack/internal/common/config"
	"github.com/amoylab/ragtrack/pkg/week"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday of ISO week 2026-07.
var now = time.Date(2026, 2, 11, 10, 30, 0, 0, time.UTC)

type fixture struct {
	db     database.Database
	svc    *Service
	pm     *database.User
	other  *database.User
	apollo *database.Project
	hermes *database.Project
	closed *database.Project
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	pm := &database.User{Name: "PM", Email: "pm@example.com", Password: "x", Role: database.RolePM, IsActive: true}
	require.NoError(t, db.CreateUser(ctx, pm))
	other := &database.User{Name: "Other", Email: "other@example.com", Password: "x", Role: database.RolePM, IsActive: true}
	require.NoError(t, db.CreateUser(ctx, other))

	apollo := &database.Project{Name: "Apollo", Client: "Acme", PMID: &pm.ID, Status: database.ProjectStatusActive}
	require.NoError(t, db.CreateProject(ctx, apollo))
	hermes := &database.Project{Name: "Hermes", Client: "Acme", PMID: &other.ID, Status: database.ProjectStatusActive}
	require.NoError(t, db.CreateProject(ctx, hermes))
	closed := &database.Project{Name: "Zeus", Client: "Acme", PMID: &other.ID, Status: database.ProjectStatusActive}
	require.NoError(t, db.CreateProject(ctx, closed))

	cal := week.NewCalendar(6)
	svc := NewService(db, scope.NewResolver(db), &cal)
	svc.now = func() time.Time { return now }

	return &fixture{db: db, svc: svc, pm: pm, other: other, apollo: apollo, hermes: hermes, closed: closed}
}

func (f *fixture) submit(t *testing.T, project *database.Project, pmID uint, rag database.RagStatus, at time.Time) *database.WeeklyReport {
	t.Helper()
	r, err := f.db.UpsertWeeklyReport(context.Background(), &database.ReportSubmission{
		ProjectID: project.ID,
		PMID:      pmID,
		Rag:       rag,
	}, at)
	require.NoError(t, err)
	return r
}

func (f *fixture) close(t *testing.T, project *database.Project) {
	t.Helper()
	project.Status = database.ProjectStatusClosed
	require.NoError(t, f.db.UpdateProject(context.Background(), project))
}

func TestListScopesToPM(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.submit(t, f.apollo, f.pm.ID, database.RagGreen, now)
	f.submit(t, f.hermes, f.other.ID, database.RagRed, now)

	reports, err := f.svc.List(ctx, scope.Caller{ID: f.pm.ID, Role: database.RolePM}, ListOptions{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, f.apollo.ID, reports[0].ProjectID)
}

func TestListForeignProjectDenied(t *testing.T) {
	f := setup(t)
	_, err := f.svc.List(context.Background(), scope.Caller{ID: f.pm.ID, Role: database.RolePM},
		ListOptions{ProjectID: f.hermes.ID})
	assert.ErrorIs(t, err, database.ErrAccessDenied)
}

func TestListExecDeniedClosedProject(t *testing.T) {
	f := setup(t)
	f.close(t, f.closed)

	_, err := f.svc.List(context.Background(), scope.Caller{ID: 99, Role: database.RoleExec},
		ListOptions{ProjectID: f.closed.ID})
	assert.ErrorIs(t, err, database.ErrAccessDenied)
}

func TestListMalformedWeekKey(t *testing.T) {
	f := setup(t)
	_, err := f.svc.List(context.Background(), scope.Caller{ID: 1, Role: database.RoleAdmin},
		ListOptions{WeekKey: "2026-7"})
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestListRetentionClamp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := scope.Caller{ID: 1, Role: database.RoleAdmin}

	// One recent, one five months back, one eight months back (outside the
	// six month retention window and not yet purged).
	f.submit(t, f.apollo, f.pm.ID, database.RagGreen, now)
	f.submit(t, f.apollo, f.pm.ID, database.RagAmber, now.AddDate(0, -5, 0))
	f.submit(t, f.apollo, f.pm.ID, database.RagRed, now.AddDate(0, -8, 0))

	// Asking for 12 months is clamped to the 6 month retention window.
	reports, err := f.svc.List(ctx, admin, ListOptions{MonthsBack: 12})
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	// A narrower window narrows further.
	reports, err = f.svc.List(ctx, admin, ListOptions{MonthsBack: 2})
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	// An explicit from older than the cutoff is clamped too.
	from := now.AddDate(-1, 0, 0)
	reports, err = f.svc.List(ctx, admin, ListOptions{From: &from})
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestListNewestFirst(t *testing.T) {
	f := setup(t)
	f.submit(t, f.apollo, f.pm.ID, database.RagGreen, now.AddDate(0, 0, -14))
	f.submit(t, f.apollo, f.pm.ID, database.RagAmber, now)

	reports, err := f.svc.List(context.Background(), scope.Caller{ID: 1, Role: database.RoleAdmin}, ListOptions{})
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.True(t, reports[0].WeekStartDate.After(reports[1].WeekStartDate))
}

func TestCurrentWeekSnapshotPendingSet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.submit(t, f.apollo, f.pm.ID, database.RagGreen, now)
	f.submit(t, f.hermes, f.other.ID, database.RagAmber, now)

	snap, err := f.svc.CurrentWeekSnapshot(ctx, scope.Caller{ID: 1, Role: database.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "2026-07", snap.WeekKey)
	assert.Len(t, snap.Reports, 2)
	require.Len(t, snap.Pending, 1)
	assert.Equal(t, f.closed.ID, snap.Pending[0].ID)
}

func TestCurrentWeekSnapshotScopedToPM(t *testing.T) {
	f := setup(t)
	snap, err := f.svc.CurrentWeekSnapshot(context.Background(), scope.Caller{ID: f.pm.ID, Role: database.RolePM})
	require.NoError(t, err)
	assert.Empty(t, snap.Reports)
	require.Len(t, snap.Pending, 1)
	assert.Equal(t, f.apollo.ID, snap.Pending[0].ID)
}

func TestHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.submit(t, f.apollo, f.pm.ID, database.RagGreen, now.AddDate(0, 0, -7))
	f.submit(t, f.apollo, f.pm.ID, database.RagAmber, now)

	history, err := f.svc.History(ctx, scope.Caller{ID: f.pm.ID, Role: database.RolePM}, f.apollo.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// Oldest first for trend rendering.
	assert.True(t, history[0].WeekStartDate.Before(history[1].WeekStartDate))

	_, err = f.svc.History(ctx, scope.Caller{ID: f.pm.ID, Role: database.RolePM}, f.hermes.ID)
	assert.ErrorIs(t, err, database.ErrAccessDenied)

	_, err = f.svc.History(ctx, scope.Caller{ID: 1, Role: database.RoleAdmin}, 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestSuggestRag(t *testing.T) {
	// Healthy project: everything clean, full marks.
	s := SuggestRag(ScoreInput{BillingCount: 5, CurrentBillableCount: 5})
	assert.Equal(t, 100.0, s.Score)
	assert.Equal(t, database.RagGreen, s.Rag)

	// Billing mismatch alone drops to 87.5, still Green.
	s = SuggestRag(ScoreInput{BillingCount: 5, CurrentBillableCount: 3})
	assert.Equal(t, 87.5, s.Score)
	assert.Equal(t, database.RagGreen, s.Rag)

	// Attrition plus a delayed deliverable lands in Amber.
	s = SuggestRag(ScoreInput{
		BillingCount:         5,
		CurrentBillableCount: 5,
		Attrition:            []database.Attrition{{EngineerName: "Eve"}},
		Deliverables:         []database.Deliverable{{Task: "x", Status: database.DeliverableDelayed}},
	})
	assert.Equal(t, 75.0, s.Score)
	assert.Equal(t, database.RagAmber, s.Rag)

	// Everything on fire is Red.
	s = SuggestRag(ScoreInput{
		BillingCount:         3,
		CurrentBillableCount: 5,
		Attrition:            []database.Attrition{{EngineerName: "Eve"}},
		Escalations:          []database.Escalation{{Details: "outage", Severity: database.SeverityCritical}},
		Deliverables:         []database.Deliverable{{Task: "x", Status: database.DeliverableDelayed}},
	})
	assert.Equal(t, 50.0, s.Score)
	assert.Equal(t, database.RagRed, s.Rag)

	// Low severity escalation only: 95, Green.
	s = SuggestRag(ScoreInput{
		BillingCount:         5,
		CurrentBillableCount: 5,
		Escalations:          []database.Escalation{{Details: "minor", Severity: database.SeverityLow}},
	})
	assert.Equal(t, 95.0, s.Score)
	assert.Equal(t, database.RagGreen, s.Rag)
}
