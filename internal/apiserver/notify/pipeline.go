package notify

import (
	"context"
	"time"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
	"github.com/amoylab/ragtrack/internal/apiserver/digest"
	"github.com/amoylab/ragtrack/internal/common/cnst"
	"github.com/amoylab/ragtrack/pkg/metrics"
	"github.com/amoylab/ragtrack/pkg/week"

	"go.uber.org/zap"
)

// Pipeline assembles the current-week digests from the store and hands them
// to the dispatcher. It backs both the scheduled jobs and the on-demand
// admin endpoints, so every entry point is the same idempotent operation.
type Pipeline struct {
	db         database.Database
	dispatcher *Dispatcher
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewPipeline creates a new Pipeline. metrics may be nil.
func NewPipeline(db database.Database, dispatcher *Dispatcher, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		db:         db,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger.Named("pipeline"),
		now:        time.Now,
	}
}

// DashboardRecipients returns the emails of all active executives.
func (p *Pipeline) DashboardRecipients(ctx context.Context) ([]string, error) {
	execs, err := p.db.ListActiveUsersByRole(ctx, database.RoleExec)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(execs))
	for _, u := range execs {
		emails = append(emails, u.Email)
	}
	return emails, nil
}

// DispatchDashboard builds this week's dashboard digest and emails it to all
// active executives. An empty recipient list yields empty results, not an
// error; the HTTP layer decides whether that is worth reporting.
func (p *Pipeline) DispatchDashboard(ctx context.Context) (string, []DeliveryResult, error) {
	weekKey := week.Key(p.now())

	reports, err := p.db.QueryReports(ctx, &database.ReportFilter{WeekKey: weekKey})
	if err != nil {
		return weekKey, nil, err
	}
	projects, err := p.db.ListProjects(ctx)
	if err != nil {
		return weekKey, nil, err
	}
	users, err := p.db.ListUsers(ctx)
	if err != nil {
		return weekKey, nil, err
	}
	recipients, err := p.DashboardRecipients(ctx)
	if err != nil {
		return weekKey, nil, err
	}

	dash := digest.BuildDashboard(weekKey, reports, projects, users)
	results, err := p.dispatcher.SendDashboard(ctx, dash, recipients)
	if err != nil {
		return weekKey, nil, err
	}

	if p.metrics != nil {
		p.metrics.DigestDispatched(cnst.DigestKindDashboard)
		for _, r := range results {
			p.metrics.EmailResult(cnst.DigestKindDashboard, r.Sent)
		}
	}
	return weekKey, results, nil
}

// DispatchReminders emails every PM with pending active projects this week.
func (p *Pipeline) DispatchReminders(ctx context.Context) (string, []DeliveryResult, error) {
	weekKey := week.Key(p.now())

	reports, err := p.db.QueryReports(ctx, &database.ReportFilter{WeekKey: weekKey, Summary: true})
	if err != nil {
		return weekKey, nil, err
	}
	projects, err := p.db.ListProjects(ctx)
	if err != nil {
		return weekKey, nil, err
	}
	users, err := p.db.ListUsers(ctx)
	if err != nil {
		return weekKey, nil, err
	}

	reminders := digest.BuildReminders(reports, projects, users)
	results := p.dispatcher.SendReminders(ctx, weekKey, reminders)

	if p.metrics != nil {
		p.metrics.DigestDispatched(cnst.DigestKindReminder)
		for _, r := range results {
			p.metrics.EmailResult(cnst.DigestKindReminder, r.Sent)
		}
	}
	return weekKey, results, nil
}
