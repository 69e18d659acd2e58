// Package notify renders digests into email bodies and delivers them.
// Failures are per-recipient data, never a batch-aborting error.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/amoylab/ragtrack/internal/apiserver/digest"
	"github.com/amoylab/ragtrack/pkg/mailer"

	"go.uber.org/zap"
)

// Mailer is the outbound email capability. Satisfied by pkg/mailer.Client.
type Mailer interface {
	Send(ctx context.Context, email mailer.Email) (string, error)
}

// DeliveryResult is the outcome for one recipient.
type DeliveryResult struct {
	Recipient string `json:"recipient"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

// SentCount returns how many results were delivered.
func SentCount(results []DeliveryResult) int {
	n := 0
	for _, r := range results {
		if r.Sent {
			n++
		}
	}
	return n
}

// Dispatcher turns digests into emails.
type Dispatcher struct {
	mailer       Mailer
	logger       *zap.Logger
	frontendURL  string
	dashboardTpl *template.Template
	reminderTpl  *template.Template
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(m Mailer, frontendURL string, logger *zap.Logger) (*Dispatcher, error) {
	dashboard, reminder, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Dispatcher{
		mailer:       m,
		logger:       logger.Named("notify"),
		frontendURL:  frontendURL,
		dashboardTpl: dashboard,
		reminderTpl:  reminder,
	}, nil
}

// SendDashboard delivers the weekly dashboard digest as one email to all
// recipients. The returned results carry one entry per recipient.
func (d *Dispatcher) SendDashboard(ctx context.Context, dash *digest.Dashboard, recipients []string) ([]DeliveryResult, error) {
	if len(recipients) == 0 {
		return []DeliveryResult{}, nil
	}

	var body bytes.Buffer
	if err := d.dashboardTpl.Execute(&body, dash); err != nil {
		return nil, fmt.Errorf("failed to render dashboard email: %w", err)
	}

	subject := fmt.Sprintf("RAG Dashboard - Week %s | %d Red, %d Amber, %d Green",
		dash.WeekKey, len(dash.Red), len(dash.Amber), len(dash.Green))

	_, err := d.mailer.Send(ctx, mailer.Email{
		To:      recipients,
		Subject: subject,
		HTML:    body.String(),
	})

	results := make([]DeliveryResult, 0, len(recipients))
	for _, to := range recipients {
		res := DeliveryResult{Recipient: to, Sent: err == nil}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	if err != nil {
		d.logger.Warn("dashboard email failed",
			zap.String("weekKey", dash.WeekKey),
			zap.Int("recipients", len(recipients)),
			zap.Error(err))
	} else {
		d.logger.Info("dashboard email sent",
			zap.String("weekKey", dash.WeekKey),
			zap.Int("recipients", len(recipients)))
	}
	return results, nil
}

// SendReminders delivers one reminder email per PM. A failed recipient never
// aborts the rest of the batch.
func (d *Dispatcher) SendReminders(ctx context.Context, weekKey string, reminders []digest.Reminder) []DeliveryResult {
	results := make([]DeliveryResult, 0, len(reminders))
	for _, rem := range reminders {
		res := DeliveryResult{Recipient: rem.PMEmail}

		var body bytes.Buffer
		err := d.reminderTpl.Execute(&body, struct {
			digest.Reminder
			FrontendURL string
		}{Reminder: rem, FrontendURL: d.frontendURL})
		if err == nil {
			_, err = d.mailer.Send(ctx, mailer.Email{
				To:      []string{rem.PMEmail},
				Subject: fmt.Sprintf("Reminder: Submit your RAG updates for Week %s", weekKey),
				HTML:    body.String(),
			})
		}

		if err != nil {
			res.Error = err.Error()
			d.logger.Warn("reminder email failed",
				zap.String("pm", rem.PMEmail),
				zap.Error(err))
		} else {
			res.Sent = true
		}
		results = append(results, res)
	}

	d.logger.Info("reminder emails dispatched",
		zap.String("weekKey", weekKey),
		zap.Int("total", len(results)),
		zap.Int("sent", SentCount(results)))
	return results
}
