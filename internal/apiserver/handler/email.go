package handler

import (
	"net/http"

	"github.com/amoylab/ragtrack/internal/apiserver/notify"
	"github.com/amoylab/ragtrack/internal/common/dto"
	"github.com/amoylab/ragtrack/internal/i18n"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Email handles the on-demand digest endpoints. pipeline is nil when no
// mailer is configured; the endpoints then answer 503.
type Email struct {
	pipeline *notify.Pipeline
	logger   *zap.Logger
}

// NewEmail creates a new email handler
func NewEmail(pipeline *notify.Pipeline, logger *zap.Logger) *Email {
	return &Email{
		pipeline: pipeline,
		logger:   logger.Named("handler.email"),
	}
}

// Recipients returns the emails the dashboard digest would go to
func (h *Email) Recipients(c *gin.Context) {
	if h.pipeline == nil {
		i18n.RespondWithError(c, i18n.ErrMailerNotConfigured)
		return
	}

	recipients, err := h.pipeline.DashboardRecipients(c.Request.Context())
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipients": recipients})
}

// SendDashboard emails this week's dashboard digest to all active executives
func (h *Email) SendDashboard(c *gin.Context) {
	if h.pipeline == nil {
		i18n.RespondWithError(c, i18n.ErrMailerNotConfigured)
		return
	}

	recipients, err := h.pipeline.DashboardRecipients(c.Request.Context())
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	if len(recipients) == 0 {
		i18n.RespondWithError(c, i18n.ErrNoExecRecipients)
		return
	}

	weekKey, results, err := h.pipeline.DispatchDashboard(c.Request.Context())
	if err != nil {
		h.logger.Error("dashboard dispatch failed", zap.String("week_key", weekKey), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	i18n.Success(i18n.SuccessDashboardSent).
		With("results", results).
		WithPayload(&dto.SendDigestResponse{
			WeekKey: weekKey,
			Total:   len(results),
			Sent:    notify.SentCount(results),
		}).
		Send(c)
}

// SendReminders emails every PM who still has active projects without a
// report this week. Individual delivery failures never abort the batch.
func (h *Email) SendReminders(c *gin.Context) {
	if h.pipeline == nil {
		i18n.RespondWithError(c, i18n.ErrMailerNotConfigured)
		return
	}

	weekKey, results, err := h.pipeline.DispatchReminders(c.Request.Context())
	if err != nil {
		h.logger.Error("reminder dispatch failed", zap.String("week_key", weekKey), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	i18n.Success(i18n.SuccessRemindersSent).
		With("results", results).
		WithPayload(&dto.SendDigestResponse{
			WeekKey: weekKey,
			Total:   len(results),
			Sent:    notify.SentCount(results),
		}).
		Send(c)
}
