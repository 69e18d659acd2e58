package handler

import (
	"net/http"
	"time"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
	"github.com/amoylab/ragtrack/internal/apiserver/report"
	"github.com/amoylab/ragtrack/internal/common/dto"
	"github.com/amoylab/ragtrack/internal/i18n"
	"github.com/amoylab/ragtrack/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Report handles report submission and the scoped read endpoints
type Report struct {
	db      database.Database
	svc     *report.Service
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewReport creates a new report handler. metrics may be nil.
func NewReport(db database.Database, svc *report.Service, m *metrics.Metrics, logger *zap.Logger) *Report {
	return &Report{
		db:      db,
		svc:     svc,
		metrics: m,
		logger:  logger.Named("handler.report"),
	}
}

// List returns the caller's visible reports, newest first, optionally
// filtered by project, week or date range.
func (h *Report) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	var q dto.ListReportsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest)
		return
	}

	opts := report.ListOptions{
		ProjectID:  q.ProjectID,
		WeekKey:    q.WeekKey,
		MonthsBack: q.MonthsBack,
		Summary:    q.Summary,
	}
	if q.From != "" {
		from, err := time.Parse(dateLayout, q.From)
		if err != nil {
			i18n.RespondWithError(c, i18n.ErrBadRequest)
			return
		}
		opts.From = &from
	}
	if q.To != "" {
		to, err := time.Parse(dateLayout, q.To)
		if err != nil {
			i18n.RespondWithError(c, i18n.ErrBadRequest)
			return
		}
		opts.To = &to
	}

	reports, err := h.svc.List(c.Request.Context(), caller, opts)
	if err != nil {
		respondStoreError(c, err, i18n.ErrProjectNotFound)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// CurrentWeek returns this week's snapshot: submitted reports plus pending
// projects.
func (h *Report) CurrentWeek(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	snap, err := h.svc.CurrentWeekSnapshot(c.Request.Context(), caller)
	if err != nil {
		respondStoreError(c, err, i18n.ErrProjectNotFound)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Weeks returns the selectable reporting weeks for the history picker
func (h *Report) Weeks(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Weeks())
}

// History returns a project's reports within the retention window, oldest
// first.
func (h *Report) History(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	projectID, ok := parseIDParam(c, "projectId")
	if !ok {
		return
	}

	reports, err := h.svc.History(c.Request.Context(), caller, projectID)
	if err != nil {
		respondStoreError(c, err, i18n.ErrProjectNotFound)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// Submit creates or replaces the caller's report for the current ISO week.
// Resubmitting within the same week overwrites the previous submission.
func (h *Report) Submit(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest)
		return
	}

	sub := &database.ReportSubmission{
		ProjectID:            req.ProjectID,
		PMID:                 caller.ID,
		Rag:                  database.RagStatus(req.Rag),
		ReasonForRag:         req.ReasonForRag,
		PathToGreen:          req.PathToGreen,
		OverallSummary:       req.OverallSummary,
		TeamSize:             req.TeamSize,
		PlannedTeamSize:      req.PlannedTeamSize,
		ActualTeamSize:       req.ActualTeamSize,
		BillingCount:         req.BillingCount,
		CurrentBillableCount: req.CurrentBillableCount,
		Buffer:               req.Buffer,
		Deliverables:         toDeliverables(req.Deliverables),
		Attrition:            toAttrition(req.Attrition),
		Escalations:          toEscalations(req.Escalations),
	}

	rep, err := h.db.UpsertWeeklyReport(c.Request.Context(), sub, time.Now())
	if err != nil {
		respondStoreError(c, err, i18n.ErrProjectNotFound)
		return
	}

	if h.metrics != nil {
		h.metrics.ReportSubmitted(string(rep.Rag))
	}
	h.logger.Info("report submitted",
		zap.Uint("project_id", rep.ProjectID),
		zap.String("week_key", rep.WeekKey),
		zap.String("rag", string(rep.Rag)))

	i18n.Success(i18n.SuccessReportSubmitted).WithPayload(rep).Send(c)
}

// Suggest computes the advisory RAG score for a draft submission. The PM's
// manual choice stays authoritative.
func (h *Report) Suggest(c *gin.Context) {
	var in report.ScoreInput
	if err := c.ShouldBindJSON(&in); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest)
		return
	}
	c.JSON(http.StatusOK, report.SuggestRag(in))
}

func toDeliverables(in []dto.DeliverableInput) []database.Deliverable {
	out := make([]database.Deliverable, 0, len(in))
	for _, d := range in {
		out = append(out, database.Deliverable{
			Type:        database.DeliverableType(d.Type),
			Task:        d.Task,
			Owner:       d.Owner,
			ETA:         d.ETA,
			Status:      database.DeliverableStatus(d.Status),
			DelayReason: d.DelayReason,
		})
	}
	return out
}

func toAttrition(in []dto.AttritionInput) []database.Attrition {
	out := make([]database.Attrition, 0, len(in))
	for _, a := range in {
		billable := true
		if a.Billable != nil {
			billable = *a.Billable
		}
		out = append(out, database.Attrition{
			EngineerName:     a.EngineerName,
			InformedToClient: a.InformedToClient,
			Billable:         billable,
			KeyPlayer:        a.KeyPlayer,
			ActionTaken:      a.ActionTaken,
			Comments:         a.Comments,
		})
	}
	return out
}

func toEscalations(in []dto.EscalationInput) []database.Escalation {
	out := make([]database.Escalation, 0, len(in))
	for _, e := range in {
		out = append(out, database.Escalation{
			EngineerName: e.EngineerName,
			Details:      e.Details,
			Severity:     database.EscalationSeverity(e.Severity),
			ActionTaken:  e.ActionTaken,
			Status:       database.EscalationStatus(e.Status),
			Comments:     e.Comments,
		})
	}
	return out
}
