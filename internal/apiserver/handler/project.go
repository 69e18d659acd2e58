package handler

import (
	"net/http"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
	"github.com/amoylab/ragtrack/internal/common/dto"
	"github.com/amoylab/ragtrack/internal/i18n"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Project handles project management endpoints. Listing is role scoped;
// writes are admin only and enforced at the route level.
type Project struct {
	db     database.Database
	logger *zap.Logger
}

// NewProject creates a new project handler
func NewProject(db database.Database, logger *zap.Logger) *Project {
	return &Project{
		db:     db,
		logger: logger.Named("handler.project"),
	}
}

// List returns the projects visible to the caller: admins see everything,
// PMs see their own projects in any status, execs see active projects.
func (h *Project) List(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	var (
		projects []*database.Project
		err      error
	)
	switch caller.Role {
	case database.RoleAdmin:
		projects, err = h.db.ListProjects(c.Request.Context())
	case database.RolePM:
		projects, err = h.db.ListProjectsByPM(c.Request.Context(), caller.ID)
	case database.RoleExec:
		projects, err = h.db.ListActiveProjects(c.Request.Context())
	default:
		i18n.RespondWithError(c, i18n.ErrForbidden)
		return
	}
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	c.JSON(http.StatusOK, projects)
}

// checkPM verifies the assignee exists, is active and has the pm role.
func (h *Project) checkPM(c *gin.Context, pmID uint) bool {
	pm, err := h.db.GetUserByID(c.Request.Context(), pmID)
	if err != nil {
		respondStoreError(c, err, i18n.ErrUserNotFound)
		return false
	}
	if pm.Role != database.RolePM || !pm.IsActive {
		i18n.RespondWithError(c, i18n.ErrProjectOwnerNotPM)
		return false
	}
	return true
}

// Create creates a new project
func (h *Project) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest)
		return
	}

	if req.PMID != nil && !h.checkPM(c, *req.PMID) {
		return
	}

	project := &database.Project{
		Name:   req.Name,
		Client: req.Client,
		Type:   database.ContractTimeMaterial,
		PMID:   req.PMID,
		Status: database.ProjectStatusActive,
	}
	if req.Type != "" {
		project.Type = database.ContractType(req.Type)
	}

	if err := h.db.CreateProject(c.Request.Context(), project); err != nil {
		respondStoreError(c, err, i18n.ErrProjectNotFound)
		return
	}

	h.logger.Info("project created", zap.Uint("id", project.ID), zap.String("name", project.Name))
	i18n.Created(i18n.SuccessProjectCreated).WithPayload(project).Send(c)
}

// Update updates a project; status transitions stamp or clear closedAt in
// the store.
func (h *Project) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest)
		return
	}

	project, err := h.db.GetProjectByID(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, i18n.ErrProjectNotFound)
		return
	}
	prevStatus := project.Status

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Client != nil {
		project.Client = *req.Client
	}
	if req.Type != nil {
		project.Type = database.ContractType(*req.Type)
	}
	if req.UnassignPM {
		project.PMID = nil
	} else if req.PMID != nil {
		if !h.checkPM(c, *req.PMID) {
			return
		}
		project.PMID = req.PMID
	}
	if req.Status != nil {
		project.Status = database.ProjectStatus(*req.Status)
	}

	if err := h.db.UpdateProject(c.Request.Context(), project); err != nil {
		respondStoreError(c, err, i18n.ErrProjectNotFound)
		return
	}

	msgID := i18n.SuccessProjectUpdated
	switch {
	case prevStatus == database.ProjectStatusActive && project.Status == database.ProjectStatusClosed:
		msgID = i18n.SuccessProjectClosed
	case prevStatus == database.ProjectStatusClosed && project.Status == database.ProjectStatusActive:
		msgID = i18n.SuccessProjectReopened
	}

	i18n.Success(msgID).WithPayload(project).Send(c)
}

// Delete removes a project and its reports
func (h *Project) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.db.DeleteProject(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, i18n.ErrProjectNotFound)
		return
	}

	h.logger.Info("project deleted", zap.Uint("id", id))
	i18n.Success(i18n.SuccessProjectDeleted).Send(c)
}
