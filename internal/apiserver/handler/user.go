package handler

import (
	"net/http"
	"strconv"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
	"github.com/amoylab/ragtrack/internal/apiserver/middleware"
	"github.com/amoylab/ragtrack/internal/common/dto"
	"github.com/amoylab/ragtrack/internal/i18n"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// User handles the admin-only user management endpoints
type User struct {
	db     database.Database
	logger *zap.Logger
}

// NewUser creates a new user management handler
func NewUser(db database.Database, logger *zap.Logger) *User {
	return &User{
		db:     db,
		logger: logger.Named("handler.user"),
	}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		i18n.RespondWithError(c, i18n.ErrBadRequest)
		return 0, false
	}
	return uint(id), true
}

// List returns all users
func (h *User) List(c *gin.Context) {
	users, err := h.db.ListUsers(c.Request.Context())
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	infos := make([]*dto.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, toUserInfo(u))
	}
	c.JSON(http.StatusOK, infos)
}

// ListPMs returns all active project managers, for the project assignment picker
func (h *User) ListPMs(c *gin.Context) {
	pms, err := h.db.ListActiveUsersByRole(c.Request.Context(), database.RolePM)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	infos := make([]*dto.UserInfo, 0, len(pms))
	for _, u := range pms {
		infos = append(infos, toUserInfo(u))
	}
	c.JSON(http.StatusOK, infos)
}

// Create creates a new user
func (h *User) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	user := &database.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     database.UserRole(req.Role),
		IsActive: true,
	}
	if err := h.db.CreateUser(c.Request.Context(), user); err != nil {
		respondStoreError(c, err, i18n.ErrUserNotFound)
		return
	}

	h.logger.Info("user created", zap.Uint("id", user.ID), zap.String("role", req.Role))
	i18n.Created(i18n.SuccessUserCreated).WithPayload(toUserInfo(user)).Send(c)
}

// Update updates a user. Admins cannot change their own role or deactivate
// themselves.
func (h *User) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest)
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, i18n.ErrUserNotFound)
		return
	}

	claims, _ := middleware.GetClaims(c)
	if claims != nil && claims.UserID == id {
		if req.Role != nil && database.UserRole(*req.Role) != user.Role {
			i18n.RespondWithError(c, i18n.ErrSelfRoleChange)
			return
		}
		if req.IsActive != nil && !*req.IsActive {
			i18n.RespondWithError(c, i18n.ErrSelfDeactivate)
			return
		}
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = database.UserRole(*req.Role)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.db.UpdateUser(c.Request.Context(), user); err != nil {
		respondStoreError(c, err, i18n.ErrUserNotFound)
		return
	}

	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			i18n.RespondWithError(c, i18n.ErrInternalServer)
			return
		}
		if err := h.db.UpdateUserPassword(c.Request.Context(), id, string(hashed)); err != nil {
			respondStoreError(c, err, i18n.ErrUserNotFound)
			return
		}
	}

	i18n.Success(i18n.SuccessUserUpdated).WithPayload(toUserInfo(user)).Send(c)
}

// Delete removes a user; their projects are left unassigned. Admins cannot
// delete themselves.
func (h *User) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	claims, _ := middleware.GetClaims(c)
	if claims != nil && claims.UserID == id {
		i18n.RespondWithError(c, i18n.ErrSelfDelete)
		return
	}

	if err := h.db.DeleteUser(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, i18n.ErrUserNotFound)
		return
	}

	h.logger.Info("user deleted", zap.Uint("id", id))
	i18n.Success(i18n.SuccessUserDeleted).Send(c)
}
