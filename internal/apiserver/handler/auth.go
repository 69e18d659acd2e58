package handler

import (
	"net/http"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
	"github.com/amoylab/ragtrack/internal/apiserver/middleware"
	"github.com/amoylab/ragtrack/internal/auth/jwt"
	"github.com/amoylab/ragtrack/internal/common/dto"
	"github.com/amoylab/ragtrack/internal/i18n"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Auth handles login, identity and password changes
type Auth struct {
	db         database.Database
	jwtService *jwt.Service
	logger     *zap.Logger
}

// NewAuth creates a new authentication handler
func NewAuth(db database.Database, jwtService *jwt.Service, logger *zap.Logger) *Auth {
	return &Auth{
		db:         db,
		jwtService: jwtService,
		logger:     logger.Named("handler.auth"),
	}
}

func toUserInfo(u *database.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     string(u.Role),
		IsActive: u.IsActive,
	}
}

// Login handles user login
func (h *Auth) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest)
		return
	}

	user, err := h.db.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInvalidCredentials)
		return
	}

	if !user.IsActive {
		i18n.RespondWithError(c, i18n.ErrUserDisabled)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		i18n.RespondWithError(c, i18n.ErrInvalidCredentials)
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		h.logger.Error("failed to generate token", zap.Uint("user_id", user.ID), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	i18n.Success(i18n.SuccessLogin).
		With("token", token).
		With("user", toUserInfo(user)).
		Send(c)
}

// Me returns the authenticated user's profile
func (h *Auth) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		respondStoreError(c, err, i18n.ErrUserNotFound)
		return
	}

	c.JSON(http.StatusOK, toUserInfo(user))
}

// ChangePassword handles password change requests
func (h *Auth) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		i18n.RespondWithError(c, i18n.ErrBadRequest)
		return
	}

	claims, ok := middleware.GetClaims(c)
	if !ok {
		i18n.RespondWithError(c, i18n.ErrUnauthorized)
		return
	}

	user, err := h.db.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		respondStoreError(c, err, i18n.ErrUserNotFound)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		i18n.RespondWithError(c, i18n.ErrInvalidCredentials)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	if err := h.db.UpdateUserPassword(c.Request.Context(), user.ID, string(hashed)); err != nil {
		respondStoreError(c, err, i18n.ErrUserNotFound)
		return
	}

	i18n.Success(i18n.SuccessPasswordChanged).Send(c)
}
