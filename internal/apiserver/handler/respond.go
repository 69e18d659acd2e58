// Package handler contains the gin handlers of the apiserver.
package handler

import (
	"errors"

	"github.com/amoylab/ragtrack/internal/apiserver/database"
	"github.com/amoylab/ragtrack/internal/apiserver/middleware"
	"github.com/amoylab/ragtrack/internal/apiserver/scope"
	"github.com/amoylab/ragtrack/internal/i18n"
	"github.com/gin-gonic/gin"
)

// callerFromContext extracts the authenticated caller for scope resolution.
func callerFromContext(c *gin.Context) (scope.Caller, bool) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return scope.Caller{}, false
	}
	return scope.Caller{ID: claims.UserID, Role: database.UserRole(claims.Role)}, true
}

// respondStoreError maps store sentinels onto i18n errors. notFound is the
// domain-specific error to use for database.ErrNotFound.
func respondStoreError(c *gin.Context, err error, notFound *i18n.ErrorWithCode) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		i18n.RespondWithError(c, notFound)
	case errors.Is(err, database.ErrAccessDenied):
		i18n.RespondWithError(c, i18n.ErrProjectAccessDenied)
	case errors.Is(err, database.ErrValidation):
		// fresh instance so the shared predefined error stays untouched
		i18n.RespondWithError(c, i18n.NewErrorWithCode("ErrorReportValidation", i18n.ErrorBadRequest).
			WithParam("Reason", err.Error()))
	case errors.Is(err, database.ErrConflict):
		i18n.RespondWithError(c, i18n.ErrEmailExists)
	default:
		i18n.RespondWithError(c, i18n.ErrInternalServer)
	}
}
