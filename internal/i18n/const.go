package i18n

// Predefined errors shared across handlers and services.
var (
	// Auth and user errors
	ErrInvalidCredentials = NewErrorWithCode("ErrorInvalidCredentials", ErrorUnauthorized)
	ErrUnauthorized       = NewErrorWithCode("ErrorUnauthorized", ErrorUnauthorized)
	ErrTokenInvalid       = NewErrorWithCode("ErrorTokenInvalid", ErrorUnauthorized)
	ErrForbidden          = NewErrorWithCode("ErrorForbidden", ErrorForbidden)
	ErrUserNotFound       = NewErrorWithCode("ErrorUserNotFound", ErrorNotFound)
	ErrUserDisabled       = NewErrorWithCode("ErrorUserDisabled", ErrorForbidden)
	ErrEmailExists        = NewErrorWithCode("ErrorEmailExists", ErrorConflict)
	ErrInvalidRole        = NewErrorWithCode("ErrorInvalidRole", ErrorBadRequest)
	ErrSelfRoleChange     = NewErrorWithCode("ErrorSelfRoleChange", ErrorBadRequest)
	ErrSelfDeactivate     = NewErrorWithCode("ErrorSelfDeactivate", ErrorBadRequest)
	ErrSelfDelete         = NewErrorWithCode("ErrorSelfDelete", ErrorBadRequest)

	// Project errors
	ErrProjectNotFound     = NewErrorWithCode("ErrorProjectNotFound", ErrorNotFound)
	ErrProjectClosed       = NewErrorWithCode("ErrorProjectClosed", ErrorUnprocessable)
	ErrProjectAccessDenied = NewErrorWithCode("ErrorProjectAccessDenied", ErrorForbidden)
	ErrProjectOwnerNotPM   = NewErrorWithCode("ErrorProjectOwnerNotPM", ErrorBadRequest)

	// Report errors
	ErrReportNotFound     = NewErrorWithCode("ErrorReportNotFound", ErrorNotFound)
	ErrReportAccessDenied = NewErrorWithCode("ErrorReportAccessDenied", ErrorForbidden)
	ErrReportValidation   = NewErrorWithCode("ErrorReportValidation", ErrorBadRequest)
	ErrInvalidRag         = NewErrorWithCode("ErrorInvalidRag", ErrorBadRequest)
	ErrInvalidWeek        = NewErrorWithCode("ErrorInvalidWeek", ErrorBadRequest)

	// Digest and email errors
	ErrNoExecRecipients    = NewErrorWithCode("ErrorNoExecRecipients", ErrorUnprocessable)
	ErrMailerNotConfigured = NewErrorWithCode("ErrorMailerNotConfigured", ErrorServiceUnavailable)

	// Generic errors
	ErrBadRequest     = NewErrorWithCode("ErrorBadRequest", ErrorBadRequest)
	ErrInternalServer = NewErrorWithCode("ErrorInternalServer", ErrorInternalServer)
)

// Success message IDs used with RespondWithSuccess.
const (
	SuccessLogin           = "SuccessLogin"
	SuccessPasswordChanged = "SuccessPasswordChanged"

	SuccessUserCreated = "SuccessUserCreated"
	SuccessUserUpdated = "SuccessUserUpdated"
	SuccessUserDeleted = "SuccessUserDeleted"

	SuccessProjectCreated  = "SuccessProjectCreated"
	SuccessProjectUpdated  = "SuccessProjectUpdated"
	SuccessProjectDeleted  = "SuccessProjectDeleted"
	SuccessProjectClosed   = "SuccessProjectClosed"
	SuccessProjectReopened = "SuccessProjectReopened"

	SuccessReportSubmitted = "SuccessReportSubmitted"

	SuccessDashboardSent = "SuccessDashboardSent"
	SuccessRemindersSent = "SuccessRemindersSent"
)
