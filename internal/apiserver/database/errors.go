package database

import "errors"

// Typed errors returned by the store. Handlers map these onto HTTP codes
// through the i18n layer.
var (
	// ErrNotFound means the referenced user, project or report does not exist
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied means the caller's role or ownership does not permit
	// the requested project or action
	ErrAccessDenied = errors.New("access denied")

	// ErrValidation means the input is structurally invalid
	ErrValidation = errors.New("validation failed")

	// ErrConflict means a uniqueness constraint was violated
	ErrConflict = errors.New("conflict")
)
