package domain

import "errors"

// Error taxonomy shared by every layer. Concrete errors wrap one of these
// so transports can map them with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	// ErrStaleVersion is a conflict raised by a conditional update whose expected
	// version no longer matches the stored row.
	ErrStaleVersion = errors.New("resource was modified concurrently")
)
