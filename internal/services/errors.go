// internal/services/errors.go
package services

import "errors"

// Sentinel errors shared by the services. Callers wrap them with context and
// handlers map them to status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidInput = errors.New("invalid input")
)
