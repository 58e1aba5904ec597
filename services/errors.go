package services

import "errors"

// Service error kinds. Handlers map these to HTTP statuses; storage.ErrNotFound
// passes through unchanged. No write is retried here; callers inspect the
// kind and decide.
var (
	ErrValidation             = errors.New("validation error")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrMonthLocked            = errors.New("month locked")
)
