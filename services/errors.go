package services

import "errors"

// Typed failure taxonomy. Every service operation reports failures as one
// of these sentinels (wrapped with context via fmt.Errorf and %w) so the
// HTTP layer can map them to distinct status codes: callers must be able
// to tell "nothing to substitute with" (empty list, success) from "cannot
// even evaluate" (ErrNotFound / ErrInvalidInput).
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
