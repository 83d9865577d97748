// Package common defines shared constants and sentinel errors used across
// the sync server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Version ledger errors.
	ErrorForbidden      = errors.New("version closed or owned by another device")
	ErrorNumberConflict = errors.New("version number already claimed")

	// Collection errors.
	ErrorConflict   = errors.New("already exists")
	ErrorBadRequest = errors.New("bad request")

	// Registration errors (legacy wire codes depend on which one fired).
	ErrorLoginExists = errors.New("login already exists")
	ErrorEmailExists = errors.New("email already registered")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
