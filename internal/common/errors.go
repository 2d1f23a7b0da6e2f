// Package common defines shared constants and sentinel errors used across
// the server and the admin client. Callers should use errors.Is / errors.As
// to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidIdentifier = errors.New("invalid sql identifier")
	ErrInvalidListing    = errors.New("invalid listing")

	// ErrPhotoStorageDisabled is returned when no bucket is configured.
	ErrPhotoStorageDisabled = errors.New("photo storage is not configured")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Token lifecycle errors.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// StoreError reports a connectivity or query failure of the reference mirror.
// It is always propagated to the immediate caller, which decides whether to
// degrade to the reference service or surface it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("mirror store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err unless it is nil or already a not-found marker.
func NewStoreError(op string, err error) error {
	if err == nil || errors.Is(err, ErrorNotFound) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
