// Package common defines shared constants and sentinel errors used across
// the portal server, its transports and the admin CLI. Callers should use
// errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Login rejections. Every variant matches ErrAuthenticationFailure so
	// transports can answer with one generic message.
	ErrAuthenticationFailure = errors.New("authentication failure")
	ErrBadCredentials        = fmt.Errorf("%w: bad credentials", ErrAuthenticationFailure)
	ErrAccountBlocked        = fmt.Errorf("%w: account blocked", ErrAuthenticationFailure)
	ErrRateLimited           = fmt.Errorf("%w: too many attempts", ErrAuthenticationFailure)

	// ErrMaintenance is the one login rejection callers may show verbatim.
	ErrMaintenance = errors.New("maintenance in progress")

	// Token parsing errors (signature, format, expiry).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionInvalid means the presented token must be discarded.
	ErrSessionInvalid = errors.New("session invalid")

	ErrForbidden = errors.New("forbidden")

	// Validation errors.
	ErrValidation           = errors.New("validation error")
	ErrPasswordTooShort     = fmt.Errorf("%w: password too short", ErrValidation)
	ErrPasswordTooLong      = fmt.Errorf("%w: password too long", ErrValidation)
	ErrWrongCurrentPassword = fmt.Errorf("%w: current password is wrong", ErrValidation)
	ErrSelfDemotion         = fmt.Errorf("%w: cannot demote yourself", ErrValidation)
	ErrInvalidRole          = fmt.Errorf("%w: invalid role", ErrValidation)
	ErrInvalidEmail         = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrResetTokenInvalid    = fmt.Errorf("%w: reset token invalid or expired", ErrValidation)
	ErrNoticeEmpty          = fmt.Errorf("%w: notice text is empty", ErrValidation)
	ErrNoticeTooLong        = fmt.Errorf("%w: notice text is too long", ErrValidation)
)

// MaintenanceError rejects a login while maintenance is active and carries
// the operator message. It matches ErrMaintenance.
type MaintenanceError struct {
	Message string
}

func (e *MaintenanceError) Error() string {
	if e.Message == "" {
		return ErrMaintenance.Error()
	}
	return ErrMaintenance.Error() + ": " + e.Message
}

func (e *MaintenanceError) Unwrap() error { return ErrMaintenance }
