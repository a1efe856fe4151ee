// Package common defines shared constants and sentinel errors used across
// the gym access system. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrDuplicateToken = errors.New("duplicate token")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Provisioning errors. The workflow surfaces the specific reason,
	// never a collapsed generic failure.
	ErrTokenNotFound     = errors.New("token not found")
	ErrTokenInvalid      = errors.New("token is invalid or expired")
	ErrOwnershipMismatch = errors.New("token does not belong to the specified member")
	ErrMemberNotFound    = errors.New("member not found")
	ErrMemberInactive    = errors.New("member is not active")
	ErrOperationFailed   = errors.New("operation failed")

	// Encrypted payload errors. A payload that fails to decrypt or parse
	// is untrusted input, never enough to authorize.
	ErrNoPayloadKey     = errors.New("payload key not configured")
	ErrMalformedPayload = errors.New("malformed payload")

	// Pass signing errors.
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrSigningFailed        = errors.New("signing failed")

	// Hardware errors. Timeout is retryable by the caller, fault after a delay.
	ErrHardwareTimeout = errors.New("no card presented within timeout")
	ErrHardwareFault   = errors.New("reader fault")

	// Auth errors (invalid or malformed access token).
	ErrInvalidToken = errors.New("invalid token")
)
