package service

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials covers both unknown identifiers and wrong
	// passwords so callers cannot probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrAccountPending means the account exists but has not been approved.
	ErrAccountPending = errors.New("pending_approval")

	// ErrAccountSuspended means an admin has suspended the account.
	ErrAccountSuspended = errors.New("account_suspended")

	// ErrDuplicateUser means the username or email is already taken. The
	// HTTP layer reports it without saying which field collided.
	ErrDuplicateUser = errors.New("duplicate_user")

	// ErrInvalidToken means a JWT failed signature, expiry, or claim checks.
	ErrInvalidToken = errors.New("invalid_token")

	// ErrInvalidRefresh means a structurally valid refresh token has no
	// live row backing it, i.e. it was revoked or never issued.
	ErrInvalidRefresh = errors.New("invalid_refresh_token")

	// ErrResetTokenInvalid means the reset token is unknown or already used.
	ErrResetTokenInvalid = errors.New("invalid_reset_token")

	// ErrResetTokenExpired means the reset token exists but is past its TTL.
	ErrResetTokenExpired = errors.New("reset_token_expired")
)

// ValidationError collects every rule a registration or password input broke,
// so the caller can show them all at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}
