package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fourthandlong/pickpool/internal/auth/service"
	"github.com/fourthandlong/pickpool/pkg/httpx"
	"github.com/fourthandlong/pickpool/pkg/slogx"
)

// Wire errors for the auth endpoints. Messages are deliberately generic where
// specificity would let a caller probe which accounts exist.
var (
	errInvalidBody = httpx.NewError(http.StatusBadRequest,
		"invalid_request", "request body could not be parsed")

	errInvalidCredentials = httpx.NewError(http.StatusUnauthorized,
		"invalid_credentials", "invalid username or password")

	errAccountPending = httpx.NewError(http.StatusForbidden,
		"pending_approval", "account has not been approved yet")

	errAccountSuspended = httpx.NewError(http.StatusForbidden,
		"account_suspended", "account has been suspended")

	errDuplicateUser = httpx.NewError(http.StatusConflict,
		"duplicate_user", "username or email already exists")

	errInvalidToken = httpx.NewError(http.StatusUnauthorized,
		"invalid_token", "token is invalid or expired")

	errInvalidRefresh = httpx.NewError(http.StatusUnauthorized,
		"invalid_refresh_token", "refresh token is invalid or has been revoked")

	errResetTokenInvalid = httpx.NewError(http.StatusBadRequest,
		"invalid_reset_token", "reset token is invalid or already used")

	errResetTokenExpired = httpx.NewError(http.StatusBadRequest,
		"reset_token_expired", "reset token has expired")

	errServer = httpx.NewError(http.StatusInternalServerError,
		"server_error", "an internal error occurred")
)

// writeServiceError maps service layer errors onto the wire taxonomy. Unknown
// errors are logged and reported as a bare server_error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		httpx.NewError(http.StatusBadRequest,
			"validation_failed", strings.Join(verr.Violations, "; "),
		).WriteError(w)
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		errInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrAccountPending):
		errAccountPending.WriteError(w)
	case errors.Is(err, service.ErrAccountSuspended):
		errAccountSuspended.WriteError(w)
	case errors.Is(err, service.ErrDuplicateUser):
		errDuplicateUser.WriteError(w)
	case errors.Is(err, service.ErrInvalidToken):
		errInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidRefresh):
		errInvalidRefresh.WriteError(w)
	case errors.Is(err, service.ErrResetTokenInvalid):
		errResetTokenInvalid.WriteError(w)
	case errors.Is(err, service.ErrResetTokenExpired):
		errResetTokenExpired.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("unhandled service error",
			"error", err, "path", r.URL.Path)
		errServer.WriteError(w)
	}
}
