package http

import (
	"net/http"

	"github.com/fourthandlong/pickpool/internal/auth/service"
	"github.com/fourthandlong/pickpool/pkg/httpx"
)

// LogoutHandler serves POST /v1/auth/logout. Requires a valid access token.
// With a refresh token in the body only that session ends; with an empty body
// every session the user holds is revoked.
type LogoutHandler struct {
	AuthService *service.AuthService
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		errInvalidToken.WriteError(w)
		return
	}

	var req logoutRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			errInvalidBody.WriteError(w)
			return
		}
	}

	if err := h.AuthService.Logout(r.Context(), userID, req.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
