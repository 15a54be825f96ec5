package http

import (
	"net/http"

	"github.com/fourthandlong/pickpool/internal/auth/service"
	"github.com/fourthandlong/pickpool/pkg/httpx"
)

// ResetRequestHandler serves POST /v1/auth/password-reset. The response is
// identical whether or not the identifier matches an account.
type ResetRequestHandler struct {
	AuthService *service.AuthService
}

type resetRequestRequest struct {
	Identifier string `json:"identifier"`
}

func (h *ResetRequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req resetRequestRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Identifier == "" {
		errInvalidBody.WriteError(w)
		return
	}

	if err := h.AuthService.RequestPasswordReset(r.Context(), req.Identifier); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "if the account exists, a reset mail has been sent",
	})
}

// ResetConfirmHandler serves POST /v1/auth/password-reset/confirm.
type ResetConfirmHandler struct {
	AuthService *service.AuthService
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *ResetConfirmHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Token == "" {
		errInvalidBody.WriteError(w)
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "password has been reset",
	})
}
