package http

import (
	"net/http"

	"github.com/fourthandlong/pickpool/internal/auth/domain"
	"github.com/fourthandlong/pickpool/internal/auth/service"
	"github.com/fourthandlong/pickpool/pkg/httpx"
)

// LoginHandler serves POST /v1/auth/login. The identifier may be either the
// username or the email address.
type LoginHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	TokenResponse

	User domain.PublicUser `json:"user"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errInvalidBody.WriteError(w)
		return
	}

	pair, user, err := h.AuthService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		TokenResponse: tokenResponse(pair),
		User:          user,
	})
}
