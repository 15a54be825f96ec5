package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/fourthandlong/pickpool/pkg/jwtx"
	"github.com/fourthandlong/pickpool/pkg/slogx"
)

// AuthnMiddleware verifies the bearer access token and injects the caller's
// identity into the request context. Refresh tokens are rejected here even
// though they carry a valid signature.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				writeBearerError(w, "token verification failed")
				log.Warn("jwt verify failed", "err", err)
				return
			}

			if claims.TokenUse != jwtx.TokenUseAccess {
				writeBearerError(w, "token verification failed")
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = contextWithAuth(ctx, userID, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithAuth(ctx context.Context, userID int64, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, userID)
	ctx = context.WithValue(ctx, CtxKeyRole, c.Role)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
