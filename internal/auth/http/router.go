package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fourthandlong/pickpool/internal/auth/service"
	"github.com/fourthandlong/pickpool/internal/auth/store"
	"github.com/fourthandlong/pickpool/pkg/httpx"
	"github.com/fourthandlong/pickpool/pkg/jwtx"
	"github.com/fourthandlong/pickpool/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	AuthService  *service.AuthService
	TokenService *service.TokenService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPasswordReset()
	r.registerSystem()
}

func (r *Router) registerAuth() {
	// POST /register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(&RegisterHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh - moderate rate limit, refreshing is routine
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{TokenService: r.TokenService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout - requires a valid access token
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{AuthService: r.AuthService},
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerPasswordReset() {
	// POST /password-reset - strict limit; each request may send mail
	r.Mux.Handle("POST /v1/auth/password-reset",
		httpx.Chain(&ResetRequestHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /password-reset/confirm - moderate limit; token guessing is
	// already bounded by the 256-bit token space
	r.Mux.Handle("POST /v1/auth/password-reset/confirm",
		httpx.Chain(&ResetConfirmHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
