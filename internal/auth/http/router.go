// Package http wires the service's HTTP surface: the account endpoints,
// the demo resources guarded by role and authority checks, and the
// health probes.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eledevo/authledger/internal/auth/domain"
	"github.com/eledevo/authledger/internal/auth/service"
	"github.com/eledevo/authledger/internal/auth/store"
	"github.com/eledevo/authledger/pkg/httpx"
	"github.com/eledevo/authledger/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store         store.Store
	AuthService   *service.AuthService
	Authenticator *service.Authenticator
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	// Identity resolution runs on every request, after logging. Requests
	// that fail it proceed anonymously; the authorization gates decide
	// what anonymity is worth.
	r.middlewares = append(r.middlewares, AuthnMiddleware(r.Authenticator))

	r.registerAuth()
	r.registerDemo()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware
// chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Service: r.AuthService}

	// Credential endpoints get the strict profile to slow brute force.
	r.Mux.Handle("POST /api/v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /api/v1/auth/authenticate",
		httpx.Chain(http.HandlerFunc(h.HandleAuthenticate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /api/v1/auth/refresh-token",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /api/v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
}

func (r *Router) registerDemo() {
	r.Mux.Handle("GET /api/v1/hello/world",
		httpx.Chain(http.HandlerFunc(HandleHelloWorld),
			httpx.RateLimitByUser(httpx.LenientLimit),
			httpx.RequireAnyRole(string(domain.RoleAdmin), string(domain.RoleManager)),
		))

	r.Mux.Handle("GET /api/access/free",
		httpx.Chain(http.HandlerFunc(HandleAccessFree),
			httpx.RateLimitByIP(httpx.PublicLimit),
		))
	r.Mux.Handle("GET /api/access/admin",
		httpx.Chain(http.HandlerFunc(HandleAccessAdmin),
			httpx.RateLimitByUser(httpx.LenientLimit),
			httpx.RequireAnyAuthority(domain.AuthorityAdminRead),
		))
	r.Mux.Handle("GET /api/access/manager",
		httpx.Chain(http.HandlerFunc(HandleAccessManager),
			httpx.RateLimitByUser(httpx.LenientLimit),
			httpx.RequireAnyAuthority(domain.AuthorityManagementRead),
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		))
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		))
}
