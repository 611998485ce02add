package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/taskgrid/iam/internal/iam/obs"
	"github.com/taskgrid/iam/internal/iam/service"
	"github.com/taskgrid/iam/internal/iam/store"
	"github.com/taskgrid/iam/pkg/httpx"
	"github.com/taskgrid/iam/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	TokenService      *service.TokenService
	AuthService       *service.AuthService
	PermissionService *service.PermissionService
	RoleService       *service.RoleService
	UserService       *service.UserService
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
		obs.Instrument,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPermissions()
	r.registerRoles()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Credential endpoints get the strict limit to slow brute forcing.
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Logout takes the bearer token but deliberately skips AuthnMiddleware:
	// revoking an already-expired token must still succeed.
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerPermissions() {
	h := &PermissionsHandler{PermissionService: r.PermissionService}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("POST /api/permissions/check", secured(h.HandleCheck))
	r.Mux.Handle("POST /api/permissions/check-batch", secured(h.HandleCheckBatch))
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RoleService: r.RoleService}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /api/roles", secured(h.HandleList))
	r.Mux.Handle("GET /api/roles/user/{id}", secured(h.HandleUserRoles))
	r.Mux.Handle("POST /api/roles/assign", secured(h.HandleAssign))
	r.Mux.Handle("POST /api/roles/remove", secured(h.HandleRemove))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		UserService:       r.UserService,
		PermissionService: r.PermissionService,
	}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.TokenService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("POST /api/users", secured(h.HandleInvite))
	r.Mux.Handle("GET /api/users", secured(h.HandleList))
	r.Mux.Handle("GET /api/users/{id}", secured(h.HandleGet))
	r.Mux.Handle("PATCH /api/users/{id}", secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /api/users/{id}", secured(h.HandleDelete))
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
	r.Mux.Handle("GET /metrics", obs.Handler())
}
