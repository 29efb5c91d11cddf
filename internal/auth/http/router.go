package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/inkwell/inkwell/internal/auth/service"
	"github.com/inkwell/inkwell/internal/auth/store"
	"github.com/inkwell/inkwell/pkg/httpx"
	"github.com/inkwell/inkwell/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	Credentials *service.CredentialService
	Sessions    *service.SessionService
	Authority   *service.AuthorityService

	// Super-admin basic auth credentials. Empty password keeps the admin
	// routes closed.
	AdminLogin    string
	AdminPassword string
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
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

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerDevices()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	registration := &RegistrationHandler{Credentials: r.Credentials}

	// Public account endpoints are the brute-force surface, so everything
	// here is rate limited strictly by IP.
	r.Mux.Handle("POST /v1/auth/registration",
		httpx.Chain(http.HandlerFunc(registration.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/registration-confirmation",
		httpx.Chain(http.HandlerFunc(registration.HandleConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/registration-email-resending",
		httpx.Chain(http.HandlerFunc(registration.HandleResend),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	recovery := &RecoveryHandler{Credentials: r.Credentials}
	r.Mux.Handle("POST /v1/auth/password-recovery",
		httpx.Chain(http.HandlerFunc(recovery.HandleRequest),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/new-password",
		httpx.Chain(http.HandlerFunc(recovery.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	session := &SessionHandler{Credentials: r.Credentials, Sessions: r.Sessions, Authority: r.Authority}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(session.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/refresh-token",
		httpx.Chain(http.HandlerFunc(session.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(session.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	me := &MeHandler{Credentials: r.Credentials}
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(me,
			AccessGateMiddleware(r.Authority),
			RequireUser(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerDevices() {
	h := &DevicesHandler{Sessions: r.Sessions}

	// Device management authenticates with the refresh cookie, not the
	// bearer token; a device list request proves a live session.
	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			SessionGateMiddleware(r.Authority),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/security/devices", secured(h.HandleList))
	r.Mux.Handle("DELETE /v1/security/devices", secured(h.HandleTerminateOthers))
	r.Mux.Handle("DELETE /v1/security/devices/{deviceId}", secured(h.HandleTerminateByID))
}

func (r *Router) registerAdmin() {
	h := &BanHandler{Credentials: r.Credentials}

	r.Mux.Handle("PUT /v1/sa/users/{userId}/ban",
		httpx.Chain(h,
			BasicAdminAuth(r.AdminLogin, r.AdminPassword),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - monitoring systems may poll frequently
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
