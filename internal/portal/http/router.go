// Package http exposes the authentication service over HTTP. Routes use the
// net/http method-pattern mux; each route carries its own rate limit profile.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/copperfort/deskauth/internal/portal/service"
	"github.com/copperfort/deskauth/internal/portal/session"
	"github.com/copperfort/deskauth/internal/portal/store"
	"github.com/copperfort/deskauth/pkg/httpx"
	"github.com/copperfort/deskauth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	secureCookie bool

	store    store.Store
	sessions session.Store

	Sessions        *service.SessionManager
	Directory       *service.Directory
	LoginService    *service.LoginService
	MFAService      *service.MFAService
	OAuthService    *service.OAuthService
	ResetService    *service.ResetService
	RegisterService *service.RegistrationService
}

func NewRouter(
	buildVersion string,
	secureCookie bool,
	st store.Store,
	sessions session.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		secureCookie: secureCookie,
		store:        st,
		sessions:     sessions,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerRegister()
	r.registerOAuth()
	r.registerMFA()
	r.registerReset()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{
		LoginService: r.LoginService,
		SecureCookie: r.secureCookie,
	}

	// Password steps are rate limited by IP + username so one address cannot
	// spray attempts across many accounts unchecked.
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleUserLogin),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)
	r.Mux.Handle("POST /v1/auth/admin/login",
		httpx.Chain(http.HandlerFunc(h.HandleAdminLogin),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	// MFA verification is strict per IP; the pending handle carries its own
	// attempt counter on top.
	r.Mux.Handle("POST /v1/auth/mfa/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyMFA),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			RequireSession(r.Sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerRegister() {
	h := &RegisterHandler{RegisterService: r.RegisterService}

	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerOAuth() {
	h := &OAuthHandler{
		OAuthService: r.OAuthService,
		SecureCookie: r.secureCookie,
	}

	r.Mux.Handle("GET /v1/auth/oauth/{provider}",
		httpx.Chain(http.HandlerFunc(h.HandleBegin),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/auth/oauth/{provider}/callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{
		MFAService: r.MFAService,
		Directory:  r.Directory,
	}

	// Authenticated enrollment and management.
	r.Mux.Handle("POST /v1/auth/mfa/setup",
		httpx.Chain(http.HandlerFunc(h.HandleEnroll),
			RequireSession(r.Sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/mfa/setup/verify",
		httpx.Chain(http.HandlerFunc(h.HandleActivate),
			RequireSession(r.Sessions),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/mfa/backup-codes",
		httpx.Chain(http.HandlerFunc(h.HandleRegenerateBackupCodes),
			RequireSession(r.Sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/auth/mfa",
		httpx.Chain(http.HandlerFunc(h.HandleDisable),
			RequireSession(r.Sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// First-login setup for admins, authorized by the pending handle.
	r.Mux.Handle("GET /v1/auth/admin/mfa/setup",
		httpx.Chain(http.HandlerFunc(h.HandleAdminSetupBegin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/admin/mfa/setup",
		httpx.Chain(http.HandlerFunc(h.HandleAdminSetupComplete),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerReset() {
	h := &ResetHandler{ResetService: r.ResetService}

	r.Mux.Handle("POST /v1/auth/password-reset",
		httpx.Chain(http.HandlerFunc(h.HandleRequest),
			httpx.RateLimitByIPAndFormField(httpx.ResetLimit, "email"),
		),
	)
	r.Mux.Handle("POST /v1/auth/password-reset/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleRedeem),
			httpx.RateLimitByIP(httpx.StrictLimit),
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
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.sessions),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
