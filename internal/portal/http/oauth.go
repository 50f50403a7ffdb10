package http

import (
	"net/http"
	"strings"

	"github.com/copperfort/deskauth/internal/portal/service"
	"github.com/copperfort/deskauth/pkg/httpx"
	"github.com/copperfort/deskauth/pkg/slogx"
)

// OAuthHandler serves the IdP redirect and callback endpoints.
type OAuthHandler struct {
	OAuthService *service.OAuthService
	SecureCookie bool
}

// HandleBegin handles GET /v1/auth/oauth/{provider}, redirecting the browser
// to the IdP with a signed state parameter.
func (h *OAuthHandler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	provider := r.PathValue("provider")
	nextURL := r.URL.Query().Get("next")

	authURL, err := h.OAuthService.Begin(ctx, provider, nextURL)
	if err != nil {
		log.Warn("oauth begin failed", "provider", provider, "error", err)
		httpx.WriteError(w, http.StatusNotFound,
			"unknown_provider", "Unknown identity provider")
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback handles GET /v1/auth/oauth/{provider}/callback.
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	provider := r.PathValue("provider")
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		log.Warn("idp returned error", "provider", provider, "error", errCode)
		httpx.WriteError(w, http.StatusBadGateway,
			"provider_error", "The identity provider rejected the sign-in")
		return
	}

	state := query.Get("state")
	code := query.Get("code")
	if state == "" || code == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_request", "state and code are required")
		return
	}

	result, nextURL, err := h.OAuthService.Callback(ctx, provider, state, code, requestMeta(r))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt, h.SecureCookie)

	if safeNextURL(nextURL) {
		http.Redirect(w, r, nextURL, http.StatusFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		SessionToken: result.Session.Token,
		ExpiresAt:    result.Session.ExpiresAt,
	})
}

// safeNextURL accepts only site-relative redirect targets, rejecting
// protocol-relative and absolute URLs.
func safeNextURL(next string) bool {
	return len(next) > 0 && next[0] == '/' && !strings.HasPrefix(next, "//")
}
