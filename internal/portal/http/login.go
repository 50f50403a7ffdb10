package http

import (
	"net/http"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/service"
	"github.com/copperfort/deskauth/pkg/httpx"
	"github.com/copperfort/deskauth/pkg/slogx"
)

// LoginHandler serves the local login state machine: the password step for
// both principal kinds, MFA completion and logout.
type LoginHandler struct {
	LoginService *service.LoginService
	SecureCookie bool
}

// HandleUserLogin handles POST /v1/auth/login. The body is form-encoded so
// the rate limiter can key on the username field.
func (h *LoginHandler) HandleUserLogin(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r, domain.PrincipalUser)
}

// HandleAdminLogin handles POST /v1/auth/admin/login.
func (h *LoginHandler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r, domain.PrincipalAdmin)
}

func (h *LoginHandler) handleLogin(w http.ResponseWriter, r *http.Request, kind string) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed form body")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}
	rememberMe := r.PostFormValue("remember_me") == "true"

	result, err := h.LoginService.Login(ctx, kind, username, password, rememberMe, requestMeta(r))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	h.writeResult(w, result)
}

// HandleVerifyMFA handles POST /v1/auth/mfa/verify, completing a pending
// login for either principal kind.
func (h *LoginHandler) HandleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed form body")
		return
	}

	mfaToken := r.PostFormValue("mfa_token")
	code := r.PostFormValue("code")
	if mfaToken == "" || code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "mfa_token and code are required")
		return
	}

	result, err := h.LoginService.CompleteMFA(ctx, mfaToken, code, requestMeta(r))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	h.writeResult(w, result)
}

// HandleLogout handles POST /v1/auth/logout.
func (h *LoginHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token := sessionTokenFromContext(ctx)
	if err := h.LoginService.Logout(ctx, token, requestMeta(r)); err != nil {
		writeServiceError(w, log, err)
		return
	}

	clearSessionCookie(w, h.SecureCookie)
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

func (h *LoginHandler) writeResult(w http.ResponseWriter, result service.LoginResult) {
	if result.Challenge != nil {
		httpx.WriteJSON(w, http.StatusOK, challengeResponse{
			MFARequired:   result.Challenge.MFARequired,
			MFAToken:      result.Challenge.MFAToken,
			Methods:       result.Challenge.Methods,
			SetupRequired: result.Challenge.SetupRequired,
		})
		return
	}

	setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt, h.SecureCookie)
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		SessionToken: result.Session.Token,
		ExpiresAt:    result.Session.ExpiresAt,
	})
}
