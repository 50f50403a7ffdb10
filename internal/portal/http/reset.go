package http

import (
	"net/http"

	"github.com/copperfort/deskauth/internal/portal/service"
	"github.com/copperfort/deskauth/pkg/httpx"
	"github.com/copperfort/deskauth/pkg/slogx"
)

// ResetHandler serves the forgot-password flow.
type ResetHandler struct {
	ResetService *service.ResetService
}

// HandleRequest handles POST /v1/auth/password-reset. The reply is uniform
// whether or not the email matches an account.
func (h *ResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed form body")
		return
	}

	email := r.PostFormValue("email")
	if email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	if err := h.ResetService.Request(ctx, email, requestMeta(r)); err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{
		Message: "If the email matches an account, a reset link has been sent",
	})
}

// HandleRedeem handles POST /v1/auth/password-reset/{token}.
func (h *ResetHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token := r.PathValue("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed form body")
		return
	}
	password := r.PostFormValue("password")
	if password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password is required")
		return
	}

	if err := h.ResetService.Redeem(ctx, token, password, requestMeta(r)); err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password updated"})
}
