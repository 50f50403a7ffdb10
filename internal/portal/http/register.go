package http

import (
	"net/http"

	"github.com/copperfort/deskauth/internal/portal/service"
	"github.com/copperfort/deskauth/pkg/httpx"
	"github.com/copperfort/deskauth/pkg/slogx"
)

// RegisterHandler serves local self-registration.
type RegisterHandler struct {
	RegisterService *service.RegistrationService
}

// HandleRegister handles POST /v1/auth/register.
func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed form body")
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}
	name := r.PostFormValue("name")

	user, err := h.RegisterService.Register(ctx, email, name, password, requestMeta(r))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, userResponse{
		ID:        user.ID,
		CompanyID: user.CompanyID,
		Email:     user.Email,
		Name:      user.Name,
	})
}
