package http

import (
	"encoding/json"
	"net/http"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/service"
	"github.com/copperfort/deskauth/pkg/httpx"
	"github.com/copperfort/deskauth/pkg/slogx"
)

// MFAHandler serves TOTP enrollment, backup code management and the admin
// first-login setup flow.
type MFAHandler struct {
	MFAService *service.MFAService
	Directory  *service.Directory
}

// principal resolves the session principal with a fresh credential read.
func (h *MFAHandler) principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Missing session")
		return nil, false
	}

	principal, err := h.Directory.ResolveRef(r.Context(), sess.PrincipalKind, sess.PrincipalID)
	if err != nil {
		slogx.FromContext(r.Context()).Warn("session principal no longer resolvable", "error", err)
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "Invalid session")
		return nil, false
	}
	return principal, true
}

// HandleEnroll handles POST /v1/auth/mfa/setup, provisioning a TOTP secret
// for the authenticated principal. MFA is not enabled until verification.
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	enroll, err := h.MFAService.EnrollTOTP(ctx, principal)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, enrollResponse{
		Secret:  enroll.Secret,
		QRCode:  enroll.QRCode,
		Issuer:  enroll.Issuer,
		Account: enroll.Account,
	})
}

// HandleActivate handles POST /v1/auth/mfa/setup/verify, enabling MFA and
// returning the one-time backup codes.
func (h *MFAHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	req, ok := decodeCode(w, r)
	if !ok {
		return
	}

	codes, err := h.MFAService.ActivateTOTP(ctx, principal, req.Code, requestMeta(r))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, backupCodesResponse{Codes: codes})
}

// HandleRegenerateBackupCodes handles POST /v1/auth/mfa/backup-codes.
func (h *MFAHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	req, ok := decodeCode(w, r)
	if !ok {
		return
	}

	codes, err := h.MFAService.RegenerateBackupCodes(ctx, principal, req.Code, requestMeta(r))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, backupCodesResponse{Codes: codes})
}

// HandleDisable handles DELETE /v1/auth/mfa.
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	req, ok := decodeCode(w, r)
	if !ok {
		return
	}

	if err := h.MFAService.Disable(ctx, principal, req.Code, requestMeta(r)); err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "MFA disabled"})
}

// HandleAdminSetupBegin handles GET /v1/auth/admin/mfa/setup. The pending
// handle from the admin's first login authorizes the enrollment.
func (h *MFAHandler) HandleAdminSetupBegin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	mfaToken := r.URL.Query().Get("mfa_token")
	if mfaToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "mfa_token is required")
		return
	}

	enroll, err := h.MFAService.BeginPendingSetup(ctx, mfaToken)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, enrollResponse{
		Secret:  enroll.Secret,
		QRCode:  enroll.QRCode,
		Issuer:  enroll.Issuer,
		Account: enroll.Account,
	})
}

// HandleAdminSetupComplete handles POST /v1/auth/admin/mfa/setup, verifying
// the first code and emitting backup codes. The login itself still finishes
// through POST /v1/auth/mfa/verify with the same handle.
func (h *MFAHandler) HandleAdminSetupComplete(w http.ResponseWriter, r *http.Request) {
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

	codes, err := h.MFAService.CompletePendingSetup(ctx, mfaToken, code, requestMeta(r))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, backupCodesResponse{Codes: codes})
}

func decodeCode(w http.ResponseWriter, r *http.Request) (codeRequest, bool) {
	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return codeRequest{}, false
	}
	if req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return codeRequest{}, false
	}
	return req, true
}
