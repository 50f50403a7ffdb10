package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/copperfort/deskauth/internal/portal/service"
	"github.com/copperfort/deskauth/pkg/httpx"
)

// writeServiceError maps a service sentinel to its HTTP representation.
// Unrecognised errors become an opaque 500 so internals never leak.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_credentials", "Invalid username or password")

	case errors.Is(err, service.ErrAccountLocked):
		httpx.WriteError(w, http.StatusLocked,
			"account_locked", "Account temporarily locked after repeated failures")

	case errors.Is(err, service.ErrAccountDeactivated):
		httpx.WriteError(w, http.StatusForbidden,
			"account_deactivated", "Account is deactivated")

	case errors.Is(err, service.ErrCompanyDeactivated):
		httpx.WriteError(w, http.StatusForbidden,
			"company_deactivated", "Organisation is deactivated")

	case errors.Is(err, service.ErrAuthMethodMismatch):
		httpx.WriteError(w, http.StatusConflict,
			"auth_method_mismatch", "Account uses a different sign-in method")

	case errors.Is(err, service.ErrDomainNotAuthorized):
		httpx.WriteError(w, http.StatusForbidden,
			"domain_not_authorized", "Email domain is not registered with any organisation")

	case errors.Is(err, service.ErrLocalAuthNotAllowed):
		httpx.WriteError(w, http.StatusForbidden,
			"local_auth_not_allowed", "Organisation requires single sign-on")

	case errors.Is(err, service.ErrInvalidMFACode):
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_code", "Invalid verification code")

	case errors.Is(err, service.ErrMFAAttemptsExceeded):
		httpx.WriteError(w, http.StatusUnauthorized,
			"mfa_attempts_exceeded", "Too many failed codes; start the login again")

	case errors.Is(err, service.ErrMFASetupRequired):
		httpx.WriteError(w, http.StatusForbidden,
			"mfa_setup_required", "MFA enrollment is required before continuing")

	case errors.Is(err, service.ErrMFANotEnabled):
		httpx.WriteError(w, http.StatusBadRequest,
			"mfa_not_enabled", "MFA is not enabled for this account")

	case errors.Is(err, service.ErrMFAAlreadyEnabled):
		httpx.WriteError(w, http.StatusBadRequest,
			"mfa_already_enabled", "MFA is already enabled for this account")

	case errors.Is(err, service.ErrInvalidToken):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_token", "Invalid or expired token")

	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_token", "Invalid or expired reset token")

	case errors.Is(err, service.ErrPasswordTooWeak):
		httpx.WriteError(w, http.StatusBadRequest,
			"password_too_weak", err.Error())

	case errors.Is(err, service.ErrPasswordReused):
		httpx.WriteError(w, http.StatusBadRequest,
			"password_reused", "New password must differ from recently used passwords")

	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		httpx.WriteError(w, http.StatusConflict,
			"email_already_registered", "An account with this email already exists")

	case errors.Is(err, service.ErrProviderError):
		log.Error("identity provider error", "error", err)
		httpx.WriteError(w, http.StatusBadGateway,
			"provider_error", "The identity provider could not complete the sign-in")

	default:
		log.Error("unhandled service error", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "An internal error occurred")
	}
}
