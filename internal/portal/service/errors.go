package service

import "errors"

// Sentinel errors returned by the authentication services. Handlers map
// these onto HTTP status codes; everything else is a 500.
var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountLocked          = errors.New("account is locked")
	ErrAccountDeactivated     = errors.New("account is deactivated")
	ErrCompanyDeactivated     = errors.New("company is deactivated")
	ErrAuthMethodMismatch     = errors.New("account uses a different sign-in method")
	ErrDomainNotAuthorized    = errors.New("email domain is not authorized")
	ErrLocalAuthNotAllowed    = errors.New("local sign-in is not enabled for this company")
	ErrInvalidMFACode         = errors.New("invalid MFA code")
	ErrMFANotEnabled          = errors.New("MFA not enabled")
	ErrMFAAlreadyEnabled      = errors.New("MFA already enabled")
	ErrMFAAttemptsExceeded    = errors.New("too many MFA attempts")
	ErrMFASetupRequired       = errors.New("MFA setup required")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrInvalidOrExpiredToken  = errors.New("invalid or expired reset token")
	ErrPasswordReused         = errors.New("password was used recently")
	ErrPasswordTooWeak        = errors.New("password does not meet requirements")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrProviderError          = errors.New("identity provider error")
)
