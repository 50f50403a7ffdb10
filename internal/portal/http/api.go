package http

import "time"

// sessionResponse is returned when a login finalizes. The same token is also
// set as the session cookie for browser clients.
type sessionResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// challengeResponse is returned when a login parks in the pending-MFA state.
type challengeResponse struct {
	MFARequired   bool     `json:"mfa_required"`
	MFAToken      string   `json:"mfa_token"`
	Methods       []string `json:"methods"`
	SetupRequired bool     `json:"setup_required,omitempty"`
}

// enrollResponse carries the provisioned TOTP secret and otpauth URI.
type enrollResponse struct {
	Secret  string `json:"secret"`
	QRCode  string `json:"qr_code"`
	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}

// backupCodesResponse carries freshly generated codes, shown exactly once.
type backupCodesResponse struct {
	Codes []string `json:"backup_codes"`
}

// userResponse is the public shape of a created account.
type userResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
}

// messageResponse is a generic acknowledgement body.
type messageResponse struct {
	Message string `json:"message"`
}

// healthResponse is the body for /livez and /readyz.
type healthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *healthChecks `json:"checks,omitempty"`
}

type healthChecks struct {
	Database string `json:"database"`
	Sessions string `json:"sessions"`
}

// codeRequest is the JSON body for the authenticated MFA operations.
type codeRequest struct {
	Code string `json:"code"`
}
