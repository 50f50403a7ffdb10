package domain

// MFAEnrollResponse carries the provisioning material for a new TOTP
// enrollment. The secret is shown exactly once.
type MFAEnrollResponse struct {
	Secret  string // Base32 encoded secret for TOTP
	QRCode  string // otpauth:// URL for QR code generation
	Issuer  string // Issuer name shown in the authenticator
	Account string // Account label (the principal's email)
}
