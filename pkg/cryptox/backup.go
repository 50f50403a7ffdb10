package cryptox

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateBackupCode creates a single MFA backup code: 4 random bytes rendered
// as 8 uppercase hex characters, displayed as XXXX-XXXX.
func GenerateBackupCode() (string, error) {
	raw := make([]byte, 4)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	code := strings.ToUpper(hex.EncodeToString(raw))
	return code[:4] + "-" + code[4:], nil
}

// NormalizeBackupCode canonicalizes user input for backup-code comparison:
// hyphens and surrounding whitespace are stripped and the result is
// uppercased. Fingerprints are always computed over the normalized form.
func NormalizeBackupCode(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, "-", "")
	return strings.ToUpper(code)
}
