package service

import (
	"fmt"
	"unicode"
)

// PasswordPolicy is the rule set applied to every new password.
type PasswordPolicy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPasswordPolicy matches the portal's baseline: long passphrases
// with mixed classes.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:    12,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
	}
}

// Validate reports whether the candidate satisfies the policy.
func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, p.MinLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if p.RequireUpper && !hasUpper {
		return fmt.Errorf("%w: must contain an uppercase letter", ErrPasswordTooWeak)
	}
	if p.RequireLower && !hasLower {
		return fmt.Errorf("%w: must contain a lowercase letter", ErrPasswordTooWeak)
	}
	if p.RequireDigit && !hasDigit {
		return fmt.Errorf("%w: must contain a digit", ErrPasswordTooWeak)
	}
	if p.RequireSpecial && !hasSpecial {
		return fmt.Errorf("%w: must contain a special character", ErrPasswordTooWeak)
	}
	return nil
}
