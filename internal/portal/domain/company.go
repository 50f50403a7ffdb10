package domain

import (
	"strings"
	"time"
)

// Company is a tenant organisation. Domains drive both OAuth account
// resolution and local registration routing.
type Company struct {
	ID             string
	Name           string
	Domains        string // comma-separated email domains, matched case-insensitively
	ContactInfo    string // JSON blob, free-form contact details
	Active         bool
	AllowLocalAuth bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DomainList returns the normalized (lowercase, trimmed) email domains.
func (c *Company) DomainList() []string {
	if c.Domains == "" {
		return nil
	}

	parts := strings.Split(c.Domains, ",")
	domains := make([]string, 0, len(parts))
	for _, p := range parts {
		if d := strings.ToLower(strings.TrimSpace(p)); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

// MatchesDomain reports whether the given email domain belongs to this
// company.
func (c *Company) MatchesDomain(emailDomain string) bool {
	emailDomain = strings.ToLower(strings.TrimSpace(emailDomain))
	for _, d := range c.DomainList() {
		if d == emailDomain {
			return true
		}
	}
	return false
}

// EmailDomain extracts the domain part of an email address, lowercased.
// Returns "" when the address has no domain part.
func EmailDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		return ""
	}
	return strings.ToLower(domain)
}
