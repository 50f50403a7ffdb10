// Package oauth holds the identity-provider collaborators: the Provider
// port each IdP client implements, a registry keyed by provider name, and
// the signed state token carried through the authorization redirect.
package oauth

import (
	"context"
	"fmt"
)

// Profile is the verified identity a provider returns after the code
// exchange. ID is the provider-scoped subject, stable across logins.
type Profile struct {
	ID            string
	Email         string
	Name          string
	EmailVerified *bool // nil when the provider does not report it
}

// Provider is one configured IdP client.
type Provider interface {
	// Name returns the registry key ("google", "microsoft").
	Name() string

	// AuthURL builds the authorization redirect carrying the signed state.
	AuthURL(ctx context.Context, state string) (string, error)

	// FetchProfile exchanges the callback code and returns the verified
	// profile.
	FetchProfile(ctx context.Context, code string) (*Profile, error)
}

// Registry maps provider names to configured clients.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the provider for name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("oauth: unknown provider %q", name)
	}
	return p, nil
}

// Names lists the configured provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
