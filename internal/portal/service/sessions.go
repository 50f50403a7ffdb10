package service

import (
	"context"
	"fmt"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/session"
	"github.com/copperfort/deskauth/pkg/cryptox"
)

// SessionGrant is a freshly issued session handle for the cookie.
type SessionGrant struct {
	Token     string
	ExpiresAt time.Time
}

// SessionManager issues and revokes authenticated sessions. Both the local
// and the OAuth login paths finalize through it.
type SessionManager struct {
	Sessions session.Store
	Clock    Clock

	SessionTTL  time.Duration
	RememberTTL time.Duration
}

// Issue creates a session for the principal and returns its opaque handle.
func (m *SessionManager) Issue(ctx context.Context, kind, principalID string, mfaVerified, remember bool) (SessionGrant, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return SessionGrant{}, fmt.Errorf("generate session token: %w", err)
	}

	now := m.Clock.Now()
	ttl := m.SessionTTL
	if remember {
		ttl = m.RememberTTL
	}

	sess := domain.Session{
		PrincipalKind: kind,
		PrincipalID:   principalID,
		MFAVerified:   mfaVerified,
		RememberMe:    remember,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	if err := m.Sessions.CreateSession(ctx, token, sess); err != nil {
		return SessionGrant{}, fmt.Errorf("store session: %w", err)
	}

	return SessionGrant{Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

// Get returns the session behind a handle.
func (m *SessionManager) Get(ctx context.Context, token string) (domain.Session, error) {
	return m.Sessions.GetSession(ctx, token)
}

// Revoke destroys a session.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	return m.Sessions.DeleteSession(ctx, token)
}
