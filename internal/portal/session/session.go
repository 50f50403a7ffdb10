// Package session holds the TTL-scoped state that lives outside the
// database: pending-MFA records keyed by their opaque handle, and
// authenticated sessions keyed by the cookie value. Handles are 256-bit
// random tokens generated by the caller; drivers never mint them.
package session

import (
	"context"
	"errors"

	"github.com/copperfort/deskauth/internal/portal/domain"
)

var ErrNotFound = errors.New("session: not found")

// Store is the port both drivers implement. All records expire on their own;
// explicit deletes exist for the single-use pending transition and logout.
type Store interface {
	// CreatePending stores a pending authentication under its handle.
	CreatePending(ctx context.Context, handle string, p domain.PendingAuthentication) error

	// GetPending returns a pending authentication, ErrNotFound if expired
	// or unknown.
	GetPending(ctx context.Context, handle string) (domain.PendingAuthentication, error)

	// IncrementPendingAttempts bumps the failed verification counter and
	// returns the updated record.
	IncrementPendingAttempts(ctx context.Context, handle string) (domain.PendingAuthentication, error)

	// DeletePending consumes the handle. Deleting an unknown handle is not
	// an error.
	DeletePending(ctx context.Context, handle string) error

	// CreateSession stores an authenticated session under its handle.
	CreateSession(ctx context.Context, handle string, s domain.Session) error

	// GetSession returns a session, ErrNotFound if expired or unknown.
	GetSession(ctx context.Context, handle string) (domain.Session, error)

	// DeleteSession destroys a session (logout).
	DeleteSession(ctx context.Context, handle string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases driver resources.
	Close() error
}
