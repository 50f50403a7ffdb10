package session

import (
	"context"
	"testing"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/stretchr/testify/require"
)

func TestPendingLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	pending := domain.PendingAuthentication{
		PrincipalKind: domain.PrincipalUser,
		PrincipalID:   "user-1",
		RememberMe:    true,
		CreatedAt:     time.Now(),
		ExpiresAt:     time.Now().Add(5 * time.Minute),
	}

	require.NoError(t, store.CreatePending(ctx, "handle", pending))

	got, err := store.GetPending(ctx, "handle")
	require.NoError(t, err)
	require.Equal(t, "user-1", got.PrincipalID)
	require.True(t, got.RememberMe)

	got, err = store.IncrementPendingAttempts(ctx, "handle")
	require.NoError(t, err)
	require.Equal(t, 1, got.Attempts)

	require.NoError(t, store.DeletePending(ctx, "handle"))
	_, err = store.GetPending(ctx, "handle")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPendingExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	pending := domain.PendingAuthentication{
		PrincipalID: "user-1",
		ExpiresAt:   time.Now().Add(20 * time.Millisecond),
	}
	require.NoError(t, store.CreatePending(ctx, "handle", pending))

	time.Sleep(50 * time.Millisecond)
	_, err := store.GetPending(ctx, "handle")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	sess := domain.Session{
		PrincipalKind: domain.PrincipalAdmin,
		PrincipalID:   "admin-1",
		MFAVerified:   true,
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	require.NoError(t, store.CreateSession(ctx, "cookie", sess))

	got, err := store.GetSession(ctx, "cookie")
	require.NoError(t, err)
	require.Equal(t, domain.PrincipalAdmin, got.PrincipalKind)
	require.True(t, got.MFAVerified)

	require.NoError(t, store.DeleteSession(ctx, "cookie"))
	_, err = store.GetSession(ctx, "cookie")
	require.ErrorIs(t, err, ErrNotFound)
}
