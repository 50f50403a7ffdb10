package oauth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	signer := NewStateSigner([]byte("test-secret"))

	token, err := signer.Issue("google", "/dashboard")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.Verify(token, "google")
	require.NoError(t, err)
	require.Equal(t, "google", claims.Provider)
	require.Equal(t, "/dashboard", claims.NextURL)
	require.NotEmpty(t, claims.Nonce)
}

func TestStateProviderMismatch(t *testing.T) {
	signer := NewStateSigner([]byte("test-secret"))

	token, err := signer.Issue("google", "")
	require.NoError(t, err)

	_, err = signer.Verify(token, "microsoft")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestStateWrongKey(t *testing.T) {
	token, err := NewStateSigner([]byte("key-a")).Issue("google", "")
	require.NoError(t, err)

	_, err = NewStateSigner([]byte("key-b")).Verify(token, "google")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestStateGarbage(t *testing.T) {
	signer := NewStateSigner([]byte("test-secret"))
	_, err := signer.Verify("not-a-jwt", "google")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("google")
	require.Error(t, err)
}
