package oauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/copperfort/deskauth/pkg/cryptox"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// stateTTL bounds how long an authorization redirect may sit before the
// callback arrives.
const stateTTL = 10 * time.Minute

var ErrInvalidState = errors.New("oauth: invalid state token")

// StateClaims is the payload of the signed state parameter. The nonce makes
// each redirect unique; provider pins the callback to the IdP that issued
// it; next_url survives the round trip through the IdP.
type StateClaims struct {
	Nonce    string `json:"nonce"`
	Provider string `json:"provider"`
	NextURL  string `json:"next_url,omitempty"`
	jwtv5.RegisteredClaims
}

// StateSigner issues and verifies the HS256-signed state parameter, so the
// callback can prove the flow started here without any server-side storage.
type StateSigner struct {
	secret []byte
}

func NewStateSigner(secret []byte) *StateSigner {
	return &StateSigner{secret: secret}
}

// Issue signs a fresh state token for the given provider.
func (s *StateSigner) Issue(provider, nextURL string) (string, error) {
	nonce, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	now := time.Now()
	claims := StateClaims{
		Nonce:    nonce,
		Provider: provider,
		NextURL:  nextURL,
		RegisteredClaims: jwtv5.RegisteredClaims{
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(stateTTL)),
		},
	}

	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses the state token and checks signature, expiry and that it
// was issued for the expected provider.
func (s *StateSigner) Verify(token, expectedProvider string) (*StateClaims, error) {
	var claims StateClaims
	parsed, err := jwtv5.ParseWithClaims(token, &claims,
		func(t *jwtv5.Token) (any, error) { return s.secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidState
	}

	if claims.Provider != expectedProvider {
		return nil, ErrInvalidState
	}
	return &claims, nil
}
