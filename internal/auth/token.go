package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when no credential accompanies a request.
	ErrMissingToken = errors.New("missing credential")

	// ErrInvalidToken is returned when the signature does not verify or the
	// claims are malformed.
	ErrInvalidToken = errors.New("invalid credential")

	// ErrTokenExpired is returned when the token's validity window has elapsed.
	ErrTokenExpired = errors.New("session expired")
)

// SessionClaims binds a user id and role into a time-bounded token.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Signer mints and verifies stateless HS256 session tokens. There is no
// server-side session store and no revocation list; logout is client-side
// token discard.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner builds a Signer from the shared secret and session lifetime.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// Issue produces a signed token for the user.
func (s *Signer) Issue(userID, role string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the token signature and validity window and returns its claims.
func (s *Signer) Verify(token string) (SessionClaims, error) {
	if token == "" {
		return SessionClaims{}, ErrMissingToken
	}
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrTokenExpired
		}
		return SessionClaims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	return *claims, nil
}
