package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/murmurhq/murmur/internal/identity"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("topsecret", time.Hour)
	userID := uuid.NewString()

	token, err := signer.Issue(userID, identity.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != userID {
		t.Fatalf("expected subject %s got %s", userID, claims.Subject)
	}
	if claims.Role != identity.RoleUser {
		t.Fatalf("expected role %s got %s", identity.RoleUser, claims.Role)
	}
}

func TestSignerRejectsExpiredToken(t *testing.T) {
	signer := NewSigner("topsecret", -time.Minute)

	token, err := signer.Issue(uuid.NewString(), identity.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := signer.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired got %v", err)
	}
}

func TestSignerRejectsForeignSignature(t *testing.T) {
	token, err := NewSigner("topsecret", time.Hour).Issue(uuid.NewString(), identity.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewSigner("othersecret", time.Hour).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestSignerRejectsGarbage(t *testing.T) {
	signer := NewSigner("topsecret", time.Hour)

	if _, err := signer.Verify(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken got %v", err)
	}
	if _, err := signer.Verify("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}
