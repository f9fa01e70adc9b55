package auth

import (
	"context"
	"fmt"

	"github.com/murmurhq/murmur/internal/identity"
	"github.com/murmurhq/murmur/internal/otp"
)

// Service drives the passwordless flows: registration, login, OTP
// verification, and session issuance.
type Service struct {
	ids    *identity.Service
	repo   identity.Repository
	engine *otp.Engine
	signer *Signer
}

// NewService builds an auth service.
func NewService(ids *identity.Service, repo identity.Repository, engine *otp.Engine, signer *Signer) *Service {
	return &Service{ids: ids, repo: repo, engine: engine, signer: signer}
}

// Session is the outcome of a successful verification.
type Session struct {
	Token string
	User  identity.User
	Flow  string
}

// Register creates an unverified profile and issues its registration challenge.
func (s *Service) Register(ctx context.Context, input identity.RegisterInput) (identity.User, error) {
	user, err := s.ids.Register(ctx, input)
	if err != nil {
		return identity.User{}, err
	}
	if err := s.engine.Issue(ctx, user, identity.FlowRegister); err != nil {
		return identity.User{}, err
	}
	return user, nil
}

// Login issues a login challenge for a verified profile.
func (s *Service) Login(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.engine.Issue(ctx, user, identity.FlowLogin)
}

// Resend mints a fresh challenge for the given flow, superseding the pending one.
func (s *Service) Resend(ctx context.Context, email, flow string) error {
	if flow != identity.FlowRegister && flow != identity.FlowLogin {
		return fmt.Errorf("%w: unknown flow %q", identity.ErrInvalidInput, flow)
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.engine.Issue(ctx, user, flow)
}

// Verify consumes the pending challenge and mints a session token. For the
// registration flow the consume also marks the profile verified.
func (s *Service) Verify(ctx context.Context, email, code string) (Session, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	flow, err := s.engine.Verify(ctx, user, code)
	if err != nil {
		return Session{}, err
	}
	// Re-read: registration verification just flipped Verified.
	user, err = s.repo.FindByID(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}
	token, err := s.signer.Issue(user.ID, user.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user, Flow: flow}, nil
}
