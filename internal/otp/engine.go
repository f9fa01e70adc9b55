package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/murmurhq/murmur/internal/identity"
	"github.com/murmurhq/murmur/internal/mailer"
)

var (
	// ErrUnverified blocks a login challenge for an identity that never
	// completed registration verification.
	ErrUnverified = errors.New("email not verified")

	// ErrAlreadyVerified blocks a registration challenge once verification
	// has already succeeded.
	ErrAlreadyVerified = errors.New("email already verified")

	// ErrNoActiveChallenge means no code is pending, it was already consumed,
	// or it was superseded by a newer one.
	ErrNoActiveChallenge = errors.New("no active challenge")

	// ErrChallengeExpired means the pending code outlived its validity window.
	ErrChallengeExpired = errors.New("challenge expired")

	// ErrCodeMismatch means the submitted code differs from the pending one.
	// The challenge stays valid so the caller may retry until expiry.
	ErrCodeMismatch = errors.New("code mismatch")
)

const codeSpace = 1_000_000 // 6-digit codes, 000000–999999

// ChallengeStore is the slice of the user repository the engine needs.
type ChallengeStore interface {
	SetChallenge(ctx context.Context, id string, ch identity.Challenge) error
	ConsumeChallenge(ctx context.Context, id, codeHash string, markVerified bool) error
	ClearChallenge(ctx context.Context, id, codeHash string) error
}

// Engine issues, validates, and consumes one-time codes. Per user the state
// machine is NoChallenge → Pending → {Consumed, Expired, Superseded}; every
// terminal state folds back to NoChallenge once acted upon. At most one
// challenge is pending per user; issuing overwrites the previous one.
type Engine struct {
	store    ChallengeStore
	notifier mailer.Notifier
	ttl      time.Duration
	logger   *slog.Logger
}

// NewEngine builds a challenge engine. ttl bounds code validity.
func NewEngine(store ChallengeStore, notifier mailer.Notifier, ttl time.Duration, logger *slog.Logger) *Engine {
	return &Engine{store: store, notifier: notifier, ttl: ttl, logger: logger}
}

// Issue mints a fresh code for the given flow, persists its hash with an
// expiry, and dispatches it to the user's email. Any previously pending
// challenge is silently superseded. Delivery failure does not roll back the
// challenge; the code stays valid and can be resent.
func (e *Engine) Issue(ctx context.Context, user identity.User, flow string) error {
	switch flow {
	case identity.FlowRegister:
		if user.Verified {
			return ErrAlreadyVerified
		}
	case identity.FlowLogin:
		if !user.Verified {
			return ErrUnverified
		}
	default:
		return fmt.Errorf("unknown flow %q", flow)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	ch := identity.Challenge{
		CodeHash:  string(hash),
		Flow:      flow,
		ExpiresAt: time.Now().UTC().Add(e.ttl),
	}
	if err := e.store.SetChallenge(ctx, user.ID, ch); err != nil {
		return err
	}

	subject := "Verify your email"
	if flow == identity.FlowLogin {
		subject = "Your login code"
	}
	if err := e.notifier.Send(ctx, user.Email, subject, Body(code)); err != nil {
		// Non-fatal: the stored code is already valid and resendable.
		e.logger.Warn("otp delivery failed", "user_id", user.ID, "flow", flow, "error", err)
	}

	return nil
}

// Verify checks the submitted code against the pending challenge and consumes
// it on success, returning the flow so callers can branch to session issuance.
// The consume is a compare-and-swap on the stored hash, so a verify racing a
// concurrent issue only succeeds against the durably stored challenge.
func (e *Engine) Verify(ctx context.Context, user identity.User, code string) (string, error) {
	ch := user.Challenge
	if ch == nil {
		return "", ErrNoActiveChallenge
	}
	if ch.Expired(time.Now().UTC()) {
		// A stale-clear failure means a newer challenge replaced this one;
		// either way the submitted code is dead.
		if err := e.store.ClearChallenge(ctx, user.ID, ch.CodeHash); err != nil &&
			!errors.Is(err, identity.ErrStaleChallenge) {
			return "", err
		}
		return "", ErrChallengeExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(ch.CodeHash), []byte(code)) != nil {
		return "", ErrCodeMismatch
	}

	markVerified := ch.Flow == identity.FlowRegister
	if err := e.store.ConsumeChallenge(ctx, user.ID, ch.CodeHash, markVerified); err != nil {
		if errors.Is(err, identity.ErrStaleChallenge) {
			return "", ErrNoActiveChallenge
		}
		return "", err
	}
	return ch.Flow, nil
}

// Body renders the delivery text for a code. Exposed so tests and alternative
// notifiers agree on the format.
func Body(code string) string {
	return fmt.Sprintf("Your one-time code is: %s", code)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
