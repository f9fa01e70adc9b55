package otp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/murmurhq/murmur/internal/identity"
	"github.com/murmurhq/murmur/internal/logging"
)

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []string
	failed bool
}

func (n *recordingNotifier) Send(_ context.Context, _, _, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failed {
		return errors.New("smtp unreachable")
	}
	n.sent = append(n.sent, body)
	return nil
}

// lastCode extracts the plaintext code from the most recent delivery.
func (n *recordingNotifier) lastCode(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatal("no code was delivered")
	}
	body := n.sent[len(n.sent)-1]
	code := strings.TrimPrefix(body, Body(""))
	if code == body || len(code) != 6 {
		t.Fatalf("unexpected delivery body %q", body)
	}
	return code
}

func setupEngine(t *testing.T, ttl time.Duration) (identity.Repository, *Engine, *recordingNotifier) {
	t.Helper()
	repo := identity.NewMemoryRepository()
	spy := &recordingNotifier{}
	return repo, NewEngine(repo, spy, ttl, logging.Discard()), spy
}

func seedUser(t *testing.T, repo identity.Repository, verified bool) identity.User {
	t.Helper()
	user := identity.User{
		ID:       uuid.NewString(),
		Handle:   "nadia",
		Email:    "nadia@example.com",
		Role:     identity.RoleUser,
		Verified: verified,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func reload(t *testing.T, repo identity.Repository, id string) identity.User {
	t.Helper()
	user, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return user
}

func TestRegisterVerifyMarksVerified(t *testing.T) {
	repo, engine, spy := setupEngine(t, time.Minute)
	ctx := context.Background()
	user := seedUser(t, repo, false)

	if err := engine.Issue(ctx, user, identity.FlowRegister); err != nil {
		t.Fatalf("issue: %v", err)
	}

	flow, err := engine.Verify(ctx, reload(t, repo, user.ID), spy.lastCode(t))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if flow != identity.FlowRegister {
		t.Fatalf("expected flow %q got %q", identity.FlowRegister, flow)
	}

	after := reload(t, repo, user.ID)
	if !after.Verified {
		t.Fatal("verification did not mark the user verified")
	}
	if after.Challenge != nil {
		t.Fatal("challenge should be consumed")
	}
}

func TestWrongCodeKeepsChallengeAlive(t *testing.T) {
	repo, engine, spy := setupEngine(t, time.Minute)
	ctx := context.Background()
	user := seedUser(t, repo, false)

	if err := engine.Issue(ctx, user, identity.FlowRegister); err != nil {
		t.Fatalf("issue: %v", err)
	}

	code := spy.lastCode(t)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	if _, err := engine.Verify(ctx, reload(t, repo, user.ID), wrong); !errors.Is(err, ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch got %v", err)
	}

	// The pending challenge survives a mismatch; the real code still works.
	if _, err := engine.Verify(ctx, reload(t, repo, user.ID), code); err != nil {
		t.Fatalf("verify after mismatch: %v", err)
	}
}

func TestExpiredChallengeIsClearedAndDead(t *testing.T) {
	repo, engine, spy := setupEngine(t, -time.Minute)
	ctx := context.Background()
	user := seedUser(t, repo, false)

	if err := engine.Issue(ctx, user, identity.FlowRegister); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := spy.lastCode(t)

	if _, err := engine.Verify(ctx, reload(t, repo, user.ID), code); !errors.Is(err, ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired got %v", err)
	}

	// Expiry clears the challenge, so a replay reports no active challenge.
	if _, err := engine.Verify(ctx, reload(t, repo, user.ID), code); !errors.Is(err, ErrNoActiveChallenge) {
		t.Fatalf("expected ErrNoActiveChallenge got %v", err)
	}
	if reload(t, repo, user.ID).Verified {
		t.Fatal("expired code must never verify")
	}
}

func TestConsumedCodeCannotBeReplayed(t *testing.T) {
	repo, engine, spy := setupEngine(t, time.Minute)
	ctx := context.Background()
	user := seedUser(t, repo, false)

	if err := engine.Issue(ctx, user, identity.FlowRegister); err != nil {
		t.Fatalf("issue: %v", err)
	}
	code := spy.lastCode(t)

	if _, err := engine.Verify(ctx, reload(t, repo, user.ID), code); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := engine.Verify(ctx, reload(t, repo, user.ID), code); !errors.Is(err, ErrNoActiveChallenge) {
		t.Fatalf("expected ErrNoActiveChallenge got %v", err)
	}
}

func TestReissueSupersedesPendingCode(t *testing.T) {
	repo, engine, spy := setupEngine(t, time.Minute)
	ctx := context.Background()
	user := seedUser(t, repo, false)

	if err := engine.Issue(ctx, user, identity.FlowRegister); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	first := spy.lastCode(t)

	if err := engine.Issue(ctx, reload(t, repo, user.ID), identity.FlowRegister); err != nil {
		t.Fatalf("second issue: %v", err)
	}
	second := spy.lastCode(t)

	if first != second {
		if _, err := engine.Verify(ctx, reload(t, repo, user.ID), first); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("superseded code should mismatch, got %v", err)
		}
	}
	if _, err := engine.Verify(ctx, reload(t, repo, user.ID), second); err != nil {
		t.Fatalf("latest code should verify: %v", err)
	}
}

func TestLoginRequiresVerifiedUser(t *testing.T) {
	repo, engine, _ := setupEngine(t, time.Minute)
	ctx := context.Background()
	user := seedUser(t, repo, false)

	if err := engine.Issue(ctx, user, identity.FlowLogin); !errors.Is(err, ErrUnverified) {
		t.Fatalf("expected ErrUnverified got %v", err)
	}
}

func TestRegisterRejectsVerifiedUser(t *testing.T) {
	repo, engine, _ := setupEngine(t, time.Minute)
	ctx := context.Background()
	user := seedUser(t, repo, true)

	if err := engine.Issue(ctx, user, identity.FlowRegister); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified got %v", err)
	}
}

func TestDeliveryFailureDoesNotRollBackChallenge(t *testing.T) {
	repo := identity.NewMemoryRepository()
	spy := &recordingNotifier{failed: true}
	engine := NewEngine(repo, spy, time.Minute, logging.Discard())
	ctx := context.Background()
	user := seedUser(t, repo, false)

	if err := engine.Issue(ctx, user, identity.FlowRegister); err != nil {
		t.Fatalf("issue with failing notifier: %v", err)
	}
	if reload(t, repo, user.ID).Challenge == nil {
		t.Fatal("challenge must stay stored when delivery fails")
	}
}

func TestVerifyWithoutChallenge(t *testing.T) {
	repo, engine, _ := setupEngine(t, time.Minute)
	user := seedUser(t, repo, true)

	if _, err := engine.Verify(context.Background(), user, "123456"); !errors.Is(err, ErrNoActiveChallenge) {
		t.Fatalf("expected ErrNoActiveChallenge got %v", err)
	}
}
