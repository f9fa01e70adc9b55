package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/murmurhq/murmur/internal/identity"
)

func seedPair(t *testing.T, repo identity.Repository) (identity.User, identity.User) {
	t.Helper()
	ctx := context.Background()
	alice := identity.User{ID: uuid.NewString(), Handle: "alice", Email: "alice@example.com", Verified: true}
	bob := identity.User{ID: uuid.NewString(), Handle: "bob", Email: "bob@example.com", Verified: true}
	if err := repo.Create(ctx, alice); err != nil {
		t.Fatalf("seed alice: %v", err)
	}
	if err := repo.Create(ctx, bob); err != nil {
		t.Fatalf("seed bob: %v", err)
	}
	return alice, bob
}

func edges(t *testing.T, repo identity.Repository, id string) ([]string, []string) {
	t.Helper()
	user, err := repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	return user.Following, user.Followers
}

func TestFollowIsSymmetric(t *testing.T) {
	repo := identity.NewMemoryRepository()
	coord := NewCoordinator(repo)
	alice, bob := seedPair(t, repo)
	ctx := context.Background()

	if err := coord.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	following, _ := edges(t, repo, alice.ID)
	_, followers := edges(t, repo, bob.ID)
	if len(following) != 1 || following[0] != bob.ID {
		t.Fatalf("expected alice to follow bob, got %v", following)
	}
	if len(followers) != 1 || followers[0] != alice.ID {
		t.Fatalf("expected bob followed by alice, got %v", followers)
	}
}

func TestFollowRejectsSelfEdge(t *testing.T) {
	repo := identity.NewMemoryRepository()
	coord := NewCoordinator(repo)
	alice, _ := seedPair(t, repo)

	if err := coord.Follow(context.Background(), alice.ID, alice.ID); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("expected ErrSelfFollow got %v", err)
	}
}

func TestFollowRejectsDuplicateEdge(t *testing.T) {
	repo := identity.NewMemoryRepository()
	coord := NewCoordinator(repo)
	alice, bob := seedPair(t, repo)
	ctx := context.Background()

	if err := coord.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := coord.Follow(ctx, alice.ID, bob.ID); !errors.Is(err, identity.ErrAlreadyFollowing) {
		t.Fatalf("expected ErrAlreadyFollowing got %v", err)
	}

	// The duplicate attempt must not double the edge on either side.
	following, _ := edges(t, repo, alice.ID)
	_, followers := edges(t, repo, bob.ID)
	if len(following) != 1 || len(followers) != 1 {
		t.Fatalf("duplicate follow mutated edges: %v / %v", following, followers)
	}
}

func TestUnfollowRemovesBothSides(t *testing.T) {
	repo := identity.NewMemoryRepository()
	coord := NewCoordinator(repo)
	alice, bob := seedPair(t, repo)
	ctx := context.Background()

	if err := coord.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := coord.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}

	following, _ := edges(t, repo, alice.ID)
	_, followers := edges(t, repo, bob.ID)
	if len(following) != 0 || len(followers) != 0 {
		t.Fatalf("unfollow left residue: %v / %v", following, followers)
	}
}

func TestUnfollowWithoutEdge(t *testing.T) {
	repo := identity.NewMemoryRepository()
	coord := NewCoordinator(repo)
	alice, bob := seedPair(t, repo)

	if err := coord.Unfollow(context.Background(), alice.ID, bob.ID); !errors.Is(err, identity.ErrNotFollowing) {
		t.Fatalf("expected ErrNotFollowing got %v", err)
	}
}

func TestFollowUnknownTarget(t *testing.T) {
	repo := identity.NewMemoryRepository()
	coord := NewCoordinator(repo)
	alice, _ := seedPair(t, repo)

	if err := coord.Follow(context.Background(), alice.ID, uuid.NewString()); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestMutualFollowIsIndependent(t *testing.T) {
	repo := identity.NewMemoryRepository()
	coord := NewCoordinator(repo)
	alice, bob := seedPair(t, repo)
	ctx := context.Background()

	if err := coord.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("alice follows bob: %v", err)
	}
	if err := coord.Follow(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("bob follows alice: %v", err)
	}
	if err := coord.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}

	// Dropping alice→bob must leave bob→alice intact.
	following, followers := edges(t, repo, alice.ID)
	if len(following) != 0 {
		t.Fatalf("expected no following, got %v", following)
	}
	if len(followers) != 1 || followers[0] != bob.ID {
		t.Fatalf("expected bob to still follow alice, got %v", followers)
	}
}

func TestConcurrentFollowsStaySymmetric(t *testing.T) {
	repo := identity.NewMemoryRepository()
	coord := NewCoordinator(repo)
	ctx := context.Background()

	target := identity.User{ID: uuid.NewString(), Handle: "star", Email: "star@example.com", Verified: true}
	if err := repo.Create(ctx, target); err != nil {
		t.Fatalf("seed target: %v", err)
	}

	const fans = 32
	fanIDs := make([]string, fans)
	for i := range fanIDs {
		fan := identity.User{ID: uuid.NewString(), Handle: uuid.NewString(), Email: uuid.NewString() + "@example.com"}
		if err := repo.Create(ctx, fan); err != nil {
			t.Fatalf("seed fan: %v", err)
		}
		fanIDs[i] = fan.ID
	}

	var wg sync.WaitGroup
	for _, id := range fanIDs {
		wg.Add(1)
		go func(actorID string) {
			defer wg.Done()
			if err := coord.Follow(ctx, actorID, target.ID); err != nil {
				t.Errorf("follow %s: %v", actorID, err)
			}
		}(id)
	}
	wg.Wait()

	_, followers := edges(t, repo, target.ID)
	if len(followers) != fans {
		t.Fatalf("expected %d followers, got %d", fans, len(followers))
	}
	for _, id := range fanIDs {
		following, _ := edges(t, repo, id)
		if len(following) != 1 || following[0] != target.ID {
			t.Fatalf("fan %s edge is asymmetric: %v", id, following)
		}
	}
}
