package identity

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken indicates another user already registered the email address.
	ErrEmailTaken = errors.New("email already registered")

	// ErrHandleTaken indicates another user already claimed the handle.
	ErrHandleTaken = errors.New("handle already taken")

	// ErrStaleChallenge occurs when a challenge mutation loses a race against a
	// concurrent issue or consume; the stored challenge is no longer the one the
	// caller read.
	ErrStaleChallenge = errors.New("challenge no longer current")

	// ErrAlreadyFollowing indicates the follow edge already exists.
	ErrAlreadyFollowing = errors.New("already following this user")

	// ErrNotFollowing indicates there is no follow edge to remove.
	ErrNotFollowing = errors.New("not following this user")
)

// Repository persists users, their pending OTP challenges and the follow graph.
//
// Challenge mutations are compare-and-swap on the stored code hash so that a
// verify racing a concurrent issue is always evaluated against whatever
// challenge is durably stored at the instant of the update. Follow and
// Unfollow mutate both adjacency lists atomically; no caller ever observes an
// asymmetric edge.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (User, error)
	Delete(ctx context.Context, id string) error

	SetChallenge(ctx context.Context, id string, ch Challenge) error
	ConsumeChallenge(ctx context.Context, id, codeHash string, markVerified bool) error
	ClearChallenge(ctx context.Context, id, codeHash string) error

	Follow(ctx context.Context, actorID, targetID string) error
	Unfollow(ctx context.Context, actorID, targetID string) error
}
