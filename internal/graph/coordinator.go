package graph

import (
	"context"
	"errors"
)

// ErrSelfFollow rejects an edge from a user to itself.
var ErrSelfFollow = errors.New("cannot follow yourself")

// Store mutates the bidirectional adjacency lists. Implementations must apply
// both sides atomically and report duplicate or absent edges themselves, so
// the check and the write cannot race. Satisfied by identity.Repository.
type Store interface {
	Follow(ctx context.Context, actorID, targetID string) error
	Unfollow(ctx context.Context, actorID, targetID string) error
}

// Coordinator enforces the follow-graph protocol: no self edges, no duplicate
// edges, and the symmetry invariant target ∈ actor.following iff
// actor ∈ target.followers.
type Coordinator struct {
	store Store
}

// NewCoordinator builds a follow-graph coordinator.
func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{store: store}
}

// Follow adds the edge actor→target.
func (c *Coordinator) Follow(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfFollow
	}
	return c.store.Follow(ctx, actorID, targetID)
}

// Unfollow removes the edge actor→target.
func (c *Coordinator) Unfollow(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfFollow
	}
	return c.store.Unfollow(ctx, actorID, targetID)
}
