package post

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the requested post does not exist.
	ErrNotFound = errors.New("post not found")

	// ErrNotOwner indicates the caller does not own the post it tried to mutate.
	ErrNotOwner = errors.New("not the post owner")
)

// Repository persists posts and comments.
type Repository interface {
	Create(ctx context.Context, p Post) error
	Get(ctx context.Context, id string) (Post, error)
	List(ctx context.Context) ([]Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]Post, error)
	Update(ctx context.Context, p Post) error
	Delete(ctx context.Context, id string) error
	DeleteByAuthor(ctx context.Context, authorID string) error
	// ToggleLike flips userID's membership in the post's like set atomically
	// and reports whether the post is liked afterwards.
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	AddComment(ctx context.Context, comment Comment) error
	ListComments(ctx context.Context, postID string) ([]Comment, error)
}
