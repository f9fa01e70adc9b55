package post

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/murmurhq/murmur/internal/media"
)

// Service exposes post and comment operations.
type Service struct {
	repo  Repository
	blobs media.Store
}

// NewService builds a post service.
func NewService(repo Repository, blobs media.Store) *Service {
	return &Service{repo: repo, blobs: blobs}
}

// CreateInput captures data required to publish a post.
type CreateInput struct {
	AuthorID string
	Title    string
	Content  string
	Image    []byte
}

// Create publishes a post, uploading its image first when one is attached.
func (s *Service) Create(ctx context.Context, input CreateInput) (Post, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Title == "" || input.Content == "" {
		return Post{}, fmt.Errorf("title and content are required")
	}

	var imageURL string
	if len(input.Image) > 0 {
		url, err := s.blobs.Upload(ctx, input.Image, media.CategoryPost)
		if err != nil {
			return Post{}, err
		}
		imageURL = url
	}

	p := Post{
		ID:        uuid.New().String(),
		AuthorID:  input.AuthorID,
		Title:     input.Title,
		Content:   input.Content,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Post{}, err
	}
	return p, nil
}

// Get returns a post by id.
func (s *Service) Get(ctx context.Context, id string) (Post, error) {
	return s.repo.Get(ctx, id)
}

// List returns all posts, newest first.
func (s *Service) List(ctx context.Context) ([]Post, error) {
	return s.repo.List(ctx)
}

// ListByAuthor returns one author's posts, newest first.
func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]Post, error) {
	return s.repo.ListByAuthor(ctx, authorID)
}

// UpdateInput captures an edit to an existing post. Empty fields keep the
// stored value.
type UpdateInput struct {
	Title   string
	Content string
	Image   []byte
}

// Update edits a post. Only the owner may edit.
func (s *Service) Update(ctx context.Context, postID, callerID string, input UpdateInput) (Post, error) {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return Post{}, err
	}
	if p.AuthorID != callerID {
		return Post{}, ErrNotOwner
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		p.Title = title
	}
	if content := strings.TrimSpace(input.Content); content != "" {
		p.Content = content
	}
	if len(input.Image) > 0 {
		url, err := s.blobs.Upload(ctx, input.Image, media.CategoryPost)
		if err != nil {
			return Post{}, err
		}
		p.ImageURL = url
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return Post{}, err
	}
	return s.repo.Get(ctx, postID)
}

// Delete removes a post. Only the owner may delete.
func (s *Service) Delete(ctx context.Context, postID, callerID string) error {
	p, err := s.repo.Get(ctx, postID)
	if err != nil {
		return err
	}
	if p.AuthorID != callerID {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, postID)
}

// ToggleLike flips the caller's like on a post and reports the new state.
func (s *Service) ToggleLike(ctx context.Context, postID, callerID string) (bool, error) {
	return s.repo.ToggleLike(ctx, postID, callerID)
}

// AddComment attaches a comment to a post.
func (s *Service) AddComment(ctx context.Context, postID, authorID, content string) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, fmt.Errorf("comment content is required")
	}
	comment := Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return Comment{}, err
	}
	return comment, nil
}

// ListComments returns a post's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	return s.repo.ListComments(ctx, postID)
}
