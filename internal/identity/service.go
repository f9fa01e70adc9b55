package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/murmurhq/murmur/internal/media"
)

// ErrInvalidInput wraps field validation failures.
var ErrInvalidInput = errors.New("invalid input")

// PostPurger removes a user's posts when the profile is deleted. Satisfied by
// the post repository.
type PostPurger interface {
	DeleteByAuthor(ctx context.Context, authorID string) error
}

// Service manages profile lifecycle.
type Service struct {
	repo  Repository
	blobs media.Store
	posts PostPurger
}

// NewService creates a new identity service. posts may be nil when post
// cleanup on delete is handled elsewhere.
func NewService(repo Repository, blobs media.Store, posts PostPurger) *Service {
	return &Service{repo: repo, blobs: blobs, posts: posts}
}

// Register creates a new unverified user.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	input.Handle = strings.TrimSpace(input.Handle)
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)

	if err := validateRegistration(input); err != nil {
		return User{}, err
	}

	user := User{
		ID:          uuid.New().String(),
		Handle:      input.Handle,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		Phone:       input.Phone,
		Role:        RoleUser,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all profiles, newest first.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// UpdateProfile applies field edits and uploads replacement avatar or banner
// images when provided.
func (s *Service) UpdateProfile(ctx context.Context, id string, update ProfileUpdate, avatar, banner []byte) (User, error) {
	if len(avatar) > 0 {
		url, err := s.blobs.Upload(ctx, avatar, media.CategoryAvatar)
		if err != nil {
			return User{}, err
		}
		update.AvatarURL = url
	}
	if len(banner) > 0 {
		url, err := s.blobs.Upload(ctx, banner, media.CategoryBanner)
		if err != nil {
			return User{}, err
		}
		update.BannerURL = url
	}
	return s.repo.UpdateProfile(ctx, id, update)
}

// Delete removes the user, its posts, and every follow edge referencing it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.posts != nil {
		if err := s.posts.DeleteByAuthor(ctx, id); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

func validateRegistration(input RegisterInput) error {
	if input.Handle == "" || input.DisplayName == "" || input.Phone == "" {
		return fmt.Errorf("%w: handle, display name and phone are required", ErrInvalidInput)
	}
	if strings.ContainsAny(input.Handle, " \t") {
		return fmt.Errorf("%w: handle must not contain whitespace", ErrInvalidInput)
	}
	if !strings.Contains(input.Email, "@") {
		return fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}
	return nil
}
