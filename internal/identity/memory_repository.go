package identity

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository builds an in-memory user store for testing. A single
// mutex guards every mutation, so compound updates (challenge CAS, symmetric
// follow edges) are atomic exactly like their SQL counterparts.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return ErrEmailTaken
		}
		if existing.Handle == user.Handle {
			return ErrHandleTaken
		}
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (r *memoryRepository) UpdateProfile(_ context.Context, id string, update ProfileUpdate) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if update.Handle != "" && update.Handle != user.Handle {
		for _, existing := range r.users {
			if existing.Handle == update.Handle {
				return User{}, ErrHandleTaken
			}
		}
		user.Handle = update.Handle
	}
	if update.DisplayName != "" {
		user.DisplayName = update.DisplayName
	}
	if update.Phone != "" {
		user.Phone = update.Phone
	}
	if update.AvatarURL != "" {
		user.AvatarURL = update.AvatarURL
	}
	if update.BannerURL != "" {
		user.BannerURL = update.BannerURL
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return cloneUser(user), nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	for key, user := range r.users {
		user.Following = remove(user.Following, id)
		user.Followers = remove(user.Followers, id)
		r.users[key] = user
	}
	return nil
}

func (r *memoryRepository) SetChallenge(_ context.Context, id string, ch Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.Challenge = &ch
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func (r *memoryRepository) ConsumeChallenge(_ context.Context, id, codeHash string, markVerified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	if user.Challenge == nil || user.Challenge.CodeHash != codeHash {
		return ErrStaleChallenge
	}
	user.Challenge = nil
	if markVerified {
		user.Verified = true
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func (r *memoryRepository) ClearChallenge(_ context.Context, id, codeHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	if user.Challenge == nil || user.Challenge.CodeHash != codeHash {
		return ErrStaleChallenge
	}
	user.Challenge = nil
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func (r *memoryRepository) Follow(_ context.Context, actorID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, ok := r.users[actorID]
	if !ok {
		return ErrNotFound
	}
	target, ok := r.users[targetID]
	if !ok {
		return ErrNotFound
	}
	if contains(actor.Following, targetID) {
		return ErrAlreadyFollowing
	}
	actor.Following = append(actor.Following, targetID)
	target.Followers = append(target.Followers, actorID)
	r.users[actorID] = actor
	r.users[targetID] = target
	return nil
}

func (r *memoryRepository) Unfollow(_ context.Context, actorID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, ok := r.users[actorID]
	if !ok {
		return ErrNotFound
	}
	target, ok := r.users[targetID]
	if !ok {
		return ErrNotFound
	}
	if !contains(actor.Following, targetID) {
		return ErrNotFollowing
	}
	actor.Following = remove(actor.Following, targetID)
	target.Followers = remove(target.Followers, actorID)
	r.users[actorID] = actor
	r.users[targetID] = target
	return nil
}

func cloneUser(user User) User {
	user.Following = append([]string(nil), user.Following...)
	user.Followers = append([]string(nil), user.Followers...)
	if user.Challenge != nil {
		ch := *user.Challenge
		user.Challenge = &ch
	}
	return user
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
