package post

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	posts    map[string]Post
	comments map[string][]Comment
}

// NewMemoryRepository builds an in-memory post store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		posts:    make(map[string]Post),
		comments: make(map[string][]Comment),
	}
}

func (r *memoryRepository) Create(_ context.Context, p Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[p.ID] = clonePost(p)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	return clonePost(p), nil
}

func (r *memoryRepository) List(_ context.Context) ([]Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	posts := make([]Post, 0, len(r.posts))
	for _, p := range r.posts {
		posts = append(posts, clonePost(p))
	}
	sortNewestFirst(posts)
	return posts, nil
}

func (r *memoryRepository) ListByAuthor(_ context.Context, authorID string) ([]Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var posts []Post
	for _, p := range r.posts {
		if p.AuthorID == authorID {
			posts = append(posts, clonePost(p))
		}
	}
	sortNewestFirst(posts)
	return posts, nil
}

func (r *memoryRepository) Update(_ context.Context, p Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.posts[p.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Title = p.Title
	existing.Content = p.Content
	existing.ImageURL = p.ImageURL
	existing.UpdatedAt = time.Now().UTC()
	r.posts[p.ID] = existing
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)
	delete(r.comments, id)
	return nil
}

func (r *memoryRepository) DeleteByAuthor(_ context.Context, authorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.posts {
		if p.AuthorID == authorID {
			delete(r.posts, id)
			delete(r.comments, id)
		}
	}
	for postID, comments := range r.comments {
		kept := comments[:0]
		for _, comment := range comments {
			if comment.AuthorID != authorID {
				kept = append(kept, comment)
			}
		}
		r.comments[postID] = kept
	}
	return nil
}

func (r *memoryRepository) ToggleLike(_ context.Context, postID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return false, ErrNotFound
	}
	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			r.posts[postID] = p
			return false, nil
		}
	}
	p.Likes = append(p.Likes, userID)
	r.posts[postID] = p
	return true, nil
}

func (r *memoryRepository) AddComment(_ context.Context, comment Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[comment.PostID]; !ok {
		return ErrNotFound
	}
	r.comments[comment.PostID] = append(r.comments[comment.PostID], comment)
	return nil
}

func (r *memoryRepository) ListComments(_ context.Context, postID string) ([]Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.posts[postID]; !ok {
		return nil, ErrNotFound
	}
	return append([]Comment(nil), r.comments[postID]...), nil
}

func clonePost(p Post) Post {
	p.Likes = append([]string(nil), p.Likes...)
	return p
}

func sortNewestFirst(posts []Post) {
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
}
