package post

import "time"

// Post is a published piece of content.
type Post struct {
	ID        string
	AuthorID  string
	Title     string
	Content   string
	ImageURL  string
	Likes     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is a reply attached to a post.
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
