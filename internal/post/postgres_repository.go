package post

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postColumns = `id, author_id, title, content, image_url, likes::text[], created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed post repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new post.
func (r *PostgresRepository) Create(ctx context.Context, p Post) error {
	postID, err := uuid.Parse(p.ID)
	if err != nil {
		return err
	}
	authorID, err := uuid.Parse(p.AuthorID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO posts
        (id, author_id, title, content, image_url, likes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, '{}', $6, $6)`,
		postID, authorID, p.Title, p.Content, p.ImageURL, p.CreatedAt.UTC())
	return err
}

// Get fetches a post by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Post, error) {
	postID, err := uuid.Parse(id)
	if err != nil {
		return Post{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, postID)
	return scanPost(row)
}

// List returns all posts, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Post, error) {
	rows, err := r.db.Query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListByAuthor returns one author's posts, newest first.
func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorID string) ([]Post, error) {
	author, err := uuid.Parse(authorID)
	if err != nil {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+postColumns+` FROM posts
        WHERE author_id = $1 ORDER BY created_at DESC`, author)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// Update rewrites the mutable post fields.
func (r *PostgresRepository) Update(ctx context.Context, p Post) error {
	postID, err := uuid.Parse(p.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE posts SET
        title = $2, content = $3, image_url = $4, updated_at = now()
        WHERE id = $1`, postID, p.Title, p.Content, p.ImageURL)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a post and its comments.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	postID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, postID); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// DeleteByAuthor removes all posts and comments belonging to an author.
func (r *PostgresRepository) DeleteByAuthor(ctx context.Context, authorID string) error {
	author, err := uuid.Parse(authorID)
	if err != nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM comments
        WHERE author_id = $1 OR post_id IN (SELECT id FROM posts WHERE author_id = $1)`, author); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE author_id = $1`, author); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ToggleLike flips membership in the like set in a single statement, so
// concurrent toggles never double-count.
func (r *PostgresRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	id, err := uuid.Parse(postID)
	if err != nil {
		return false, ErrNotFound
	}
	user, err := uuid.Parse(userID)
	if err != nil {
		return false, ErrNotFound
	}
	var liked bool
	err = r.db.QueryRow(ctx, `UPDATE posts SET
        likes = CASE WHEN $2 = ANY(likes)
                THEN array_remove(likes, $2)
                ELSE array_append(likes, $2) END,
        updated_at = now()
        WHERE id = $1
        RETURNING $2 = ANY(likes)`, id, user).Scan(&liked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return liked, nil
}

// AddComment inserts a comment.
func (r *PostgresRepository) AddComment(ctx context.Context, comment Comment) error {
	commentID, err := uuid.Parse(comment.ID)
	if err != nil {
		return err
	}
	postID, err := uuid.Parse(comment.PostID)
	if err != nil {
		return ErrNotFound
	}
	authorID, err := uuid.Parse(comment.AuthorID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO comments (id, post_id, author_id, content, created_at)
        VALUES ($1, $2, $3, $4, $5)`, commentID, postID, authorID, comment.Content, comment.CreatedAt.UTC())
	return err
}

// ListComments returns a post's comments, oldest first.
func (r *PostgresRepository) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	id, err := uuid.Parse(postID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT id, post_id, author_id, content, created_at
        FROM comments WHERE post_id = $1 ORDER BY created_at ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var (
			commentID uuid.UUID
			parentID  uuid.UUID
			authorID  uuid.UUID
			comment   Comment
			createdAt time.Time
		)
		if err := rows.Scan(&commentID, &parentID, &authorID, &comment.Content, &createdAt); err != nil {
			return nil, err
		}
		comment.ID = commentID.String()
		comment.PostID = parentID.String()
		comment.AuthorID = authorID.String()
		comment.CreatedAt = createdAt.UTC()
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var (
		id        uuid.UUID
		authorID  uuid.UUID
		p         Post
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&id, &authorID, &p.Title, &p.Content, &p.ImageURL, &p.Likes, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	p.ID = id.String()
	p.AuthorID = authorID.String()
	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = updatedAt.UTC()
	return p, nil
}

func collectPosts(rows pgx.Rows) ([]Post, error) {
	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
