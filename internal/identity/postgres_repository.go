package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, handle, display_name, email, phone, avatar_url, banner_url,
        role, verified, otp_hash, otp_flow, otp_expires_at,
        following::text[], followers::text[], created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users
        (id, handle, display_name, email, phone, avatar_url, banner_url, role, verified,
         following, followers, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '{}', '{}', $10, $10)`,
		userID, user.Handle, user.DisplayName, user.Email, user.Phone,
		user.AvatarURL, user.BannerURL, user.Role, user.Verified, user.CreatedAt.UTC())
	return uniqueViolation(err)
}

// FindByID fetches a user by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// FindByEmail fetches a user by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// List returns all users, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile applies non-empty fields of the update and returns the
// resulting record.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `UPDATE users SET
        handle       = COALESCE(NULLIF($2, ''), handle),
        display_name = COALESCE(NULLIF($3, ''), display_name),
        phone        = COALESCE(NULLIF($4, ''), phone),
        avatar_url   = COALESCE(NULLIF($5, ''), avatar_url),
        banner_url   = COALESCE(NULLIF($6, ''), banner_url),
        updated_at   = now()
        WHERE id = $1
        RETURNING `+userColumns,
		userID, update.Handle, update.DisplayName, update.Phone, update.AvatarURL, update.BannerURL)
	user, err := scanUser(row)
	if err != nil {
		return User{}, uniqueViolation(err)
	}
	return user, nil
}

// Delete removes the user and scrubs its id from every other user's adjacency
// lists in the same transaction, so no dangling edges survive.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `UPDATE users SET
        following  = array_remove(following, $1),
        followers  = array_remove(followers, $1),
        updated_at = now()
        WHERE $1 = ANY(following) OR $1 = ANY(followers)`, userID); err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// SetChallenge stores a pending challenge, overwriting any prior one.
func (r *PostgresRepository) SetChallenge(ctx context.Context, id string, ch Challenge) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET
        otp_hash = $2, otp_flow = $3, otp_expires_at = $4, updated_at = now()
        WHERE id = $1`, userID, ch.CodeHash, ch.Flow, ch.ExpiresAt.UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeChallenge clears the pending challenge iff its stored hash still
// matches codeHash, optionally marking the user verified in the same statement.
func (r *PostgresRepository) ConsumeChallenge(ctx context.Context, id, codeHash string, markVerified bool) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET
        otp_hash = NULL, otp_flow = NULL, otp_expires_at = NULL,
        verified = verified OR $3, updated_at = now()
        WHERE id = $1 AND otp_hash = $2`, userID, codeHash, markVerified)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleChallenge
	}
	return nil
}

// ClearChallenge drops the pending challenge iff its stored hash still matches.
func (r *PostgresRepository) ClearChallenge(ctx context.Context, id, codeHash string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET
        otp_hash = NULL, otp_flow = NULL, otp_expires_at = NULL, updated_at = now()
        WHERE id = $1 AND otp_hash = $2`, userID, codeHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleChallenge
	}
	return nil
}

// Follow adds the symmetric edge actor→target inside one transaction. Both
// rows are locked in id order so concurrent mutual follows cannot deadlock.
func (r *PostgresRepository) Follow(ctx context.Context, actorID, targetID string) error {
	return r.mutateEdge(ctx, actorID, targetID, true)
}

// Unfollow removes the symmetric edge actor→target inside one transaction.
func (r *PostgresRepository) Unfollow(ctx context.Context, actorID, targetID string) error {
	return r.mutateEdge(ctx, actorID, targetID, false)
}

func (r *PostgresRepository) mutateEdge(ctx context.Context, actorID, targetID string, add bool) error {
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return ErrNotFound
	}
	target, err := uuid.Parse(targetID)
	if err != nil {
		return ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	first, second := actor, target
	if second.String() < first.String() {
		first, second = second, first
	}
	for _, id := range []uuid.UUID{first, second} {
		if err := lockUser(ctx, tx, id); err != nil {
			return err
		}
	}

	var following bool
	if err := tx.QueryRow(ctx, `SELECT $2 = ANY(following) FROM users WHERE id = $1`,
		actor, target).Scan(&following); err != nil {
		return err
	}

	if add {
		if following {
			return ErrAlreadyFollowing
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET following = array_append(following, $2),
            updated_at = now() WHERE id = $1`, actor, target); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET followers = array_append(followers, $2),
            updated_at = now() WHERE id = $1`, target, actor); err != nil {
			return err
		}
	} else {
		if !following {
			return ErrNotFollowing
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET following = array_remove(following, $2),
            updated_at = now() WHERE id = $1`, actor, target); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET followers = array_remove(followers, $2),
            updated_at = now() WHERE id = $1`, target, actor); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func lockUser(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		id        uuid.UUID
		user      User
		otpHash   *string
		otpFlow   *string
		otpExpiry *time.Time
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&id, &user.Handle, &user.DisplayName, &user.Email, &user.Phone,
		&user.AvatarURL, &user.BannerURL, &user.Role, &user.Verified,
		&otpHash, &otpFlow, &otpExpiry, &user.Following, &user.Followers,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	user.UpdatedAt = updatedAt.UTC()
	if otpHash != nil && otpFlow != nil && otpExpiry != nil {
		user.Challenge = &Challenge{CodeHash: *otpHash, Flow: *otpFlow, ExpiresAt: otpExpiry.UTC()}
	}
	return user, nil
}

func uniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrEmailTaken
		case strings.Contains(pgErr.ConstraintName, "handle"):
			return ErrHandleTaken
		}
		return fmt.Errorf("unique constraint %s violated", pgErr.ConstraintName)
	}
	return err
}
