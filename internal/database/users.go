package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

const userColumns = `id, username, email, full_name, password_hash, avatar, cover_image,
	COALESCE(refresh_token, ''), created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.Avatar,
		&u.CoverImage, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user. Username and email collisions are case-insensitive
// and reported as ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = newID(user.ID)
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	user.Email = strings.TrimSpace(user.Email)

	query := `
		INSERT INTO users (id, username, email, full_name, password_hash, avatar, cover_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.FullName, user.PasswordHash,
		user.Avatar, user.CoverImage,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	return wrapError("create user", err)
}

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapError("get user", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username, ignoring case
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(username) = lower($1)`

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, strings.TrimSpace(username)))
	if err != nil {
		return nil, wrapError("get user by username", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, ignoring case
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, strings.TrimSpace(email)))
	if err != nil {
		return nil, wrapError("get user by email", err)
	}
	return user, nil
}

// GetUsersByIDs loads a batch of users keyed by ID. Missing IDs are absent from the map.
func (r *Repository) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, wrapError("get users", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, wrapError("scan user", err)
		}
		out[user.ID] = user
	}
	return out, wrapError("iterate users", rows.Err())
}

// UpdateUserProfile changes the full name and email of a user
func (r *Repository) UpdateUserProfile(ctx context.Context, id, fullName, email string) (*models.User, error) {
	query := `
		UPDATE users SET full_name = $2, email = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, id, fullName, strings.TrimSpace(email), now()))
	if err != nil {
		return nil, wrapError("update user profile", err)
	}
	return user, nil
}

// UpdateUserPassword stores a new password hash
func (r *Repository) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, now(),
	)
	if err != nil {
		return wrapError("update user password", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapError("update user password", pgx.ErrNoRows)
	}
	return nil
}

// UpdateUserAvatar replaces the avatar URL
func (r *Repository) UpdateUserAvatar(ctx context.Context, id, avatar string) (*models.User, error) {
	query := `UPDATE users SET avatar = $2, updated_at = $3 WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, id, avatar, now()))
	if err != nil {
		return nil, wrapError("update user avatar", err)
	}
	return user, nil
}

// UpdateUserCoverImage replaces the cover image URL
func (r *Repository) UpdateUserCoverImage(ctx context.Context, id, coverImage string) (*models.User, error) {
	query := `UPDATE users SET cover_image = $2, updated_at = $3 WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, id, coverImage, now()))
	if err != nil {
		return nil, wrapError("update user cover image", err)
	}
	return user, nil
}

// SetRefreshToken stores the single active refresh token. An empty token clears it.
func (r *Repository) SetRefreshToken(ctx context.Context, id, token string) error {
	var value *string
	if token != "" {
		value = &token
	}

	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET refresh_token = $2 WHERE id = $1`, id, value)
	if err != nil {
		return wrapError("set refresh token", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapError("set refresh token", pgx.ErrNoRows)
	}
	return nil
}

// AddToWatchHistory appends the video to the history once. A repeat view keeps
// the original position.
func (r *Repository) AddToWatchHistory(ctx context.Context, userID, videoID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO watch_history (user_id, video_id) VALUES ($1, $2)
		ON CONFLICT (user_id, video_id) DO NOTHING
	`, userID, videoID)
	return wrapError("add to watch history", err)
}

// GetWatchHistory returns the watched video IDs in history order
func (r *Repository) GetWatchHistory(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT video_id FROM watch_history WHERE user_id = $1 ORDER BY position`, userID)
	if err != nil {
		return nil, wrapError("get watch history", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapError("scan watch history", err)
	}
	return ids, nil
}
