package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

const tweetColumns = `id, content, owner_id, created_at, updated_at`

func scanTweet(row pgx.Row) (*models.Tweet, error) {
	var t models.Tweet
	if err := row.Scan(&t.ID, &t.Content, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTweet creates a new tweet
func (r *Repository) CreateTweet(ctx context.Context, tweet *models.Tweet) error {
	tweet.ID = newID(tweet.ID)

	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO tweets (id, content, owner_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, tweet.ID, tweet.Content, tweet.OwnerID).Scan(&tweet.CreatedAt, &tweet.UpdatedAt)

	return wrapError("create tweet", err)
}

// GetTweet retrieves a tweet by ID
func (r *Repository) GetTweet(ctx context.Context, id string) (*models.Tweet, error) {
	tweet, err := scanTweet(r.db.Pool.QueryRow(ctx, `SELECT `+tweetColumns+` FROM tweets WHERE id = $1`, id))
	if err != nil {
		return nil, wrapError("get tweet", err)
	}
	return tweet, nil
}

// UpdateTweet replaces the content of a tweet
func (r *Repository) UpdateTweet(ctx context.Context, id, content string) (*models.Tweet, error) {
	tweet, err := scanTweet(r.db.Pool.QueryRow(ctx, `
		UPDATE tweets SET content = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+tweetColumns,
		id, content, now()))
	if err != nil {
		return nil, wrapError("update tweet", err)
	}
	return tweet, nil
}

// DeleteTweet removes a tweet and the likes on it
func (r *Repository) DeleteTweet(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM likes WHERE target_kind = 'tweet' AND target_id = $1`, id); err != nil {
			return wrapError("delete tweet likes", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM tweets WHERE id = $1`, id)
		if err != nil {
			return wrapError("delete tweet", err)
		}
		if tag.RowsAffected() == 0 {
			return wrapError("delete tweet", pgx.ErrNoRows)
		}
		return nil
	})
}

// ListTweetsByOwner returns one page of a channel's tweets, newest first
func (r *Repository) ListTweetsByOwner(ctx context.Context, ownerID string, page models.PageRequest) ([]*models.Tweet, int64, error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tweets WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, wrapError("count tweets", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+tweetColumns+` FROM tweets
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, ownerID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, wrapError("list tweets", err)
	}
	defer rows.Close()

	var tweets []*models.Tweet
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return nil, 0, wrapError("scan tweet", err)
		}
		tweets = append(tweets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapError("iterate tweets", err)
	}
	return tweets, total, nil
}
