package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

const commentColumns = `id, content, video_id, owner_id, created_at, updated_at`

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	if err := row.Scan(&c.ID, &c.Content, &c.VideoID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateComment adds a comment to a video. An unknown video yields ErrNotFound.
func (r *Repository) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = newID(comment.ID)

	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO comments (id, content, video_id, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, comment.ID, comment.Content, comment.VideoID, comment.OwnerID,
	).Scan(&comment.CreatedAt, &comment.UpdatedAt)

	return wrapError("create comment", err)
}

// GetComment retrieves a comment by ID
func (r *Repository) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := scanComment(r.db.Pool.QueryRow(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		return nil, wrapError("get comment", err)
	}
	return comment, nil
}

// UpdateComment replaces the content of a comment
func (r *Repository) UpdateComment(ctx context.Context, id, content string) (*models.Comment, error) {
	comment, err := scanComment(r.db.Pool.QueryRow(ctx, `
		UPDATE comments SET content = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+commentColumns,
		id, content, now()))
	if err != nil {
		return nil, wrapError("update comment", err)
	}
	return comment, nil
}

// DeleteComment removes a comment and the likes on it
func (r *Repository) DeleteComment(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM likes WHERE target_kind = 'comment' AND target_id = $1`, id); err != nil {
			return wrapError("delete comment likes", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
		if err != nil {
			return wrapError("delete comment", err)
		}
		if tag.RowsAffected() == 0 {
			return wrapError("delete comment", pgx.ErrNoRows)
		}
		return nil
	})
}

// ListCommentsByVideo returns one page of a video's comments, newest first
func (r *Repository) ListCommentsByVideo(ctx context.Context, videoID string, page models.PageRequest) ([]*models.Comment, int64, error) {
	var total int64
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID).Scan(&total); err != nil {
		return nil, 0, wrapError("count comments", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+commentColumns+` FROM comments
		WHERE video_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, videoID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, wrapError("list comments", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, wrapError("scan comment", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapError("iterate comments", err)
	}
	return comments, total, nil
}
