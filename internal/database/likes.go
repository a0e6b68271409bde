package database

import (
	"context"
	"fmt"

	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

// ToggleLike removes the user's like on target if present, otherwise adds it.
// It reports whether the target is liked afterwards.
func (r *Repository) ToggleLike(ctx context.Context, target models.LikeTarget, userID string) (bool, error) {
	if !target.Kind.Valid() {
		return false, fmt.Errorf("toggle like: unknown target kind %q", target.Kind)
	}

	var removed string
	err := r.db.Pool.QueryRow(ctx, `
		DELETE FROM likes
		WHERE target_kind = $1 AND target_id = $2 AND liked_by = $3
		RETURNING id
	`, string(target.Kind), target.ID, userID).Scan(&removed)
	if err == nil {
		return false, nil
	}
	if err = wrapError("remove like", err); !isNotFound(err) {
		return false, err
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO likes (id, target_kind, target_id, liked_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (target_kind, target_id, liked_by) DO NOTHING
	`, newID(""), string(target.Kind), target.ID, userID)
	if err != nil {
		return false, wrapError("add like", err)
	}
	return true, nil
}

// CountLikes counts likes per target ID for one kind
func (r *Repository) CountLikes(ctx context.Context, kind models.LikeKind, targetIDs []string) (map[string]int64, error) {
	if len(targetIDs) == 0 {
		return map[string]int64{}, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT target_id, COUNT(*) FROM likes
		WHERE target_kind = $1 AND target_id = ANY($2)
		GROUP BY target_id
	`, string(kind), targetIDs)
	if err != nil {
		return nil, wrapError("count likes", err)
	}
	counts, err := countsByKey(rows)
	if err != nil {
		return nil, wrapError("scan like counts", err)
	}
	return counts, nil
}

// LikedBy reports which of the targets the user has liked
func (r *Repository) LikedBy(ctx context.Context, kind models.LikeKind, targetIDs []string, userID string) (map[string]bool, error) {
	if len(targetIDs) == 0 || userID == "" {
		return map[string]bool{}, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT target_id FROM likes
		WHERE target_kind = $1 AND target_id = ANY($2) AND liked_by = $3
	`, string(kind), targetIDs, userID)
	if err != nil {
		return nil, wrapError("get liked targets", err)
	}
	liked, err := keySet(rows)
	if err != nil {
		return nil, wrapError("scan liked targets", err)
	}
	return liked, nil
}

// ListLikedVideos returns one page of the user's video likes, newest first.
// Likes on drafts of other channels are skipped.
func (r *Repository) ListLikedVideos(ctx context.Context, userID string, page models.PageRequest) ([]*models.Like, int64, error) {
	const from = `
		FROM likes l
		JOIN videos v ON v.id = l.target_id
		WHERE l.target_kind = 'video' AND l.liked_by = $1
		  AND (v.is_published OR v.owner_id = $1)
	`

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) `+from, userID).Scan(&total); err != nil {
		return nil, 0, wrapError("count liked videos", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT l.id, l.target_id, l.liked_by, l.created_at `+from+`
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT $2 OFFSET $3
	`, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, wrapError("list liked videos", err)
	}
	defer rows.Close()

	var likes []*models.Like
	for rows.Next() {
		like := models.Like{Target: models.LikeTarget{Kind: models.LikeKindVideo}}
		if err := rows.Scan(&like.ID, &like.Target.ID, &like.LikedBy, &like.CreatedAt); err != nil {
			return nil, 0, wrapError("scan like", err)
		}
		likes = append(likes, &like)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapError("iterate likes", err)
	}
	return likes, total, nil
}
