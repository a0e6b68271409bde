package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

const videoColumns = `id, title, description, video_file, thumbnail, duration, owner_id,
	is_published, views, created_at, updated_at`

// videoSortColumns whitelists the sortable fields of the feed
var videoSortColumns = map[string]string{
	models.VideoSortCreatedAt: "created_at",
	models.VideoSortViews:     "views",
	models.VideoSortDuration:  "duration",
	models.VideoSortTitle:     "title",
}

func scanVideo(row pgx.Row) (*models.Video, error) {
	var v models.Video
	err := row.Scan(
		&v.ID, &v.Title, &v.Description, &v.VideoFile, &v.Thumbnail, &v.Duration,
		&v.OwnerID, &v.IsPublished, &v.Views, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVideos(rows pgx.Rows) ([]*models.Video, error) {
	defer rows.Close()
	var videos []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// CreateVideo creates a new video record
func (r *Repository) CreateVideo(ctx context.Context, video *models.Video) error {
	video.ID = newID(video.ID)

	query := `
		INSERT INTO videos (id, title, description, video_file, thumbnail, duration, owner_id, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING views, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		video.ID, video.Title, video.Description, video.VideoFile, video.Thumbnail,
		video.Duration, video.OwnerID, video.IsPublished,
	).Scan(&video.Views, &video.CreatedAt, &video.UpdatedAt)

	return wrapError("create video", err)
}

// GetVideo retrieves a video by ID
func (r *Repository) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	video, err := scanVideo(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapError("get video", err)
	}
	return video, nil
}

// GetVideosByIDs loads a batch of videos keyed by ID
func (r *Repository) GetVideosByIDs(ctx context.Context, ids []string) (map[string]*models.Video, error) {
	out := make(map[string]*models.Video, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Pool.Query(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, wrapError("get videos", err)
	}
	videos, err := collectVideos(rows)
	if err != nil {
		return nil, wrapError("scan videos", err)
	}
	for _, v := range videos {
		out[v.ID] = v
	}
	return out, nil
}

// UpdateVideo persists the mutable fields of a video
func (r *Repository) UpdateVideo(ctx context.Context, video *models.Video) error {
	query := `
		UPDATE videos
		SET title = $2, description = $3, thumbnail = $4, is_published = $5, updated_at = $6
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		video.ID, video.Title, video.Description, video.Thumbnail, video.IsPublished, now(),
	).Scan(&video.UpdatedAt)

	return wrapError("update video", err)
}

// IncrementVideoViews bumps the view counter by one
func (r *Repository) IncrementVideoViews(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return wrapError("increment video views", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapError("increment video views", pgx.ErrNoRows)
	}
	return nil
}

// buildVideoSearch renders the WHERE and ORDER BY clauses of a feed query.
// Sort fields outside the whitelist fall back to creation time.
func buildVideoSearch(filter models.VideoFilter) (where string, order string, args []any) {
	var conds []string
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, q)
		conds = append(conds, fmt.Sprintf("search @@ plainto_tsquery('simple', $%d)", len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.PublishedOnly {
		conds = append(conds, "is_published = TRUE")
	}
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	column, ok := videoSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortAscending {
		direction = "ASC"
	}
	order = fmt.Sprintf("ORDER BY %s %s, id %s", column, direction, direction)
	return where, order, args
}

// ListVideos returns one page of the feed and the total number of matches
func (r *Repository) ListVideos(ctx context.Context, filter models.VideoFilter) ([]*models.Video, int64, error) {
	where, order, args := buildVideoSearch(filter)

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM videos `+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapError("count videos", err)
	}

	page := filter.Page
	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM videos %s %s LIMIT $%d OFFSET $%d`,
		videoColumns, where, order, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, wrapError("list videos", err)
	}
	videos, err := collectVideos(rows)
	if err != nil {
		return nil, 0, wrapError("scan videos", err)
	}
	return videos, total, nil
}

// ListVideosByOwner returns every video of a channel, drafts included, newest first
func (r *Repository) ListVideosByOwner(ctx context.Context, ownerID string) ([]*models.Video, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, wrapError("list videos by owner", err)
	}
	videos, err := collectVideos(rows)
	if err != nil {
		return nil, wrapError("scan videos", err)
	}
	return videos, nil
}

// LatestVideosByOwners returns the newest published video of each channel
func (r *Repository) LatestVideosByOwners(ctx context.Context, ownerIDs []string) (map[string]*models.Video, error) {
	out := make(map[string]*models.Video, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT DISTINCT ON (owner_id) ` + videoColumns + `
		FROM videos
		WHERE owner_id = ANY($1) AND is_published = TRUE
		ORDER BY owner_id, created_at DESC, id DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerIDs)
	if err != nil {
		return nil, wrapError("latest videos by owner", err)
	}
	videos, err := collectVideos(rows)
	if err != nil {
		return nil, wrapError("scan videos", err)
	}
	for _, v := range videos {
		out[v.OwnerID] = v
	}
	return out, nil
}

// DeleteVideoCascade removes a video together with its comments, the likes on
// the video and on those comments, playlist entries and watch history rows.
func (r *Repository) DeleteVideoCascade(ctx context.Context, id string) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		return deleteVideoTx(ctx, tx, id)
	})
}

func deleteVideoTx(ctx context.Context, q querier, id string) error {
	if _, err := q.Exec(ctx, `
		DELETE FROM likes
		WHERE target_kind = 'comment'
		  AND target_id IN (SELECT id FROM comments WHERE video_id = $1)
	`, id); err != nil {
		return wrapError("delete comment likes", err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM likes WHERE target_kind = 'video' AND target_id = $1`, id); err != nil {
		return wrapError("delete video likes", err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM comments WHERE video_id = $1`, id); err != nil {
		return wrapError("delete comments", err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM playlist_videos WHERE video_id = $1`, id); err != nil {
		return wrapError("delete playlist entries", err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM watch_history WHERE video_id = $1`, id); err != nil {
		return wrapError("delete watch history", err)
	}

	tag, err := q.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return wrapError("delete video", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapError("delete video", pgx.ErrNoRows)
	}
	return nil
}
