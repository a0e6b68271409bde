package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

const playlistColumns = `id, name, description, owner_id, created_at, updated_at`

func scanPlaylist(row pgx.Row) (*models.Playlist, error) {
	var p models.Playlist
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Videos = []string{}
	return &p, nil
}

// CreatePlaylist creates an empty playlist
func (r *Repository) CreatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	playlist.ID = newID(playlist.ID)
	if playlist.Videos == nil {
		playlist.Videos = []string{}
	}

	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO playlists (id, name, description, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, playlist.ID, playlist.Name, playlist.Description, playlist.OwnerID,
	).Scan(&playlist.CreatedAt, &playlist.UpdatedAt)

	return wrapError("create playlist", err)
}

// CountPlaylistsByOwner counts the playlists of a user
func (r *Repository) CountPlaylistsByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM playlists WHERE owner_id = $1`, ownerID).Scan(&n)
	if err != nil {
		return 0, wrapError("count playlists", err)
	}
	return n, nil
}

// GetPlaylist retrieves a playlist with its video IDs in insertion order
func (r *Repository) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	playlist, err := scanPlaylist(r.db.Pool.QueryRow(ctx,
		`SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, id))
	if err != nil {
		return nil, wrapError("get playlist", err)
	}

	entries, err := r.playlistEntries(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	playlist.Videos = append(playlist.Videos, entries[id]...)
	return playlist, nil
}

func (r *Repository) playlistEntries(ctx context.Context, playlistIDs []string) (map[string][]string, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT playlist_id, video_id FROM playlist_videos
		WHERE playlist_id = ANY($1)
		ORDER BY position
	`, playlistIDs)
	if err != nil {
		return nil, wrapError("get playlist entries", err)
	}
	defer rows.Close()

	out := make(map[string][]string, len(playlistIDs))
	for rows.Next() {
		var playlistID, videoID string
		if err := rows.Scan(&playlistID, &videoID); err != nil {
			return nil, wrapError("scan playlist entry", err)
		}
		out[playlistID] = append(out[playlistID], videoID)
	}
	return out, wrapError("iterate playlist entries", rows.Err())
}

// UpdatePlaylist changes the name and description of a playlist
func (r *Repository) UpdatePlaylist(ctx context.Context, id, name, description string) (*models.Playlist, error) {
	_, err := scanPlaylist(r.db.Pool.QueryRow(ctx, `
		UPDATE playlists SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+playlistColumns,
		id, name, description, now()))
	if err != nil {
		return nil, wrapError("update playlist", err)
	}
	return r.GetPlaylist(ctx, id)
}

// DeletePlaylist removes a playlist and its entries
func (r *Repository) DeletePlaylist(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return wrapError("delete playlist", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapError("delete playlist", pgx.ErrNoRows)
	}
	return nil
}

// AddVideoToPlaylist appends the video unless the playlist already holds it
func (r *Repository) AddVideoToPlaylist(ctx context.Context, playlistID, videoID string) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO playlist_videos (playlist_id, video_id) VALUES ($1, $2)
			ON CONFLICT (playlist_id, video_id) DO NOTHING
		`, playlistID, videoID); err != nil {
			return wrapError("add video to playlist", err)
		}
		return touchPlaylist(ctx, tx, playlistID)
	})
}

// RemoveVideoFromPlaylist removes the video if present
func (r *Repository) RemoveVideoFromPlaylist(ctx context.Context, playlistID, videoID string) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`,
			playlistID, videoID); err != nil {
			return wrapError("remove video from playlist", err)
		}
		return touchPlaylist(ctx, tx, playlistID)
	})
}

func touchPlaylist(ctx context.Context, q querier, id string) error {
	tag, err := q.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, id, now())
	if err != nil {
		return wrapError("touch playlist", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapError("touch playlist", pgx.ErrNoRows)
	}
	return nil
}

// ListPlaylistsByOwner returns a user's playlists, newest first
func (r *Repository) ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]*models.Playlist, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+playlistColumns+` FROM playlists
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
	if err != nil {
		return nil, wrapError("list playlists", err)
	}

	var playlists []*models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			rows.Close()
			return nil, wrapError("scan playlist", err)
		}
		playlists = append(playlists, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate playlists", err)
	}
	if len(playlists) == 0 {
		return playlists, nil
	}

	ids := make([]string, len(playlists))
	for i, p := range playlists {
		ids[i] = p.ID
	}
	entries, err := r.playlistEntries(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range playlists {
		p.Videos = append(p.Videos, entries[p.ID]...)
	}
	return playlists, nil
}
