package feed

import (
	"context"

	"github.com/therealutkarshpriyadarshi/vidtube/internal/tracing"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

// Playlist returns a playlist with its visible videos and totals
func (c *Composer) Playlist(ctx context.Context, playlistID, viewerID string) (_ *models.PlaylistView, err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.playlist")
	defer func() { tracing.FinishSpan(span, err) }()

	playlist, err := c.store.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	views, err := c.playlistViews(ctx, []*models.Playlist{playlist}, viewerID, true)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// UserPlaylists lists a user's playlists with totals, without video cards
func (c *Composer) UserPlaylists(ctx context.Context, userID, viewerID string) (_ []models.PlaylistView, err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.user_playlists")
	defer func() { tracing.FinishSpan(span, err) }()

	if _, err := c.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	playlists, err := c.store.ListPlaylistsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.playlistViews(ctx, playlists, viewerID, false)
}

// playlistViews computes totals over the videos of each playlist the viewer
// may see, with one batched video lookup for all playlists.
func (c *Composer) playlistViews(ctx context.Context, playlists []*models.Playlist, viewerID string, withVideos bool) ([]models.PlaylistView, error) {
	var videoIDs, ownerIDs []string
	for _, p := range playlists {
		videoIDs = append(videoIDs, p.Videos...)
		ownerIDs = append(ownerIDs, p.OwnerID)
	}

	videos, err := c.store.GetVideosByIDs(ctx, unique(videoIDs))
	if err != nil {
		return nil, err
	}
	owners, err := c.store.GetUsersByIDs(ctx, unique(ownerIDs))
	if err != nil {
		return nil, err
	}

	views := make([]models.PlaylistView, 0, len(playlists))
	for _, p := range playlists {
		view := models.PlaylistView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Owner:       owners[p.OwnerID].Summary(),
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}

		var visible []*models.Video
		for _, id := range p.Videos {
			v, ok := videos[id]
			if !ok || !v.VisibleTo(viewerID) {
				continue
			}
			visible = append(visible, v)
			view.TotalVideos++
			view.TotalViews += v.Views
		}

		if withVideos {
			cards, err := c.videoCards(ctx, visible)
			if err != nil {
				return nil, err
			}
			view.Videos = cards
		}
		views = append(views, view)
	}
	return views, nil
}
