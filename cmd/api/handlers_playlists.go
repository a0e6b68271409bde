package main

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

type playlistRequest struct {
	Name        string `json:"name" form:"name" binding:"max=120"`
	Description string `json:"description" form:"description" binding:"max=1000"`
}

// Create a playlist. An empty name becomes "Untitled Playlist N".
func (api *API) createPlaylist(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req playlistRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		count, err := api.store.CountPlaylistsByOwner(ctx, p.UserID)
		if err != nil {
			c.Error(err)
			return
		}
		name = fmt.Sprintf("Untitled Playlist %d", count+1)
	}

	playlist := &models.Playlist{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		OwnerID:     p.UserID,
	}
	if err := api.store.CreatePlaylist(ctx, playlist); err != nil {
		c.Error(err)
		return
	}

	response.Created(c, playlist, "Playlist created")
}

// Get a playlist with its videos and totals
func (api *API) getPlaylist(c *gin.Context) {
	playlistID, ok := pathID(c, "playlistId", "Invalid playlistId")
	if !ok {
		return
	}

	playlist, err := api.composer.Playlist(c.Request.Context(), playlistID, viewerID(c))
	if err != nil {
		c.Error(notFound(err, "Playlist not found"))
		return
	}

	response.OK(c, playlist, "Playlist fetched successfully")
}

// Rename an owned playlist or change its description
func (api *API) updatePlaylist(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	playlistID, ok := pathID(c, "playlistId", "Invalid playlistId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req playlistRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.Error(apierror.Validation("Name is required when updating it"))
		return
	}

	playlist, ok := api.ownedPlaylist(c, playlistID, p.UserID)
	if !ok {
		return
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = playlist.Description
	}
	updated, err := api.store.UpdatePlaylist(ctx, playlist.ID, name, description)
	if err != nil {
		c.Error(notFound(err, "Playlist not found"))
		return
	}

	response.OK(c, updated, "Playlist updated")
}

// Delete a playlist. Owners and admins only.
func (api *API) deletePlaylist(c *gin.Context) {
	playlistID, ok := pathID(c, "playlistId", "Invalid playlistId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	playlist, err := api.store.GetPlaylist(ctx, playlistID)
	if err != nil {
		c.Error(notFound(err, "Playlist not found"))
		return
	}
	if !canDelete(c, playlist.OwnerID) {
		c.Error(apierror.Forbidden("Only the owner can delete the playlist"))
		return
	}

	if err := api.store.DeletePlaylist(ctx, playlist.ID); err != nil {
		c.Error(notFound(err, "Playlist not found"))
		return
	}

	response.OK(c, gin.H{}, "Playlist deleted successfully")
}

// Add a video to an owned playlist. Adding a contained video is a no-op.
func (api *API) addVideoToPlaylist(c *gin.Context) {
	api.editPlaylistVideos(c, true)
}

// Remove a video from an owned playlist
func (api *API) removeVideoFromPlaylist(c *gin.Context) {
	api.editPlaylistVideos(c, false)
}

func (api *API) editPlaylistVideos(c *gin.Context, add bool) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := pathID(c, "videoId", "Invalid videoId")
	if !ok {
		return
	}
	playlistID, ok := pathID(c, "playlistId", "Invalid playlistId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	playlist, ok := api.ownedPlaylist(c, playlistID, p.UserID)
	if !ok {
		return
	}

	if add {
		video, err := api.store.GetVideo(ctx, videoID)
		if err != nil {
			c.Error(notFound(err, "Video not found"))
			return
		}
		if !video.VisibleTo(p.UserID) {
			c.Error(apierror.NotFound("Video not found"))
			return
		}
		if err := api.store.AddVideoToPlaylist(ctx, playlist.ID, video.ID); err != nil {
			c.Error(notFound(err, "Video not found"))
			return
		}
	} else if err := api.store.RemoveVideoFromPlaylist(ctx, playlist.ID, videoID); err != nil {
		c.Error(notFound(err, "Playlist not found"))
		return
	}

	updated, err := api.store.GetPlaylist(ctx, playlist.ID)
	if err != nil {
		c.Error(notFound(err, "Playlist not found"))
		return
	}

	if add {
		response.OK(c, updated, "Video added to playlist")
		return
	}
	response.OK(c, updated, "Video removed from playlist")
}

// ownedPlaylist loads a playlist and checks that the caller owns it
func (api *API) ownedPlaylist(c *gin.Context, playlistID, userID string) (*models.Playlist, bool) {
	playlist, err := api.store.GetPlaylist(c.Request.Context(), playlistID)
	if err != nil {
		c.Error(notFound(err, "Playlist not found"))
		return nil, false
	}
	if playlist.OwnerID != userID {
		c.Error(apierror.Forbidden("Only the owner can edit the playlist"))
		return nil, false
	}
	return playlist, true
}

// List a user's playlists with totals
func (api *API) getUserPlaylists(c *gin.Context) {
	userID, ok := pathID(c, "userId", "Invalid userId")
	if !ok {
		return
	}

	playlists, err := api.composer.UserPlaylists(c.Request.Context(), userID, viewerID(c))
	if err != nil {
		c.Error(notFound(err, "User not found"))
		return
	}

	response.OK(c, playlists, "Playlists fetched successfully")
}
