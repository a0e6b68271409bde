package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/feed"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/media"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

var videoSortFields = map[string]bool{
	models.VideoSortCreatedAt: true,
	models.VideoSortViews:     true,
	models.VideoSortDuration:  true,
	models.VideoSortTitle:     true,
}

// List videos with search, owner filter, sorting and pagination
func (api *API) listVideos(c *gin.Context) {
	q := feed.FeedQuery{
		Query:    strings.TrimSpace(c.Query("query")),
		SortBy:   c.DefaultQuery("sortBy", models.VideoSortCreatedAt),
		SortType: strings.ToLower(c.DefaultQuery("sortType", "desc")),
		Page:     pageRequest(c),
	}

	if !videoSortFields[q.SortBy] {
		c.Error(apierror.Validation("Invalid sortBy, expected one of createdAt, views, duration, title"))
		return
	}
	if q.SortType != "asc" && q.SortType != "desc" {
		c.Error(apierror.Validation("Invalid sortType, expected asc or desc"))
		return
	}
	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.Error(apierror.Validation("Invalid userId"))
			return
		}
		q.OwnerID = id.String()
	}

	page, err := api.composer.VideoFeed(c.Request.Context(), viewerID(c), q)
	if err != nil {
		c.Error(err)
		return
	}

	response.OK(c, page, "Videos fetched successfully")
}

// Publish a video. Without a thumbnail a frame of the video is used.
func (api *API) publishVideo(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	videoPath, removeVideo, err := api.saveUpload(c, "videoFile")
	defer removeVideo()
	if err != nil {
		c.Error(err)
		return
	}
	thumbPath, removeThumb, err := api.saveUpload(c, "thumbnail")
	defer removeThumb()
	if err != nil {
		c.Error(err)
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	description := strings.TrimSpace(c.PostForm("description"))
	if title == "" || description == "" {
		c.Error(apierror.Validation("Title and description are required"))
		return
	}
	if videoPath == "" {
		c.Error(apierror.Validation("Video file is missing"))
		return
	}

	videoAsset, err := api.media.Upload(ctx, videoPath, media.FolderVideos)
	if err != nil {
		c.Error(apierror.Dependency(err, "Error while uploading video"))
		return
	}

	var thumbAsset *media.Asset
	if thumbPath != "" {
		thumbAsset, err = api.media.Upload(ctx, thumbPath, media.FolderThumbnails)
	} else {
		thumbAsset, err = api.media.ExtractFrame(ctx, videoAsset.PublicID, videoAsset.Duration)
	}
	if err != nil {
		api.deleteMedia(ctx, videoAsset.PublicID)
		c.Error(apierror.Dependency(err, "Error while uploading thumbnail"))
		return
	}

	video := &models.Video{
		Title:       title,
		Description: description,
		VideoFile:   videoAsset.URL,
		Thumbnail:   thumbAsset.URL,
		Duration:    videoAsset.Duration,
		OwnerID:     p.UserID,
	}
	if err := api.store.CreateVideo(ctx, video); err != nil {
		if failed := api.deleteMedia(ctx, videoAsset.PublicID, thumbAsset.PublicID); len(failed) > 0 {
			api.scheduleCleanup(ctx, "", failed, "video record was not created")
		}
		c.Error(err)
		return
	}
	api.invalidateStats(ctx, p.UserID)

	logging.FromContext(ctx, api.logger).WithVideoID(video.ID).Info("Video uploaded as draft")
	response.Created(c, video, "Video published successfully")
}

// Get a video with engagement details. Counts as a view.
func (api *API) getVideo(c *gin.Context) {
	videoID, ok := pathID(c, "videoId", "Invalid videoId")
	if !ok {
		return
	}

	detail, err := api.composer.VideoDetail(c.Request.Context(), videoID, viewerID(c))
	if err != nil {
		c.Error(notFound(err, "Video not found"))
		return
	}

	response.OK(c, detail, "Video fetched successfully")
}

// Update title, description and optionally the thumbnail of an owned video
func (api *API) updateVideo(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := pathID(c, "videoId", "Invalid videoId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	thumbPath, removeThumb, err := api.saveUpload(c, "thumbnail")
	defer removeThumb()
	if err != nil {
		c.Error(err)
		return
	}

	video, err := api.store.GetVideo(ctx, videoID)
	if err != nil {
		c.Error(notFound(err, "Video not found"))
		return
	}
	if video.OwnerID != p.UserID {
		c.Error(apierror.Forbidden("Only the owner can edit this video"))
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	description := strings.TrimSpace(c.PostForm("description"))
	if title == "" && description == "" && thumbPath == "" {
		c.Error(apierror.Validation("Title, description or thumbnail is required"))
		return
	}
	if title != "" {
		video.Title = title
	}
	if description != "" {
		video.Description = description
	}

	oldThumbnail := video.Thumbnail
	var thumbAsset *media.Asset
	if thumbPath != "" {
		thumbAsset, err = api.media.Upload(ctx, thumbPath, media.FolderThumbnails)
		if err != nil {
			c.Error(apierror.Dependency(err, "Error while uploading thumbnail"))
			return
		}
		video.Thumbnail = thumbAsset.URL
	}

	if err := api.store.UpdateVideo(ctx, video); err != nil {
		if thumbAsset != nil {
			api.deleteMedia(ctx, thumbAsset.PublicID)
		}
		c.Error(notFound(err, "Video not found"))
		return
	}
	if thumbAsset != nil {
		api.replaceMedia(ctx, oldThumbnail)
	}

	response.OK(c, video, "Video updated successfully")
}

// Delete a video with its comments and likes. Owners and admins only.
func (api *API) deleteVideo(c *gin.Context) {
	videoID, ok := pathID(c, "videoId", "Invalid videoId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	video, err := api.store.GetVideo(ctx, videoID)
	if err != nil {
		c.Error(notFound(err, "Video not found"))
		return
	}
	if !canDelete(c, video.OwnerID) {
		c.Error(apierror.Forbidden("Only the owner can delete this video"))
		return
	}

	// Media goes first; a failure leaves the record so the worker can retry the URLs
	if failed := api.deleteMedia(ctx, media.PublicIDs(api.media, video.VideoFile, video.Thumbnail)...); len(failed) > 0 {
		api.unpublish(ctx, video)
		if api.scheduleCleanup(ctx, video.ID, failed, "media delete failed") {
			response.JSON(c, http.StatusAccepted, gin.H{"videoId": video.ID}, "Video deletion scheduled")
			return
		}
		c.Error(apierror.Dependency(errors.New("media delete failed"), "Failed to delete video media"))
		return
	}

	if err := api.store.DeleteVideoCascade(ctx, video.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.Error(apierror.NotFound("Video not found"))
			return
		}
		api.unpublish(ctx, video)
		if api.scheduleCleanup(ctx, video.ID, nil, "record delete failed") {
			response.JSON(c, http.StatusAccepted, gin.H{"videoId": video.ID}, "Video deletion scheduled")
			return
		}
		c.Error(err)
		return
	}
	api.invalidateStats(ctx, video.OwnerID)

	logging.FromContext(ctx, api.logger).WithVideoID(video.ID).Info("Video deleted")
	response.OK(c, gin.H{"videoId": video.ID}, "Video deleted successfully")
}

// unpublish takes a half-deleted video out of the feeds until the worker finishes
func (api *API) unpublish(ctx context.Context, video *models.Video) {
	if !video.IsPublished {
		return
	}
	video.IsPublished = false
	if err := api.store.UpdateVideo(ctx, video); err != nil {
		logging.FromContext(ctx, api.logger).WithVideoID(video.ID).WarnWithErr("Failed to unpublish video pending deletion", err)
	}
}

// Flip the published state of an owned video
func (api *API) togglePublishStatus(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := pathID(c, "videoId", "Invalid videoId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	video, err := api.store.GetVideo(ctx, videoID)
	if err != nil {
		c.Error(notFound(err, "Video not found"))
		return
	}
	if video.OwnerID != p.UserID {
		c.Error(apierror.Forbidden("Only the owner can change the publish status"))
		return
	}

	video.IsPublished = !video.IsPublished
	if err := api.store.UpdateVideo(ctx, video); err != nil {
		c.Error(notFound(err, "Video not found"))
		return
	}

	response.OK(c, gin.H{"isPublished": video.IsPublished}, "Publish status toggled successfully")
}
