package main

import (
	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

// Toggle the caller's like on a video
func (api *API) toggleVideoLike(c *gin.Context) {
	api.toggleLike(c, models.LikeKindVideo, "videoId")
}

// Toggle the caller's like on a comment
func (api *API) toggleCommentLike(c *gin.Context) {
	api.toggleLike(c, models.LikeKindComment, "commentId")
}

// Toggle the caller's like on a tweet
func (api *API) toggleTweetLike(c *gin.Context) {
	api.toggleLike(c, models.LikeKindTweet, "tweetId")
}

func (api *API) toggleLike(c *gin.Context, kind models.LikeKind, param string) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, param, "Invalid "+param)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// Resolve the target so likes never point at missing entities
	var ownerID string
	switch kind {
	case models.LikeKindVideo:
		video, err := api.store.GetVideo(ctx, id)
		if err != nil {
			c.Error(notFound(err, "Video not found"))
			return
		}
		if !video.VisibleTo(p.UserID) {
			c.Error(apierror.NotFound("Video not found"))
			return
		}
		ownerID = video.OwnerID
	case models.LikeKindComment:
		comment, err := api.store.GetComment(ctx, id)
		if err != nil {
			c.Error(notFound(err, "Comment not found"))
			return
		}
		video, err := api.store.GetVideo(ctx, comment.VideoID)
		if err != nil {
			c.Error(notFound(err, "Comment not found"))
			return
		}
		if !video.VisibleTo(p.UserID) {
			c.Error(apierror.NotFound("Comment not found"))
			return
		}
	case models.LikeKindTweet:
		if _, err := api.store.GetTweet(ctx, id); err != nil {
			c.Error(notFound(err, "Tweet not found"))
			return
		}
	}

	liked, err := api.store.ToggleLike(ctx, models.LikeTarget{Kind: kind, ID: id}, p.UserID)
	if err != nil {
		c.Error(err)
		return
	}
	metrics.RecordToggle("like_"+string(kind), liked)
	if ownerID != "" {
		api.invalidateStats(ctx, ownerID)
	}

	message := "Like removed"
	if liked {
		message = "Like added"
	}
	response.OK(c, gin.H{"isLiked": liked}, message)
}

// List the videos the caller liked, most recent like first
func (api *API) getLikedVideos(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := api.composer.LikedVideos(c.Request.Context(), p.UserID, pageRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	response.OK(c, page, "Liked videos fetched successfully")
}
