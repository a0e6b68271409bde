package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

type contentRequest struct {
	Content string `json:"content" form:"content"`
}

func bindContent(c *gin.Context, message string) (string, bool) {
	var req contentRequest
	_ = c.ShouldBind(&req)
	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.Error(apierror.Validation("%s", message))
		return "", false
	}
	return content, true
}

// Get the comments of a video, newest first
func (api *API) getVideoComments(c *gin.Context) {
	videoID, ok := pathID(c, "videoId", "Invalid videoId")
	if !ok {
		return
	}

	page, err := api.composer.Comments(c.Request.Context(), videoID, viewerID(c), pageRequest(c))
	if err != nil {
		c.Error(notFound(err, "Video not found"))
		return
	}

	response.OK(c, page, "Comments fetched successfully")
}

// Add a comment to a video
func (api *API) addComment(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	videoID, ok := pathID(c, "videoId", "Invalid videoId")
	if !ok {
		return
	}
	content, ok := bindContent(c, "Content is required")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	video, err := api.store.GetVideo(ctx, videoID)
	if err != nil {
		c.Error(notFound(err, "Video not found"))
		return
	}
	if !video.VisibleTo(p.UserID) {
		c.Error(apierror.NotFound("Video not found"))
		return
	}

	comment := &models.Comment{
		Content: content,
		VideoID: video.ID,
		OwnerID: p.UserID,
	}
	if err := api.store.CreateComment(ctx, comment); err != nil {
		c.Error(err)
		return
	}

	response.Created(c, comment, "Comment added successfully")
}

// Update an owned comment
func (api *API) updateComment(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "commentId", "Invalid commentId")
	if !ok {
		return
	}
	content, ok := bindContent(c, "Content is required")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	comment, err := api.store.GetComment(ctx, commentID)
	if err != nil {
		c.Error(notFound(err, "Comment not found"))
		return
	}
	if comment.OwnerID != p.UserID {
		c.Error(apierror.Forbidden("Only the comment owner can edit the comment"))
		return
	}

	updated, err := api.store.UpdateComment(ctx, comment.ID, content)
	if err != nil {
		c.Error(notFound(err, "Comment not found"))
		return
	}

	response.OK(c, updated, "Comment updated successfully")
}

// Delete a comment. Owners and admins only.
func (api *API) deleteComment(c *gin.Context) {
	commentID, ok := pathID(c, "commentId", "Invalid commentId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	comment, err := api.store.GetComment(ctx, commentID)
	if err != nil {
		c.Error(notFound(err, "Comment not found"))
		return
	}
	if !canDelete(c, comment.OwnerID) {
		c.Error(apierror.Forbidden("Only the comment owner can delete the comment"))
		return
	}

	if err := api.store.DeleteComment(ctx, comment.ID); err != nil {
		c.Error(notFound(err, "Comment not found"))
		return
	}

	response.OK(c, gin.H{"commentId": comment.ID}, "Comment deleted successfully")
}
