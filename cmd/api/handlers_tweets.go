package main

import (
	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

// Post a tweet on the caller's channel
func (api *API) createTweet(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	content, ok := bindContent(c, "No content to add")
	if !ok {
		return
	}

	tweet := &models.Tweet{Content: content, OwnerID: p.UserID}
	if err := api.store.CreateTweet(c.Request.Context(), tweet); err != nil {
		c.Error(err)
		return
	}

	response.Created(c, tweet, "Tweet posted successfully")
}

// List a user's tweets, newest first
func (api *API) getUserTweets(c *gin.Context) {
	userID, ok := pathID(c, "userId", "Invalid userId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := api.store.GetUserByID(ctx, userID); err != nil {
		c.Error(notFound(err, "User not found"))
		return
	}

	page, err := api.composer.Tweets(ctx, userID, viewerID(c), pageRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	response.OK(c, page, "Tweets fetched successfully")
}

// Edit an owned tweet
func (api *API) updateTweet(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	tweetID, ok := pathID(c, "tweetId", "Invalid tweetId")
	if !ok {
		return
	}
	content, ok := bindContent(c, "No content to update")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	tweet, err := api.store.GetTweet(ctx, tweetID)
	if err != nil {
		c.Error(notFound(err, "Tweet not found"))
		return
	}
	if tweet.OwnerID != p.UserID {
		c.Error(apierror.Forbidden("Only the owner can edit their tweet"))
		return
	}

	updated, err := api.store.UpdateTweet(ctx, tweet.ID, content)
	if err != nil {
		c.Error(notFound(err, "Tweet not found"))
		return
	}

	response.OK(c, updated, "Tweet updated successfully")
}

// Delete a tweet. Owners and admins only.
func (api *API) deleteTweet(c *gin.Context) {
	tweetID, ok := pathID(c, "tweetId", "Invalid tweetId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	tweet, err := api.store.GetTweet(ctx, tweetID)
	if err != nil {
		c.Error(notFound(err, "Tweet not found"))
		return
	}
	if !canDelete(c, tweet.OwnerID) {
		c.Error(apierror.Forbidden("Only the owner can delete their tweets"))
		return
	}

	if err := api.store.DeleteTweet(ctx, tweet.ID); err != nil {
		c.Error(notFound(err, "Tweet not found"))
		return
	}

	response.OK(c, gin.H{"tweetId": tweet.ID}, "Tweet deleted successfully")
}
