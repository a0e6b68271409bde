package main

import (
	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
)

// Subscribe to or unsubscribe from a channel
func (api *API) toggleSubscription(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	channelID, ok := pathID(c, "channelId", "Invalid channelId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if channelID == p.UserID {
		c.Error(apierror.Validation("You cannot subscribe to your own channel"))
		return
	}
	if _, err := api.store.GetUserByID(ctx, channelID); err != nil {
		c.Error(notFound(err, "Channel not found"))
		return
	}

	subscribed, err := api.store.ToggleSubscription(ctx, p.UserID, channelID)
	if err != nil {
		c.Error(err)
		return
	}
	metrics.RecordToggle("subscription", subscribed)
	api.invalidateStats(ctx, channelID)

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	response.OK(c, gin.H{"subscribed": subscribed}, message)
}

// List the subscribers of a channel
func (api *API) getChannelSubscribers(c *gin.Context) {
	channelID, ok := pathID(c, "channelId", "Invalid channelId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := api.store.GetUserByID(ctx, channelID); err != nil {
		c.Error(notFound(err, "Channel not found"))
		return
	}

	subscribers, err := api.composer.Subscribers(ctx, channelID)
	if err != nil {
		c.Error(err)
		return
	}

	response.OK(c, subscribers, "Subscribers fetched successfully")
}

// List the channels a user subscribes to, each with its latest video
func (api *API) getSubscribedChannels(c *gin.Context) {
	subscriberID, ok := pathID(c, "subscriberId", "Invalid subscriberId")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := api.store.GetUserByID(ctx, subscriberID); err != nil {
		c.Error(notFound(err, "User not found"))
		return
	}

	channels, err := api.composer.SubscribedChannels(ctx, subscriberID)
	if err != nil {
		c.Error(err)
		return
	}

	response.OK(c, channels, "Subscribed channels fetched successfully")
}
