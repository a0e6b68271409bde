package main

import (
	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
)

// Get the caller's channel totals
func (api *API) getChannelStats(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := api.composer.ChannelStats(c.Request.Context(), p.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	response.OK(c, stats, "Channel stats fetched successfully")
}

// List every video of the caller's channel, drafts included
func (api *API) getChannelVideos(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}

	videos, err := api.composer.ChannelVideos(c.Request.Context(), p.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	response.OK(c, videos, "Channel videos fetched successfully")
}
