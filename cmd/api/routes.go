package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/middleware"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/tracing"
)

// setupRouter mounts every route of the API. A nil limiter disables per-client
// rate limiting.
func setupRouter(api *API, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = 32 << 20

	router.Use(
		middleware.Recovery(api.logger),
		middleware.RequestID(api.logger),
		middleware.Logger(api.logger),
		middleware.Metrics(),
		tracing.Middleware(),
		middleware.ErrorHandler(api.logger),
	)
	if limiter != nil {
		router.Use(middleware.RateLimit(limiter))
	}

	router.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Route not found")
	})

	requireUser := middleware.RequireUser(api.auth)
	optionalUser := middleware.OptionalUser(api.auth)
	adminOrUser := middleware.AdminOrUser(api.auth)

	// Health check
	router.GET("/health", api.healthCheck)

	v1 := router.Group("/api/v1")
	v1.GET("/health", api.healthCheck)

	// Users
	users := v1.Group("/users")
	{
		users.POST("/register", api.registerUser)
		users.POST("/login", api.loginUser)
		users.POST("/refresh-token", api.refreshAccessToken)
		users.GET("/c/:username", optionalUser, api.getChannelProfile)

		users.POST("/logout", requireUser, api.logoutUser)
		users.POST("/change-password", requireUser, api.changePassword)
		users.GET("/me", requireUser, api.getCurrentUser)
		users.PATCH("/me", requireUser, api.updateAccountDetails)
		users.PATCH("/avatar", requireUser, api.updateAvatar)
		users.PATCH("/cover-image", requireUser, api.updateCoverImage)
		users.GET("/history", requireUser, api.getWatchHistory)
	}

	// Videos
	videos := v1.Group("/videos")
	{
		videos.GET("", optionalUser, api.listVideos)
		videos.POST("", requireUser, api.publishVideo)
		videos.GET("/v/:videoId", optionalUser, api.getVideo)
		videos.PATCH("/v/:videoId", requireUser, api.updateVideo)
		videos.DELETE("/v/:videoId", adminOrUser, api.deleteVideo)
		videos.PATCH("/toggle/publish/:videoId", requireUser, api.togglePublishStatus)
	}

	// Comments
	comments := v1.Group("/comments")
	{
		comments.GET("/:videoId", adminOrUser, api.getVideoComments)
		comments.POST("/:videoId", requireUser, api.addComment)
		comments.PATCH("/c/:commentId", requireUser, api.updateComment)
		comments.DELETE("/c/:commentId", adminOrUser, api.deleteComment)
	}

	// Likes
	likes := v1.Group("/likes", requireUser)
	{
		likes.POST("/v/:videoId", api.toggleVideoLike)
		likes.POST("/c/:commentId", api.toggleCommentLike)
		likes.POST("/t/:tweetId", api.toggleTweetLike)
		likes.GET("/videos", api.getLikedVideos)
	}

	// Subscriptions
	subscriptions := v1.Group("/subscriptions", requireUser)
	{
		subscriptions.POST("/c/:channelId", api.toggleSubscription)
		subscriptions.GET("/c/:channelId", api.getChannelSubscribers)
		subscriptions.GET("/u/:subscriberId", api.getSubscribedChannels)
	}

	// Playlists
	playlists := v1.Group("/playlists")
	{
		playlists.POST("", requireUser, api.createPlaylist)
		playlists.GET("/:playlistId", adminOrUser, api.getPlaylist)
		playlists.PATCH("/:playlistId", requireUser, api.updatePlaylist)
		playlists.DELETE("/:playlistId", adminOrUser, api.deletePlaylist)
		playlists.PATCH("/add/:videoId/:playlistId", requireUser, api.addVideoToPlaylist)
		playlists.PATCH("/remove/:videoId/:playlistId", requireUser, api.removeVideoFromPlaylist)
		playlists.GET("/user/:userId", adminOrUser, api.getUserPlaylists)
	}

	// Tweets
	tweets := v1.Group("/tweets")
	{
		tweets.POST("", requireUser, api.createTweet)
		tweets.GET("/user/:userId", requireUser, api.getUserTweets)
		tweets.PATCH("/t/:tweetId", requireUser, api.updateTweet)
		tweets.DELETE("/t/:tweetId", adminOrUser, api.deleteTweet)
	}

	// Dashboard
	dashboard := v1.Group("/dashboard", requireUser)
	{
		dashboard.GET("/stats", api.getChannelStats)
		dashboard.GET("/videos", api.getChannelVideos)
	}

	// Admin
	admin := v1.Group("/admin")
	{
		admin.POST("/login", api.adminLogin)
		admin.POST("/logout", api.adminLogout)
	}

	return router
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// Check database health
	if err := api.store.Ping(ctx); err != nil {
		api.logger.WarnWithErr("Health check failed", err)
		response.JSON(c, http.StatusServiceUnavailable, gin.H{"status": "unhealthy"}, "Database unavailable")
		return
	}

	response.OK(c, gin.H{"status": "healthy"}, "OK")
}
