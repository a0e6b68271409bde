package main

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/auth"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/media"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/middleware"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" form:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" form:"newPassword" binding:"required,min=6"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
}

type loginResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Register a new user with an avatar and optional cover image
func (api *API) registerUser(c *gin.Context) {
	ctx := c.Request.Context()

	avatarPath, removeAvatar, err := api.saveUpload(c, "avatar")
	defer removeAvatar()
	if err != nil {
		c.Error(err)
		return
	}
	coverPath, removeCover, err := api.saveUpload(c, "coverImage")
	defer removeCover()
	if err != nil {
		c.Error(err)
		return
	}

	fullName := strings.TrimSpace(c.PostForm("fullName"))
	email := strings.ToLower(strings.TrimSpace(c.PostForm("email")))
	username := strings.ToLower(strings.TrimSpace(c.PostForm("username")))
	password := c.PostForm("password")

	if fullName == "" || email == "" || username == "" || strings.TrimSpace(password) == "" {
		c.Error(apierror.Validation("All fields are required"))
		return
	}
	if !isValidEmail(email) {
		c.Error(apierror.Validation("Invalid email address"))
		return
	}

	if _, err := api.store.GetUserByUsername(ctx, username); err == nil {
		c.Error(apierror.Conflict("User already exists"))
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		c.Error(err)
		return
	}
	if _, err := api.store.GetUserByEmail(ctx, email); err == nil {
		c.Error(apierror.Conflict("User already exists"))
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		c.Error(err)
		return
	}

	if avatarPath == "" {
		c.Error(apierror.Validation("Avatar file is required"))
		return
	}

	hash, err := auth.HashPassword(password, api.cfg.Auth.BcryptCost)
	if err != nil {
		c.Error(apierror.Internal(err))
		return
	}

	avatar, err := api.media.Upload(ctx, avatarPath, media.FolderAvatars)
	if err != nil {
		c.Error(apierror.Dependency(err, "Avatar upload failed"))
		return
	}
	uploaded := []string{avatar.PublicID}

	var coverURL string
	if coverPath != "" {
		cover, err := api.media.Upload(ctx, coverPath, media.FolderCovers)
		if err != nil {
			api.deleteMedia(ctx, uploaded...)
			c.Error(apierror.Dependency(err, "Cover image upload failed"))
			return
		}
		coverURL = cover.URL
		uploaded = append(uploaded, cover.PublicID)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Avatar:       avatar.URL,
		CoverImage:   coverURL,
	}
	if err := api.store.CreateUser(ctx, user); err != nil {
		api.deleteMedia(ctx, uploaded...)
		if errors.Is(err, database.ErrConflict) {
			c.Error(apierror.Conflict("User already exists"))
			return
		}
		c.Error(err)
		return
	}

	logging.FromContext(ctx, api.logger).WithUserID(user.ID).Info("User registered")
	response.Created(c, user, "User registered successfully")
}

// Log in with username or email and password
func (api *API) loginUser(c *gin.Context) {
	ctx := c.Request.Context()

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apierror.Validation("Invalid login request"))
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Username == "" && req.Email == "" {
		c.Error(apierror.Validation("username or email is required"))
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	throttleKey := "login:" + c.ClientIP() + ":" + identifier
	if api.limiter != nil && api.cfg.Auth.LoginAttempts > 0 {
		allowed, err := api.limiter.CheckRateLimit(ctx, throttleKey, api.cfg.Auth.LoginAttempts, api.cfg.Auth.LoginWindow)
		if err != nil {
			logging.FromContext(ctx, api.logger).WarnWithErr("Login throttle unavailable", err)
		} else if !allowed {
			metrics.RecordLoginAttempt("user", "throttled")
			c.Error(apierror.RateLimited("Too many login attempts, try again later"))
			return
		}
	}

	var user *models.User
	var err error
	if req.Username != "" {
		user, err = api.store.GetUserByUsername(ctx, req.Username)
	} else {
		user, err = api.store.GetUserByEmail(ctx, req.Email)
	}
	if err != nil {
		metrics.RecordLoginAttempt("user", "failure")
		c.Error(notFound(err, "User not found"))
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		metrics.RecordLoginAttempt("user", "failure")
		c.Error(apierror.Unauthorized("Invalid user credentials"))
		return
	}

	tokens, loggedIn, err := api.auth.Issue(ctx, user.ID)
	if err != nil {
		c.Error(apierror.Internal(err))
		return
	}
	metrics.RecordLoginAttempt("user", "success")

	if api.limiter != nil {
		if err := api.limiter.ResetRateLimit(ctx, throttleKey); err != nil {
			logging.FromContext(ctx, api.logger).WarnWithErr("Failed to reset login throttle", err)
		}
	}

	api.setSessionCookies(c, tokens)
	response.OK(c, loginResponse{
		User:         loggedIn,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "User logged in successfully")
}

// Log out the current user and revoke the presented access token
func (api *API) logoutUser(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}

	if err := api.auth.Logout(c.Request.Context(), p); err != nil {
		c.Error(err)
		return
	}

	api.clearSessionCookies(c)
	response.OK(c, gin.H{}, "User Logged Out!!")
}

// Rotate the token pair using the refresh token from the cookie or body
func (api *API) refreshAccessToken(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshTokenCookie)
	if token == "" {
		var req refreshRequest
		_ = c.ShouldBind(&req)
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		c.Error(apierror.Unauthorized("Unauthorized request"))
		return
	}

	tokens, _, err := api.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrStaleRefreshToken):
			c.Error(apierror.Unauthorized("Refresh token is expired or used"))
		case errors.Is(err, auth.ErrInvalidToken):
			c.Error(apierror.Unauthorized("Invalid refresh token"))
		default:
			c.Error(err)
		}
		return
	}

	api.setSessionCookies(c, tokens)
	response.OK(c, tokens, "Access token refreshed")
}

// Change the current user's password
func (api *API) changePassword(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req changePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(err)
		return
	}

	user, err := api.store.GetUserByID(ctx, p.UserID)
	if err != nil {
		c.Error(notFound(err, "User not found"))
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.OldPassword) {
		c.Error(apierror.Validation("Invalid old password"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword, api.cfg.Auth.BcryptCost)
	if err != nil {
		c.Error(apierror.Internal(err))
		return
	}
	if err := api.store.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		c.Error(err)
		return
	}

	response.OK(c, gin.H{}, "Password changed successfully")
}

// Get the current user
func (api *API) getCurrentUser(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := api.store.GetUserByID(c.Request.Context(), p.UserID)
	if err != nil {
		c.Error(notFound(err, "User not found"))
		return
	}

	response.OK(c, user, "Current user fetched successfully")
}

// Update the current user's full name and email
func (api *API) updateAccountDetails(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(apierror.Validation("All fields are required"))
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FullName == "" || req.Email == "" {
		c.Error(apierror.Validation("All fields are required"))
		return
	}
	if !isValidEmail(req.Email) {
		c.Error(apierror.Validation("Invalid email address"))
		return
	}

	user, err := api.store.UpdateUserProfile(c.Request.Context(), p.UserID, req.FullName, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			c.Error(apierror.Conflict("Email is already in use"))
			return
		}
		c.Error(notFound(err, "User not found"))
		return
	}

	response.OK(c, user, "Account details updated successfully")
}

// Replace the current user's avatar
func (api *API) updateAvatar(c *gin.Context) {
	api.replaceUserImage(c, "avatar", media.FolderAvatars)
}

// Replace the current user's cover image
func (api *API) updateCoverImage(c *gin.Context) {
	api.replaceUserImage(c, "coverImage", media.FolderCovers)
}

func (api *API) replaceUserImage(c *gin.Context, field string, folder media.Folder) {
	p, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	path, remove, err := api.saveUpload(c, field)
	defer remove()
	if err != nil {
		c.Error(err)
		return
	}
	if path == "" {
		c.Error(apierror.Validation("%s file is missing", field))
		return
	}

	previous, err := api.store.GetUserByID(ctx, p.UserID)
	if err != nil {
		c.Error(notFound(err, "User not found"))
		return
	}

	asset, err := api.media.Upload(ctx, path, folder)
	if err != nil {
		c.Error(apierror.Dependency(err, "Error while uploading %s", field))
		return
	}

	var user *models.User
	var oldURL string
	if folder == media.FolderAvatars {
		oldURL = previous.Avatar
		user, err = api.store.UpdateUserAvatar(ctx, p.UserID, asset.URL)
	} else {
		oldURL = previous.CoverImage
		user, err = api.store.UpdateUserCoverImage(ctx, p.UserID, asset.URL)
	}
	if err != nil {
		api.deleteMedia(ctx, asset.PublicID)
		c.Error(err)
		return
	}
	api.replaceMedia(ctx, oldURL)

	if folder == media.FolderAvatars {
		response.OK(c, user, "Avatar image updated successfully")
		return
	}
	response.OK(c, user, "Cover image updated successfully")
}

// Get a channel profile by username
func (api *API) getChannelProfile(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		c.Error(apierror.Validation("username is missing"))
		return
	}

	profile, err := api.composer.ChannelProfile(c.Request.Context(), username, viewerID(c))
	if err != nil {
		c.Error(notFound(err, "Channel does not exist"))
		return
	}

	response.OK(c, profile, "User channel fetched successfully")
}

// Get the current user's watch history
func (api *API) getWatchHistory(c *gin.Context) {
	p, ok := currentUser(c)
	if !ok {
		return
	}

	history, err := api.composer.WatchHistory(c.Request.Context(), p.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	response.OK(c, history, "Watch history fetched successfully")
}
