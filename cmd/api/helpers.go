package main

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/auth"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/cleanup"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/media"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/middleware"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

var validate = validator.New()

// pathID reads a UUID path parameter, recording a validation error when it is malformed
func pathID(c *gin.Context, name, message string) (string, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := uuid.Parse(raw)
	if err != nil {
		c.Error(apierror.Validation("%s", message))
		return "", false
	}
	return id.String(), true
}

// currentUser returns the authenticated user's principal. Admin sessions carry no user.
func currentUser(c *gin.Context) (*auth.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok || p.IsAdmin() || p.UserID == "" {
		c.Error(apierror.Unauthorized("Unauthorized request"))
		return nil, false
	}
	return p, true
}

// viewerID returns the caller's user ID, or "" for anonymous and admin callers
func viewerID(c *gin.Context) string {
	id, _ := middleware.GetUserID(c)
	return id
}

// isAdmin reports whether the request carries a verified admin session
func isAdmin(c *gin.Context) bool {
	p, ok := middleware.GetPrincipal(c)
	return ok && p.IsAdmin()
}

// canDelete reports whether the caller owns the entity or is an admin
func canDelete(c *gin.Context, ownerID string) bool {
	if isAdmin(c) {
		return true
	}
	return viewerID(c) == ownerID
}

func pageRequest(c *gin.Context) models.PageRequest {
	return models.ParsePageRequest(c.Query("page"), c.Query("limit"))
}

func isValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// notFound maps a store miss onto a 404 with message and passes other errors through
func notFound(err error, message string) error {
	if errors.Is(err, database.ErrNotFound) {
		return apierror.NotFound("%s", message)
	}
	return err
}

// saveUpload copies a multipart file into the temp dir. The returned cleanup
// func removes the copy and is safe to call after the media delegate already did.
func (api *API) saveUpload(c *gin.Context, field string) (string, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", func() {}, nil
		}
		return "", func() {}, apierror.Validation("Invalid %s upload", field)
	}
	if api.cfg.Server.MaxUploadSize > 0 && header.Size > api.cfg.Server.MaxUploadSize {
		return "", func() {}, apierror.Validation("%s exceeds the maximum upload size", field)
	}

	path, err := api.tempFile(header)
	if err != nil {
		return "", func() {}, apierror.Internal(err)
	}
	if err := c.SaveUploadedFile(header, path); err != nil {
		os.Remove(path)
		return "", func() {}, apierror.Internal(err)
	}

	return path, func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			api.logger.WithField("path", path).WarnWithErr("Failed to remove temp upload", err)
		}
	}, nil
}

func (api *API) tempFile(header *multipart.FileHeader) (string, error) {
	dir := api.cfg.Media.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	return filepath.Join(dir, uuid.New().String()+ext), nil
}

// deleteMedia removes stored objects best effort and returns the IDs that failed
func (api *API) deleteMedia(ctx context.Context, publicIDs ...string) []string {
	var failed []string
	for _, id := range publicIDs {
		if err := api.media.Delete(ctx, id); err != nil {
			logging.FromContext(ctx, api.logger).WithField("public_id", id).WarnWithErr("Failed to delete media", err)
			failed = append(failed, id)
		}
	}
	return failed
}

// replaceMedia drops the object behind an old URL after it was superseded
func (api *API) replaceMedia(ctx context.Context, oldURL string) {
	ids := media.PublicIDs(api.media, oldURL)
	if failed := api.deleteMedia(ctx, ids...); len(failed) > 0 {
		api.scheduleCleanup(ctx, "", failed, "replaced media delete failed")
	}
}

// scheduleCleanup hands leftover media or a half-deleted video to the worker.
// It reports whether the task was queued.
func (api *API) scheduleCleanup(ctx context.Context, videoID string, publicIDs []string, reason string) bool {
	log := logging.FromContext(ctx, api.logger).WithVideoID(videoID)
	if api.cleanup == nil {
		log.WithField("public_ids", publicIDs).Warn("No cleanup queue, leaving orphaned media: " + reason)
		return false
	}
	task := cleanup.NewTask(videoID, publicIDs, reason)
	if err := api.cleanup.Publish(context.WithoutCancel(ctx), task); err != nil {
		log.WithTaskID(task.ID).ErrorWithErr("Failed to schedule cleanup", err)
		return false
	}
	log.WithTaskID(task.ID).Info("Scheduled cleanup: " + reason)
	return true
}

// invalidateStats drops cached dashboard stats of the given channels
func (api *API) invalidateStats(ctx context.Context, channelIDs ...string) {
	api.composer.InvalidateStats(ctx, channelIDs...)
}

func (api *API) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", api.cfg.Auth.SecureCookies, true)
}

func (api *API) setSessionCookies(c *gin.Context, tokens *auth.TokenPair) {
	api.setCookie(c, middleware.AccessTokenCookie, tokens.AccessToken, int(api.auth.AccessTokenExpiry().Seconds()))
	api.setCookie(c, middleware.RefreshTokenCookie, tokens.RefreshToken, int(api.auth.RefreshTokenExpiry().Seconds()))
}

func (api *API) clearSessionCookies(c *gin.Context) {
	api.setCookie(c, middleware.AccessTokenCookie, "", -1)
	api.setCookie(c, middleware.RefreshTokenCookie, "", -1)
}
