package main

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/auth"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/metrics"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/middleware"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/response"
)

type adminLoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Log in as the configured admin
func (api *API) adminLogin(c *gin.Context) {
	ctx := c.Request.Context()

	var req adminLoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(err)
		return
	}

	throttleKey := "admin-login:" + c.ClientIP()
	if api.limiter != nil && api.cfg.Auth.LoginAttempts > 0 {
		allowed, err := api.limiter.CheckRateLimit(ctx, throttleKey, api.cfg.Auth.LoginAttempts, api.cfg.Auth.LoginWindow)
		if err != nil {
			logging.FromContext(ctx, api.logger).WarnWithErr("Login throttle unavailable", err)
		} else if !allowed {
			metrics.RecordLoginAttempt("admin", "throttled")
			c.Error(apierror.RateLimited("Too many login attempts, try again later"))
			return
		}
	}

	token, err := api.auth.AdminLogin(req.Username, req.Password)
	if err != nil {
		metrics.RecordLoginAttempt("admin", "failure")
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrAdminDisabled) {
			c.Error(apierror.Unauthorized("Invalid credentials"))
			return
		}
		c.Error(apierror.Internal(err))
		return
	}
	metrics.RecordLoginAttempt("admin", "success")

	if api.limiter != nil {
		if err := api.limiter.ResetRateLimit(ctx, throttleKey); err != nil {
			logging.FromContext(ctx, api.logger).WarnWithErr("Failed to reset login throttle", err)
		}
	}

	api.setCookie(c, middleware.AdminTokenCookie, token, int(api.auth.AdminTokenExpiry().Seconds()))
	response.OK(c, gin.H{}, "Login successful")
}

// End the admin session
func (api *API) adminLogout(c *gin.Context) {
	if token, err := c.Cookie(middleware.AdminTokenCookie); err == nil && token != "" {
		if p, err := api.auth.ParseAdminToken(c.Request.Context(), token); err == nil {
			if err := api.auth.Revoke(c.Request.Context(), p); err != nil {
				logging.FromContext(c.Request.Context(), api.logger).WarnWithErr("Failed to revoke admin token", err)
			}
		}
	}

	api.setCookie(c, middleware.AdminTokenCookie, "", -1)
	response.OK(c, gin.H{}, "Logout successful")
}
