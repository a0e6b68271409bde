package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/apierror"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/auth"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
)

const (
	PrincipalContextKey = "principal"

	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
	AdminTokenCookie   = "adminToken"
)

// TokenParser verifies user and admin tokens
type TokenParser interface {
	ParseAccessToken(ctx context.Context, token string) (*auth.Principal, error)
	ParseAdminToken(ctx context.Context, token string) (*auth.Principal, error)
}

// RequireUser rejects requests without a valid access token
func RequireUser(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticateUser(c, parser) {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

// OptionalUser resolves the caller when a valid access token is present and
// lets anonymous requests through otherwise.
func OptionalUser(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticateUser(c, parser)
		c.Next()
	}
}

// AdminOrUser accepts a valid admin token and otherwise falls back to user
// authentication. An unverifiable admin token counts as no admin token.
func AdminOrUser(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(AdminTokenCookie); err == nil && token != "" {
			if p, err := parser.ParseAdminToken(c.Request.Context(), token); err == nil {
				c.Set(PrincipalContextKey, p)
				c.Next()
				return
			}
		}

		if !authenticateUser(c, parser) {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

func authenticateUser(c *gin.Context, parser TokenParser) bool {
	token := AccessToken(c)
	if token == "" {
		return false
	}
	p, err := parser.ParseAccessToken(c.Request.Context(), token)
	if err != nil {
		return false
	}
	c.Set(PrincipalContextKey, p)

	logger := logging.FromContext(c.Request.Context(), nil).WithUserID(p.UserID)
	c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context()))
	return true
}

func abortUnauthorized(c *gin.Context) {
	c.Error(apierror.Unauthorized("Unauthorized request"))
	c.Abort()
}

// AccessToken reads the access token from the cookie or the bearer header
func AccessToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetPrincipal returns the authenticated caller, if any
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, exists := c.Get(PrincipalContextKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok && p != nil
}

// GetUserID returns the caller's user ID. Admins and anonymous callers have none.
func GetUserID(c *gin.Context) (string, bool) {
	p, ok := GetPrincipal(c)
	if !ok || p.UserID == "" {
		return "", false
	}
	return p.UserID, true
}
