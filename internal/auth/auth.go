// Package auth issues and verifies the access, refresh and admin tokens of the API.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/config"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

// AdminUsername is the fixed name of the configured admin principal
const AdminUsername = "admin"

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRevokedToken       = errors.New("token has been revoked")
	ErrStaleRefreshToken  = errors.New("refresh token is expired or used")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminDisabled      = errors.New("admin login is not configured")
)

// AccessClaims are carried by access tokens
type AccessClaims struct {
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by refresh tokens
type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// AdminClaims are carried by admin tokens
type AdminClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a login or refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Principal is the authenticated caller of a request
type Principal struct {
	UserID    string
	Username  string
	Email     string
	FullName  string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the principal is the admin
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

// Users is the slice of the user store the service needs
type Users interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
}

// Denylist records revoked token IDs
type Denylist interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Service issues and validates tokens
type Service struct {
	users    Users
	denylist Denylist
	cfg      config.AuthConfig
	now      func() time.Time
}

// NewService creates a token service. A nil denylist disables revocation.
func NewService(users Users, denylist Denylist, cfg config.AuthConfig) *Service {
	return &Service{
		users:    users,
		denylist: denylist,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Issue mints a token pair for the user and stores the refresh token on the
// user record, replacing any previous one.
func (s *Service) Issue(ctx context.Context, userID string) (*TokenPair, *models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user for tokens: %w", err)
	}

	now := s.now()
	access := AccessClaims{
		UserID:           user.ID,
		Email:            user.Email,
		Username:         user.Username,
		FullName:         user.FullName,
		RegisteredClaims: s.registered(user.ID, now, s.cfg.AccessTokenExpiry),
	}
	refresh := RefreshClaims{
		UserID:           user.ID,
		RegisteredClaims: s.registered(user.ID, now, s.cfg.RefreshTokenExpiry),
	}

	accessToken, err := sign(access, s.cfg.AccessTokenSecret)
	if err != nil {
		return nil, nil, err
	}
	refreshToken, err := sign(refresh, s.cfg.RefreshTokenSecret)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	user.RefreshToken = refreshToken

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, user, nil
}

// Refresh verifies a refresh token against the stored one and rotates the pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *models.User, error) {
	if refreshToken == "" {
		return nil, nil, ErrInvalidToken
	}

	var claims RefreshClaims
	if err := s.parse(refreshToken, s.cfg.RefreshTokenSecret, &claims); err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, nil, ErrStaleRefreshToken
	}

	return s.Issue(ctx, user.ID)
}

// ParseAccessToken verifies an access token and resolves its principal
func (s *Service) ParseAccessToken(ctx context.Context, token string) (*Principal, error) {
	var claims AccessClaims
	if err := s.parse(token, s.cfg.AccessTokenSecret, &claims); err != nil {
		return nil, err
	}

	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return nil, err
	}

	return &Principal{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		FullName:  claims.FullName,
		Role:      models.RoleUser,
		TokenID:   claims.ID,
		ExpiresAt: expiry(claims.RegisteredClaims),
	}, nil
}

func (s *Service) checkRevoked(ctx context.Context, jti string) error {
	if s.denylist == nil {
		return nil
	}
	revoked, err := s.denylist.IsTokenRevoked(ctx, jti)
	if err != nil {
		return err
	}
	if revoked {
		return ErrRevokedToken
	}
	return nil
}

// Logout clears the stored refresh token and revokes the access token for the
// rest of its lifetime.
func (s *Service) Logout(ctx context.Context, p *Principal) error {
	if err := s.users.SetRefreshToken(ctx, p.UserID, ""); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return s.Revoke(ctx, p)
}

// Revoke puts the principal's token on the denylist until it expires
func (s *Service) Revoke(ctx context.Context, p *Principal) error {
	if s.denylist == nil || p == nil || p.TokenID == "" {
		return nil
	}
	return s.denylist.RevokeToken(ctx, p.TokenID, p.ExpiresAt.Sub(s.now()))
}

// AdminLogin checks the admin credentials and issues an admin token
func (s *Service) AdminLogin(username, password string) (string, error) {
	if s.cfg.AdminPassword == "" {
		return "", ErrAdminDisabled
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(AdminUsername))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword))
	if userOK&passOK != 1 {
		return "", ErrInvalidCredentials
	}

	claims := AdminClaims{
		Role:             models.RoleAdmin,
		RegisteredClaims: s.registered(AdminUsername, s.now(), s.AdminTokenExpiry()),
	}
	return sign(claims, s.cfg.AdminTokenSecret)
}

// ParseAdminToken verifies an admin token
func (s *Service) ParseAdminToken(ctx context.Context, token string) (*Principal, error) {
	var claims AdminClaims
	if err := s.parse(token, s.cfg.AdminTokenSecret, &claims); err != nil {
		return nil, err
	}
	if claims.Role != models.RoleAdmin {
		return nil, ErrInvalidToken
	}
	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return nil, err
	}
	return &Principal{
		Username:  AdminUsername,
		Role:      models.RoleAdmin,
		TokenID:   claims.ID,
		ExpiresAt: expiry(claims.RegisteredClaims),
	}, nil
}

// AccessTokenExpiry is the lifetime of access tokens
func (s *Service) AccessTokenExpiry() time.Duration { return s.cfg.AccessTokenExpiry }

// RefreshTokenExpiry is the lifetime of refresh tokens
func (s *Service) RefreshTokenExpiry() time.Duration { return s.cfg.RefreshTokenExpiry }

// AdminTokenExpiry is the lifetime of admin tokens, one hour unless configured
func (s *Service) AdminTokenExpiry() time.Duration {
	if s.cfg.AdminTokenExpiry <= 0 {
		return time.Hour
	}
	return s.cfg.AdminTokenExpiry
}

func (s *Service) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *Service) parse(token, secret string, claims jwt.Claims) error {
	if token == "" {
		return ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

func sign(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func expiry(c jwt.RegisteredClaims) time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
