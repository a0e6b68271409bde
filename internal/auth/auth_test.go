package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/cache"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/config"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) SetRefreshToken(ctx context.Context, id, token string) error {
	u, ok := f.users[id]
	if !ok {
		return errors.New("not found")
	}
	u.RefreshToken = token
	return nil
}

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "access-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenExpiry: 240 * time.Hour,
		AdminPassword:      "hunter2",
		AdminTokenSecret:   "admin-secret",
		AdminTokenExpiry:   time.Hour,
	}
}

func setupService(t *testing.T) (*Service, *fakeUsers) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	users := &fakeUsers{users: map[string]*models.User{
		"u1": {ID: "u1", Username: "alice", Email: "alice@example.com", FullName: "Alice A"},
	}}
	return NewService(users, c, testConfig()), users
}

func TestIssueCarriesUserClaims(t *testing.T) {
	svc, users := setupService(t)

	pair, user, err := svc.Issue(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, pair.RefreshToken, users.users["u1"].RefreshToken)

	p, err := svc.ParseAccessToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "alice@example.com", p.Email)
	assert.Equal(t, models.RoleUser, p.Role)
	assert.NotEmpty(t, p.TokenID)
}

func TestIssueFailsClosedForUnknownUser(t *testing.T) {
	svc, _ := setupService(t)

	_, _, err := svc.Issue(context.Background(), "missing")
	assert.Error(t, err)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	svc, _ := setupService(t)
	pair, _, err := svc.Issue(context.Background(), "u1")
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ParseAdminToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRotatesStoredToken(t *testing.T) {
	svc, users := setupService(t)
	first, _, err := svc.Issue(context.Background(), "u1")
	require.NoError(t, err)

	second, _, err := svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, second.RefreshToken, users.users["u1"].RefreshToken)

	// The rotated-out token is stale now
	_, _, err = svc.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, ErrStaleRefreshToken)

	_, _, err = svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredAccessTokenIsRejected(t *testing.T) {
	svc, _ := setupService(t)
	pair, _, err := svc.Issue(context.Background(), "u1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = svc.ParseAccessToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	svc, users := setupService(t)
	pair, _, err := svc.Issue(context.Background(), "u1")
	require.NoError(t, err)

	p, err := svc.ParseAccessToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), p))

	assert.Empty(t, users.users["u1"].RefreshToken)
	_, err = svc.ParseAccessToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrRevokedToken)

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrStaleRefreshToken)
}

func TestAdminLogin(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.AdminLogin("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.AdminLogin("root", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, err := svc.AdminLogin("admin", "hunter2")
	require.NoError(t, err)

	p, err := svc.ParseAdminToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
	assert.WithinDuration(t, time.Now().Add(time.Hour), p.ExpiresAt, time.Minute)
}

func TestRevokedAdminTokenIsRejected(t *testing.T) {
	svc, _ := setupService(t)

	token, err := svc.AdminLogin("admin", "hunter2")
	require.NoError(t, err)
	p, err := svc.ParseAdminToken(context.Background(), token)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), p))

	_, err = svc.ParseAdminToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrRevokedToken)
}

func TestAdminLoginDisabledWithoutPassword(t *testing.T) {
	cfg := testConfig()
	cfg.AdminPassword = ""
	svc := NewService(&fakeUsers{}, nil, cfg)

	_, err := svc.AdminLogin("admin", "")
	assert.ErrorIs(t, err, ErrAdminDisabled)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	svc, _ := setupService(t)

	claims := AccessClaims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
