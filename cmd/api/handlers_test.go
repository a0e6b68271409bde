package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/auth"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/cache"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/config"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/feed"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/middleware"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/testsupport"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

type testEnv struct {
	api       *API
	router    *gin.Engine
	store     *testsupport.MemStore
	media     *testsupport.FakeMedia
	publisher *testsupport.RecordingPublisher
	tempDir   string
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func testConfig(tempDir string) *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			AccessTokenSecret:  "access-secret",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenSecret: "refresh-secret",
			RefreshTokenExpiry: 24 * time.Hour,
			AdminPassword:      "hunter2",
			AdminTokenSecret:   "admin-secret",
			BcryptCost:         4,
		},
		Media: config.MediaConfig{TempDir: tempDir},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tempDir := t.TempDir()
	cfg := testConfig(tempDir)
	store := testsupport.NewMemStore()
	fm := testsupport.NewFakeMedia(120)
	publisher := &testsupport.RecordingPublisher{}

	api := &API{
		store:    store,
		composer: feed.NewComposer(store, nil, 0, logging.Nop()),
		auth:     auth.NewService(store, nil, cfg.Auth),
		media:    fm,
		cleanup:  publisher,
		cfg:      cfg,
		logger:   logging.Nop(),
	}

	return &testEnv{
		api:       api,
		router:    setupRouter(api, nil),
		store:     store,
		media:     fm,
		publisher: publisher,
		tempDir:   tempDir,
	}
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(name, value string) requestOption {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doMultipart(t *testing.T, method, path string, fields, files map[string]string, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, filename := range files {
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("not really media"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, rec.Code, env.StatusCode)
	assert.Equal(t, rec.Code < 400, env.Success)
	return env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (e *testEnv) seedUser(t *testing.T, username, password string) (*models.User, string) {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     strings.ToUpper(username[:1]) + username[1:],
		PasswordHash: hash,
		Avatar:       testsupport.FakeMediaBaseURL + "avatars/" + username + ".png",
	}
	require.NoError(t, e.store.CreateUser(context.Background(), user))

	tokens, _, err := e.api.auth.Issue(context.Background(), user.ID)
	require.NoError(t, err)
	return user, tokens.AccessToken
}

func (e *testEnv) seedVideo(t *testing.T, owner *models.User, title string) *models.Video {
	t.Helper()
	key := "videos/" + strings.ReplaceAll(strings.ToLower(title), " ", "-") + ".mp4"
	thumb := "thumbnails/" + strings.ReplaceAll(strings.ToLower(title), " ", "-") + ".jpg"
	e.media.Objects[key] = true
	e.media.Objects[thumb] = true

	video := &models.Video{
		Title:       title,
		Description: title + " description",
		VideoFile:   testsupport.FakeMediaBaseURL + key,
		Thumbnail:   testsupport.FakeMediaBaseURL + thumb,
		Duration:    90,
		OwnerID:     owner.ID,
		IsPublished: true,
	}
	require.NoError(t, e.store.CreateVideo(context.Background(), video))
	return video
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.api.auth.AdminLogin("admin", "hunter2")
	require.NoError(t, err)
	return token
}

func cookieValue(rec *httptest.ResponseRecorder, name string) (string, bool) {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)

	env.store.PingErr = errors.New("connection refused")
	rec = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, decode(t, rec).Success)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode(t, rec).Message)
}

func TestRegisterLoginScenario(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doMultipart(t, http.MethodPost, "/api/v1/users/register",
		map[string]string{"fullName": "Alice A", "email": "alice@example.com", "username": "alice", "password": "secret123"},
		map[string]string{"avatar": "me.png", "coverImage": "cover.jpg"},
	)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env1 := decode(t, rec)
	assert.Equal(t, "User registered successfully", env1.Message)
	created := decodeData[map[string]interface{}](t, env1)
	assert.Equal(t, "alice", created["username"])
	assert.NotContains(t, created, "password")
	assert.NotContains(t, created, "refreshToken")
	assert.True(t, strings.HasPrefix(created["avatar"].(string), testsupport.FakeMediaBaseURL+"avatars/"))
	assert.Equal(t, 2, env.media.Stored())

	// Temp uploads are gone once the request finishes
	entries, err := os.ReadDir(env.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	rec = env.do(t, http.MethodPost, "/api/v1/users/login", gin.H{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeData[loginResponse](t, decode(t, rec))
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.RefreshToken)

	p, err := env.api.auth.ParseAccessToken(context.Background(), login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "alice@example.com", p.Email)

	cookie, ok := cookieValue(rec, middleware.AccessTokenCookie)
	assert.True(t, ok)
	assert.Equal(t, login.AccessToken, cookie)

	rec = env.do(t, http.MethodPost, "/api/v1/users/login", gin.H{"email": "alice@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	failed := decode(t, rec)
	assert.Equal(t, "Invalid user credentials", failed.Message)
	assert.Equal(t, "null", string(failed.Data))
	_, ok = cookieValue(rec, middleware.AccessTokenCookie)
	assert.False(t, ok)
}

func TestLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/users/login", gin.H{"password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username or email is required", decode(t, rec).Message)

	rec = env.do(t, http.MethodPost, "/api/v1/users/login", gin.H{"username": "ghost", "password": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decode(t, rec).Message)
}

func TestLoginIsThrottled(t *testing.T) {
	env := newTestEnv(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	c, err := cache.NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	env.api.limiter = c
	env.api.cfg.Auth.LoginAttempts = 2
	env.api.cfg.Auth.LoginWindow = time.Minute
	env.seedUser(t, "alice", "secret123")

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/v1/users/login", gin.H{"username": "alice", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := env.do(t, http.MethodPost, "/api/v1/users/login", gin.H{"username": "alice", "password": "secret123"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, decode(t, rec).Success)
}

func TestRegisterRejections(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "secret123")

	tests := []struct {
		name    string
		fields  map[string]string
		files   map[string]string
		status  int
		message string
	}{
		{
			name:    "username taken in another case",
			fields:  map[string]string{"fullName": "A", "email": "other@example.com", "username": "ALICE", "password": "pw123456"},
			files:   map[string]string{"avatar": "a.png"},
			status:  http.StatusConflict,
			message: "User already exists",
		},
		{
			name:    "email taken",
			fields:  map[string]string{"fullName": "A", "email": "alice@example.com", "username": "alice2", "password": "pw123456"},
			files:   map[string]string{"avatar": "a.png"},
			status:  http.StatusConflict,
			message: "User already exists",
		},
		{
			name:    "blank field",
			fields:  map[string]string{"fullName": "  ", "email": "bob@example.com", "username": "bob", "password": "pw123456"},
			files:   map[string]string{"avatar": "a.png"},
			status:  http.StatusBadRequest,
			message: "All fields are required",
		},
		{
			name:    "invalid email",
			fields:  map[string]string{"fullName": "Bob", "email": "bob-at-example", "username": "bob", "password": "pw123456"},
			files:   map[string]string{"avatar": "a.png"},
			status:  http.StatusBadRequest,
			message: "Invalid email address",
		},
		{
			name:    "missing avatar",
			fields:  map[string]string{"fullName": "Bob", "email": "bob@example.com", "username": "bob", "password": "pw123456"},
			status:  http.StatusBadRequest,
			message: "Avatar file is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doMultipart(t, http.MethodPost, "/api/v1/users/register", tt.fields, tt.files)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decode(t, rec).Message)
		})
	}

	assert.Equal(t, 1, env.store.Counts()["users"])
	assert.Equal(t, 0, env.media.Stored())
	entries, err := os.ReadDir(env.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.seedUser(t, "alice", "secret123")

	stored, err := env.store.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/v1/users/refresh-token", gin.H{"refreshToken": stored.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pair := decodeData[auth.TokenPair](t, decode(t, rec))
	assert.NotEqual(t, stored.RefreshToken, pair.RefreshToken)

	// The rotated-out token is stale
	rec = env.do(t, http.MethodPost, "/api/v1/users/refresh-token", gin.H{"refreshToken": stored.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/users/logout", nil, withToken(pair.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	value, ok := cookieValue(rec, middleware.RefreshTokenCookie)
	assert.True(t, ok)
	assert.Empty(t, value)

	after, err := env.store.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, after.RefreshToken)

	rec = env.do(t, http.MethodPost, "/api/v1/users/refresh-token", gin.H{"refreshToken": pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/tweets", gin.H{"content": "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized request", decode(t, rec).Message)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "secret123")

	rec := env.do(t, http.MethodPost, "/api/v1/users/change-password",
		gin.H{"oldPassword": "wrong", "newPassword": "newsecret"}, withToken(token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/users/change-password",
		gin.H{"oldPassword": "secret123", "newPassword": "newsecret"}, withToken(token))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/users/login", gin.H{"username": "alice", "password": "newsecret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateAvatarReplacesOldObject(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "secret123")
	env.media.Objects["avatars/alice.png"] = true

	rec := env.doMultipart(t, http.MethodPatch, "/api/v1/users/avatar", nil,
		map[string]string{"avatar": "new.png"}, withToken(token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	user := decodeData[models.User](t, decode(t, rec))
	assert.NotEqual(t, testsupport.FakeMediaBaseURL+"avatars/alice.png", user.Avatar)
	assert.Contains(t, env.media.Deleted, "avatars/alice.png")
	assert.Equal(t, 1, env.media.Stored())
}

func TestPublishVideoExtractsThumbnail(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "secret123")

	rec := env.doMultipart(t, http.MethodPost, "/api/v1/videos",
		map[string]string{"title": "Trip", "description": "Road trip"},
		map[string]string{"videoFile": "trip.mp4"}, withToken(token))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	video := decodeData[models.Video](t, decode(t, rec))
	assert.True(t, strings.HasPrefix(video.Thumbnail, testsupport.FakeMediaBaseURL+"thumbnails/"))
	assert.InDelta(t, 120, video.Duration, 0.001)
	assert.False(t, video.IsPublished)

	rec = env.doMultipart(t, http.MethodPost, "/api/v1/videos",
		map[string]string{"title": "No file", "description": "x"}, nil, withToken(token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadedVideoStaysDraftUntilPublished(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.seedUser(t, "alice", "secret123")
	_, bobToken := env.seedUser(t, "bob", "secret123")

	rec := env.doMultipart(t, http.MethodPost, "/api/v1/videos",
		map[string]string{"title": "Trip", "description": "Road trip"},
		map[string]string{"videoFile": "trip.mp4"}, withToken(aliceToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	video := decodeData[models.Video](t, decode(t, rec))

	rec = env.do(t, http.MethodGet, "/api/v1/videos/v/"+video.ID, nil, withToken(bobToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/videos", nil, withToken(bobToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[models.Page[models.VideoCard]](t, decode(t, rec)).Docs)

	rec = env.do(t, http.MethodGet, "/api/v1/videos/v/"+video.ID, nil, withToken(aliceToken))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/v1/videos/toggle/publish/"+video.ID, nil, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeData[map[string]bool](t, decode(t, rec))["isPublished"])

	rec = env.do(t, http.MethodGet, "/api/v1/videos/v/"+video.ID, nil, withToken(bobToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDraftCommentsAreHidden(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.seedUser(t, "alice", "secret123")
	_, bobToken := env.seedUser(t, "bob", "secret123")
	video := env.seedVideo(t, alice, "Intro")

	comment := &models.Comment{Content: "secret note", VideoID: video.ID, OwnerID: alice.ID}
	require.NoError(t, env.store.CreateComment(context.Background(), comment))

	rec := env.do(t, http.MethodPatch, "/api/v1/videos/toggle/publish/"+video.ID, nil, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/comments/"+video.ID, nil, withToken(bobToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret note")

	rec = env.do(t, http.MethodPost, "/api/v1/likes/c/"+comment.ID, nil, withToken(bobToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, env.store.Counts()["likes"])

	// The owner still sees and likes comments on their draft
	rec = env.do(t, http.MethodGet, "/api/v1/comments/"+video.ID, nil, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[models.Page[models.CommentView]](t, decode(t, rec)).Docs, 1)

	rec = env.do(t, http.MethodPost, "/api/v1/likes/c/"+comment.ID, nil, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeData[map[string]bool](t, decode(t, rec))["isLiked"])
}

func TestVideoDetailCountsView(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.seedUser(t, "alice", "secret123")
	_, bobToken := env.seedUser(t, "bob", "secret123")
	video := env.seedVideo(t, alice, "Intro")

	rec := env.do(t, http.MethodGet, "/api/v1/videos/v/"+video.ID, nil, withToken(bobToken))
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeData[models.VideoDetail](t, decode(t, rec))
	assert.EqualValues(t, 1, detail.Views)
	assert.Equal(t, "alice", detail.Owner.Username)

	rec = env.do(t, http.MethodGet, "/api/v1/users/history", nil, withToken(bobToken))
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeData[[]models.VideoCard](t, decode(t, rec))
	require.Len(t, history, 1)
	assert.Equal(t, video.ID, history[0].ID)

	rec = env.do(t, http.MethodGet, "/api/v1/videos/v/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDraftsAreHiddenFromOthers(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.seedUser(t, "alice", "secret123")
	_, bobToken := env.seedUser(t, "bob", "secret123")
	video := env.seedVideo(t, alice, "Draft")

	rec := env.do(t, http.MethodPatch, "/api/v1/videos/toggle/publish/"+video.ID, nil, withToken(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/v1/videos/toggle/publish/"+video.ID, nil, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeData[map[string]bool](t, decode(t, rec))["isPublished"])

	rec = env.do(t, http.MethodGet, "/api/v1/videos/v/"+video.ID, nil, withToken(bobToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/videos/v/"+video.ID, nil, withToken(aliceToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestToggleLikeTwiceRestoresState(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.seedUser(t, "alice", "secret123")
	_, bobToken := env.seedUser(t, "bob", "secret123")
	video := env.seedVideo(t, alice, "Intro")

	rec := env.do(t, http.MethodPost, "/api/v1/likes/v/"+video.ID, nil, withToken(bobToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeData[map[string]bool](t, decode(t, rec))["isLiked"])
	assert.Equal(t, 1, env.store.Counts()["likes"])

	rec = env.do(t, http.MethodPost, "/api/v1/likes/v/"+video.ID, nil, withToken(bobToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeData[map[string]bool](t, decode(t, rec))["isLiked"])
	assert.Equal(t, 0, env.store.Counts()["likes"])

	rec = env.do(t, http.MethodPost, "/api/v1/likes/t/"+video.ID, nil, withToken(bobToken))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleSubscriptionTwice(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.seedUser(t, "alice", "secret123")
	_, bobToken := env.seedUser(t, "bob", "secret123")

	path := "/api/v1/subscriptions/c/" + alice.ID
	rec := env.do(t, http.MethodPost, path, nil, withToken(bobToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeData[map[string]bool](t, decode(t, rec))["subscribed"])

	rec = env.do(t, http.MethodGet, path, nil, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	subscribers := decodeData[[]models.SubscriberView](t, decode(t, rec))
	require.Len(t, subscribers, 1)
	assert.Equal(t, "bob", subscribers[0].Username)

	rec = env.do(t, http.MethodPost, path, nil, withToken(bobToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeData[map[string]bool](t, decode(t, rec))["subscribed"])
	assert.Equal(t, 0, env.store.Counts()["subscriptions"])

	rec = env.do(t, http.MethodPost, path, nil, withToken(aliceToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChannelProfileForAnonymousViewer(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.seedUser(t, "alice", "secret123")
	for _, name := range []string{"bob", "carol", "dave"} {
		u, _ := env.seedUser(t, name, "secret123")
		_, err := env.store.ToggleSubscription(context.Background(), u.ID, alice.ID)
		require.NoError(t, err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/users/c/ALICE", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decodeData[models.ChannelProfile](t, decode(t, rec))
	assert.EqualValues(t, 3, profile.SubscribersCount)
	assert.False(t, profile.IsSubscribed)

	rec = env.do(t, http.MethodGet, "/api/v1/users/c/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNonOwnerCannotModify(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.seedUser(t, "alice", "secret123")
	_, bobToken := env.seedUser(t, "bob", "secret123")
	video := env.seedVideo(t, alice, "Intro")
	ctx := context.Background()

	comment := &models.Comment{Content: "first", VideoID: video.ID, OwnerID: alice.ID}
	require.NoError(t, env.store.CreateComment(ctx, comment))
	tweet := &models.Tweet{Content: "hello", OwnerID: alice.ID}
	require.NoError(t, env.store.CreateTweet(ctx, tweet))

	rec := env.do(t, http.MethodPatch, "/api/v1/comments/c/"+comment.ID, gin.H{"content": "hijacked"}, withToken(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/comments/c/"+comment.ID, nil, withToken(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodPatch, "/api/v1/tweets/t/"+tweet.ID, gin.H{"content": "hijacked"}, withToken(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/tweets/t/"+tweet.ID, nil, withToken(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.doMultipart(t, http.MethodPatch, "/api/v1/videos/v/"+video.ID, map[string]string{"title": "hijacked"}, nil, withToken(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/videos/v/"+video.ID, nil, withToken(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	storedComment, err := env.store.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", storedComment.Content)
	storedTweet, err := env.store.GetTweet(ctx, tweet.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", storedTweet.Content)
	storedVideo, err := env.store.GetVideo(ctx, video.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro", storedVideo.Title)
	assert.Empty(t, env.media.Deleted)

	// The owner may edit
	rec = env.do(t, http.MethodPatch, "/api/v1/comments/c/"+comment.ID, gin.H{"content": "edited"}, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edited", decodeData[models.Comment](t, decode(t, rec)).Content)
}

func TestAdminMayDeleteButNotUpdate(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.seedUser(t, "alice", "secret123")
	ctx := context.Background()
	admin := env.adminToken(t)

	tweet := &models.Tweet{Content: "hello", OwnerID: alice.ID}
	require.NoError(t, env.store.CreateTweet(ctx, tweet))

	// Updates are user-only routes; the admin cookie is not a user session
	rec := env.do(t, http.MethodPatch, "/api/v1/tweets/t/"+tweet.ID, gin.H{"content": "moderated"},
		withCookie(middleware.AdminTokenCookie, admin))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/tweets/t/"+tweet.ID, nil, withCookie(middleware.AdminTokenCookie, admin))
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := env.store.GetTweet(ctx, tweet.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	// A forged admin cookie is ignored and the request falls back to user auth
	rec = env.do(t, http.MethodDelete, "/api/v1/tweets/t/"+tweet.ID, nil, withCookie(middleware.AdminTokenCookie, "forged"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/admin/login", gin.H{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec).Message)

	rec = env.do(t, http.MethodPost, "/api/v1/admin/login", gin.H{"username": "admin", "password": "hunter2"})
	require.Equal(t, http.StatusOK, rec.Code)
	token, ok := cookieValue(rec, middleware.AdminTokenCookie)
	require.True(t, ok)

	p, err := env.api.auth.ParseAdminToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())

	rec = env.do(t, http.MethodPost, "/api/v1/admin/logout", nil, withCookie(middleware.AdminTokenCookie, token))
	require.Equal(t, http.StatusOK, rec.Code)
	cleared, ok := cookieValue(rec, middleware.AdminTokenCookie)
	assert.True(t, ok)
	assert.Empty(t, cleared)
}

func TestDeleteVideoCascades(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.seedUser(t, "alice", "secret123")
	bob, _ := env.seedUser(t, "bob", "secret123")
	video := env.seedVideo(t, alice, "Intro")
	ctx := context.Background()

	comment := &models.Comment{Content: "nice", VideoID: video.ID, OwnerID: bob.ID}
	require.NoError(t, env.store.CreateComment(ctx, comment))
	_, err := env.store.ToggleLike(ctx, models.VideoTarget(video.ID), bob.ID)
	require.NoError(t, err)
	_, err = env.store.ToggleLike(ctx, models.CommentTarget(comment.ID), alice.ID)
	require.NoError(t, err)

	rec := env.do(t, http.MethodDelete, "/api/v1/videos/v/"+video.ID, nil, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	counts := env.store.Counts()
	assert.Equal(t, 0, counts["videos"])
	assert.Equal(t, 0, counts["comments"])
	assert.Equal(t, 0, counts["likes"])
	assert.ElementsMatch(t, []string{"videos/intro.mp4", "thumbnails/intro.jpg"}, env.media.Deleted)
	assert.Empty(t, env.publisher.Tasks)
}

func TestDeleteVideoSchedulesCleanupWhenMediaFails(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.seedUser(t, "alice", "secret123")
	video := env.seedVideo(t, alice, "Intro")
	env.media.DeleteErr = errors.New("storage unavailable")

	rec := env.do(t, http.MethodDelete, "/api/v1/videos/v/"+video.ID, nil, withToken(aliceToken))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	require.Len(t, env.publisher.Tasks, 1)
	task := env.publisher.Tasks[0]
	assert.Equal(t, video.ID, task.VideoID)
	assert.ElementsMatch(t, []string{"videos/intro.mp4", "thumbnails/intro.jpg"}, task.PublicIDs)

	// The record stays until the worker has removed the media, out of the feeds
	stored, err := env.store.GetVideo(context.Background(), video.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPublished)

	rec = env.do(t, http.MethodGet, "/api/v1/videos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[models.Page[models.VideoCard]](t, decode(t, rec)).Docs)

	env.api.cleanup = nil
	rec = env.do(t, http.MethodDelete, "/api/v1/videos/v/"+video.ID, nil, withToken(aliceToken))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to delete video media", decode(t, rec).Message)
}

func TestPlaylistTripScenario(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.seedUser(t, "alice", "secret123")
	_, bobToken := env.seedUser(t, "bob", "secret123")
	video := env.seedVideo(t, alice, "Beach")

	rec := env.do(t, http.MethodPost, "/api/v1/playlists", gin.H{"name": "Trip"}, withToken(aliceToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	playlist := decodeData[models.Playlist](t, decode(t, rec))
	assert.Equal(t, "Trip", playlist.Name)

	addPath := "/api/v1/playlists/add/" + video.ID + "/" + playlist.ID
	rec = env.do(t, http.MethodPatch, addPath, nil, withToken(bobToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	for i := 0; i < 2; i++ {
		rec = env.do(t, http.MethodPatch, addPath, nil, withToken(aliceToken))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	stored, err := env.store.GetPlaylist(context.Background(), playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{video.ID}, stored.Videos)

	rec = env.do(t, http.MethodGet, "/api/v1/playlists/"+playlist.ID, nil, withToken(bobToken))
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeData[models.PlaylistView](t, decode(t, rec))
	assert.Equal(t, 1, view.TotalVideos)
	require.Len(t, view.Videos, 1)

	rec = env.do(t, http.MethodPatch, "/api/v1/playlists/remove/"+video.ID+"/"+playlist.ID, nil, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[models.Playlist](t, decode(t, rec)).Videos)
}

func TestCreatePlaylistDefaultName(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice", "secret123")

	for i, want := range []string{"Untitled Playlist 1", "Untitled Playlist 2"} {
		rec := env.do(t, http.MethodPost, "/api/v1/playlists", gin.H{}, withToken(token))
		require.Equal(t, http.StatusCreated, rec.Code, "playlist %d", i)
		assert.Equal(t, want, decodeData[models.Playlist](t, decode(t, rec)).Name)
	}
}

func TestVideoFeedPagination(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.seedUser(t, "alice", "secret123")
	for i := 0; i < 12; i++ {
		env.seedVideo(t, alice, "Video "+string(rune('a'+i)))
	}

	tests := []struct {
		query     string
		page      int
		limit     int
		docs      int
		totalPage int
		hasNext   bool
	}{
		{query: "", page: 1, limit: 10, docs: 10, totalPage: 2, hasNext: true},
		{query: "?page=2", page: 2, limit: 10, docs: 2, totalPage: 2, hasNext: false},
		{query: "?page=abc&limit=-5", page: 1, limit: 10, docs: 10, totalPage: 2, hasNext: true},
		{query: "?limit=500", page: 1, limit: 100, docs: 12, totalPage: 1, hasNext: false},
	}

	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/videos"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			page := decodeData[models.Page[models.VideoCard]](t, decode(t, rec))
			assert.Equal(t, tt.page, page.Page)
			assert.Equal(t, tt.limit, page.Limit)
			assert.Len(t, page.Docs, tt.docs)
			assert.EqualValues(t, 12, page.TotalDocs)
			assert.Equal(t, tt.totalPage, page.TotalPages)
			assert.Equal(t, tt.hasNext, page.HasNextPage)
		})
	}

	rec := env.do(t, http.MethodGet, "/api/v1/videos?sortBy=password", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommentsAndTweetsFeeds(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.seedUser(t, "alice", "secret123")
	video := env.seedVideo(t, alice, "Intro")

	rec := env.do(t, http.MethodPost, "/api/v1/comments/"+video.ID, gin.H{"content": "  "}, withToken(aliceToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/comments/"+video.ID, gin.H{"content": "first!"}, withToken(aliceToken))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/comments/"+video.ID, nil, withCookie(middleware.AdminTokenCookie, env.adminToken(t)))
	require.Equal(t, http.StatusOK, rec.Code)
	comments := decodeData[models.Page[models.CommentView]](t, decode(t, rec))
	require.Len(t, comments.Docs, 1)
	assert.Equal(t, "first!", comments.Docs[0].Content)
	assert.Equal(t, "alice", comments.Docs[0].Owner.Username)

	rec = env.do(t, http.MethodPost, "/api/v1/tweets", gin.H{"content": "hello world"}, withToken(aliceToken))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/tweets/user/"+alice.ID, nil, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	tweets := decodeData[models.Page[models.TweetView]](t, decode(t, rec))
	require.Len(t, tweets.Docs, 1)
	assert.Equal(t, "hello world", tweets.Docs[0].Content)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.seedUser(t, "alice", "secret123")
	bob, _ := env.seedUser(t, "bob", "secret123")
	video := env.seedVideo(t, alice, "Intro")
	env.seedVideo(t, alice, "Outro")
	ctx := context.Background()

	_, err := env.store.ToggleLike(ctx, models.VideoTarget(video.ID), bob.ID)
	require.NoError(t, err)
	_, err = env.store.ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard/stats", nil, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeData[models.ChannelStats](t, decode(t, rec))
	assert.EqualValues(t, 2, stats.TotalVideos)
	assert.EqualValues(t, 1, stats.TotalLikes)
	assert.EqualValues(t, 1, stats.TotalSubscribers)

	rec = env.do(t, http.MethodGet, "/api/v1/dashboard/videos", nil, withToken(aliceToken))
	require.Equal(t, http.StatusOK, rec.Code)
	videos := decodeData[[]models.DashboardVideo](t, decode(t, rec))
	assert.Len(t, videos, 2)
}
