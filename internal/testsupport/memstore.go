// Package testsupport provides an in-memory implementation of the repository
// contract for handler and composer tests.
package testsupport

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

type likeKey struct {
	kind    models.LikeKind
	target  string
	likedBy string
}

type subKey struct {
	subscriber string
	channel    string
}

type seqLike struct {
	like *models.Like
	seq  int64
}

// MemStore is a mutex-guarded in-memory database.Store
type MemStore struct {
	mu sync.Mutex

	seq   int64
	clock time.Time

	users     map[string]*models.User
	videos    map[string]*models.Video
	comments  map[string]*models.Comment
	tweets    map[string]*models.Tweet
	playlists map[string]*models.Playlist
	likes     map[likeKey]seqLike
	subs      map[subKey]*models.Subscription
	history   map[string][]string
	order     map[string]int64

	// PingErr is returned by Ping when set
	PingErr error
}

var _ database.Store = (*MemStore)(nil)

// NewMemStore creates an empty store
func NewMemStore() *MemStore {
	return &MemStore{
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:     map[string]*models.User{},
		videos:    map[string]*models.Video{},
		comments:  map[string]*models.Comment{},
		tweets:    map[string]*models.Tweet{},
		playlists: map[string]*models.Playlist{},
		likes:     map[likeKey]seqLike{},
		subs:      map[subKey]*models.Subscription{},
		history:   map[string][]string{},
		order:     map[string]int64{},
	}
}

// tick advances the fake clock so every write has a distinct timestamp
func (m *MemStore) tick(id string) time.Time {
	m.seq++
	m.clock = m.clock.Add(time.Millisecond)
	if id != "" {
		m.order[id] = m.seq
	}
	return m.clock
}

func newID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, database.ErrNotFound)
}

func conflict(op, constraint string) error {
	return fmt.Errorf("%s: %w (%s)", op, database.ErrConflict, constraint)
}

// newestFirst sorts ids by write order, newest first
func (m *MemStore) newestFirst(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return m.order[ids[i]] > m.order[ids[j]] })
}

func paginate[T any](items []T, page models.PageRequest) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if page.Limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (m *MemStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Users

func (m *MemStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	user.Email = strings.TrimSpace(user.Email)
	for _, u := range m.users {
		if strings.EqualFold(u.Username, user.Username) {
			return conflict("create user", "users_username_key")
		}
		if strings.EqualFold(u.Email, user.Email) {
			return conflict("create user", "users_email_key")
		}
	}

	user.ID = newID(user.ID)
	now := m.tick(user.ID)
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MemStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, notFound("get user")
	}
	copied := *u
	return &copied, nil
}

func (m *MemStore) findUser(match func(*models.User) bool) *models.User {
	for _, u := range m.users {
		if match(u) {
			copied := *u
			return &copied
		}
	}
	return nil
}

func (m *MemStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	username = strings.TrimSpace(username)
	if u := m.findUser(func(u *models.User) bool { return strings.EqualFold(u.Username, username) }); u != nil {
		return u, nil
	}
	return nil, notFound("get user by username")
}

func (m *MemStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email = strings.TrimSpace(email)
	if u := m.findUser(func(u *models.User) bool { return strings.EqualFold(u.Email, email) }); u != nil {
		return u, nil
	}
	return nil, notFound("get user by email")
}

func (m *MemStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			copied := *u
			out[id] = &copied
		}
	}
	return out, nil
}

func (m *MemStore) updateUser(op, id string, mutate func(*models.User) error) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, notFound(op)
	}
	if err := mutate(u); err != nil {
		return nil, err
	}
	u.UpdatedAt = m.tick("")
	copied := *u
	return &copied, nil
}

func (m *MemStore) UpdateUserProfile(ctx context.Context, id, fullName, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	return m.updateUser("update user profile", id, func(u *models.User) error {
		for _, other := range m.users {
			if other.ID != id && strings.EqualFold(other.Email, email) {
				return conflict("update user profile", "users_email_key")
			}
		}
		u.FullName, u.Email = fullName, email
		return nil
	})
}

func (m *MemStore) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	_, err := m.updateUser("update user password", id, func(u *models.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
	return err
}

func (m *MemStore) UpdateUserAvatar(ctx context.Context, id, avatar string) (*models.User, error) {
	return m.updateUser("update user avatar", id, func(u *models.User) error {
		u.Avatar = avatar
		return nil
	})
}

func (m *MemStore) UpdateUserCoverImage(ctx context.Context, id, coverImage string) (*models.User, error) {
	return m.updateUser("update user cover image", id, func(u *models.User) error {
		u.CoverImage = coverImage
		return nil
	})
}

func (m *MemStore) SetRefreshToken(ctx context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return notFound("set refresh token")
	}
	u.RefreshToken = token
	return nil
}

func (m *MemStore) AddToWatchHistory(ctx context.Context, userID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return notFound("add to watch history")
	}
	if _, ok := m.videos[videoID]; !ok {
		return notFound("add to watch history")
	}
	for _, id := range m.history[userID] {
		if id == videoID {
			return nil
		}
	}
	m.history[userID] = append(m.history[userID], videoID)
	return nil
}

func (m *MemStore) GetWatchHistory(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string{}, m.history[userID]...), nil
}

// Videos

func (m *MemStore) CreateVideo(ctx context.Context, video *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[video.OwnerID]; !ok {
		return notFound("create video")
	}
	video.ID = newID(video.ID)
	now := m.tick(video.ID)
	video.CreatedAt, video.UpdatedAt = now, now
	stored := *video
	m.videos[video.ID] = &stored
	return nil
}

func (m *MemStore) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.videos[id]
	if !ok {
		return nil, notFound("get video")
	}
	copied := *v
	return &copied, nil
}

func (m *MemStore) GetVideosByIDs(ctx context.Context, ids []string) (map[string]*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*models.Video, len(ids))
	for _, id := range ids {
		if v, ok := m.videos[id]; ok {
			copied := *v
			out[id] = &copied
		}
	}
	return out, nil
}

func (m *MemStore) UpdateVideo(ctx context.Context, video *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.videos[video.ID]
	if !ok {
		return notFound("update video")
	}
	v.Title, v.Description, v.Thumbnail, v.IsPublished = video.Title, video.Description, video.Thumbnail, video.IsPublished
	v.UpdatedAt = m.tick("")
	video.UpdatedAt = v.UpdatedAt
	return nil
}

func (m *MemStore) IncrementVideoViews(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.videos[id]
	if !ok {
		return notFound("increment video views")
	}
	v.Views++
	return nil
}

func matchesQuery(v *models.Video, query string) bool {
	words := strings.Fields(strings.ToLower(query))
	text := strings.ToLower(v.Title + " " + v.Description)
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

func videoLess(a, b *models.Video, sortBy string, asc bool) bool {
	var cmp int
	switch sortBy {
	case models.VideoSortViews:
		cmp = compare(a.Views, b.Views)
	case models.VideoSortDuration:
		cmp = compare(a.Duration, b.Duration)
	case models.VideoSortTitle:
		cmp = strings.Compare(a.Title, b.Title)
	default:
		cmp = compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
	}
	if cmp == 0 {
		cmp = strings.Compare(a.ID, b.ID)
	}
	if asc {
		return cmp < 0
	}
	return cmp > 0
}

func compare[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (m *MemStore) ListVideos(ctx context.Context, filter models.VideoFilter) ([]*models.Video, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*models.Video
	for _, v := range m.videos {
		if filter.OwnerID != "" && v.OwnerID != filter.OwnerID {
			continue
		}
		if filter.PublishedOnly && !v.IsPublished {
			continue
		}
		if strings.TrimSpace(filter.Query) != "" && !matchesQuery(v, filter.Query) {
			continue
		}
		copied := *v
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return videoLess(matched[i], matched[j], filter.SortBy, filter.SortAscending)
	})
	return paginate(matched, filter.Page), int64(len(matched)), nil
}

func (m *MemStore) ListVideosByOwner(ctx context.Context, ownerID string) ([]*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Video
	for _, v := range m.videos {
		if v.OwnerID == ownerID {
			copied := *v
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return videoLess(out[i], out[j], "", false) })
	return out, nil
}

func (m *MemStore) LatestVideosByOwners(ctx context.Context, ownerIDs []string) (map[string]*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		wanted[id] = true
	}
	out := make(map[string]*models.Video)
	for _, v := range m.videos {
		if !wanted[v.OwnerID] || !v.IsPublished {
			continue
		}
		if cur, ok := out[v.OwnerID]; !ok || videoLess(v, cur, "", false) {
			copied := *v
			out[v.OwnerID] = &copied
		}
	}
	return out, nil
}

func (m *MemStore) DeleteVideoCascade(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.videos[id]; !ok {
		return notFound("delete video")
	}
	for cid, c := range m.comments {
		if c.VideoID == id {
			m.deleteLikesLocked(models.LikeKindComment, cid)
			delete(m.comments, cid)
		}
	}
	m.deleteLikesLocked(models.LikeKindVideo, id)
	for _, p := range m.playlists {
		p.Videos = without(p.Videos, id)
	}
	for user, ids := range m.history {
		m.history[user] = without(ids, id)
	}
	delete(m.videos, id)
	return nil
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (m *MemStore) deleteLikesLocked(kind models.LikeKind, targetID string) {
	for k := range m.likes {
		if k.kind == kind && k.target == targetID {
			delete(m.likes, k)
		}
	}
}

// Comments

func (m *MemStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.videos[comment.VideoID]; !ok {
		return notFound("create comment")
	}
	comment.ID = newID(comment.ID)
	now := m.tick(comment.ID)
	comment.CreatedAt, comment.UpdatedAt = now, now
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *MemStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, notFound("get comment")
	}
	copied := *c
	return &copied, nil
}

func (m *MemStore) UpdateComment(ctx context.Context, id, content string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, notFound("update comment")
	}
	c.Content = content
	c.UpdatedAt = m.tick("")
	copied := *c
	return &copied, nil
}

func (m *MemStore) DeleteComment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.comments[id]; !ok {
		return notFound("delete comment")
	}
	m.deleteLikesLocked(models.LikeKindComment, id)
	delete(m.comments, id)
	return nil
}

func (m *MemStore) ListCommentsByVideo(ctx context.Context, videoID string, page models.PageRequest) ([]*models.Comment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, c := range m.comments {
		if c.VideoID == videoID {
			ids = append(ids, id)
		}
	}
	m.newestFirst(ids)

	out := make([]*models.Comment, 0, len(ids))
	for _, id := range paginate(ids, page) {
		copied := *m.comments[id]
		out = append(out, &copied)
	}
	return out, int64(len(ids)), nil
}

// Tweets

func (m *MemStore) CreateTweet(ctx context.Context, tweet *models.Tweet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[tweet.OwnerID]; !ok {
		return notFound("create tweet")
	}
	tweet.ID = newID(tweet.ID)
	now := m.tick(tweet.ID)
	tweet.CreatedAt, tweet.UpdatedAt = now, now
	stored := *tweet
	m.tweets[tweet.ID] = &stored
	return nil
}

func (m *MemStore) GetTweet(ctx context.Context, id string) (*models.Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tweets[id]
	if !ok {
		return nil, notFound("get tweet")
	}
	copied := *t
	return &copied, nil
}

func (m *MemStore) UpdateTweet(ctx context.Context, id, content string) (*models.Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tweets[id]
	if !ok {
		return nil, notFound("update tweet")
	}
	t.Content = content
	t.UpdatedAt = m.tick("")
	copied := *t
	return &copied, nil
}

func (m *MemStore) DeleteTweet(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tweets[id]; !ok {
		return notFound("delete tweet")
	}
	m.deleteLikesLocked(models.LikeKindTweet, id)
	delete(m.tweets, id)
	return nil
}

func (m *MemStore) ListTweetsByOwner(ctx context.Context, ownerID string, page models.PageRequest) ([]*models.Tweet, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, t := range m.tweets {
		if t.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	m.newestFirst(ids)

	out := make([]*models.Tweet, 0, len(ids))
	for _, id := range paginate(ids, page) {
		copied := *m.tweets[id]
		out = append(out, &copied)
	}
	return out, int64(len(ids)), nil
}

// Likes

func (m *MemStore) ToggleLike(ctx context.Context, target models.LikeTarget, userID string) (bool, error) {
	if !target.Kind.Valid() {
		return false, fmt.Errorf("toggle like: unknown target kind %q", target.Kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := likeKey{kind: target.Kind, target: target.ID, likedBy: userID}
	if _, ok := m.likes[key]; ok {
		delete(m.likes, key)
		return false, nil
	}

	like := &models.Like{ID: newID(""), Target: target, LikedBy: userID}
	like.CreatedAt = m.tick(like.ID)
	m.likes[key] = seqLike{like: like, seq: m.seq}
	return true, nil
}

func (m *MemStore) CountLikes(ctx context.Context, kind models.LikeKind, targetIDs []string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		wanted[id] = true
	}
	out := map[string]int64{}
	for k := range m.likes {
		if k.kind == kind && wanted[k.target] {
			out[k.target]++
		}
	}
	return out, nil
}

func (m *MemStore) LikedBy(ctx context.Context, kind models.LikeKind, targetIDs []string, userID string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := map[string]bool{}
	if userID == "" {
		return out, nil
	}
	for _, id := range targetIDs {
		if _, ok := m.likes[likeKey{kind: kind, target: id, likedBy: userID}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *MemStore) ListLikedVideos(ctx context.Context, userID string, page models.PageRequest) ([]*models.Like, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []seqLike
	for k, e := range m.likes {
		if k.kind != models.LikeKindVideo || k.likedBy != userID {
			continue
		}
		v, ok := m.videos[k.target]
		if !ok || !v.VisibleTo(userID) {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	out := make([]*models.Like, 0, len(entries))
	for _, e := range paginate(entries, page) {
		copied := *e.like
		out = append(out, &copied)
	}
	return out, int64(len(entries)), nil
}

// Subscriptions

func (m *MemStore) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := subKey{subscriber: subscriberID, channel: channelID}
	if _, ok := m.subs[key]; ok {
		delete(m.subs, key)
		return false, nil
	}
	sub := &models.Subscription{ID: newID(""), SubscriberID: subscriberID, ChannelID: channelID}
	sub.CreatedAt = m.tick(sub.ID)
	m.subs[key] = sub
	return true, nil
}

func (m *MemStore) CountSubscribers(ctx context.Context, channelIDs []string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(channelIDs))
	for _, id := range channelIDs {
		wanted[id] = true
	}
	out := map[string]int64{}
	for k := range m.subs {
		if wanted[k.channel] {
			out[k.channel]++
		}
	}
	return out, nil
}

func (m *MemStore) CountSubscriptions(ctx context.Context, subscriberID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for k := range m.subs {
		if k.subscriber == subscriberID {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) SubscribedTo(ctx context.Context, subscriberID string, channelIDs []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := map[string]bool{}
	if subscriberID == "" {
		return out, nil
	}
	for _, id := range channelIDs {
		if _, ok := m.subs[subKey{subscriber: subscriberID, channel: id}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *MemStore) listSubs(match func(subKey) bool) []*models.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Subscription
	for k, s := range m.subs {
		if match(k) {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] > m.order[out[j].ID] })
	return out
}

func (m *MemStore) ListSubscribers(ctx context.Context, channelID string) ([]*models.Subscription, error) {
	return m.listSubs(func(k subKey) bool { return k.channel == channelID }), nil
}

func (m *MemStore) ListSubscriptions(ctx context.Context, subscriberID string) ([]*models.Subscription, error) {
	return m.listSubs(func(k subKey) bool { return k.subscriber == subscriberID }), nil
}

// Playlists

func copyPlaylist(p *models.Playlist) *models.Playlist {
	copied := *p
	copied.Videos = append([]string{}, p.Videos...)
	return &copied
}

func (m *MemStore) CreatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[playlist.OwnerID]; !ok {
		return notFound("create playlist")
	}
	playlist.ID = newID(playlist.ID)
	if playlist.Videos == nil {
		playlist.Videos = []string{}
	}
	now := m.tick(playlist.ID)
	playlist.CreatedAt, playlist.UpdatedAt = now, now
	m.playlists[playlist.ID] = copyPlaylist(playlist)
	return nil
}

func (m *MemStore) CountPlaylistsByOwner(ctx context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, p := range m.playlists {
		if p.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) GetPlaylist(ctx context.Context, id string) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.playlists[id]
	if !ok {
		return nil, notFound("get playlist")
	}
	return copyPlaylist(p), nil
}

func (m *MemStore) UpdatePlaylist(ctx context.Context, id, name, description string) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.playlists[id]
	if !ok {
		return nil, notFound("update playlist")
	}
	p.Name, p.Description = name, description
	p.UpdatedAt = m.tick("")
	return copyPlaylist(p), nil
}

func (m *MemStore) DeletePlaylist(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.playlists[id]; !ok {
		return notFound("delete playlist")
	}
	delete(m.playlists, id)
	return nil
}

func (m *MemStore) AddVideoToPlaylist(ctx context.Context, playlistID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.playlists[playlistID]
	if !ok {
		return notFound("add video to playlist")
	}
	if _, ok := m.videos[videoID]; !ok {
		return notFound("add video to playlist")
	}
	if !p.Contains(videoID) {
		p.Videos = append(p.Videos, videoID)
	}
	p.UpdatedAt = m.tick("")
	return nil
}

func (m *MemStore) RemoveVideoFromPlaylist(ctx context.Context, playlistID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.playlists[playlistID]
	if !ok {
		return notFound("remove video from playlist")
	}
	p.Videos = without(p.Videos, videoID)
	p.UpdatedAt = m.tick("")
	return nil
}

func (m *MemStore) ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Playlist
	for _, p := range m.playlists {
		if p.OwnerID == ownerID {
			out = append(out, copyPlaylist(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.order[out[i].ID] > m.order[out[j].ID] })
	return out, nil
}

// Counts reports the number of stored rows per table
func (m *MemStore) Counts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]int{
		"users":         len(m.users),
		"videos":        len(m.videos),
		"comments":      len(m.comments),
		"tweets":        len(m.tweets),
		"playlists":     len(m.playlists),
		"likes":         len(m.likes),
		"subscriptions": len(m.subs),
	}
}
