// Package feed composes the read-side views of the API from the content stores.
// Every view is built from batched lookups keyed by ID sets; no view issues one
// query per row.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/logging"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/tracing"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Store is the read surface the composer joins over
type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	AddToWatchHistory(ctx context.Context, userID, videoID string) error
	GetWatchHistory(ctx context.Context, userID string) ([]string, error)

	GetVideo(ctx context.Context, id string) (*models.Video, error)
	GetVideosByIDs(ctx context.Context, ids []string) (map[string]*models.Video, error)
	IncrementVideoViews(ctx context.Context, id string) error
	ListVideos(ctx context.Context, filter models.VideoFilter) ([]*models.Video, int64, error)
	ListVideosByOwner(ctx context.Context, ownerID string) ([]*models.Video, error)
	LatestVideosByOwners(ctx context.Context, ownerIDs []string) (map[string]*models.Video, error)

	ListCommentsByVideo(ctx context.Context, videoID string, page models.PageRequest) ([]*models.Comment, int64, error)
	ListTweetsByOwner(ctx context.Context, ownerID string, page models.PageRequest) ([]*models.Tweet, int64, error)

	CountLikes(ctx context.Context, kind models.LikeKind, targetIDs []string) (map[string]int64, error)
	LikedBy(ctx context.Context, kind models.LikeKind, targetIDs []string, userID string) (map[string]bool, error)
	ListLikedVideos(ctx context.Context, userID string, page models.PageRequest) ([]*models.Like, int64, error)

	CountSubscribers(ctx context.Context, channelIDs []string) (map[string]int64, error)
	CountSubscriptions(ctx context.Context, subscriberID string) (int64, error)
	SubscribedTo(ctx context.Context, subscriberID string, channelIDs []string) (map[string]bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]*models.Subscription, error)
	ListSubscriptions(ctx context.Context, subscriberID string) ([]*models.Subscription, error)

	GetPlaylist(ctx context.Context, id string) (*models.Playlist, error)
	ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]*models.Playlist, error)
}

var _ Store = (database.Store)(nil)

// StatsCache caches dashboard totals
type StatsCache interface {
	GetChannelStats(ctx context.Context, channelID string) (*models.ChannelStats, error)
	SetChannelStats(ctx context.Context, stats *models.ChannelStats, ttl time.Duration) error
	InvalidateChannelStats(ctx context.Context, channelIDs ...string) error
}

// Composer builds feed, profile and dashboard views
type Composer struct {
	store    Store
	stats    StatsCache
	statsTTL time.Duration
	logger   *logging.Logger
}

// NewComposer creates a composer. A nil stats cache disables stats caching.
func NewComposer(store Store, stats StatsCache, statsTTL time.Duration, logger *logging.Logger) *Composer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Composer{
		store:    store,
		stats:    stats,
		statsTTL: statsTTL,
		logger:   logger,
	}
}

// FeedQuery selects a page of the video feed
type FeedQuery struct {
	Query    string
	OwnerID  string
	SortBy   string
	SortType string
	Page     models.PageRequest
}

// VideoFeed lists videos matching q. Drafts are included only when the viewer
// lists their own channel.
func (c *Composer) VideoFeed(ctx context.Context, viewerID string, q FeedQuery) (_ *models.Page[models.VideoCard], err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.video_feed")
	defer func() { tracing.FinishSpan(span, err) }()

	filter := models.VideoFilter{
		Query:         q.Query,
		OwnerID:       q.OwnerID,
		PublishedOnly: viewerID == "" || q.OwnerID != viewerID,
		SortBy:        q.SortBy,
		SortAscending: q.SortType == "asc",
		Page:          q.Page,
	}

	videos, total, err := c.store.ListVideos(ctx, filter)
	if err != nil {
		return nil, err
	}
	cards, err := c.videoCards(ctx, videos)
	if err != nil {
		return nil, err
	}
	return models.NewPage(cards, total, q.Page), nil
}

// VideoDetail returns one video with engagement data. The view counts as a
// watch: views go up and the video joins the viewer's history.
func (c *Composer) VideoDetail(ctx context.Context, videoID, viewerID string) (_ *models.VideoDetail, err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.video_detail")
	defer func() { tracing.FinishSpan(span, err) }()

	video, err := c.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.VisibleTo(viewerID) {
		return nil, fmt.Errorf("video %s: %w", videoID, database.ErrNotFound)
	}

	if err := c.store.IncrementVideoViews(ctx, video.ID); err != nil {
		return nil, err
	}
	video.Views++
	if viewerID != "" {
		if err := c.store.AddToWatchHistory(ctx, viewerID, video.ID); err != nil {
			return nil, err
		}
	}

	detail := &models.VideoDetail{Video: *video}
	ids := []string{video.ID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		owner, err := c.channelSummary(gctx, video.OwnerID, viewerID)
		if err != nil {
			return err
		}
		detail.Owner = *owner
		return nil
	})
	g.Go(func() error {
		counts, err := c.store.CountLikes(gctx, models.LikeKindVideo, ids)
		detail.LikesCount = counts[video.ID]
		return err
	})
	g.Go(func() error {
		liked, err := c.store.LikedBy(gctx, models.LikeKindVideo, ids, viewerID)
		detail.IsLiked = liked[video.ID]
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// ChannelProfile returns the public profile of the channel with the given
// username, matched case-insensitively.
func (c *Composer) ChannelProfile(ctx context.Context, username, viewerID string) (_ *models.ChannelProfile, err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.channel_profile")
	defer func() { tracing.FinishSpan(span, err) }()

	user, err := c.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := &models.ChannelProfile{
		ID:         user.ID,
		Username:   user.Username,
		FullName:   user.FullName,
		Email:      user.Email,
		Avatar:     user.Avatar,
		CoverImage: user.CoverImage,
		CreatedAt:  user.CreatedAt,
	}
	ids := []string{user.ID}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := c.store.CountSubscribers(gctx, ids)
		profile.SubscribersCount = counts[user.ID]
		return err
	})
	g.Go(func() error {
		n, err := c.store.CountSubscriptions(gctx, user.ID)
		profile.ChannelsSubscribedToCount = n
		return err
	})
	g.Go(func() error {
		subscribed, err := c.store.SubscribedTo(gctx, viewerID, ids)
		profile.IsSubscribed = subscribed[user.ID]
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profile, nil
}

// WatchHistory returns the user's watched videos in history order. Videos
// that were deleted or unpublished since are skipped.
func (c *Composer) WatchHistory(ctx context.Context, userID string) (_ []models.VideoCard, err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.watch_history")
	defer func() { tracing.FinishSpan(span, err) }()

	ids, err := c.store.GetWatchHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID, err := c.store.GetVideosByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	videos := make([]*models.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok && v.VisibleTo(userID) {
			videos = append(videos, v)
		}
	}
	return c.videoCards(ctx, videos)
}

// videoCards attaches owner summaries to videos, preserving their order
func (c *Composer) videoCards(ctx context.Context, videos []*models.Video) ([]models.VideoCard, error) {
	ownerIDs := make([]string, 0, len(videos))
	for _, v := range videos {
		ownerIDs = append(ownerIDs, v.OwnerID)
	}
	owners, err := c.store.GetUsersByIDs(ctx, unique(ownerIDs))
	if err != nil {
		return nil, err
	}

	cards := make([]models.VideoCard, 0, len(videos))
	for _, v := range videos {
		cards = append(cards, models.VideoCard{Video: *v, Owner: owners[v.OwnerID].Summary()})
	}
	return cards, nil
}

// channelSummary is a user's summary with subscriber count and viewer state
func (c *Composer) channelSummary(ctx context.Context, channelID, viewerID string) (*models.ChannelSummary, error) {
	user, err := c.store.GetUserByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	ids := []string{channelID}

	counts, err := c.store.CountSubscribers(ctx, ids)
	if err != nil {
		return nil, err
	}
	subscribed, err := c.store.SubscribedTo(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	return &models.ChannelSummary{
		UserSummary:      user.Summary(),
		SubscribersCount: counts[channelID],
		IsSubscribed:     subscribed[channelID],
	}, nil
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
