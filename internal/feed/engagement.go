package feed

import (
	"context"
	"fmt"

	"github.com/therealutkarshpriyadarshi/vidtube/internal/database"
	"github.com/therealutkarshpriyadarshi/vidtube/internal/tracing"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
	"golang.org/x/sync/errgroup"
)

// likeStats loads like counts, viewer like state and owners for one page of
// comments or tweets.
type likeStats struct {
	counts map[string]int64
	liked  map[string]bool
	owners map[string]*models.User
}

func (c *Composer) loadLikeStats(ctx context.Context, kind models.LikeKind, ids, ownerIDs []string, viewerID string) (*likeStats, error) {
	stats := &likeStats{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.counts, err = c.store.CountLikes(gctx, kind, ids)
		return err
	})
	g.Go(func() (err error) {
		stats.liked, err = c.store.LikedBy(gctx, kind, ids, viewerID)
		return err
	})
	g.Go(func() (err error) {
		stats.owners, err = c.store.GetUsersByIDs(gctx, unique(ownerIDs))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// Comments returns a page of a video's comments, newest first
func (c *Composer) Comments(ctx context.Context, videoID, viewerID string, page models.PageRequest) (_ *models.Page[models.CommentView], err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.comments")
	defer func() { tracing.FinishSpan(span, err) }()

	video, err := c.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.VisibleTo(viewerID) {
		return nil, fmt.Errorf("video %s: %w", videoID, database.ErrNotFound)
	}

	comments, total, err := c.store.ListCommentsByVideo(ctx, videoID, page)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(comments))
	ownerIDs := make([]string, len(comments))
	for i, cm := range comments {
		ids[i], ownerIDs[i] = cm.ID, cm.OwnerID
	}
	stats, err := c.loadLikeStats(ctx, models.LikeKindComment, ids, ownerIDs, viewerID)
	if err != nil {
		return nil, err
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, cm := range comments {
		views = append(views, models.CommentView{
			ID:         cm.ID,
			Content:    cm.Content,
			CreatedAt:  cm.CreatedAt,
			LikesCount: stats.counts[cm.ID],
			IsLiked:    stats.liked[cm.ID],
			Owner:      stats.owners[cm.OwnerID].Summary(),
		})
	}
	return models.NewPage(views, total, page), nil
}

// Tweets returns a page of a channel's tweets, newest first
func (c *Composer) Tweets(ctx context.Context, ownerID, viewerID string, page models.PageRequest) (_ *models.Page[models.TweetView], err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.tweets")
	defer func() { tracing.FinishSpan(span, err) }()

	if _, err := c.store.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	tweets, total, err := c.store.ListTweetsByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(tweets))
	for i, t := range tweets {
		ids[i] = t.ID
	}
	stats, err := c.loadLikeStats(ctx, models.LikeKindTweet, ids, []string{ownerID}, viewerID)
	if err != nil {
		return nil, err
	}

	views := make([]models.TweetView, 0, len(tweets))
	for _, t := range tweets {
		views = append(views, models.TweetView{
			ID:         t.ID,
			Content:    t.Content,
			CreatedAt:  t.CreatedAt,
			LikesCount: stats.counts[t.ID],
			IsLiked:    stats.liked[t.ID],
			Owner:      stats.owners[t.OwnerID].Summary(),
		})
	}
	return models.NewPage(views, total, page), nil
}

// LikedVideos returns a page of the user's liked videos, most recent like first
func (c *Composer) LikedVideos(ctx context.Context, userID string, page models.PageRequest) (_ *models.Page[models.LikedVideo], err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.liked_videos")
	defer func() { tracing.FinishSpan(span, err) }()

	likes, total, err := c.store.ListLikedVideos(ctx, userID, page)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(likes))
	for i, l := range likes {
		ids[i] = l.Target.ID
	}
	byID, err := c.store.GetVideosByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	videos := make([]*models.Video, 0, len(likes))
	likedAt := make([]*models.Like, 0, len(likes))
	for _, l := range likes {
		if v, ok := byID[l.Target.ID]; ok {
			videos = append(videos, v)
			likedAt = append(likedAt, l)
		}
	}
	cards, err := c.videoCards(ctx, videos)
	if err != nil {
		return nil, err
	}

	out := make([]models.LikedVideo, len(cards))
	for i, card := range cards {
		out[i] = models.LikedVideo{LikedAt: likedAt[i].CreatedAt, Video: card}
	}
	return models.NewPage(out, total, page), nil
}

// Subscribers lists the subscribers of a channel with their own subscriber
// counts and whether the channel follows them back.
func (c *Composer) Subscribers(ctx context.Context, channelID string) (_ []models.SubscriberView, err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.subscribers")
	defer func() { tracing.FinishSpan(span, err) }()

	if _, err := c.store.GetUserByID(ctx, channelID); err != nil {
		return nil, err
	}
	subs, err := c.store.ListSubscribers(ctx, channelID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(subs))
	for i, s := range subs {
		ids[i] = s.SubscriberID
	}

	var (
		users  map[string]*models.User
		counts map[string]int64
		back   map[string]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = c.store.GetUsersByIDs(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		counts, err = c.store.CountSubscribers(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		back, err = c.store.SubscribedTo(gctx, channelID, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.SubscriberView, 0, len(ids))
	for _, id := range ids {
		user, ok := users[id]
		if !ok {
			continue
		}
		out = append(out, models.SubscriberView{
			UserSummary:      user.Summary(),
			SubscribersCount: counts[id],
			SubscribedBack:   back[id],
		})
	}
	return out, nil
}

// SubscribedChannels lists the channels a user follows with each channel's
// latest published video.
func (c *Composer) SubscribedChannels(ctx context.Context, subscriberID string) (_ []models.SubscribedChannel, err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.subscribed_channels")
	defer func() { tracing.FinishSpan(span, err) }()

	if _, err := c.store.GetUserByID(ctx, subscriberID); err != nil {
		return nil, err
	}
	subs, err := c.store.ListSubscriptions(ctx, subscriberID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(subs))
	for i, s := range subs {
		ids[i] = s.ChannelID
	}

	var (
		channels map[string]*models.User
		latest   map[string]*models.Video
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		channels, err = c.store.GetUsersByIDs(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		latest, err = c.store.LatestVideosByOwners(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.SubscribedChannel, 0, len(ids))
	for _, id := range ids {
		channel, ok := channels[id]
		if !ok {
			continue
		}
		out = append(out, models.SubscribedChannel{
			UserSummary: channel.Summary(),
			LatestVideo: latest[id],
		})
	}
	return out, nil
}
