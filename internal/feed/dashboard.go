package feed

import (
	"context"

	"github.com/therealutkarshpriyadarshi/vidtube/internal/tracing"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
	"golang.org/x/sync/errgroup"
)

// ChannelStats returns the dashboard totals of a channel. Totals cover drafts
// too, since only the owner sees them.
func (c *Composer) ChannelStats(ctx context.Context, channelID string) (_ *models.ChannelStats, err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.channel_stats")
	defer func() { tracing.FinishSpan(span, err) }()

	if c.stats != nil {
		cached, err := c.stats.GetChannelStats(ctx, channelID)
		if err != nil {
			c.logger.WarnWithErr("failed to read cached channel stats", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	videos, err := c.store.ListVideosByOwner(ctx, channelID)
	if err != nil {
		return nil, err
	}

	stats := &models.ChannelStats{ChannelID: channelID, TotalVideos: len(videos)}
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
		stats.TotalViews += v.Views
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		likes, err := c.store.CountLikes(gctx, models.LikeKindVideo, ids)
		for _, n := range likes {
			stats.TotalLikes += n
		}
		return err
	})
	g.Go(func() error {
		subs, err := c.store.CountSubscribers(gctx, []string{channelID})
		stats.TotalSubscribers = subs[channelID]
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if c.stats != nil && c.statsTTL > 0 {
		if err := c.stats.SetChannelStats(ctx, stats, c.statsTTL); err != nil {
			c.logger.WarnWithErr("failed to cache channel stats", err)
		}
	}
	return stats, nil
}

// ChannelVideos lists every video of the channel, drafts included, with like counts
func (c *Composer) ChannelVideos(ctx context.Context, channelID string) (_ []models.DashboardVideo, err error) {
	span, ctx := tracing.StartSpan(ctx, "feed.channel_videos")
	defer func() { tracing.FinishSpan(span, err) }()

	videos, err := c.store.ListVideosByOwner(ctx, channelID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	likes, err := c.store.CountLikes(ctx, models.LikeKindVideo, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.DashboardVideo, 0, len(videos))
	for _, v := range videos {
		out = append(out, models.DashboardVideo{Video: *v, LikesCount: likes[v.ID]})
	}
	return out, nil
}

// InvalidateStats drops cached totals after a write that changes them
func (c *Composer) InvalidateStats(ctx context.Context, channelIDs ...string) {
	if c.stats == nil {
		return
	}
	if err := c.stats.InvalidateChannelStats(ctx, channelIDs...); err != nil {
		c.logger.WarnWithErr("failed to invalidate channel stats", err)
	}
}
