package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

// ToggleSubscription subscribes or unsubscribes the subscriber from the channel.
// It reports whether the subscription exists afterwards.
func (r *Repository) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	var removed string
	err := r.db.Pool.QueryRow(ctx, `
		DELETE FROM subscriptions
		WHERE subscriber_id = $1 AND channel_id = $2
		RETURNING id
	`, subscriberID, channelID).Scan(&removed)
	if err == nil {
		return false, nil
	}
	if err = wrapError("remove subscription", err); !isNotFound(err) {
		return false, err
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO subscriptions (id, subscriber_id, channel_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (subscriber_id, channel_id) DO NOTHING
	`, newID(""), subscriberID, channelID)
	if err != nil {
		return false, wrapError("add subscription", err)
	}
	return true, nil
}

// CountSubscribers counts subscribers per channel
func (r *Repository) CountSubscribers(ctx context.Context, channelIDs []string) (map[string]int64, error) {
	if len(channelIDs) == 0 {
		return map[string]int64{}, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT channel_id, COUNT(*) FROM subscriptions
		WHERE channel_id = ANY($1)
		GROUP BY channel_id
	`, channelIDs)
	if err != nil {
		return nil, wrapError("count subscribers", err)
	}
	counts, err := countsByKey(rows)
	if err != nil {
		return nil, wrapError("scan subscriber counts", err)
	}
	return counts, nil
}

// CountSubscriptions counts the channels a user subscribes to
func (r *Repository) CountSubscriptions(ctx context.Context, subscriberID string) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID).Scan(&n)
	if err != nil {
		return 0, wrapError("count subscriptions", err)
	}
	return n, nil
}

// SubscribedTo reports which of the channels the subscriber follows
func (r *Repository) SubscribedTo(ctx context.Context, subscriberID string, channelIDs []string) (map[string]bool, error) {
	if subscriberID == "" || len(channelIDs) == 0 {
		return map[string]bool{}, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT channel_id FROM subscriptions
		WHERE subscriber_id = $1 AND channel_id = ANY($2)
	`, subscriberID, channelIDs)
	if err != nil {
		return nil, wrapError("get subscribed channels", err)
	}
	set, err := keySet(rows)
	if err != nil {
		return nil, wrapError("scan subscribed channels", err)
	}
	return set, nil
}

func (r *Repository) listSubscriptions(ctx context.Context, op, column, id string) ([]*models.Subscription, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, subscriber_id, channel_id, created_at FROM subscriptions
		WHERE `+column+` = $1
		ORDER BY created_at DESC, id DESC
	`, id)
	if err != nil {
		return nil, wrapError(op, err)
	}

	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Subscription, error) {
		var s models.Subscription
		err := row.Scan(&s.ID, &s.SubscriberID, &s.ChannelID, &s.CreatedAt)
		return &s, err
	})
	if err != nil {
		return nil, wrapError(op, err)
	}
	return subs, nil
}

// ListSubscribers returns the subscriptions pointing at a channel, newest first
func (r *Repository) ListSubscribers(ctx context.Context, channelID string) ([]*models.Subscription, error) {
	return r.listSubscriptions(ctx, "list subscribers", "channel_id", channelID)
}

// ListSubscriptions returns the subscriptions a user holds, newest first
func (r *Repository) ListSubscriptions(ctx context.Context, subscriberID string) ([]*models.Subscription, error) {
	return r.listSubscriptions(ctx, "list subscriptions", "subscriber_id", subscriberID)
}
