package models

import (
	"time"
)

// VideoCard is a video with its owner summary, used by listings
type VideoCard struct {
	Video
	Owner UserSummary `json:"owner"`
}

// ChannelSummary is an owner block enriched with subscription data
type ChannelSummary struct {
	UserSummary
	SubscribersCount int64 `json:"subscribersCount"`
	IsSubscribed     bool  `json:"isSubscribed"`
}

// VideoDetail is the single video view
type VideoDetail struct {
	Video
	LikesCount int64          `json:"likesCount"`
	IsLiked    bool           `json:"isLiked"`
	Owner      ChannelSummary `json:"owner"`
}

// ChannelProfile is the public profile of a channel
type ChannelProfile struct {
	ID                        string    `json:"_id"`
	Username                  string    `json:"username"`
	FullName                  string    `json:"fullName"`
	Email                     string    `json:"email"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int64     `json:"subscribersCount"`
	ChannelsSubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
	CreatedAt                 time.Time `json:"createdAt"`
}

// CommentView is a comment as rendered in a video's comment feed
type CommentView struct {
	ID         string      `json:"_id"`
	Content    string      `json:"content"`
	CreatedAt  time.Time   `json:"createdAt"`
	LikesCount int64       `json:"likesCount"`
	IsLiked    bool        `json:"isLiked"`
	Owner      UserSummary `json:"owner"`
}

// TweetView is a tweet as rendered in a channel's tweet feed
type TweetView struct {
	ID         string      `json:"_id"`
	Content    string      `json:"content"`
	CreatedAt  time.Time   `json:"createdAt"`
	LikesCount int64       `json:"likesCount"`
	IsLiked    bool        `json:"isLiked"`
	Owner      UserSummary `json:"ownerDetails"`
}

// LikedVideo is an entry of the caller's liked videos
type LikedVideo struct {
	LikedAt time.Time `json:"likedAt"`
	Video   VideoCard `json:"likedVideo"`
}

// SubscriberView describes one subscriber of a channel
type SubscriberView struct {
	UserSummary
	SubscribersCount int64 `json:"subscribersCount"`
	SubscribedBack   bool  `json:"subscribedToSubscriber"`
}

// SubscribedChannel describes one channel the user follows
type SubscribedChannel struct {
	UserSummary
	LatestVideo *Video `json:"latestVideo"`
}

// PlaylistView is a playlist with aggregate data
type PlaylistView struct {
	ID          string      `json:"_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	TotalVideos int         `json:"totalVideos"`
	TotalViews  int64       `json:"totalViews"`
	Owner       UserSummary `json:"owner"`
	Videos      []VideoCard `json:"videos,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// ChannelStats are the dashboard totals of a channel
type ChannelStats struct {
	ChannelID        string `json:"channelId"`
	TotalVideos      int    `json:"totalVideos"`
	TotalViews       int64  `json:"totalViews"`
	TotalSubscribers int64  `json:"totalSubscribers"`
	TotalLikes       int64  `json:"totalLikes"`
}

// DashboardVideo is a channel-owned video with its like count
type DashboardVideo struct {
	Video
	LikesCount int64 `json:"likesCount"`
}

// CleanupTask asks the worker to finish a deletion that failed part way
type CleanupTask struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId,omitempty"`
	PublicIDs []string  `json:"publicIds,omitempty"`
	Reason    string    `json:"reason"`
	Attempt   int       `json:"attempt"`
	CreatedAt time.Time `json:"createdAt"`
}
