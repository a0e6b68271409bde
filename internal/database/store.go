package database

import (
	"context"

	"github.com/therealutkarshpriyadarshi/vidtube/pkg/models"
)

// UserStore persists accounts, sessions and watch history
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	UpdateUserProfile(ctx context.Context, id, fullName, email string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	UpdateUserAvatar(ctx context.Context, id, avatar string) (*models.User, error)
	UpdateUserCoverImage(ctx context.Context, id, coverImage string) (*models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	AddToWatchHistory(ctx context.Context, userID, videoID string) error
	GetWatchHistory(ctx context.Context, userID string) ([]string, error)
}

// VideoStore persists videos
type VideoStore interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	GetVideosByIDs(ctx context.Context, ids []string) (map[string]*models.Video, error)
	UpdateVideo(ctx context.Context, video *models.Video) error
	IncrementVideoViews(ctx context.Context, id string) error
	ListVideos(ctx context.Context, filter models.VideoFilter) ([]*models.Video, int64, error)
	ListVideosByOwner(ctx context.Context, ownerID string) ([]*models.Video, error)
	LatestVideosByOwners(ctx context.Context, ownerIDs []string) (map[string]*models.Video, error)
	DeleteVideoCascade(ctx context.Context, id string) error
}

// CommentStore persists comments
type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	UpdateComment(ctx context.Context, id, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ListCommentsByVideo(ctx context.Context, videoID string, page models.PageRequest) ([]*models.Comment, int64, error)
}

// TweetStore persists tweets
type TweetStore interface {
	CreateTweet(ctx context.Context, tweet *models.Tweet) error
	GetTweet(ctx context.Context, id string) (*models.Tweet, error)
	UpdateTweet(ctx context.Context, id, content string) (*models.Tweet, error)
	DeleteTweet(ctx context.Context, id string) error
	ListTweetsByOwner(ctx context.Context, ownerID string, page models.PageRequest) ([]*models.Tweet, int64, error)
}

// LikeStore persists likes on videos, comments and tweets
type LikeStore interface {
	ToggleLike(ctx context.Context, target models.LikeTarget, userID string) (bool, error)
	CountLikes(ctx context.Context, kind models.LikeKind, targetIDs []string) (map[string]int64, error)
	LikedBy(ctx context.Context, kind models.LikeKind, targetIDs []string, userID string) (map[string]bool, error)
	ListLikedVideos(ctx context.Context, userID string, page models.PageRequest) ([]*models.Like, int64, error)
}

// SubscriptionStore persists channel subscriptions
type SubscriptionStore interface {
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
	CountSubscribers(ctx context.Context, channelIDs []string) (map[string]int64, error)
	CountSubscriptions(ctx context.Context, subscriberID string) (int64, error)
	SubscribedTo(ctx context.Context, subscriberID string, channelIDs []string) (map[string]bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]*models.Subscription, error)
	ListSubscriptions(ctx context.Context, subscriberID string) ([]*models.Subscription, error)
}

// PlaylistStore persists playlists and their entries
type PlaylistStore interface {
	CreatePlaylist(ctx context.Context, playlist *models.Playlist) error
	CountPlaylistsByOwner(ctx context.Context, ownerID string) (int64, error)
	GetPlaylist(ctx context.Context, id string) (*models.Playlist, error)
	UpdatePlaylist(ctx context.Context, id, name, description string) (*models.Playlist, error)
	DeletePlaylist(ctx context.Context, id string) error
	AddVideoToPlaylist(ctx context.Context, playlistID, videoID string) error
	RemoveVideoFromPlaylist(ctx context.Context, playlistID, videoID string) error
	ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]*models.Playlist, error)
}

// Store is the full persistence contract of the API
type Store interface {
	UserStore
	VideoStore
	CommentStore
	TweetStore
	LikeStore
	SubscriptionStore
	PlaylistStore
	Ping(ctx context.Context) error
}

var _ Store = (*Repository)(nil)
