package models

import (
	"time"
)

// Comment is a text reply on a video
type Comment struct {
	ID        string    `json:"_id" db:"id"`
	Content   string    `json:"content" db:"content"`
	VideoID   string    `json:"video" db:"video_id"`
	OwnerID   string    `json:"owner" db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Tweet is a short text post on a channel
type Tweet struct {
	ID        string    `json:"_id" db:"id"`
	Content   string    `json:"content" db:"content"`
	OwnerID   string    `json:"owner" db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Subscription links a subscriber to a channel
type Subscription struct {
	ID           string    `json:"_id" db:"id"`
	SubscriberID string    `json:"subscriber" db:"subscriber_id"`
	ChannelID    string    `json:"channel" db:"channel_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Playlist is an ordered set of videos curated by its owner
type Playlist struct {
	ID          string    `json:"_id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	OwnerID     string    `json:"owner" db:"owner_id"`
	Videos      []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Contains reports whether the playlist already holds the video
func (p *Playlist) Contains(videoID string) bool {
	for _, id := range p.Videos {
		if id == videoID {
			return true
		}
	}
	return false
}
