package models

import (
	"time"
)

// Video represents a published (or draft) video owned by a channel
type Video struct {
	ID          string    `json:"_id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	VideoFile   string    `json:"videoFile" db:"video_file"`
	Thumbnail   string    `json:"thumbnail" db:"thumbnail"`
	Duration    float64   `json:"duration" db:"duration"`
	OwnerID     string    `json:"owner" db:"owner_id"`
	IsPublished bool      `json:"isPublished" db:"is_published"`
	Views       int64     `json:"views" db:"views"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// VisibleTo reports whether the viewer may see the video. Drafts are only
// visible to their owner.
func (v *Video) VisibleTo(viewerID string) bool {
	return v.IsPublished || (viewerID != "" && v.OwnerID == viewerID)
}

// Video sort fields accepted by the feed
const (
	VideoSortCreatedAt = "createdAt"
	VideoSortViews     = "views"
	VideoSortDuration  = "duration"
	VideoSortTitle     = "title"
)

// VideoFilter describes a video feed query
type VideoFilter struct {
	Query         string
	OwnerID       string
	PublishedOnly bool
	SortBy        string
	SortAscending bool
	Page          PageRequest
}
