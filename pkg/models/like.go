package models

import (
	"fmt"
	"time"
)

// LikeKind enumerates the entities that can be liked
type LikeKind string

const (
	LikeKindVideo   LikeKind = "video"
	LikeKindComment LikeKind = "comment"
	LikeKindTweet   LikeKind = "tweet"
)

// Valid reports whether k is one of the known kinds
func (k LikeKind) Valid() bool {
	switch k {
	case LikeKindVideo, LikeKindComment, LikeKindTweet:
		return true
	}
	return false
}

// LikeTarget identifies exactly one likeable entity
type LikeTarget struct {
	Kind LikeKind `json:"kind"`
	ID   string   `json:"id"`
}

// VideoTarget returns the target for a video like
func VideoTarget(id string) LikeTarget { return LikeTarget{Kind: LikeKindVideo, ID: id} }

// CommentTarget returns the target for a comment like
func CommentTarget(id string) LikeTarget { return LikeTarget{Kind: LikeKindComment, ID: id} }

// TweetTarget returns the target for a tweet like
func TweetTarget(id string) LikeTarget { return LikeTarget{Kind: LikeKindTweet, ID: id} }

func (t LikeTarget) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}

// Like records that a user liked a target
type Like struct {
	ID        string     `json:"_id" db:"id"`
	Target    LikeTarget `json:"target"`
	LikedBy   string     `json:"likedBy" db:"liked_by"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}
