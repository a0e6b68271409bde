package models

import (
	"time"
)

// User represents a registered account. A user is also a channel.
type User struct {
	ID           string    `json:"_id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	FullName     string    `json:"fullName" db:"full_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Avatar       string    `json:"avatar" db:"avatar"`
	CoverImage   string    `json:"coverImage" db:"cover_image"`
	RefreshToken string    `json:"-" db:"refresh_token"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Summary returns the public projection of the user attached to composed views.
func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
	}
}

// UserSummary is the denormalized owner block embedded in feed items
type UserSummary struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// Role identifies the kind of principal behind a request
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)
