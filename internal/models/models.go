package models

import "time"

// User represents an account that owns a video library.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Transformation describes how the media host should render a video.
type Transformation struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	Quality int `json:"quality"`
}

// Video is a metadata record for an uploaded video. UserID is always taken
// from the authenticated session.
type Video struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	VideoURL       string         `json:"videoUrl"`
	ThumbnailURL   string         `json:"thumbnailUrl"`
	Controls       bool           `json:"controls"`
	Transformation Transformation `json:"transformation"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

const (
	DefaultVideoWidth   = 1080
	DefaultVideoHeight  = 1920
	DefaultVideoQuality = 100
)
