package model

import "time"

// Review is a star rating (1..5) with optional text. At most one per (user, game).
type Review struct {
	ID         string    `json:"id"          db:"id"`
	UserID     string    `json:"user_id"     db:"user_id"`
	GameID     int64     `json:"game_id"     db:"game_id"`
	Rating     int       `json:"rating"      db:"rating"`
	ReviewText *string   `json:"review_text" db:"review_text"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  db:"updated_at"`
}

// ReviewAuthor is the slice of a profile shown next to a review.
type ReviewAuthor struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// ReviewWithAuthor decorates a review with its author and, for site-wide
// listings, the reviewed game's name and cover.
type ReviewWithAuthor struct {
	Review
	Profiles  ReviewAuthor `json:"profiles"`
	GameName  *string      `json:"game_name,omitempty"`
	GameCover *string      `json:"game_cover,omitempty"`
}

// RatingSummary is the average rating (one decimal place) and review count.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
