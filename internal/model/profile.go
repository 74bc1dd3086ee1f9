// Package model defines the records shared by the stores, services and handlers.
// Field tags serve two masters: `json` for the HTTP layer and `db` for sqlx scans.
package model

import "time"

// Profile is the public face of a user. Its ID is the identity-service user id,
// so there is exactly one profile per signed-up identity.
//
// Optional columns are pointers: a nil pointer is a SQL NULL and is rendered as
// JSON null, which is what the pages expect for "not filled in yet".
type Profile struct {
	ID            string    `json:"id"             db:"id"`
	Username      string    `json:"username"       db:"username"`
	AvatarURL     *string   `json:"avatar_url"     db:"avatar_url"`
	Bio           *string   `json:"bio"            db:"bio"`
	Location      *string   `json:"location"       db:"location"`
	Website       *string   `json:"website"        db:"website"`
	TwitterHandle *string   `json:"twitter_handle" db:"twitter_handle"`
	DiscordHandle *string   `json:"discord_handle" db:"discord_handle"`
	CreatedAt     time.Time `json:"created_at"     db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"     db:"updated_at"`
}

// ProfileUpdate is a partial profile. Only non-nil fields are written.
type ProfileUpdate struct {
	Username      *string `json:"username,omitempty"`
	AvatarURL     *string `json:"avatar_url,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	Location      *string `json:"location,omitempty"`
	Website       *string `json:"website,omitempty"`
	TwitterHandle *string `json:"twitter_handle,omitempty"`
	DiscordHandle *string `json:"discord_handle,omitempty"`
}

// HasUsername reports whether the patch carries a non-empty username.
func (u ProfileUpdate) HasUsername() bool {
	return u.Username != nil && *u.Username != ""
}

// FollowEdge is a directed follower -> followed relationship.
type FollowEdge struct {
	FollowerID string    `json:"follower_id" db:"follower_id"`
	FollowedID string    `json:"followed_id" db:"followed_id"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}
