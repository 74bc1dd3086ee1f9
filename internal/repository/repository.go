// Package repository declares the storage contracts the services depend on.
// One interface per table; implementations live in subpackages (see sqlstore).
//
// Lookups that find nothing return an error wrapping apperror.ErrNotFound.
// Ownership-filtered mutations (UpdateStatus, Delete with a userID) succeed
// silently when no row matches. Inserting a row that belongs to a user
// without a profile fails with ErrNoProfile.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sakif/gamerater/internal/model"
)

// ErrNoProfile is wrapped by inserts whose user_id has no profiles row.
var ErrNoProfile = errors.New("repository: user has no profile")

// SortField names a timestamp column a listing can be ordered by (newest first).
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortUpdatedAt SortField = "updated_at"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)
	// GetByIDs returns the profiles that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]model.Profile, error)
	// UsernameTaken reports whether a profile other than excludeID owns username.
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
	Insert(ctx context.Context, profile *model.Profile) error
	Update(ctx context.Context, id string, patch model.ProfileUpdate, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type FollowRepository interface {
	Exists(ctx context.Context, followerID, followedID string) (bool, error)
	Insert(ctx context.Context, edge *model.FollowEdge) error
	Delete(ctx context.Context, followerID, followedID string) error
	// Followers lists the profiles following userID, most recent edge first.
	Followers(ctx context.Context, userID string) ([]model.Profile, error)
	// Following lists the profiles userID follows, most recent edge first.
	Following(ctx context.Context, userID string) ([]model.Profile, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}

type CompletionRepository interface {
	FindByUserAndGame(ctx context.Context, userID string, gameID int64) (*model.GameCompletion, error)
	Insert(ctx context.Context, completion *model.GameCompletion) error
	// UpdateStatus changes the status of completion id if userID owns it.
	UpdateStatus(ctx context.Context, id, userID string, status model.CompletionStatus, updatedAt time.Time) error
	// Delete removes completion id if userID owns it.
	Delete(ctx context.Context, id, userID string) error
	ListByUser(ctx context.Context, userID string, order SortField) ([]model.GameCompletion, error)
}

type ReviewRepository interface {
	GetByID(ctx context.Context, id string) (*model.Review, error)
	FindByUserAndGame(ctx context.Context, userID string, gameID int64) (*model.Review, error)
	Insert(ctx context.Context, review *model.Review) error
	// Update rewrites the rating and text of review id.
	Update(ctx context.Context, id string, rating int, text *string, updatedAt time.Time) error
	// Delete removes review id if userID owns it.
	Delete(ctx context.Context, id, userID string) error
	ListByGame(ctx context.Context, gameID int64) ([]model.Review, error)
	ListByUser(ctx context.Context, userID string) ([]model.Review, error)
	ListRecent(ctx context.Context, limit int) ([]model.Review, error)
	Ratings(ctx context.Context, gameID int64) ([]int, error)
}

// AccountRepository backs the local identity provider.
type AccountRepository interface {
	// Create fails with apperror.ErrConflict when the email is already registered.
	Create(ctx context.Context, account *model.Account) error
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
}
