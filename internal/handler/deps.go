// Package handler is the JSON presentation layer. Handlers parse requests,
// call the services and compose page payloads; the rules live in the
// services.
//
// Each handler depends on the narrow interface below rather than on the
// concrete service, so tests can swap in fakes.
package handler

import (
	"context"

	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/service"
)

type Profiles interface {
	CurrentProfile(ctx context.Context) *model.Profile
	ProfileByID(ctx context.Context, id string) *model.Profile
	ProfileByUsername(ctx context.Context, username string) *model.Profile
	UserReviews(ctx context.Context, userID string) []model.Review
	UserGameCompletion(ctx context.Context, userID string) []model.GameCompletion
	Followers(ctx context.Context, userID string) []model.Profile
	Following(ctx context.Context, userID string) []model.Profile
	FollowCounts(ctx context.Context, userID string) (followers, following int)
	IsFollowing(ctx context.Context, targetID string) bool
	UpdateProfile(ctx context.Context, patch model.ProfileUpdate) error
	DeleteProfile(ctx context.Context) error
	FollowUser(ctx context.Context, targetID string) error
	UnfollowUser(ctx context.Context, targetID string) error
}

type Collections interface {
	IsInCollection(ctx context.Context, gameID int64) bool
	AddToCollection(ctx context.Context, gameID int64, status model.CompletionStatus) error
	UpdateStatus(ctx context.Context, completionID string, status model.CompletionStatus) error
	RemoveFromCollection(ctx context.Context, completionID string) error
	ListCollection(ctx context.Context, userID string) []model.GameCompletion
}

type Reviews interface {
	CreateOrUpdateReview(ctx context.Context, gameID int64, rating int, text string) (string, error)
	DeleteReview(ctx context.Context, reviewID string) (int64, error)
	ReviewByID(ctx context.Context, reviewID string) *model.Review
	UserReviewForGame(ctx context.Context, userID string, gameID int64) *model.Review
	GameReviews(ctx context.Context, gameID int64) []model.ReviewWithAuthor
	RecentReviews(ctx context.Context, limit int) []model.ReviewWithAuthor
	GameAverageRating(ctx context.Context, gameID int64) *model.RatingSummary
}

// Catalog is the game catalog as the pages use it.
type Catalog interface {
	SearchGames(ctx context.Context, query string) ([]model.Game, error)
	PopularGames(ctx context.Context) []model.Game
	FullGameDetails(ctx context.Context, id int64) *model.Game
	MultipleGameDetails(ctx context.Context, ids []int64) map[int64]model.Game
}

type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (*service.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*service.AuthResult, error)
	SignOut(ctx context.Context) error
}

var (
	_ Profiles      = (*service.ProfileService)(nil)
	_ Collections   = (*service.CollectionService)(nil)
	_ Reviews       = (*service.ReviewService)(nil)
	_ Authenticator = (*service.AuthService)(nil)
)
