package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	msgCreateReview = "Failed to create review. Please try again."
	msgUpdateReview = "Failed to update review. Please try again."
	msgDeleteReview = "Failed to delete review. Please try again."

	DefaultRecentReviews = 10
	defaultFanout        = 8
)

// GameCatalog is the part of the catalog client the review pages need.
type GameCatalog interface {
	GameDetails(ctx context.Context, id int64) *model.Game
}

// ReviewService manages star ratings and review text, one review per
// (user, game).
type ReviewService struct {
	reviews  repository.ReviewRepository
	profiles repository.ProfileRepository
	catalog  GameCatalog
	logger   *slog.Logger
	now      func() time.Time
	fanout   int
}

// NewReviewService builds the service. fanout caps concurrent catalog lookups
// per RecentReviews call; values below 1 use a default of 8.
func NewReviewService(
	reviews repository.ReviewRepository,
	profiles repository.ProfileRepository,
	catalog GameCatalog,
	fanout int,
	logger *slog.Logger,
) *ReviewService {
	if fanout < 1 {
		fanout = defaultFanout
	}
	return &ReviewService{
		reviews:  reviews,
		profiles: profiles,
		catalog:  catalog,
		logger:   logger,
		now:      time.Now,
		fanout:   fanout,
	}
}

// CreateOrUpdateReview saves the caller's review of gameID and returns its id.
// An existing review is rewritten in place and keeps its id. Empty text is
// stored as NULL. Ratings are not range-checked here.
func (s *ReviewService) CreateOrUpdateReview(ctx context.Context, gameID int64, rating int, text string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}

	var reviewText *string
	if text != "" {
		reviewText = &text
	}
	now := s.now().UTC()

	existing, err := s.reviews.FindByUserAndGame(ctx, userID, gameID)
	switch {
	case err == nil:
		if err := s.reviews.Update(ctx, existing.ID, rating, reviewText, now); err != nil {
			s.logger.Error("failed to update review",
				slog.String("reviewID", existing.ID),
				slog.String("error", err.Error()),
			)
			return "", apperror.Internal(msgUpdateReview, err)
		}
		s.logger.Info("review updated", slog.String("reviewID", existing.ID), slog.Int64("gameID", gameID))
		return existing.ID, nil
	case !errors.Is(err, apperror.ErrNotFound):
		s.logger.Error("failed to look up existing review",
			slog.String("userID", userID),
			slog.Int64("gameID", gameID),
			slog.String("error", err.Error()),
		)
		return "", apperror.Internal(msgCreateReview, err)
	}

	r := &model.Review{
		ID:         newID(),
		UserID:     userID,
		GameID:     gameID,
		Rating:     rating,
		ReviewText: reviewText,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.reviews.Insert(ctx, r); err != nil {
		if errors.Is(err, repository.ErrNoProfile) {
			return "", apperror.ValidationFailed("profile", msgProfileRequired)
		}
		s.logger.Error("failed to create review",
			slog.String("userID", userID),
			slog.Int64("gameID", gameID),
			slog.String("error", err.Error()),
		)
		return "", apperror.Internal(msgCreateReview, err)
	}
	s.logger.Info("review created", slog.String("reviewID", r.ID), slog.Int64("gameID", gameID))
	return r.ID, nil
}

// DeleteReview deletes one of the caller's reviews and returns the id of the
// game it was for (0 if the review could not be read first). A foreign or
// unknown id is a silent no-op.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string) (int64, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return 0, err
	}

	var gameID int64
	if r, err := s.reviews.GetByID(ctx, reviewID); err == nil {
		gameID = r.GameID
	}

	if err := s.reviews.Delete(ctx, reviewID, userID); err != nil {
		s.logger.Error("failed to delete review",
			slog.String("reviewID", reviewID),
			slog.String("error", err.Error()),
		)
		return 0, apperror.Internal(msgDeleteReview, err)
	}
	return gameID, nil
}

func (s *ReviewService) ReviewByID(ctx context.Context, reviewID string) *model.Review {
	r, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		s.logger.Error("failed to fetch review", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		return nil
	}
	return r
}

// UserReviewForGame returns userID's review of gameID, or nil.
func (s *ReviewService) UserReviewForGame(ctx context.Context, userID string, gameID int64) *model.Review {
	r, err := s.reviews.FindByUserAndGame(ctx, userID, gameID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Error("failed to fetch user review for game",
				slog.String("userID", userID),
				slog.Int64("gameID", gameID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return r
}

// GameReviews lists a game's reviews newest first, each with its author.
func (s *ReviewService) GameReviews(ctx context.Context, gameID int64) []model.ReviewWithAuthor {
	reviews, err := s.reviews.ListByGame(ctx, gameID)
	if err != nil {
		s.logger.Error("failed to list game reviews", slog.Int64("gameID", gameID), slog.String("error", err.Error()))
		return []model.ReviewWithAuthor{}
	}
	authors, ok := s.authors(ctx, reviews)
	if !ok {
		return []model.ReviewWithAuthor{}
	}

	out := make([]model.ReviewWithAuthor, len(reviews))
	for i, r := range reviews {
		out[i] = model.ReviewWithAuthor{Review: r, Profiles: authors[r.UserID]}
	}
	return out
}

// RecentReviews lists the latest reviews site-wide, each with its author and
// the game's name and cover. limit <= 0 means DefaultRecentReviews.
//
// Games are looked up concurrently, one catalog call per distinct game. A
// lookup that fails leaves that review without a name and cover.
func (s *ReviewService) RecentReviews(ctx context.Context, limit int) []model.ReviewWithAuthor {
	if limit <= 0 {
		limit = DefaultRecentReviews
	}

	reviews, err := s.reviews.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("failed to list recent reviews", slog.String("error", err.Error()))
		return []model.ReviewWithAuthor{}
	}
	authors, ok := s.authors(ctx, reviews)
	if !ok {
		return []model.ReviewWithAuthor{}
	}
	games := s.gameDetails(ctx, reviews)

	out := make([]model.ReviewWithAuthor, len(reviews))
	for i, r := range reviews {
		out[i] = model.ReviewWithAuthor{Review: r, Profiles: authors[r.UserID]}
		if g, ok := games[r.GameID]; ok {
			name := g.Name
			out[i].GameName = &name
			if cover := g.CoverURL(); cover != "" {
				out[i].GameCover = &cover
			}
		}
	}
	return out
}

// authors batch-loads the profiles behind reviews. A review whose author has
// no profile gets an empty username and a nil avatar.
func (s *ReviewService) authors(ctx context.Context, reviews []model.Review) (map[string]model.ReviewAuthor, bool) {
	authors := make(map[string]model.ReviewAuthor)
	if len(reviews) == 0 {
		return authors, true
	}

	ids := make([]string, len(reviews))
	for i, r := range reviews {
		ids[i] = r.UserID
	}
	profiles, err := s.profiles.GetByIDs(ctx, dedupeStrings(ids))
	if err != nil {
		s.logger.Error("failed to fetch review authors", slog.String("error", err.Error()))
		return nil, false
	}
	for _, p := range profiles {
		authors[p.ID] = model.ReviewAuthor{Username: p.Username, AvatarURL: p.AvatarURL}
	}
	return authors, true
}

func (s *ReviewService) gameDetails(ctx context.Context, reviews []model.Review) map[int64]model.Game {
	games := make(map[int64]model.Game)
	if s.catalog == nil {
		return games
	}

	seen := make(map[int64]struct{})
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for _, r := range reviews {
		if _, dup := seen[r.GameID]; dup {
			continue
		}
		seen[r.GameID] = struct{}{}

		id := r.GameID
		g.Go(func() error {
			game := s.catalog.GameDetails(gctx, id)
			if game == nil {
				return nil
			}
			mu.Lock()
			games[id] = *game
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // lookups never return an error; misses are left out
	return games
}

// GameAverageRating returns the mean rating rounded to one decimal place and
// the number of reviews, {0, 0} for an unreviewed game, or nil on error.
func (s *ReviewService) GameAverageRating(ctx context.Context, gameID int64) *model.RatingSummary {
	ratings, err := s.reviews.Ratings(ctx, gameID)
	if err != nil {
		s.logger.Error("failed to fetch game ratings", slog.Int64("gameID", gameID), slog.String("error", err.Error()))
		return nil
	}
	return averageRating(ratings)
}

func averageRating(ratings []int) *model.RatingSummary {
	if len(ratings) == 0 {
		return &model.RatingSummary{Average: 0, Count: 0}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return &model.RatingSummary{Average: roundToTenth(avg), Count: len(ratings)}
}

// roundToTenth rounds on the exact binary value of f, so 29/20 (stored just
// below 1.45) gives 1.4, not 1.5.
func roundToTenth(f float64) float64 {
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 1, 64), 64)
	return rounded
}
