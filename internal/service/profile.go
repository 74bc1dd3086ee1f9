package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/auth"
	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/repository"
)

const (
	msgUsernameTaken    = "Username is already taken."
	msgUsernameRequired = "Username is required."
	msgUpdateProfile    = "Failed to update profile. Please try again."
	msgCreateProfile    = "Failed to create profile. Please try again."
	msgDeleteProfile    = "Failed to delete profile. Please try again."
	msgAlreadyFollowing = "You are already following this user."
	msgFollow           = "Failed to follow user. Please try again."
	msgUnfollow         = "Failed to unfollow user. Please try again."
)

// ProfileService owns profiles and the follow graph, plus the per-user
// listings shown on a profile page.
type ProfileService struct {
	profiles    repository.ProfileRepository
	follows     repository.FollowRepository
	reviews     repository.ReviewRepository
	completions repository.CompletionRepository
	identity    auth.Provider
	logger      *slog.Logger
	now         func() time.Time
}

func NewProfileService(
	profiles repository.ProfileRepository,
	follows repository.FollowRepository,
	reviews repository.ReviewRepository,
	completions repository.CompletionRepository,
	identity auth.Provider,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles:    profiles,
		follows:     follows,
		reviews:     reviews,
		completions: completions,
		identity:    identity,
		logger:      logger,
		now:         time.Now,
	}
}

// CurrentProfile returns the caller's profile, or nil when signed out or the
// profile has not been created yet.
func (s *ProfileService) CurrentProfile(ctx context.Context) *model.Profile {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil
	}
	return s.ProfileByID(ctx, userID)
}

func (s *ProfileService) ProfileByID(ctx context.Context, id string) *model.Profile {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		logReadError(s.logger, "failed to fetch profile", err, slog.String("userID", id))
		return nil
	}
	return p
}

func (s *ProfileService) ProfileByUsername(ctx context.Context, username string) *model.Profile {
	p, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		logReadError(s.logger, "failed to fetch profile", err, slog.String("username", username))
		return nil
	}
	return p
}

// UserReviews lists a user's reviews, newest first.
func (s *ProfileService) UserReviews(ctx context.Context, userID string) []model.Review {
	reviews, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user reviews",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return []model.Review{}
	}
	return reviews
}

// UserGameCompletion lists a user's collection in the order entries were
// added, newest first.
func (s *ProfileService) UserGameCompletion(ctx context.Context, userID string) []model.GameCompletion {
	completions, err := s.completions.ListByUser(ctx, userID, repository.SortCreatedAt)
	if err != nil {
		s.logger.Error("failed to list user game completions",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return []model.GameCompletion{}
	}
	return completions
}

func (s *ProfileService) Followers(ctx context.Context, userID string) []model.Profile {
	profiles, err := s.follows.Followers(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list followers", slog.String("userID", userID), slog.String("error", err.Error()))
		return []model.Profile{}
	}
	return profiles
}

func (s *ProfileService) Following(ctx context.Context, userID string) []model.Profile {
	profiles, err := s.follows.Following(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list following", slog.String("userID", userID), slog.String("error", err.Error()))
		return []model.Profile{}
	}
	return profiles
}

// FollowCounts returns how many users follow userID and how many it follows.
// A failed count reads as zero.
func (s *ProfileService) FollowCounts(ctx context.Context, userID string) (followers, following int) {
	var err error
	if followers, err = s.follows.CountFollowers(ctx, userID); err != nil {
		s.logger.Error("failed to count followers", slog.String("userID", userID), slog.String("error", err.Error()))
		followers = 0
	}
	if following, err = s.follows.CountFollowing(ctx, userID); err != nil {
		s.logger.Error("failed to count following", slog.String("userID", userID), slog.String("error", err.Error()))
		following = 0
	}
	return followers, following
}

// IsFollowing reports whether the caller follows targetID. Anonymous callers
// follow nobody.
func (s *ProfileService) IsFollowing(ctx context.Context, targetID string) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	exists, err := s.follows.Exists(ctx, userID, targetID)
	if err != nil {
		s.logger.Error("failed to check follow edge",
			slog.String("followerID", userID),
			slog.String("followedID", targetID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return exists
}

// UpdateProfile saves the caller's profile, creating it on first save.
//
// A new username is checked against every other profile first. Keeping your
// own username is always allowed. The existence check and the write are two
// separate statements.
func (s *ProfileService) UpdateProfile(ctx context.Context, patch model.ProfileUpdate) error {
	userID, err := callerID(ctx)
	if err != nil {
		return err
	}

	if patch.Username != nil {
		trimmed := strings.TrimSpace(*patch.Username)
		patch.Username = &trimmed
	}

	if patch.HasUsername() {
		taken, err := s.profiles.UsernameTaken(ctx, *patch.Username, userID)
		if err != nil {
			s.logger.Error("failed to check username",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
			return apperror.Internal(msgUpdateProfile, err)
		}
		if taken {
			return apperror.ValidationFailed("username", msgUsernameTaken)
		}
	}

	_, err = s.profiles.GetByID(ctx, userID)
	switch {
	case err == nil:
		return s.updateExisting(ctx, userID, patch)
	case errors.Is(err, apperror.ErrNotFound):
		return s.createProfile(ctx, userID, patch)
	default:
		s.logger.Error("failed to load profile for update",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return apperror.Internal(msgUpdateProfile, err)
	}
}

func (s *ProfileService) updateExisting(ctx context.Context, userID string, patch model.ProfileUpdate) error {
	// An empty username would blank the column; treat it as "unchanged".
	if patch.Username != nil && *patch.Username == "" {
		patch.Username = nil
	}
	if err := s.profiles.Update(ctx, userID, patch, s.now().UTC()); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return apperror.ValidationFailed("username", msgUsernameTaken)
		}
		s.logger.Error("failed to update profile",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return apperror.Internal(msgUpdateProfile, err)
	}
	s.logger.Info("profile updated", slog.String("userID", userID))
	return nil
}

func (s *ProfileService) createProfile(ctx context.Context, userID string, patch model.ProfileUpdate) error {
	if !patch.HasUsername() {
		return apperror.ValidationFailed("username", msgUsernameRequired)
	}

	now := s.now().UTC()
	p := &model.Profile{
		ID:            userID,
		Username:      *patch.Username,
		AvatarURL:     patch.AvatarURL,
		Bio:           patch.Bio,
		Location:      patch.Location,
		Website:       patch.Website,
		TwitterHandle: patch.TwitterHandle,
		DiscordHandle: patch.DiscordHandle,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.profiles.Insert(ctx, p); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return apperror.ValidationFailed("username", msgUsernameTaken)
		}
		s.logger.Error("failed to create profile",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return apperror.Internal(msgCreateProfile, err)
	}
	s.logger.Info("profile created", slog.String("userID", userID), slog.String("username", p.Username))
	return nil
}

// DeleteProfile removes the caller's profile and signs them out. Their
// reviews, collection and follow edges go with it through the store's
// ON DELETE CASCADE. A failed sign-out is logged but does not fail the call.
func (s *ProfileService) DeleteProfile(ctx context.Context) error {
	userID, err := callerID(ctx)
	if err != nil {
		return err
	}

	if err := s.profiles.Delete(ctx, userID); err != nil {
		s.logger.Error("failed to delete profile",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return apperror.Internal(msgDeleteProfile, err)
	}
	s.logger.Info("profile deleted", slog.String("userID", userID))

	if s.identity != nil {
		token, _ := auth.TokenFromContext(ctx)
		if err := s.identity.SignOut(ctx, token); err != nil {
			s.logger.Warn("sign-out after profile deletion failed",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// FollowUser adds the edge caller -> targetID. Following yourself is allowed.
func (s *ProfileService) FollowUser(ctx context.Context, targetID string) error {
	userID, err := callerID(ctx)
	if err != nil {
		return err
	}

	exists, err := s.follows.Exists(ctx, userID, targetID)
	if err != nil {
		s.logger.Error("failed to check follow edge",
			slog.String("followerID", userID),
			slog.String("followedID", targetID),
			slog.String("error", err.Error()),
		)
		return apperror.Internal(msgFollow, err)
	}
	if exists {
		return apperror.ValidationFailed("followed_id", msgAlreadyFollowing)
	}

	edge := &model.FollowEdge{FollowerID: userID, FollowedID: targetID, CreatedAt: s.now().UTC()}
	if err := s.follows.Insert(ctx, edge); err != nil {
		s.logger.Error("failed to follow user",
			slog.String("followerID", userID),
			slog.String("followedID", targetID),
			slog.String("error", err.Error()),
		)
		return apperror.Internal(msgFollow, err)
	}
	s.logger.Info("user followed", slog.String("followerID", userID), slog.String("followedID", targetID))
	return nil
}

// UnfollowUser removes the edge caller -> targetID. Removing an edge that does
// not exist succeeds.
func (s *ProfileService) UnfollowUser(ctx context.Context, targetID string) error {
	userID, err := callerID(ctx)
	if err != nil {
		return err
	}

	if err := s.follows.Delete(ctx, userID, targetID); err != nil {
		s.logger.Error("failed to unfollow user",
			slog.String("followerID", userID),
			slog.String("followedID", targetID),
			slog.String("error", err.Error()),
		)
		return apperror.Internal(msgUnfollow, err)
	}
	return nil
}
