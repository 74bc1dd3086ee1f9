package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/auth"
	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/repository"
)

const (
	msgAddToCollection      = "Failed to add game to collection. Please try again."
	msgUpdateGameStatus     = "Failed to update game status. Please try again."
	msgRemoveFromCollection = "Failed to remove game from collection. Please try again."
)

// CollectionService manages the caller's game collection: one completion
// entry per (user, game), each with a status.
type CollectionService struct {
	completions repository.CompletionRepository
	logger      *slog.Logger
	now         func() time.Time
}

func NewCollectionService(completions repository.CompletionRepository, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		completions: completions,
		logger:      logger,
		now:         time.Now,
	}
}

// IsInCollection is false for anonymous callers and on any store error.
func (s *CollectionService) IsInCollection(ctx context.Context, gameID int64) bool {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return false
	}
	_, err := s.completions.FindByUserAndGame(ctx, userID, gameID)
	if err != nil {
		logReadError(s.logger, "failed to check collection", err,
			slog.String("userID", userID), slog.Int64("gameID", gameID))
		return false
	}
	return true
}

// AddToCollection puts gameID in the caller's collection with status. If the
// game is already there only its status changes, so the collection never
// holds two entries for one game (barring concurrent adds).
func (s *CollectionService) AddToCollection(ctx context.Context, gameID int64, status model.CompletionStatus) error {
	userID, err := callerID(ctx)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	existing, err := s.completions.FindByUserAndGame(ctx, userID, gameID)
	switch {
	case err == nil:
		if err := s.completions.UpdateStatus(ctx, existing.ID, userID, status, now); err != nil {
			s.logger.Error("failed to update game status",
				slog.String("completionID", existing.ID),
				slog.String("error", err.Error()),
			)
			return apperror.Internal(msgUpdateGameStatus, err)
		}
		return nil
	case !errors.Is(err, apperror.ErrNotFound):
		s.logger.Error("failed to look up collection entry",
			slog.String("userID", userID),
			slog.Int64("gameID", gameID),
			slog.String("error", err.Error()),
		)
		return apperror.Internal(msgAddToCollection, err)
	}

	c := &model.GameCompletion{
		ID:        newID(),
		UserID:    userID,
		GameID:    gameID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.completions.Insert(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNoProfile) {
			return apperror.ValidationFailed("profile", msgProfileRequired)
		}
		s.logger.Error("failed to add game to collection",
			slog.String("userID", userID),
			slog.Int64("gameID", gameID),
			slog.String("error", err.Error()),
		)
		return apperror.Internal(msgAddToCollection, err)
	}
	s.logger.Info("game added to collection",
		slog.String("userID", userID),
		slog.Int64("gameID", gameID),
		slog.String("status", string(status)),
	)
	return nil
}

// UpdateStatus changes the status of one of the caller's entries. An id that
// does not exist or belongs to someone else is a silent no-op.
func (s *CollectionService) UpdateStatus(ctx context.Context, completionID string, status model.CompletionStatus) error {
	userID, err := callerID(ctx)
	if err != nil {
		return err
	}
	if err := s.completions.UpdateStatus(ctx, completionID, userID, status, s.now().UTC()); err != nil {
		s.logger.Error("failed to update game status",
			slog.String("completionID", completionID),
			slog.String("error", err.Error()),
		)
		return apperror.Internal(msgUpdateGameStatus, err)
	}
	return nil
}

// RemoveFromCollection deletes one of the caller's entries, with the same
// silent no-op on a foreign or unknown id as UpdateStatus.
func (s *CollectionService) RemoveFromCollection(ctx context.Context, completionID string) error {
	userID, err := callerID(ctx)
	if err != nil {
		return err
	}
	if err := s.completions.Delete(ctx, completionID, userID); err != nil {
		s.logger.Error("failed to remove game from collection",
			slog.String("completionID", completionID),
			slog.String("error", err.Error()),
		)
		return apperror.Internal(msgRemoveFromCollection, err)
	}
	return nil
}

// ListCollection returns every entry of userID's collection, most recently
// touched first. Filtering by status is up to the caller.
func (s *CollectionService) ListCollection(ctx context.Context, userID string) []model.GameCompletion {
	completions, err := s.completions.ListByUser(ctx, userID, repository.SortUpdatedAt)
	if err != nil {
		s.logger.Error("failed to list collection",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return []model.GameCompletion{}
	}
	return completions
}
