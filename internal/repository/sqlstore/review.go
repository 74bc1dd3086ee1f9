package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/repository"
)

var _ repository.ReviewRepository = (*ReviewStore)(nil)

const reviewColumns = `id, user_id, game_id, rating, review_text, created_at, updated_at`

// ReviewStore manages the reviews table.
type ReviewStore struct {
	db *sqlx.DB
}

func (s *ReviewStore) GetByID(ctx context.Context, id string) (*model.Review, error) {
	var r model.Review
	err := s.db.GetContext(ctx, &r,
		s.db.Rebind(`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("review", id)
		}
		return nil, fmt.Errorf("sqlstore: getting review %s: %w", id, err)
	}
	return &r, nil
}

func (s *ReviewStore) FindByUserAndGame(ctx context.Context, userID string, gameID int64) (*model.Review, error) {
	var r model.Review
	err := s.db.GetContext(ctx, &r,
		s.db.Rebind(`SELECT `+reviewColumns+` FROM reviews WHERE user_id = ? AND game_id = ? LIMIT 1`),
		userID, gameID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("review", userID+"/"+strconv.FormatInt(gameID, 10))
		}
		return nil, fmt.Errorf("sqlstore: finding review %s/%d: %w", userID, gameID, err)
	}
	return &r, nil
}

func (s *ReviewStore) Insert(ctx context.Context, r *model.Review) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.UserID, r.GameID, r.Rating, r.ReviewText, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("sqlstore: inserting review for game %d: %w", r.GameID, repository.ErrNoProfile)
		}
		return fmt.Errorf("sqlstore: inserting review for game %d: %w", r.GameID, err)
	}
	return nil
}

func (s *ReviewStore) Update(ctx context.Context, id string, rating int, text *string, updatedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE reviews SET rating = ?, review_text = ?, updated_at = ? WHERE id = ?`),
		rating, text, updatedAt, id)
	if err != nil {
		return fmt.Errorf("sqlstore: updating review %s: %w", id, err)
	}
	return nil
}

// Delete filters on owner as well as id; a mismatch deletes nothing and
// reports no error.
func (s *ReviewStore) Delete(ctx context.Context, id, userID string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM reviews WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting review %s: %w", id, err)
	}
	return nil
}

func (s *ReviewStore) ListByGame(ctx context.Context, gameID int64) ([]model.Review, error) {
	return s.list(ctx, `WHERE game_id = ? ORDER BY created_at DESC`, gameID)
}

func (s *ReviewStore) ListByUser(ctx context.Context, userID string) ([]model.Review, error) {
	return s.list(ctx, `WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (s *ReviewStore) ListRecent(ctx context.Context, limit int) ([]model.Review, error) {
	return s.list(ctx, `ORDER BY created_at DESC LIMIT ?`, limit)
}

func (s *ReviewStore) list(ctx context.Context, clause string, args ...any) ([]model.Review, error) {
	reviews := []model.Review{}
	err := s.db.SelectContext(ctx, &reviews,
		s.db.Rebind(`SELECT `+reviewColumns+` FROM reviews `+clause), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewStore) Ratings(ctx context.Context, gameID int64) ([]int, error) {
	ratings := []int{}
	err := s.db.SelectContext(ctx, &ratings,
		s.db.Rebind(`SELECT rating FROM reviews WHERE game_id = ?`), gameID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: loading ratings for game %d: %w", gameID, err)
	}
	return ratings, nil
}
