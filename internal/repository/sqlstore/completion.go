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

var _ repository.CompletionRepository = (*CompletionStore)(nil)

const completionColumns = `id, user_id, game_id, status, created_at, updated_at`

// CompletionStore manages game_completion rows (a user's collection).
type CompletionStore struct {
	db *sqlx.DB
}

func (s *CompletionStore) FindByUserAndGame(ctx context.Context, userID string, gameID int64) (*model.GameCompletion, error) {
	var c model.GameCompletion
	err := s.db.GetContext(ctx, &c,
		s.db.Rebind(`SELECT `+completionColumns+` FROM game_completion
		 WHERE user_id = ? AND game_id = ? LIMIT 1`),
		userID, gameID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("game completion", userID+"/"+strconv.FormatInt(gameID, 10))
		}
		return nil, fmt.Errorf("sqlstore: finding completion %s/%d: %w", userID, gameID, err)
	}
	return &c, nil
}

func (s *CompletionStore) Insert(ctx context.Context, c *model.GameCompletion) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO game_completion (`+completionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		c.ID, c.UserID, c.GameID, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("sqlstore: inserting completion for game %d: %w", c.GameID, repository.ErrNoProfile)
		}
		return fmt.Errorf("sqlstore: inserting completion for game %d: %w", c.GameID, err)
	}
	return nil
}

// UpdateStatus filters on both id and owner. Zero matched rows is not an error.
func (s *CompletionStore) UpdateStatus(ctx context.Context, id, userID string, status model.CompletionStatus, updatedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE game_completion SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		status, updatedAt, id, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: updating completion %s: %w", id, err)
	}
	return nil
}

func (s *CompletionStore) Delete(ctx context.Context, id, userID string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM game_completion WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting completion %s: %w", id, err)
	}
	return nil
}

func (s *CompletionStore) ListByUser(ctx context.Context, userID string, order repository.SortField) ([]model.GameCompletion, error) {
	column, err := orderColumn(order)
	if err != nil {
		return nil, err
	}
	completions := []model.GameCompletion{}
	err = s.db.SelectContext(ctx, &completions,
		s.db.Rebind(`SELECT `+completionColumns+` FROM game_completion
		 WHERE user_id = ? ORDER BY `+column+` DESC`),
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing completions of %s: %w", userID, err)
	}
	return completions, nil
}

func orderColumn(order repository.SortField) (string, error) {
	switch order {
	case repository.SortCreatedAt, repository.SortUpdatedAt:
		return string(order), nil
	case "":
		return string(repository.SortCreatedAt), nil
	}
	return "", fmt.Errorf("sqlstore: unsupported sort field %q", order)
}
