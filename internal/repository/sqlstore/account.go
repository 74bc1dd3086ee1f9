package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/repository"
)

var _ repository.AccountRepository = (*AccountStore)(nil)

const accountColumns = `id, email, password_hash, created_at, updated_at`

// AccountStore holds locally managed credentials.
type AccountStore struct {
	db *sqlx.DB
}

// Create relies on the UNIQUE(email) constraint to reject duplicates instead
// of probing first.
func (s *AccountStore) Create(ctx context.Context, a *model.Account) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?)`),
		a.ID, a.Email, a.PasswordHash, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("account", a.Email)
		}
		return fmt.Errorf("sqlstore: creating account: %w", err)
	}
	return nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.get(ctx, "email", email)
}

func (s *AccountStore) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return s.get(ctx, "id", id)
}

func (s *AccountStore) get(ctx context.Context, column, value string) (*model.Account, error) {
	var a model.Account
	err := s.db.GetContext(ctx, &a,
		s.db.Rebind(`SELECT `+accountColumns+` FROM accounts WHERE `+column+` = ?`), value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", value)
		}
		return nil, fmt.Errorf("sqlstore: getting account by %s: %w", column, err)
	}
	return &a, nil
}
