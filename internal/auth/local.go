package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/repository"
)

var _ Provider = (*LocalProvider)(nil)

// LocalProvider keeps credentials in the accounts table and mints its own
// session tokens. Account ids are UUIDs, like the hosted service's user ids,
// so switching providers does not change the shape of profile ids.
type LocalProvider struct {
	accounts  repository.AccountRepository
	passwords *PasswordService
	tokens    *TokenService
	now       func() time.Time
}

func NewLocalProvider(accounts repository.AccountRepository, passwords *PasswordService, tokens *TokenService) *LocalProvider {
	return &LocalProvider{
		accounts:  accounts,
		passwords: passwords,
		tokens:    tokens,
		now:       time.Now,
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	hash, err := p.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooShort) || errors.Is(err, ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", passwordMessage(err))
		}
		return nil, err
	}

	now := p.now().UTC()
	account := &model.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("email", MsgAlreadyRegistered)
		}
		return nil, err
	}

	return p.issue(account)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	account, err := p.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("credentials", MsgInvalidCredentials)
		}
		return nil, err
	}

	if err := p.passwords.Verify(account.PasswordHash, password); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, apperror.ValidationFailed("credentials", MsgInvalidCredentials)
		}
		return nil, err
	}

	return p.issue(account)
}

// SignOut is a no-op: local sessions are stateless and end when the cookie is
// cleared or the token expires.
func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	return nil
}

func (p *LocalProvider) issue(a *model.Account) (*Session, error) {
	token, expiresAt, err := p.tokens.Generate(a.ID, a.Email)
	if err != nil {
		return nil, fmt.Errorf("auth: issuing session: %w", err)
	}
	return &Session{AccessToken: token, UserID: a.ID, Email: a.Email, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func passwordMessage(err error) string {
	if errors.Is(err, ErrPasswordTooShort) {
		return fmt.Sprintf("Password should be at least %d characters.", MinPasswordLength)
	}
	return fmt.Sprintf("Password should be at most %d characters.", maxPasswordLength)
}
