package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/auth"
	"github.com/sakif/gamerater/internal/repository"
)

// AuthService fronts the identity provider: it checks the form input, signs
// the user in or up, and works out where to send them afterwards.
type AuthService struct {
	provider auth.Provider
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

func NewAuthService(provider auth.Provider, profiles repository.ProfileRepository, logger *slog.Logger) *AuthService {
	return &AuthService{provider: provider, profiles: profiles, logger: logger}
}

// AuthResult is a session plus the caller's username, empty until they have
// saved a profile.
type AuthResult struct {
	Session  *auth.Session
	Username string
}

// RedirectPath is where the browser goes after signing in: the public profile
// page once a username exists, the profile editor before that.
func (r *AuthResult) RedirectPath() string {
	if r.Username != "" {
		return "/profile/" + r.Username
	}
	return "/profile"
}

// SignUp registers a new user. When the provider wants the email confirmed
// first, the returned session has no access token.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", auth.MsgEmailPasswordReq)
	}

	session, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, s.providerError("sign-up", err)
	}
	s.logger.Info("user signed up", slog.String("userID", session.UserID))
	return &AuthResult{Session: session}, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", auth.MsgEmailPasswordReq)
	}

	session, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, s.providerError("sign-in", err)
	}

	result := &AuthResult{Session: session}
	if p, err := s.profiles.GetByID(ctx, session.UserID); err == nil {
		result.Username = p.Username
	} else {
		logReadError(s.logger, "no profile after sign-in", err, slog.String("userID", session.UserID))
	}
	s.logger.Info("user signed in", slog.String("userID", session.UserID))
	return result, nil
}

// SignOut ends the caller's session with the provider. Signing out while
// signed out is fine.
func (s *AuthService) SignOut(ctx context.Context) error {
	token, ok := auth.TokenFromContext(ctx)
	if !ok {
		return nil
	}
	if err := s.provider.SignOut(ctx, token); err != nil {
		s.logger.Warn("provider sign-out failed", slog.String("error", err.Error()))
	}
	return nil
}

// providerError passes validation messages (bad credentials, already
// registered) through and hides everything else.
func (s *AuthService) providerError(op string, err error) error {
	if errors.Is(err, apperror.ErrValidation) {
		return err
	}
	s.logger.Error("identity provider call failed", slog.String("op", op), slog.String("error", err.Error()))
	return apperror.Internal("Something went wrong. Please try again.", err)
}
