// Package auth is the identity collaborator: it issues and validates session
// tokens, attaches the caller's identity to the request context, and signs
// users up, in and out through a Provider.
//
// SESSION TOKENS:
// Sessions are HS256 JWTs shaped like the ones Supabase (GoTrue) issues:
//
//	{"sub":"<user id>","email":"...","role":"authenticated","aud":"authenticated","iss":"...","exp":...}
//
// so the same TokenService validates tokens minted by the hosted identity
// service (signed with the project's JWT secret) and tokens minted locally by
// LocalProvider. The server never looks a session up; the signature is enough.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultIssuer   = "gamerater"
	DefaultTokenTTL = time.Hour

	// Audience and RoleAuthenticated match what GoTrue puts in user tokens.
	Audience          = "authenticated"
	RoleAuthenticated = "authenticated"
)

// Identity is what a validated token says about the caller.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// Claims is the JWT payload.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// TokenService signs and verifies session tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService needs a secret of at least 16 characters. An empty issuer
// disables the issuer check on validation; a zero ttl means DefaultTokenTTL.
func NewTokenService(secret, issuer string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), issuer: issuer, ttl: ttl}, nil
}

// Generate issues a token for userID that lives for the configured TTL.
func (s *TokenService) Generate(userID, email string) (string, time.Time, error) {
	return s.GenerateWithDuration(userID, email, s.ttl)
}

// GenerateWithDuration issues a token with an explicit lifetime. Tests use a
// negative d to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID, email string, d time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(d)

	c := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
		Role:  RoleAuthenticated,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks signature, algorithm, expiry, audience and (when configured)
// issuer, and returns the caller's identity.
func (s *TokenService) Validate(tokenStr string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, errors.New("auth: token has no subject")
	}

	return &Identity{UserID: c.Subject, Email: c.Email, Role: c.Role}, nil
}
