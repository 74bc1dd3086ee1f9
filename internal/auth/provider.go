package auth

import (
	"context"
	"time"
)

// Session is the result of a successful sign-in. AccessToken is empty when
// the identity service created the user but still wants the email confirmed.
type Session struct {
	AccessToken string
	UserID      string
	Email       string
	ExpiresAt   time.Time
}

// Provider is the identity service: it owns credentials and issues sessions.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// SignOut revokes the session behind accessToken where the provider
	// supports it.
	SignOut(ctx context.Context, accessToken string) error
}

// Messages shown to the user; they mirror the hosted service's wording.
const (
	MsgInvalidCredentials = "Invalid login credentials"
	MsgAlreadyRegistered  = "User already registered"
	MsgEmailPasswordReq   = "Email and password are required"
)
