package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/gamerater/internal/apperror"
	"github.com/tidwall/gjson"
)

var _ Provider = (*SupabaseProvider)(nil)

type SupabaseConfig struct {
	URL     string
	AnonKey string
}

// SupabaseProvider signs users in through a hosted GoTrue (Supabase Auth)
// instance. Tokens it returns are validated locally by TokenService with the
// project's JWT secret.
type SupabaseProvider struct {
	baseURL string
	anonKey string
	client  *http.Client
	now     func() time.Time
}

func NewSupabaseProvider(cfg SupabaseConfig, client *http.Client) *SupabaseProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SupabaseProvider{
		baseURL: strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey: cfg.AnonKey,
		client:  client,
		now:     time.Now,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp creates the user. With email confirmation enabled GoTrue answers
// with the bare user object and no session.
func (p *SupabaseProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	body, err := p.post(ctx, "/signup", "", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return p.session(body), nil
}

func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body, err := p.post(ctx, "/token?grant_type=password", "", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	s := p.session(body)
	if s.AccessToken == "" {
		return nil, fmt.Errorf("auth: sign-in response carried no access token")
	}
	return s, nil
}

// SignOut revokes the refresh tokens of the session behind accessToken.
func (p *SupabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	_, err := p.post(ctx, "/logout", accessToken, nil)
	return err
}

// session reads either shape GoTrue returns: a session with a nested user, or
// a bare user.
func (p *SupabaseProvider) session(body []byte) *Session {
	parsed := gjson.ParseBytes(body)
	s := &Session{AccessToken: parsed.Get("access_token").String()}

	user := parsed.Get("user")
	if !user.Exists() {
		user = parsed
	}
	s.UserID = user.Get("id").String()
	s.Email = user.Get("email").String()

	if s.AccessToken != "" {
		if exp := parsed.Get("expires_at"); exp.Exists() {
			s.ExpiresAt = time.Unix(exp.Int(), 0)
		} else {
			s.ExpiresAt = p.now().Add(time.Duration(parsed.Get("expires_in").Int()) * time.Second)
		}
	}
	return s
}

func (p *SupabaseProvider) post(ctx context.Context, path, bearer string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("auth: encoding request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("auth: building request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling identity service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("auth: reading identity service response: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, apperror.ValidationFailed("credentials", errorMessage(body, resp.Status))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("auth: identity service returned %d: %s", resp.StatusCode, errorMessage(body, resp.Status))
	}
	return body, nil
}

// errorMessage digs the human-readable message out of a GoTrue error body.
// Different endpoints use different keys.
func errorMessage(body []byte, fallback string) string {
	for _, key := range []string{"msg", "error_description", "message", "error"} {
		if v := gjson.GetBytes(body, key); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return fallback
}
