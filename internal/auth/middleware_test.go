package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// echoIdentity records what OptionalAuth put in the context.
func echoIdentity(got *Identity, gotToken *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := IdentityFromContext(r.Context()); ok {
			*got = id
		}
		if tok, ok := TokenFromContext(r.Context()); ok {
			*gotToken = tok
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	valid, _, _ := ts.Generate("user-1", "peach@example.com")
	expired, _, _ := ts.GenerateWithDuration("user-1", "", -time.Minute)

	tests := []struct {
		name      string
		setup     func(r *http.Request)
		wantUser  string
		wantToken string
	}{
		{
			name:      "cookie",
			setup:     func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: valid}) },
			wantUser:  "user-1",
			wantToken: valid,
		},
		{
			name:      "bearer header",
			setup:     func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) },
			wantUser:  "user-1",
			wantToken: valid,
		},
		{
			name:  "expired token is anonymous",
			setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: expired}) },
		},
		{
			name:  "wrong scheme is anonymous",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic "+valid) },
		},
		{
			name:  "no credentials",
			setup: func(r *http.Request) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Identity
			var gotToken string
			h := OptionalAuth(ts)(echoIdentity(&got, &gotToken))

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusNoContent, rr.Code, "request must never be blocked")
			assert.Equal(t, tt.wantUser, got.UserID)
			assert.Equal(t, tt.wantToken, gotToken)
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "u1"}, "raw")
	id, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	_, ok = UserIDFromContext(WithIdentity(context.Background(), Identity{}, ""))
	assert.False(t, ok, "an empty user id is anonymous")
}

func TestSessionCookies(t *testing.T) {
	rr := httptest.NewRecorder()
	exp := time.Now().Add(time.Hour)
	SetSessionCookie(rr, &Session{AccessToken: "abc", ExpiresAt: exp}, true)

	cookies := rr.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		c := cookies[0]
		assert.Equal(t, CookieName, c.Name)
		assert.Equal(t, "abc", c.Value)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}

	rr = httptest.NewRecorder()
	ClearSessionCookie(rr, false)
	cookies = rr.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, "", cookies[0].Value)
		assert.True(t, cookies[0].MaxAge < 0)
	}
}
