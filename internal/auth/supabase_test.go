package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/gamerater/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoTrueStub(t *testing.T, handler http.HandlerFunc) *SupabaseProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSupabaseProvider(SupabaseConfig{URL: srv.URL + "/", AnonKey: "anon-key"}, srv.Client())
}

func TestSupabaseSignIn(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	var gotCreds credentials
	p := newGoTrueStub(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotKey = r.URL.Path, r.URL.RawQuery, r.Header.Get("apikey")
		_ = json.NewDecoder(r.Body).Decode(&gotCreds)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"jwt-abc","token_type":"bearer","expires_in":3600,"expires_at":1900000000,
			"refresh_token":"r","user":{"id":"uuid-1","email":"toad@example.com"}}`)
	})

	s, err := p.SignIn(context.Background(), "toad@example.com", "mushroom")
	require.NoError(t, err)
	assert.Equal(t, "jwt-abc", s.AccessToken)
	assert.Equal(t, "uuid-1", s.UserID)
	assert.Equal(t, "toad@example.com", s.Email)
	assert.EqualValues(t, 1900000000, s.ExpiresAt.Unix())

	assert.Equal(t, "/auth/v1/token", gotPath)
	assert.Equal(t, "grant_type=password", gotQuery)
	assert.Equal(t, "anon-key", gotKey)
	assert.Equal(t, credentials{Email: "toad@example.com", Password: "mushroom"}, gotCreds)
}

func TestSupabaseSignIn_BadCredentials(t *testing.T) {
	p := newGoTrueStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
	})

	_, err := p.SignIn(context.Background(), "toad@example.com", "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, "Invalid login credentials", err.Error())
}

func TestSupabaseSignUp_ConfirmationPending(t *testing.T) {
	p := newGoTrueStub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		fmt.Fprint(w, `{"id":"uuid-2","email":"new@example.com","confirmation_sent_at":"2026-01-01T00:00:00Z"}`)
	})

	s, err := p.SignUp(context.Background(), "new@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uuid-2", s.UserID)
	assert.Empty(t, s.AccessToken, "no session until the email is confirmed")
}

func TestSupabaseSignUp_AlreadyRegistered(t *testing.T) {
	p := newGoTrueStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"code":422,"msg":"User already registered"}`)
	})

	_, err := p.SignUp(context.Background(), "dup@example.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, MsgAlreadyRegistered, err.Error())
}

func TestSupabaseSignOut(t *testing.T) {
	var gotAuth string
	p := newGoTrueStub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, p.SignOut(context.Background(), "jwt-abc"))
	assert.Equal(t, "Bearer jwt-abc", gotAuth)
}

func TestSupabase_ServerErrorIsNotValidation(t *testing.T) {
	p := newGoTrueStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := p.SignIn(context.Background(), "a@example.com", "secret1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperror.ErrValidation))
}
