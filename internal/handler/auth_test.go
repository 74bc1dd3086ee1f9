package handler

import (
	"net/http"
	"testing"

	"github.com/sakif/gamerater/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_SignUpThenSignIn(t *testing.T) {
	app := newTestApp(t)
	creds := map[string]string{"email": "Ada@Example.com ", "password": "hunter22"}

	rr := app.do(http.MethodPost, "/auth/sign-up", "", creds)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[Result](t, rr)
	assert.True(t, res.Success)
	assert.Equal(t, "/profile", res.Redirect, "no username yet")

	cookie := sessionCookie(t, rr.Result())
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	identity, err := app.tokens.Validate(cookie.Value)
	require.NoError(t, err)
	app.withProfile(identity.UserID, "ada")

	rr = app.do(http.MethodPost, "/auth/sign-in", "", creds)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "/profile/ada", decode[Result](t, rr).Redirect)
	assert.NotNil(t, sessionCookie(t, rr.Result()))
}

func TestAuthHandler_Errors(t *testing.T) {
	app := newTestApp(t)
	creds := map[string]string{"email": "ada@example.com", "password": "hunter22"}
	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/auth/sign-up", "", creds).Code)

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
		wantError  string
	}{
		{"missing password", "/auth/sign-in", map[string]string{"email": "ada@example.com"}, http.StatusBadRequest, auth.MsgEmailPasswordReq},
		{"wrong password", "/auth/sign-in", map[string]string{"email": "ada@example.com", "password": "nope-nope"}, http.StatusBadRequest, auth.MsgInvalidCredentials},
		{"duplicate sign-up", "/auth/sign-up", creds, http.StatusBadRequest, auth.MsgAlreadyRegistered},
		{"short password", "/auth/sign-up", map[string]string{"email": "bob@example.com", "password": "abc"}, http.StatusBadRequest, "Password should be at least 6 characters."},
		{"no body", "/auth/sign-in", nil, http.StatusBadRequest, "Request body is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := app.do(http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			res := decode[Result](t, rr)
			assert.False(t, res.Success)
			assert.Equal(t, tt.wantError, res.Error)
			assert.Nil(t, sessionCookie(t, rr.Result()))
		})
	}
}

func TestAuthHandler_SignOutClearsCookie(t *testing.T) {
	app := newTestApp(t)

	for _, userID := range []string{"", "user-1"} {
		rr := app.do(http.MethodPost, "/auth/sign-out", userID, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "/sign-in", decode[Result](t, rr).Redirect)

		cookie := sessionCookie(t, rr.Result())
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	}
}
