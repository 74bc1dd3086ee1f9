package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/gamerater/internal/auth"
)

// AuthHandler turns sign-in results into the session cookie.
type AuthHandler struct {
	auth         Authenticator
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(a Authenticator, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, cookieSecure: cookieSecure, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp handles POST /auth/sign-up. If the identity service still wants the
// email confirmed there is no session yet, and the client is told so.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Session.AccessToken == "" {
		writeJSON(w, http.StatusAccepted, struct {
			Result
			Message string `json:"message"`
		}{
			Result:  Result{Success: true},
			Message: "Thanks for signing up! Please check your email for a verification link.",
		})
		return
	}

	auth.SetSessionCookie(w, res.Session, h.cookieSecure)
	writeOK(w, Result{Redirect: res.RedirectPath()})
}

// SignIn handles POST /auth/sign-in.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	auth.SetSessionCookie(w, res.Session, h.cookieSecure)
	writeOK(w, Result{Redirect: res.RedirectPath()})
}

// SignOut handles POST /auth/sign-out. It always clears the cookie.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context()); err != nil {
		h.logger.Warn("sign-out failed", slog.String("error", err.Error()))
	}
	auth.ClearSessionCookie(w, h.cookieSecure)
	writeOK(w, Result{Redirect: "/sign-in"})
}
