package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sakif/gamerater/internal/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenConfig identifies the app to the catalog provider's OAuth endpoint.
type TokenConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// TokenCache holds one client-credentials bearer token for the whole process.
//
// The mutex only protects the cached pair. It is released while a new token is
// fetched, so two callers that both see an expired token may both refresh;
// whichever finishes last wins and both callers still get a usable token.
type TokenCache struct {
	cfg        clientcredentials.Config
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenCache builds a cache. httpClient and now may be nil, in which case
// http.DefaultClient and time.Now are used.
func NewTokenCache(cfg TokenConfig, httpClient *http.Client, now func() time.Time) *TokenCache {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if now == nil {
		now = time.Now
	}
	return &TokenCache{
		cfg: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			// Twitch wants client_id and client_secret as parameters, not Basic auth.
			AuthStyle: oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		now:        now,
	}
}

// AccessToken returns the cached token while now < expiresAt, otherwise it
// exchanges the client credentials for a new one. Failures are returned as-is;
// there is no retry.
func (c *TokenCache) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && c.now().Before(c.expiresAt) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	requestedAt := c.now()
	tok, err := c.cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		metrics.RecordTokenRefresh(false)
		return "", fmt.Errorf("catalog: fetching access token: %w", err)
	}
	metrics.RecordTokenRefresh(true)

	// expires_at = now + expires_in, measured on our own clock. The library
	// leaves Token.ExpiresIn unset, so the wire value is read from Extra.
	expiresAt := tok.Expiry
	if secs, ok := expiresIn(tok); ok {
		expiresAt = requestedAt.Add(time.Duration(secs * float64(time.Second)))
	}

	c.mu.Lock()
	c.token = tok.AccessToken
	c.expiresAt = expiresAt
	c.mu.Unlock()

	return tok.AccessToken, nil
}

// expiresIn returns the expires_in field of the token response, in seconds.
func expiresIn(tok *oauth2.Token) (float64, bool) {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return v, v > 0
	case json.Number:
		f, err := v.Float64()
		return f, err == nil && f > 0
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil && f > 0
	}
	return 0, false
}

// ExpiresAt reports when the cached token lapses (zero before the first fetch).
func (c *TokenCache) ExpiresAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiresAt
}
