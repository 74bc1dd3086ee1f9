// Package catalog is the facade over the external game catalog (IGDB).
//
// Every call POSTs a small query-language body to <BaseURL>/<endpoint> with a
// client-credentials bearer token from TokenCache. Search failures are returned
// to the caller; detail and popularity lookups log the failure and return an
// empty result so pages can still render.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/gamerater/internal/metrics"
)

const (
	DefaultBaseURL  = "https://api.igdb.com/v4"
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

	endpointGames      = "games"
	endpointPopularity = "popularity_primitives"

	// maxErrorBody caps how much of an error response ends up in APIError.
	maxErrorBody = 4 << 10
)

type Config struct {
	BaseURL  string
	ClientID string
}

// Client talks to the catalog API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	clientID   string
	tokens     *TokenCache
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg Config, tokens *TokenCache, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   cfg.ClientID,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logger,
	}
}

// do sends q to endpoint and decodes the JSON array response into out.
func (c *Client) do(ctx context.Context, endpoint string, q *Query, out any) (err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogCall(endpoint, err, time.Since(start)) }()

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/"+endpoint, strings.NewReader(q.String()))
	if err != nil {
		return fmt.Errorf("catalog: building %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-ID", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decoding %s response: %w", endpoint, err)
	}
	return nil
}
