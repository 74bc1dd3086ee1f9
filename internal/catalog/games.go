package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/gamerater/internal/model"
)

var (
	summaryFields = []string{"name", "cover.url"}
	detailFields  = []string{"name", "summary", "cover.url", "genres.name", "release_dates.human"}
)

const (
	searchLimit  = 10
	popularLimit = 10
	// popularityType selects the catalog's "visits" popularity signal.
	popularityType = 1
	// maxBatch is the largest page the catalog will return for one query.
	maxBatch = 500
)

// SearchGames runs a text search. A blank query returns an empty slice without
// touching the network. Errors are logged and returned.
func (c *Client) SearchGames(ctx context.Context, query string) ([]model.Game, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Game{}, nil
	}

	games := []model.Game{}
	q := NewQuery(summaryFields...).Search(query).Limit(searchLimit)
	if err := c.do(ctx, endpointGames, q, &games); err != nil {
		c.logger.Error("catalog search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("catalog: searching %q: %w", query, err)
	}
	return games, nil
}

type popularityEntry struct {
	GameID int64   `json:"game_id"`
	Value  float64 `json:"value"`
}

// PopularGames ranks games by popularity, then fetches their summaries. The
// result keeps the popularity order. Any failure yields an empty slice.
func (c *Client) PopularGames(ctx context.Context) []model.Game {
	var ranked []popularityEntry
	q := NewQuery("game_id", "value", "popularity_type").
		Where(fmt.Sprintf("popularity_type = %d", popularityType)).
		Sort("value desc").
		Limit(popularLimit)
	if err := c.do(ctx, endpointPopularity, q, &ranked); err != nil {
		c.logger.Error("catalog popularity lookup failed", slog.String("error", err.Error()))
		return []model.Game{}
	}
	if len(ranked) == 0 {
		return []model.Game{}
	}

	ids := make([]int64, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.GameID)
	}

	byID, err := c.fetchByIDs(ctx, ids, summaryFields)
	if err != nil {
		c.logger.Error("catalog popular games lookup failed", slog.String("error", err.Error()))
		return []model.Game{}
	}

	games := make([]model.Game, 0, len(ids))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			games = append(games, g)
		}
	}
	return games
}

// GameDetails returns the name and cover of one game, or nil when the game is
// unknown or the lookup fails.
func (c *Client) GameDetails(ctx context.Context, id int64) *model.Game {
	return c.one(ctx, id, summaryFields)
}

// FullGameDetails is GameDetails plus summary, genres and release dates.
func (c *Client) FullGameDetails(ctx context.Context, id int64) *model.Game {
	return c.one(ctx, id, detailFields)
}

func (c *Client) one(ctx context.Context, id int64, fields []string) *model.Game {
	var games []model.Game
	if err := c.do(ctx, endpointGames, NewQuery(fields...).WhereIDs(id), &games); err != nil {
		c.logger.Error("catalog game lookup failed",
			slog.Int64("gameID", id),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if len(games) == 0 {
		c.logger.Warn("catalog game not found", slog.Int64("gameID", id))
		return nil
	}
	return &games[0]
}

// MultipleGameDetails batch-loads name and cover for ids, keyed by id. An
// empty id list returns an empty map without a network call; a failure is
// logged and also returns an empty map.
func (c *Client) MultipleGameDetails(ctx context.Context, ids []int64) map[int64]model.Game {
	if len(ids) == 0 {
		return map[int64]model.Game{}
	}
	byID, err := c.fetchByIDs(ctx, ids, summaryFields)
	if err != nil {
		c.logger.Error("catalog batch lookup failed",
			slog.Int("count", len(ids)),
			slog.String("error", err.Error()),
		)
		return map[int64]model.Game{}
	}
	return byID
}

// fetchByIDs loads ids in pages of at most maxBatch. Duplicates are dropped
// and each page raises the limit to cover itself (the catalog defaults to 10
// rows). A failed page fails the whole lookup.
func (c *Client) fetchByIDs(ctx context.Context, ids []int64, fields []string) (map[int64]model.Game, error) {
	unique := dedupe(ids)
	byID := make(map[int64]model.Game, len(unique))

	for start := 0; start < len(unique); start += maxBatch {
		page := unique[start:min(start+maxBatch, len(unique))]

		var games []model.Game
		q := NewQuery(fields...).WhereIDs(page...).Limit(len(page))
		if err := c.do(ctx, endpointGames, q, &games); err != nil {
			return nil, err
		}
		for _, g := range games {
			byID[g.ID] = g
		}
	}
	return byID, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
