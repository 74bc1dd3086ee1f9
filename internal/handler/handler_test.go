package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/gamerater/internal/auth"
	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/repository/sqlstore"
	"github.com/sakif/gamerater/internal/service"
	"github.com/stretchr/testify/require"
)

// fakeCatalog serves a fixed set of games.
type fakeCatalog struct {
	games     map[int64]model.Game
	searchErr error
	batches   [][]int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{games: map[int64]model.Game{
		1: {ID: 1, Name: "Chrono Trigger", Cover: &model.Cover{URL: "//images.igdb.com/t_thumb/ct.jpg"}},
		2: {ID: 2, Name: "EarthBound"},
		3: {ID: 3, Name: "Super Metroid", Summary: "Samus returns.", Genres: []model.Genre{{Name: "Platform"}}},
	}}
}

func (f *fakeCatalog) SearchGames(_ context.Context, q string) ([]model.Game, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := []model.Game{}
	for _, g := range f.sorted() {
		if q != "" && strings.Contains(strings.ToLower(g.Name), strings.ToLower(q)) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeCatalog) PopularGames(context.Context) []model.Game { return f.sorted() }

func (f *fakeCatalog) FullGameDetails(_ context.Context, id int64) *model.Game {
	g, ok := f.games[id]
	if !ok {
		return nil
	}
	return &g
}

func (f *fakeCatalog) GameDetails(ctx context.Context, id int64) *model.Game {
	return f.FullGameDetails(ctx, id)
}

func (f *fakeCatalog) MultipleGameDetails(_ context.Context, ids []int64) map[int64]model.Game {
	f.batches = append(f.batches, ids)
	out := map[int64]model.Game{}
	for _, id := range ids {
		if g, ok := f.games[id]; ok {
			out[id] = g
		}
	}
	return out
}

func (f *fakeCatalog) sorted() []model.Game {
	out := make([]model.Game, 0, len(f.games))
	for _, g := range f.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// testApp is the JSON API over an in-memory database.
type testApp struct {
	t       *testing.T
	router  http.Handler
	store   *sqlstore.Store
	tokens  *auth.TokenService
	catalog *fakeCatalog
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate())

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", auth.DefaultIssuer, time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	catalog := newFakeCatalog()
	provider := auth.NewLocalProvider(store.Accounts(), auth.NewPasswordServiceForTest(), tokens)

	profiles := service.NewProfileService(store.Profiles(), store.Follows(), store.Reviews(), store.Completions(), provider, logger)
	collections := service.NewCollectionService(store.Completions(), logger)
	reviews := service.NewReviewService(store.Reviews(), store.Profiles(), catalog, 4, logger)
	authSvc := service.NewAuthService(provider, store.Profiles(), logger)

	ah := NewAuthHandler(authSvc, false, logger)
	ph := NewProfileHandler(profiles, collections, catalog, false, logger)
	gh := NewGameHandler(catalog, reviews, collections, logger)
	ch := NewCollectionHandler(collections, logger)
	rh := NewReviewHandler(reviews, logger)

	r := chi.NewRouter()
	r.Use(auth.OptionalAuth(tokens))
	r.Get("/healthz", Healthz(store, logger))
	r.Post("/auth/sign-up", ah.SignUp)
	r.Post("/auth/sign-in", ah.SignIn)
	r.Post("/auth/sign-out", ah.SignOut)
	r.Get("/api/me", ph.Me)
	r.Put("/api/me/profile", ph.UpdateMe)
	r.Delete("/api/me/profile", ph.DeleteMe)
	r.Get("/api/users/{userID}", ph.UserByID)
	r.Post("/api/users/{userID}/follow", ph.Follow)
	r.Delete("/api/users/{userID}/follow", ph.Unfollow)
	r.Get("/api/profiles/{username}", ph.Page)
	r.Get("/api/profiles/{username}/reviews", ph.Reviews)
	r.Get("/api/profiles/{username}/collection", ph.Collection)
	r.Get("/api/profiles/{username}/followers", ph.Followers)
	r.Get("/api/profiles/{username}/following", ph.Following)
	r.Get("/api/games/search", gh.Search)
	r.Get("/api/games/popular", gh.Popular)
	r.Get("/api/games/{gameID}", gh.Page)
	r.Get("/api/games/{gameID}/reviews", gh.Reviews)
	r.Get("/api/games/{gameID}/rating", gh.Rating)
	r.Get("/api/games/{gameID}/collection", gh.InCollection)
	r.Post("/api/collection", ch.Add)
	r.Patch("/api/collection/{id}", ch.UpdateStatus)
	r.Delete("/api/collection/{id}", ch.Remove)
	r.Post("/api/reviews", rh.Save)
	r.Get("/api/reviews/recent", rh.Recent)
	r.Get("/api/reviews/{id}", rh.ByID)
	r.Delete("/api/reviews/{id}", rh.Delete)

	return &testApp{t: t, router: r, store: store, tokens: tokens, catalog: catalog}
}

// do sends a request as userID ("" for anonymous) and returns the recorder.
func (a *testApp) do(method, path, userID string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		token, _, err := a.tokens.Generate(userID, userID+"@example.com")
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// withProfile saves a profile for userID through the API.
func (a *testApp) withProfile(userID, username string) {
	a.t.Helper()
	rr := a.do(http.MethodPut, "/api/me/profile", userID, map[string]string{"username": username})
	require.Equal(a.t, http.StatusOK, rr.Code, rr.Body.String())
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}
