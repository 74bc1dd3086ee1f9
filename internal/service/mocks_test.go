package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/auth"
	"github.com/sakif/gamerater/internal/model"
	"github.com/sakif/gamerater/internal/repository"
)

// =========================================================================
// IN-MEMORY REPOSITORIES
// =========================================================================
//
// Each mock keeps rows in a map and returns err from every method when it is
// set, to drive the store-failure paths.

var errStore = errors.New("connection reset by peer")

type mockProfiles struct {
	mu   sync.Mutex
	rows map[string]model.Profile
	err  error
}

func newMockProfiles() *mockProfiles { return &mockProfiles{rows: map[string]model.Profile{}} }

func (m *mockProfiles) GetByID(_ context.Context, id string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.rows[id]
	if !ok {
		return nil, apperror.NotFound("profile", id)
	}
	return &p, nil
}

func (m *mockProfiles) GetByUsername(_ context.Context, username string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.rows {
		if p.Username == username {
			return &p, nil
		}
	}
	return nil, apperror.NotFound("profile", username)
}

func (m *mockProfiles) GetByIDs(_ context.Context, ids []string) ([]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []model.Profile{}
	for _, id := range ids {
		if p, ok := m.rows[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProfiles) UsernameTaken(_ context.Context, username, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, p := range m.rows {
		if p.Username == username && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProfiles) Insert(_ context.Context, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows[p.ID] = *p
	return nil
}

func (m *mockProfiles) Update(_ context.Context, id string, patch model.ProfileUpdate, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	p, ok := m.rows[id]
	if !ok {
		return nil
	}
	if patch.Username != nil {
		p.Username = *patch.Username
	}
	if patch.Bio != nil {
		p.Bio = patch.Bio
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = patch.AvatarURL
	}
	if patch.Location != nil {
		p.Location = patch.Location
	}
	p.UpdatedAt = updatedAt
	m.rows[id] = p
	return nil
}

func (m *mockProfiles) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.rows, id)
	return nil
}

type mockFollows struct {
	mu       sync.Mutex
	edges    []model.FollowEdge
	profiles *mockProfiles
	err      error
}

func (m *mockFollows) Exists(_ context.Context, followerID, followedID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for _, e := range m.edges {
		if e.FollowerID == followerID && e.FollowedID == followedID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFollows) Insert(_ context.Context, edge *model.FollowEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.edges = append(m.edges, *edge)
	return nil
}

func (m *mockFollows) Delete(_ context.Context, followerID, followedID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	kept := m.edges[:0]
	for _, e := range m.edges {
		if e.FollowerID != followerID || e.FollowedID != followedID {
			kept = append(kept, e)
		}
	}
	m.edges = kept
	return nil
}

func (m *mockFollows) list(pick func(e model.FollowEdge) (string, bool)) ([]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []model.Profile{}
	for i := len(m.edges) - 1; i >= 0; i-- {
		if id, ok := pick(m.edges[i]); ok {
			if p, found := m.profiles.rows[id]; found {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *mockFollows) Followers(_ context.Context, userID string) ([]model.Profile, error) {
	return m.list(func(e model.FollowEdge) (string, bool) { return e.FollowerID, e.FollowedID == userID })
}

func (m *mockFollows) Following(_ context.Context, userID string) ([]model.Profile, error) {
	return m.list(func(e model.FollowEdge) (string, bool) { return e.FollowedID, e.FollowerID == userID })
}

func (m *mockFollows) CountFollowers(ctx context.Context, userID string) (int, error) {
	p, err := m.Followers(ctx, userID)
	return len(p), err
}

func (m *mockFollows) CountFollowing(ctx context.Context, userID string) (int, error) {
	p, err := m.Following(ctx, userID)
	return len(p), err
}

type mockCompletions struct {
	mu   sync.Mutex
	rows map[string]model.GameCompletion
	err  error
}

func newMockCompletions() *mockCompletions {
	return &mockCompletions{rows: map[string]model.GameCompletion{}}
}

func (m *mockCompletions) FindByUserAndGame(_ context.Context, userID string, gameID int64) (*model.GameCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.rows {
		if c.UserID == userID && c.GameID == gameID {
			return &c, nil
		}
	}
	return nil, apperror.NotFound("game completion", userID)
}

func (m *mockCompletions) Insert(_ context.Context, c *model.GameCompletion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows[c.ID] = *c
	return nil
}

func (m *mockCompletions) UpdateStatus(_ context.Context, id, userID string, status model.CompletionStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if c, ok := m.rows[id]; ok && c.UserID == userID {
		c.Status = status
		c.UpdatedAt = updatedAt
		m.rows[id] = c
	}
	return nil
}

func (m *mockCompletions) Delete(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if c, ok := m.rows[id]; ok && c.UserID == userID {
		delete(m.rows, id)
	}
	return nil
}

func (m *mockCompletions) ListByUser(_ context.Context, userID string, order repository.SortField) ([]model.GameCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []model.GameCompletion{}
	for _, c := range m.rows {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if order == repository.SortUpdatedAt {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type mockReviews struct {
	mu   sync.Mutex
	rows map[string]model.Review
	err  error
}

func newMockReviews() *mockReviews { return &mockReviews{rows: map[string]model.Review{}} }

func (m *mockReviews) GetByID(_ context.Context, id string) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, apperror.NotFound("review", id)
	}
	return &r, nil
}

func (m *mockReviews) FindByUserAndGame(_ context.Context, userID string, gameID int64) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.rows {
		if r.UserID == userID && r.GameID == gameID {
			return &r, nil
		}
	}
	return nil, apperror.NotFound("review", userID)
}

func (m *mockReviews) Insert(_ context.Context, r *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows[r.ID] = *r
	return nil
}

func (m *mockReviews) Update(_ context.Context, id string, rating int, text *string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if r, ok := m.rows[id]; ok {
		r.Rating, r.ReviewText, r.UpdatedAt = rating, text, updatedAt
		m.rows[id] = r
	}
	return nil
}

func (m *mockReviews) Delete(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if r, ok := m.rows[id]; ok && r.UserID == userID {
		delete(m.rows, id)
	}
	return nil
}

func (m *mockReviews) filter(keep func(model.Review) bool) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []model.Review{}
	for _, r := range m.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockReviews) ListByGame(_ context.Context, gameID int64) ([]model.Review, error) {
	return m.filter(func(r model.Review) bool { return r.GameID == gameID })
}

func (m *mockReviews) ListByUser(_ context.Context, userID string) ([]model.Review, error) {
	return m.filter(func(r model.Review) bool { return r.UserID == userID })
}

func (m *mockReviews) ListRecent(_ context.Context, limit int) ([]model.Review, error) {
	out, err := m.filter(func(model.Review) bool { return true })
	if err != nil || len(out) <= limit {
		return out, err
	}
	return out[:limit], nil
}

func (m *mockReviews) Ratings(_ context.Context, gameID int64) ([]int, error) {
	rows, err := m.filter(func(r model.Review) bool { return r.GameID == gameID })
	if err != nil {
		return nil, err
	}
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Rating
	}
	return out, nil
}

// =========================================================================
// COLLABORATORS
// =========================================================================

type fakeCatalog struct {
	mu    sync.Mutex
	games map[int64]model.Game
	calls map[int64]int
}

func (f *fakeCatalog) GameDetails(_ context.Context, id int64) *model.Game {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[int64]int{}
	}
	f.calls[id]++
	g, ok := f.games[id]
	if !ok {
		return nil
	}
	return &g
}

type fakeProvider struct {
	signUp     func(email, password string) (*auth.Session, error)
	signIn     func(email, password string) (*auth.Session, error)
	signOutErr error
	signedOut  []string
}

func (f *fakeProvider) SignUp(_ context.Context, email, password string) (*auth.Session, error) {
	return f.signUp(email, password)
}

func (f *fakeProvider) SignIn(_ context.Context, email, password string) (*auth.Session, error) {
	return f.signIn(email, password)
}

func (f *fakeProvider) SignOut(_ context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return f.signOutErr
}

// =========================================================================
// HELPERS
// =========================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// signedIn returns a context carrying userID as the caller.
func signedIn(userID string) context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: userID}, "token-"+userID)
}

// tickingClock returns a clock that advances one second per call.
func tickingClock(t *testing.T) func() time.Time {
	t.Helper()
	var mu sync.Mutex
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func strPtr(s string) *string { return &s }

func assertAppError(t *testing.T, err error, sentinel error, wantMsg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %v", sentinel)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error = %v, want errors.Is %v", err, sentinel)
	}
	if wantMsg != "" && err.Error() != wantMsg {
		t.Errorf("message = %q, want %q", err.Error(), wantMsg)
	}
}
