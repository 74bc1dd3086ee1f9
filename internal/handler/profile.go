package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/auth"
	"github.com/sakif/gamerater/internal/model"
	"golang.org/x/sync/errgroup"
)

// profilePreviewSize is how many reviews and collection entries the profile
// page shows before "see all".
const profilePreviewSize = 5

type ProfileHandler struct {
	profiles     Profiles
	collections  Collections
	catalog      Catalog
	cookieSecure bool
	logger       *slog.Logger
}

func NewProfileHandler(profiles Profiles, collections Collections, catalog Catalog, cookieSecure bool, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles:     profiles,
		collections:  collections,
		catalog:      catalog,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// ReviewEntry is a review with the reviewed game, when the catalog knows it.
type ReviewEntry struct {
	model.Review
	Game *model.Game `json:"game"`
}

// CollectionEntry is a collection row with its game, when the catalog knows it.
type CollectionEntry struct {
	model.GameCompletion
	Game *model.Game `json:"game"`
}

// ProfilePage is everything the public profile page renders.
type ProfilePage struct {
	Profile           *model.Profile    `json:"profile"`
	IsOwnProfile      bool              `json:"isOwnProfile"`
	IsFollowing       bool              `json:"isFollowing"`
	FollowerCount     int               `json:"followerCount"`
	FollowingCount    int               `json:"followingCount"`
	ReviewCount       int               `json:"reviewCount"`
	CollectionCount   int               `json:"collectionCount"`
	RecentReviews     []ReviewEntry     `json:"recentReviews"`
	RecentCompletions []CollectionEntry `json:"recentCompletions"`
}

// Me handles GET /api/me: the caller's profile, or null.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.profiles.CurrentProfile(r.Context()))
}

// UpdateMe handles PUT /api/me/profile. Only fields present in the body change.
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var patch model.ProfileUpdate
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	if err := h.profiles.UpdateProfile(r.Context(), patch); err != nil {
		writeError(w, err)
		return
	}

	res := Result{Redirect: "/profile"}
	if patch.HasUsername() {
		res.Redirect = "/profile/" + *patch.Username
	}
	writeOK(w, res)
}

// DeleteMe handles DELETE /api/me/profile and ends the session.
func (h *ProfileHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.DeleteProfile(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	auth.ClearSessionCookie(w, h.cookieSecure)
	writeOK(w, Result{Redirect: "/"})
}

// UserByID handles GET /api/users/{userID}.
func (h *ProfileHandler) UserByID(w http.ResponseWriter, r *http.Request) {
	p := h.profiles.ProfileByID(r.Context(), chi.URLParam(r, "userID"))
	if p == nil {
		writeError(w, apperror.NotFound("user", chi.URLParam(r, "userID")))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Follow handles POST /api/users/{userID}/follow.
func (h *ProfileHandler) Follow(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.FollowUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, Result{})
}

// Unfollow handles DELETE /api/users/{userID}/follow.
func (h *ProfileHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.UnfollowUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, Result{})
}

// Page handles GET /api/profiles/{username}.
//
// The four per-user reads are independent and run concurrently; then one
// batch catalog call covers the games of the previewed reviews and
// collection entries.
func (h *ProfileHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, ok := h.lookup(w, r)
	if !ok {
		return
	}

	page := ProfilePage{Profile: profile}
	var (
		reviews     []model.Review
		completions []model.GameCompletion
	)
	var g errgroup.Group
	g.Go(func() error { reviews = h.profiles.UserReviews(ctx, profile.ID); return nil })
	g.Go(func() error { completions = h.profiles.UserGameCompletion(ctx, profile.ID); return nil })
	g.Go(func() error {
		page.FollowerCount, page.FollowingCount = h.profiles.FollowCounts(ctx, profile.ID)
		return nil
	})
	g.Go(func() error { page.IsFollowing = h.profiles.IsFollowing(ctx, profile.ID); return nil })
	_ = g.Wait()

	callerID, _ := auth.UserIDFromContext(ctx)
	page.IsOwnProfile = callerID == profile.ID
	page.ReviewCount = len(reviews)
	page.CollectionCount = len(completions)

	reviews = reviews[:min(len(reviews), profilePreviewSize)]
	completions = completions[:min(len(completions), profilePreviewSize)]

	ids := make([]int64, 0, len(reviews)+len(completions))
	for _, rv := range reviews {
		ids = append(ids, rv.GameID)
	}
	for _, c := range completions {
		ids = append(ids, c.GameID)
	}
	games := h.games(ctx, ids)

	page.RecentReviews = withGames(reviews, games)
	page.RecentCompletions = collectionWithGames(completions, games)
	writeJSON(w, http.StatusOK, page)
}

// Reviews handles GET /api/profiles/{username}/reviews.
func (h *ProfileHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.lookup(w, r)
	if !ok {
		return
	}
	reviews := h.profiles.UserReviews(r.Context(), profile.ID)
	ids := make([]int64, len(reviews))
	for i, rv := range reviews {
		ids[i] = rv.GameID
	}
	writeJSON(w, http.StatusOK, withGames(reviews, h.games(r.Context(), ids)))
}

// Collection handles GET /api/profiles/{username}/collection[?status=].
// Filtering by status happens here, after the full list is loaded.
func (h *ProfileHandler) Collection(w http.ResponseWriter, r *http.Request) {
	var filter model.CompletionStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := model.ParseCompletionStatus(raw)
		if err != nil {
			writeError(w, apperror.ValidationFailed("status", "Invalid status."))
			return
		}
		filter = status
	}

	profile, ok := h.lookup(w, r)
	if !ok {
		return
	}

	all := h.collections.ListCollection(r.Context(), profile.ID)
	entries := make([]model.GameCompletion, 0, len(all))
	for _, c := range all {
		if filter == "" || c.Status == filter {
			entries = append(entries, c)
		}
	}

	ids := make([]int64, len(entries))
	for i, c := range entries {
		ids[i] = c.GameID
	}
	writeJSON(w, http.StatusOK, collectionWithGames(entries, h.games(r.Context(), ids)))
}

// Followers handles GET /api/profiles/{username}/followers.
func (h *ProfileHandler) Followers(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.profiles.Followers(r.Context(), profile.ID))
}

// Following handles GET /api/profiles/{username}/following.
func (h *ProfileHandler) Following(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.profiles.Following(r.Context(), profile.ID))
}

// lookup resolves {username} and writes a 404 when there is no such user.
func (h *ProfileHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Profile, bool) {
	username := chi.URLParam(r, "username")
	profile := h.profiles.ProfileByUsername(r.Context(), username)
	if profile == nil {
		writeError(w, apperror.NotFound("user", username))
		return nil, false
	}
	return profile, true
}

func (h *ProfileHandler) games(ctx context.Context, ids []int64) map[int64]model.Game {
	if h.catalog == nil || len(ids) == 0 {
		return map[int64]model.Game{}
	}
	return h.catalog.MultipleGameDetails(ctx, ids)
}

func withGames(reviews []model.Review, games map[int64]model.Game) []ReviewEntry {
	out := make([]ReviewEntry, len(reviews))
	for i, rv := range reviews {
		out[i] = ReviewEntry{Review: rv}
		if g, ok := games[rv.GameID]; ok {
			out[i].Game = &g
		}
	}
	return out
}

func collectionWithGames(entries []model.GameCompletion, games map[int64]model.Game) []CollectionEntry {
	out := make([]CollectionEntry, len(entries))
	for i, c := range entries {
		out[i] = CollectionEntry{GameCompletion: c}
		if g, ok := games[c.GameID]; ok {
			out[i].Game = &g
		}
	}
	return out
}
