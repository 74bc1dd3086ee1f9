package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/auth"
	"github.com/sakif/gamerater/internal/model"
	"golang.org/x/sync/errgroup"
)

const msgSearchFailed = "Search failed. Please try again."

type GameHandler struct {
	catalog     Catalog
	reviews     Reviews
	collections Collections
	logger      *slog.Logger
}

func NewGameHandler(catalog Catalog, reviews Reviews, collections Collections, logger *slog.Logger) *GameHandler {
	return &GameHandler{catalog: catalog, reviews: reviews, collections: collections, logger: logger}
}

// GamePage is everything the game page renders. Reviews leaves out the
// caller's own review, which comes separately as UserReview.
type GamePage struct {
	Game         *model.Game              `json:"game"`
	CoverLarge   string                   `json:"coverLarge,omitempty"`
	Rating       *model.RatingSummary     `json:"rating"`
	ReviewCount  int                      `json:"reviewCount"`
	Reviews      []model.ReviewWithAuthor `json:"reviews"`
	UserReview   *model.Review            `json:"userReview"`
	InCollection bool                     `json:"inCollection"`
}

// Search handles GET /api/games/search?q=. Unlike the other catalog reads a
// failed search is an error the user sees.
func (h *GameHandler) Search(w http.ResponseWriter, r *http.Request) {
	games, err := h.catalog.SearchGames(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeJSON(w, http.StatusBadGateway, Result{Error: msgSearchFailed})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// Popular handles GET /api/games/popular. An empty list is a valid answer.
func (h *GameHandler) Popular(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.PopularGames(r.Context()))
}

// Page handles GET /api/games/{gameID}.
func (h *GameHandler) Page(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()

	game := h.catalog.FullGameDetails(ctx, gameID)
	if game == nil {
		writeError(w, &apperror.AppError{Err: apperror.ErrNotFound, Message: "Game not found."})
		return
	}

	page := GamePage{Game: game, CoverLarge: largeCover(game.CoverURL())}
	callerID, signedIn := auth.UserIDFromContext(ctx)

	var reviews []model.ReviewWithAuthor
	var g errgroup.Group
	g.Go(func() error { reviews = h.reviews.GameReviews(ctx, gameID); return nil })
	g.Go(func() error { page.Rating = h.reviews.GameAverageRating(ctx, gameID); return nil })
	g.Go(func() error { page.InCollection = h.collections.IsInCollection(ctx, gameID); return nil })
	if signedIn {
		g.Go(func() error { page.UserReview = h.reviews.UserReviewForGame(ctx, callerID, gameID); return nil })
	}
	_ = g.Wait()

	page.ReviewCount = len(reviews)
	page.Reviews = make([]model.ReviewWithAuthor, 0, len(reviews))
	for _, rv := range reviews {
		if signedIn && rv.UserID == callerID {
			continue
		}
		page.Reviews = append(page.Reviews, rv)
	}
	writeJSON(w, http.StatusOK, page)
}

// Reviews handles GET /api/games/{gameID}/reviews.
func (h *GameHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.reviews.GameReviews(r.Context(), gameID))
}

// Rating handles GET /api/games/{gameID}/rating. The body is null when the
// ratings could not be read.
func (h *GameHandler) Rating(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.reviews.GameAverageRating(r.Context(), gameID))
}

// InCollection handles GET /api/games/{gameID}/collection.
func (h *GameHandler) InCollection(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"inCollection": h.collections.IsInCollection(r.Context(), gameID)})
}

// largeCover swaps the catalog's thumbnail size for the full-size image.
func largeCover(url string) string {
	return strings.Replace(url, "t_thumb", "t_1080p", 1)
}
