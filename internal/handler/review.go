package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/gamerater/internal/apperror"
)

const (
	minRating = 1
	maxRating = 5

	// maxRecentReviews caps ?limit= on the site-wide feed.
	maxRecentReviews = 50
)

type ReviewHandler struct {
	reviews Reviews
	logger  *slog.Logger
}

func NewReviewHandler(reviews Reviews, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

type reviewRequest struct {
	GameID     int64  `json:"gameId"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"reviewText"`
}

// Save handles POST /api/reviews. It creates the caller's review of the game
// or rewrites the existing one.
func (h *ReviewHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.GameID <= 0 {
		writeError(w, apperror.ValidationFailed("gameId", "A game is required."))
		return
	}
	if req.Rating < minRating || req.Rating > maxRating {
		writeError(w, apperror.ValidationFailed("rating", "Please select a rating between 1 and 5 stars."))
		return
	}

	id, err := h.reviews.CreateOrUpdateReview(r.Context(), req.GameID, req.Rating, strings.TrimSpace(req.ReviewText))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, Result{ReviewID: id, GameID: req.GameID})
}

// Recent handles GET /api/reviews/recent?limit=. A missing or bad limit
// falls back to the service default.
func (h *ReviewHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	limit = min(limit, maxRecentReviews)
	writeJSON(w, http.StatusOK, h.reviews.RecentReviews(r.Context(), limit))
}

// ByID handles GET /api/reviews/{id}.
func (h *ReviewHandler) ByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	review := h.reviews.ReviewByID(r.Context(), id)
	if review == nil {
		writeError(w, apperror.NotFound("review", id))
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// Delete handles DELETE /api/reviews/{id}. The response names the game the
// review was for so the client can refresh that page.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	gameID, err := h.reviews.DeleteReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, Result{GameID: gameID})
}
