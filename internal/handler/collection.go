package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/gamerater/internal/apperror"
	"github.com/sakif/gamerater/internal/model"
)

type CollectionHandler struct {
	collections Collections
	logger      *slog.Logger
}

func NewCollectionHandler(collections Collections, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{collections: collections, logger: logger}
}

type addToCollectionRequest struct {
	GameID int64  `json:"gameId"`
	Status string `json:"status"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func parseStatus(raw string) (model.CompletionStatus, error) {
	status, err := model.ParseCompletionStatus(raw)
	if err != nil {
		return "", apperror.ValidationFailed("status", "Invalid status.")
	}
	return status, nil
}

// Add handles POST /api/collection.
func (h *CollectionHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addToCollectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.GameID <= 0 {
		writeError(w, apperror.ValidationFailed("gameId", "A game is required."))
		return
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.collections.AddToCollection(r.Context(), req.GameID, status); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, Result{GameID: req.GameID})
}

// UpdateStatus handles PATCH /api/collection/{id}.
func (h *CollectionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.collections.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, Result{})
}

// Remove handles DELETE /api/collection/{id}.
func (h *CollectionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.collections.RemoveFromCollection(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, Result{})
}
