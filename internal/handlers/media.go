package handlers

import (
	"net/http"
	"strconv"
	"strings"
)

// MediaHandler implements the read-only title discovery endpoints.
type MediaHandler struct {
	Catalog MediaCatalog
}

// Trending handles GET /api/v1/media/trending requests.
func (h MediaHandler) Trending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	titles, err := h.Catalog.Trending(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"results": titles})
}

// Search handles GET /api/v1/media/search requests.
func (h MediaHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}

	titles, err := h.Catalog.Search(ctx, query)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"results": titles})
}

// Details handles GET /api/v1/media/details requests.
func (h MediaHandler) Details(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	query := r.URL.Query()
	id, err := strconv.Atoi(query.Get("id"))
	if err != nil || id <= 0 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "id must be a positive integer"})
		return
	}

	details, err := h.Catalog.Details(ctx, id, strings.TrimSpace(query.Get("type")))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, details)
}

// Seasons handles GET /api/v1/media/seasons requests.
func (h MediaHandler) Seasons(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id <= 0 {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "id must be a positive integer"})
		return
	}

	seasons, err := h.Catalog.Seasons(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"seasons": seasons})
}
