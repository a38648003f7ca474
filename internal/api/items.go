package api

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/najdeno/internal/geo"
	"github.com/erazemk/najdeno/internal/imaging"
	"github.com/erazemk/najdeno/internal/match"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// ItemsHandler handles lost and found item endpoints.
type ItemsHandler struct {
	DB       *sql.DB
	Pipeline *match.Pipeline
}

type createItemRequest struct {
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type resolveItemRequest struct {
	ResolutionType string `json:"resolution_type"`
	MatchID        *int64 `json:"match_id"`
}

type matchSummary struct {
	Candidates int `json:"candidates"`
	Notified   int `json:"notified"`
}

// Create handles POST /api/items. After the item is stored, candidate
// matching and notification fanout run before the response is written;
// a fanout failure does not fail the creation.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !model.ValidType(req.Type) {
		jsonError(w, http.StatusBadRequest, "type must be lost or found")
		return
	}
	if req.Title == "" {
		jsonError(w, http.StatusBadRequest, "title required")
		return
	}
	if req.Category == "" {
		jsonError(w, http.StatusBadRequest, "category required")
		return
	}
	if err := geo.Validate(req.Latitude, req.Longitude); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid coordinates")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, claims.UserID,
		req.Type, req.Category, req.Title, req.Description,
		req.Latitude, req.Longitude)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	summary := h.runPipeline(r, item)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"item":    item,
		"matches": summary,
	})
}

// runPipeline runs candidate matching for an item and summarizes the result.
// Errors are logged; the item is already committed at this point and
// a rematch can redeliver missed notifications. The fanout runs on a
// detached context so a client disconnect cannot cancel record writes
// mid-flight.
func (h *ItemsHandler) runPipeline(r *http.Request, item *model.Item) matchSummary {
	var summary matchSummary
	outcomes, err := h.Pipeline.ProcessNewItem(context.WithoutCancel(r.Context()), item)
	if err != nil {
		slog.Error("match pipeline failed", "item", item.ID, "error", err)
		return summary
	}
	for _, o := range outcomes {
		summary.Candidates++
		if o.Notified {
			summary.Notified++
		}
	}
	return summary
}

// List handles GET /api/items. Supports type, category, and mine filters.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	q := r.URL.Query()
	itemType := q.Get("type")
	if itemType != "" && !model.ValidType(itemType) {
		jsonError(w, http.StatusBadRequest, "type must be lost or found")
		return
	}

	var ownerID int64
	if q.Get("mine") == "true" {
		ownerID = claims.UserID
	}

	items, err := store.ListItems(r.Context(), h.DB, itemType, q.Get("category"), ownerID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// GetMatches handles GET /api/items/{id}/matches.
func (h *ItemsHandler) GetMatches(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	matches, err := store.ListMatchesForItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	if matches == nil {
		matches = []model.MatchRecord{}
	}
	jsonResponse(w, http.StatusOK, matches)
}

// Rematch handles POST /api/items/{id}/rematch. It re-runs candidate
// matching for an existing item; already recorded pairs are skipped, so
// this is safe to repeat after a partial notification fanout.
func (h *ItemsHandler) Rematch(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if item.OwnerID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not your item")
		return
	}
	if item.IsResolved {
		jsonError(w, http.StatusConflict, "item already resolved")
		return
	}

	summary := h.runPipeline(r, item)
	jsonResponse(w, http.StatusOK, summary)
}

// Resolve handles POST /api/items/{id}/resolve.
func (h *ItemsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req resolveItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err = h.Pipeline.Resolve(r.Context(), claims.UserID, id, req.MatchID, req.ResolutionType)
	switch {
	case errors.Is(err, match.ErrInvalidResolution):
		jsonError(w, http.StatusBadRequest, "invalid resolution type")
		return
	case errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, store.ErrNotOwner):
		jsonError(w, http.StatusForbidden, "not your item")
		return
	case errors.Is(err, store.ErrAlreadyResolved):
		jsonError(w, http.StatusConflict, "item already resolved")
		return
	case err != nil:
		jsonError(w, http.StatusInternalServerError, "failed to resolve item")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil || item == nil {
		// Resolution is already committed; acknowledge it even if the
		// re-read failed.
		jsonResponse(w, http.StatusOK, map[string]string{"message": "item resolved"})
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// UploadPhoto handles PUT /api/items/{id}/photo.
func (h *ItemsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if item.OwnerID != claims.UserID {
		jsonError(w, http.StatusForbidden, "not your item")
		return
	}

	// Limit to 10 MB before processing.
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	res, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemPhoto(r.Context(), h.DB, id, res.Data, res.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/items/{id}/photo.
func (h *ItemsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemPhoto(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
