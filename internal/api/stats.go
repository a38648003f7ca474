package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/najdeno/internal/store"
)

// StatsHandler serves aggregate platform statistics.
type StatsHandler struct {
	DB *sql.DB
}

// Get handles GET /api/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	stats, err := store.CountStats(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	jsonResponse(w, http.StatusOK, stats)
}
