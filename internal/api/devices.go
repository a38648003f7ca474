package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/najdeno/internal/store"
)

// DevicesHandler handles push notification device registration.
type DevicesHandler struct {
	DB *sql.DB
}

type registerDeviceRequest struct {
	Token string `json:"token"`
}

// Register handles POST /api/devices. Registering the same token twice
// is a no-op, so clients can re-send their token on every launch.
func (h *DevicesHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req registerDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Token == "" {
		jsonError(w, http.StatusBadRequest, "token required")
		return
	}

	if err := store.RegisterDeviceToken(r.Context(), h.DB, claims.UserID, req.Token); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to register device")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "device registered"})
}
