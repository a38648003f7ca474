package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/najdeno/internal/match"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, pipeline *match.Pipeline) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	devicesHandler := &DevicesHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db, Pipeline: pipeline}
	statsHandler := &StatsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public: registration and login.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Account management.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Push notification devices.
	mux.Handle("POST /api/devices", authMW(http.HandlerFunc(devicesHandler.Register)))

	// Items.
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("GET /api/items/{id}/matches", authMW(http.HandlerFunc(itemsHandler.GetMatches)))
	mux.Handle("POST /api/items/{id}/rematch", authMW(http.HandlerFunc(itemsHandler.Rematch)))
	mux.Handle("POST /api/items/{id}/resolve", authMW(http.HandlerFunc(itemsHandler.Resolve)))
	mux.Handle("PUT /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.UploadPhoto)))
	mux.Handle("GET /api/items/{id}/photo", authMW(http.HandlerFunc(itemsHandler.GetPhoto)))

	// Statistics.
	mux.Handle("GET /api/stats", authMW(http.HandlerFunc(statsHandler.Get)))

	return mux
}
