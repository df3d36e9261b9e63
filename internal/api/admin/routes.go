package admin

import (
	"database/sql"
	"net/http"
)

// RegisterRoutes registers the sandbox admin endpoints on the mux.
func RegisterRoutes(mux *http.ServeMux, db *sql.DB) {
	h := &Handler{db: db}

	mux.HandleFunc("POST /_sandforce/reset", h.Reset)
	mux.HandleFunc("POST /_sandforce/seed", h.SeedData)
	mux.HandleFunc("GET /_sandforce/health", h.Health)
}
