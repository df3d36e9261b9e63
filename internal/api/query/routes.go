package query

import (
	"net/http"

	"github.com/sandforce/sandforce/internal/api"
	"github.com/sandforce/sandforce/internal/store"
)

// RegisterRoutes adds the SOQL query endpoint to the mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("GET "+api.BasePath+"/query", h.Query)
}
