package composite

import (
	"net/http"

	"github.com/sandforce/sandforce/internal/api"
	"github.com/sandforce/sandforce/internal/store"
)

// RegisterRoutes adds the sobject collections endpoints to the mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("POST "+api.BasePath+"/composite/sobjects", h.InsertAll)
	mux.HandleFunc("PATCH "+api.BasePath+"/composite/sobjects", h.UpdateAll)
	mux.HandleFunc("PATCH "+api.BasePath+"/composite/sobjects/{sobject}/{field}", h.UpsertAll)
	mux.HandleFunc("DELETE "+api.BasePath+"/composite/sobjects", h.DeleteAll)
}
