package sobjects

import (
	"net/http"

	"github.com/sandforce/sandforce/internal/api"
	"github.com/sandforce/sandforce/internal/store"
)

// RegisterRoutes adds the sobject CRUD and describe endpoints to the mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{store: s}

	mux.HandleFunc("GET "+api.BasePath+"/sobjects", h.DescribeGlobal)
	mux.HandleFunc("GET "+api.BasePath+"/sobjects/{sobject}/describe", h.Describe)
	mux.HandleFunc("POST "+api.BasePath+"/sobjects/{sobject}", h.Create)
	mux.HandleFunc("GET "+api.BasePath+"/sobjects/{sobject}/{id}", h.Retrieve)
	mux.HandleFunc("PATCH "+api.BasePath+"/sobjects/{sobject}/{id}", h.Update)
	mux.HandleFunc("DELETE "+api.BasePath+"/sobjects/{sobject}/{id}", h.Delete)
	mux.HandleFunc("PATCH "+api.BasePath+"/sobjects/{sobject}/{field}/{value}", h.Upsert)
}
