package query

import (
	"errors"
	"net/http"

	"github.com/sandforce/sandforce/internal/api"
	"github.com/sandforce/sandforce/internal/soql"
	"github.com/sandforce/sandforce/internal/store"
)

// Handler handles SOQL query HTTP requests.
type Handler struct {
	store *store.Store
}

// Query handles GET /query?q=<soql>.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("q")
	if raw == "" {
		api.WriteError(w, http.StatusBadRequest,
			api.NewError(api.CodeMalformedQuery, "missing required parameter: q"))
		return
	}

	q, err := soql.Parse(raw)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest,
			api.NewError(api.CodeMalformedQuery, err.Error()))
		return
	}

	result, err := h.store.Query.Query(r.Context(), q)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	for _, rec := range result.Records {
		rec.Attributes.URL = api.BasePath + "/sobjects/" + rec.Attributes.Type + "/" + rec.ID
	}

	api.RecordQuery()
	api.WriteJSON(w, http.StatusOK, result)
}

// writeQueryError maps execution errors onto the REST error array. Field
// and type resolution failures surface as 400s with the store's code.
func writeQueryError(w http.ResponseWriter, err error) {
	var dml *store.DMLError
	if errors.As(err, &dml) {
		api.WriteError(w, http.StatusBadRequest, &api.Error{
			Message:   dml.Message,
			ErrorCode: dml.StatusCode,
			Fields:    dml.Fields,
		})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		api.WriteError(w, http.StatusBadRequest,
			api.NewError(api.CodeMalformedQuery, err.Error()))
		return
	}
	api.WriteError(w, http.StatusInternalServerError,
		api.NewError(api.CodeUnknownException, err.Error()))
}
