package sobjects

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sandforce/sandforce/internal/api"
	"github.com/sandforce/sandforce/internal/domain"
	"github.com/sandforce/sandforce/internal/store"
)

// Handler handles sobject record HTTP requests.
type Handler struct {
	store *store.Store
}

// Create handles POST /sobjects/{sobject}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sobject := r.PathValue("sobject")

	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	rec, err := h.store.Records.Insert(r.Context(), sobject, fields)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.RecordDML(sobject, "insert")
	api.WriteJSON(w, http.StatusCreated, domain.SaveResult{
		ID:      rec.ID,
		Success: true,
		Errors:  []domain.SaveError{},
	})
}

// Retrieve handles GET /sobjects/{sobject}/{id}. The optional fields query
// parameter narrows the returned field set.
func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	sobject := r.PathValue("sobject")
	id := r.PathValue("id")

	var fields []string
	if v := r.URL.Query().Get("fields"); v != "" {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}

	rec, err := h.store.Records.Retrieve(r.Context(), sobject, id, fields)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	rec.Attributes.URL = recordURL(rec.Attributes.Type, rec.ID)
	api.WriteJSON(w, http.StatusOK, rec)
}

// Update handles PATCH /sobjects/{sobject}/{id}. Supplied fields are merged
// into the record; a success returns no body.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	sobject := r.PathValue("sobject")
	id := r.PathValue("id")

	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	if _, err := h.store.Records.Update(r.Context(), sobject, id, fields); err != nil {
		writeStoreError(w, err)
		return
	}

	api.RecordDML(sobject, "update")
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /sobjects/{sobject}/{id}. The record moves to the
// recycle bin rather than being erased.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sobject := r.PathValue("sobject")
	id := r.PathValue("id")

	if err := h.store.Records.Delete(r.Context(), sobject, id); err != nil {
		writeStoreError(w, err)
		return
	}

	api.RecordDML(sobject, "delete")
	w.WriteHeader(http.StatusNoContent)
}

// Upsert handles PATCH /sobjects/{sobject}/{field}/{value}: update the record
// whose external ID field matches the path value, or insert a new one.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	sobject := r.PathValue("sobject")
	field := r.PathValue("field")
	value := r.PathValue("value")

	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	rec, created, err := h.store.Records.UpsertByField(r.Context(), sobject, field, value, fields)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.RecordDML(sobject, "upsert")
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	api.WriteJSON(w, status, domain.SaveResult{
		ID:      rec.ID,
		Success: true,
		Created: created,
		Errors:  []domain.SaveError{},
	})
}

// globalDescribe is the envelope of GET /sobjects.
type globalDescribe struct {
	Encoding     string               `json:"encoding"`
	MaxBatchSize int                  `json:"maxBatchSize"`
	Sobjects     []domain.SObjectType `json:"sobjects"`
}

// DescribeGlobal handles GET /sobjects.
func (h *Handler) DescribeGlobal(w http.ResponseWriter, r *http.Request) {
	types, err := h.store.Describe.DescribeGlobal(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, globalDescribe{
		Encoding:     "UTF-8",
		MaxBatchSize: 200,
		Sobjects:     types,
	})
}

// Describe handles GET /sobjects/{sobject}/describe.
func (h *Handler) Describe(w http.ResponseWriter, r *http.Request) {
	sobject := r.PathValue("sobject")

	desc, err := h.store.Describe.Describe(r.Context(), sobject)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, desc)
}

func recordURL(sobject, id string) string {
	return api.BasePath + "/sobjects/" + sobject + "/" + id
}

// decodeFields reads a JSON object body into the string field map the store
// expects, writing a JSON_PARSER_ERROR response on bad input.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest,
			api.NewError(api.CodeJSONParserError, "Unable to parse request body as JSON"))
		return nil, false
	}
	return fieldsFromBody(body), true
}

// fieldsFromBody flattens a decoded JSON payload into field values. The
// attributes envelope is dropped; scalar values are rendered the way the
// REST API serializes them.
func fieldsFromBody(body map[string]any) map[string]string {
	fields := make(map[string]string, len(body))
	for name, v := range body {
		if strings.EqualFold(name, "attributes") {
			continue
		}
		fields[name] = stringifyValue(v)
	}
	return fields
}

func stringifyValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// writeStoreError maps store errors onto the REST error array. DML
// rejections carry their own status code; everything else is a transport
// error.
func writeStoreError(w http.ResponseWriter, err error) {
	var dml *store.DMLError
	if errors.As(err, &dml) {
		status := http.StatusBadRequest
		if dml.StatusCode == store.StatusEntityDeleted {
			status = http.StatusNotFound
		}
		api.WriteError(w, status, &api.Error{
			Message:   dml.Message,
			ErrorCode: dml.StatusCode,
			Fields:    dml.Fields,
		})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound,
			api.NewError(api.CodeNotFound, "The requested resource does not exist"))
		return
	}
	api.WriteError(w, http.StatusInternalServerError,
		api.NewError(api.CodeUnknownException, err.Error()))
}
