package composite

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

// Handler handles sobject collections HTTP requests.
type Handler struct {
	store *store.Store
}

const maxCollectionSize = 200

// collectionBody is the request envelope shared by the collection insert,
// update and upsert endpoints.
type collectionBody struct {
	AllOrNone bool             `json:"allOrNone"`
	Records   []map[string]any `json:"records"`
}

// InsertAll handles POST /composite/sobjects.
func (h *Handler) InsertAll(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeCollection(w, r)
	if !ok {
		return
	}

	sobject, recs, ok := splitRecords(w, body.Records)
	if !ok {
		return
	}

	inputs := make([]domain.InsertInput, 0, len(recs))
	for _, rec := range recs {
		inputs = append(inputs, domain.InsertInput{Fields: rec.fields})
	}

	results, err := h.store.Records.InsertAll(r.Context(), sobject, inputs, body.AllOrNone)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.RecordDML(sobject, "insert")
	api.WriteJSON(w, http.StatusOK, results)
}

// UpdateAll handles PATCH /composite/sobjects. Each record must carry an Id
// alongside the fields to merge.
func (h *Handler) UpdateAll(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeCollection(w, r)
	if !ok {
		return
	}

	sobject, recs, ok := splitRecords(w, body.Records)
	if !ok {
		return
	}

	inputs := make([]domain.UpdateInput, 0, len(recs))
	for _, rec := range recs {
		inputs = append(inputs, domain.UpdateInput{ID: rec.id, Fields: rec.fields})
	}

	results, err := h.store.Records.UpdateAll(r.Context(), sobject, inputs, body.AllOrNone)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.RecordDML(sobject, "update")
	api.WriteJSON(w, http.StatusOK, results)
}

// UpsertAll handles PATCH /composite/sobjects/{sobject}/{field}.
func (h *Handler) UpsertAll(w http.ResponseWriter, r *http.Request) {
	sobject := r.PathValue("sobject")
	matchField := r.PathValue("field")

	body, ok := decodeCollection(w, r)
	if !ok {
		return
	}
	if len(body.Records) > maxCollectionSize {
		writeTooManyRecords(w, len(body.Records))
		return
	}

	inputs := make([]domain.UpsertInput, 0, len(body.Records))
	for _, raw := range body.Records {
		id, fields := fieldsFromBody(raw)
		inputs = append(inputs, domain.UpsertInput{ID: id, Fields: fields})
	}

	results, err := h.store.Records.UpsertAll(r.Context(), sobject, matchField, inputs, body.AllOrNone)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.RecordDML(sobject, "upsert")
	api.WriteJSON(w, http.StatusOK, results)
}

// DeleteAll handles DELETE /composite/sobjects?ids=a,b,c. IDs may span
// sobject types; each is resolved through its key prefix.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		api.WriteError(w, http.StatusBadRequest,
			api.NewError(api.CodeJSONParserError, "missing required parameter: ids"))
		return
	}

	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) > maxCollectionSize {
		writeTooManyRecords(w, len(ids))
		return
	}

	allOrNone := r.URL.Query().Get("allOrNone") == "true"

	results, err := h.store.Records.DeleteAll(r.Context(), ids, allOrNone)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	api.RecordDML("multiple", "delete")
	api.WriteJSON(w, http.StatusOK, results)
}

// parsedRecord is one collection entry with its envelope peeled off.
type parsedRecord struct {
	sobject string
	id      string
	fields  map[string]string
}

func decodeCollection(w http.ResponseWriter, r *http.Request) (*collectionBody, bool) {
	var body collectionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest,
			api.NewError(api.CodeJSONParserError, "Unable to parse request body as JSON"))
		return nil, false
	}
	if len(body.Records) == 0 {
		api.WriteError(w, http.StatusBadRequest,
			api.NewError(api.CodeJSONParserError, "records is required"))
		return nil, false
	}
	return &body, true
}

// splitRecords peels the attributes envelope off each record and checks that
// the collection names a single sobject type.
func splitRecords(w http.ResponseWriter, raws []map[string]any) (string, []parsedRecord, bool) {
	if len(raws) > maxCollectionSize {
		writeTooManyRecords(w, len(raws))
		return "", nil, false
	}

	var sobject string
	recs := make([]parsedRecord, 0, len(raws))
	for _, raw := range raws {
		rec := parsedRecord{sobject: attributesType(raw)}
		if rec.sobject == "" {
			api.WriteError(w, http.StatusBadRequest,
				api.NewError(api.CodeJSONParserError, "each record requires attributes.type"))
			return "", nil, false
		}
		if sobject == "" {
			sobject = rec.sobject
		} else if !strings.EqualFold(sobject, rec.sobject) {
			api.WriteError(w, http.StatusBadRequest,
				api.NewError(api.CodeJSONParserError, "all records in a collection must share one sobject type"))
			return "", nil, false
		}
		rec.id, rec.fields = fieldsFromBody(raw)
		recs = append(recs, rec)
	}
	return sobject, recs, true
}

func writeTooManyRecords(w http.ResponseWriter, n int) {
	api.WriteError(w, http.StatusBadRequest,
		api.NewError(api.CodeJSONParserError,
			"Record limit reached. cannot submit more than "+strconv.Itoa(maxCollectionSize)+
				" records in this operation ("+strconv.Itoa(n)+" submitted)"))
}

func attributesType(raw map[string]any) string {
	attrs, ok := raw["attributes"].(map[string]any)
	if !ok {
		return ""
	}
	t, _ := attrs["type"].(string)
	return t
}

// fieldsFromBody flattens a decoded record into its Id and field values,
// dropping the attributes envelope.
func fieldsFromBody(raw map[string]any) (id string, fields map[string]string) {
	fields = make(map[string]string, len(raw))
	for name, v := range raw {
		if strings.EqualFold(name, "attributes") {
			continue
		}
		if strings.EqualFold(name, "id") {
			id, _ = v.(string)
			continue
		}
		fields[name] = stringifyValue(v)
	}
	return id, fields
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

func writeStoreError(w http.ResponseWriter, err error) {
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
		api.WriteError(w, http.StatusNotFound,
			api.NewError(api.CodeNotFound, "The requested resource does not exist"))
		return
	}
	api.WriteError(w, http.StatusInternalServerError,
		api.NewError(api.CodeUnknownException, err.Error()))
}
