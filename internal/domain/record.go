package domain

// Attributes identifies the sobject type of a record in REST payloads.
type Attributes struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Record represents a single sobject record. Fields holds the flattened
// field values keyed by field name; system fields (Id, CreatedDate, ...)
// appear alongside regular ones.
type Record struct {
	Attributes Attributes        `json:"attributes"`
	ID         string            `json:"Id,omitempty"`
	Fields     map[string]string `json:"-"`
	IsDeleted  bool              `json:"-"`
	CreatedAt  string            `json:"-"`
	UpdatedAt  string            `json:"-"`
}

// SaveError describes why a single record in a DML call was rejected.
type SaveError struct {
	Message    string   `json:"message"`
	StatusCode string   `json:"statusCode"`
	Fields     []string `json:"fields"`
}

// SaveResult is the per-record outcome of an insert or update.
type SaveResult struct {
	ID      string      `json:"id,omitempty"`
	Success bool        `json:"success"`
	Created bool        `json:"created,omitempty"`
	Errors  []SaveError `json:"errors"`
}

// DeleteResult is the per-record outcome of a delete.
type DeleteResult struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Errors  []SaveError `json:"errors"`
}

// InsertInput holds the field values for a single record insert.
type InsertInput struct {
	Fields map[string]string
}

// UpdateInput identifies a record and the fields to merge into it.
type UpdateInput struct {
	ID     string
	Fields map[string]string
}

// UpsertInput holds the data for one record of an upsert collection. The
// match value is taken from Fields[matchField], or from ID when matching
// on Id.
type UpsertInput struct {
	ID     string
	Fields map[string]string
}
