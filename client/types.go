package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Attributes identifies the sobject type of a record in REST payloads.
type Attributes struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Record is one sobject record. Field values arrive flattened at the top
// level of the JSON object and are collected into Fields.
type Record struct {
	Attributes Attributes
	ID         string
	Fields     map[string]string
}

// Get returns the named field value, or "" when absent.
func (r *Record) Get(field string) string {
	return r.Fields[field]
}

// UnmarshalJSON collects the flattened top-level field values into Fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Fields = make(map[string]string, len(raw))
	for name, v := range raw {
		if name == "attributes" {
			if err := json.Unmarshal(v, &r.Attributes); err != nil {
				return fmt.Errorf("decode attributes: %w", err)
			}
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			// Non-string value from a foreign server; keep the raw JSON.
			s = string(v)
		}
		if strings.EqualFold(name, "id") {
			r.ID = s
		}
		r.Fields[name] = s
	}
	return nil
}

// SaveError describes why a single record in a DML call was rejected.
type SaveError struct {
	Message    string   `json:"message"`
	StatusCode string   `json:"statusCode"`
	Fields     []string `json:"fields"`
}

// SaveResult is the per-record outcome of an insert, update or upsert.
type SaveResult struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Created bool        `json:"created"`
	Errors  []SaveError `json:"errors"`
}

// DeleteResult is the per-record outcome of a delete.
type DeleteResult struct {
	ID      string      `json:"id"`
	Success bool        `json:"success"`
	Errors  []SaveError `json:"errors"`
}

// QueryResult is the envelope returned by the query endpoint.
type QueryResult struct {
	TotalSize int       `json:"totalSize"`
	Done      bool      `json:"done"`
	Records   []*Record `json:"records"`
}

// Field describes one field of an sobject type.
type Field struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Nillable    bool     `json:"nillable"`
	ExternalID  bool     `json:"externalId"`
	ReferenceTo []string `json:"referenceTo,omitempty"`
}

// SObjectType summarizes one sobject type in the global describe.
type SObjectType struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	KeyPrefix  string `json:"keyPrefix"`
	Custom     bool   `json:"custom"`
	Createable bool   `json:"createable"`
	Updateable bool   `json:"updateable"`
	Deletable  bool   `json:"deletable"`
	Queryable  bool   `json:"queryable"`
}

// Describe is the full metadata of one sobject type.
type Describe struct {
	SObjectType
	Fields []Field `json:"fields"`
}

// GlobalDescribe is the envelope of the global describe endpoint.
type GlobalDescribe struct {
	Encoding     string        `json:"encoding"`
	MaxBatchSize int           `json:"maxBatchSize"`
	Sobjects     []SObjectType `json:"sobjects"`
}

// ErrorDetail is one entry of the API error response array.
type ErrorDetail struct {
	Message   string   `json:"message"`
	ErrorCode string   `json:"errorCode"`
	Fields    []string `json:"fields"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Errors     []ErrorDetail
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, d := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", d.ErrorCode, d.Message))
	}
	return strings.Join(msgs, "; ")
}

// Code returns the error code of the first error entry, or "".
func (e *APIError) Code() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].ErrorCode
}

// IsNotFound reports whether err is an API error with a not-found code.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	code := apiErr.Code()
	return code == "NOT_FOUND" || code == "ENTITY_IS_DELETED"
}
