package api

import "net/http"

// Transport-level Salesforce error codes. DML-level codes come from the
// store with each rejected record.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeMalformedQuery   = "MALFORMED_QUERY"
	CodeJSONParserError  = "JSON_PARSER_ERROR"
	CodeInvalidSessionID = "INVALID_SESSION_ID"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeUnknownException = "UNKNOWN_EXCEPTION"
)

// Error is a single entry of the Salesforce error response array.
type Error struct {
	Message   string   `json:"message"`
	ErrorCode string   `json:"errorCode"`
	Fields    []string `json:"fields,omitempty"`
}

// WriteError writes one or more errors in the Salesforce wire format: a JSON
// array even for a single error.
func WriteError(w http.ResponseWriter, statusCode int, errs ...*Error) {
	WriteJSON(w, statusCode, errs)
}

// NewError creates an error entry with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Message: message, ErrorCode: code}
}
