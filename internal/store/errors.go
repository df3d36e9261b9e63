package store

import "fmt"

// ErrNotFound is returned when a requested record or sobject type does not
// exist.
var ErrNotFound = fmt.Errorf("record not found")

// Salesforce-style DML status codes produced by the record store.
const (
	StatusRequiredFieldMissing   = "REQUIRED_FIELD_MISSING"
	StatusInvalidField           = "INVALID_FIELD"
	StatusInvalidFieldForWrite   = "INVALID_FIELD_FOR_INSERT_UPDATE"
	StatusInvalidCrossReference  = "INVALID_CROSS_REFERENCE_KEY"
	StatusEntityDeleted          = "ENTITY_IS_DELETED"
	StatusMalformedID            = "MALFORMED_ID"
	StatusNotFound               = "NOT_FOUND"
	StatusAllOrNoneRollback      = "ALL_OR_NONE_OPERATION_ROLLED_BACK"
	StatusInvalidExternalIDField = "INVALID_EXTERNAL_ID_FIELD"
)

// DMLError describes why the platform rejected a write. StatusCode holds the
// Salesforce error code surfaced on the wire.
type DMLError struct {
	StatusCode string
	Message    string
	Fields     []string
}

func (e *DMLError) Error() string {
	return fmt.Sprintf("%s: %s", e.StatusCode, e.Message)
}

func requiredFieldMissing(fields []string) *DMLError {
	return &DMLError{
		StatusCode: StatusRequiredFieldMissing,
		Message:    fmt.Sprintf("Required fields are missing: %v", fields),
		Fields:     fields,
	}
}

func invalidField(sobject, field string) *DMLError {
	return &DMLError{
		StatusCode: StatusInvalidField,
		Message:    fmt.Sprintf("No such column '%s' on sobject of type %s", field, sobject),
		Fields:     []string{field},
	}
}

func invalidCrossReference(field, value string) *DMLError {
	return &DMLError{
		StatusCode: StatusInvalidCrossReference,
		Message:    fmt.Sprintf("invalid cross reference id: %s=%s", field, value),
		Fields:     []string{field},
	}
}

func entityDeleted(id string) *DMLError {
	return &DMLError{
		StatusCode: StatusEntityDeleted,
		Message:    fmt.Sprintf("entity is deleted: %s", id),
	}
}
