package seed

import (
	"context"
	"database/sql"
	"fmt"
)

const seedTimestamp = "2024-01-01T00:00:00.000Z"

// Seed inserts the standard sobject types and their field definitions. It is
// idempotent — existing rows are left untouched. Object types go in first so
// field definitions can reference them.
func Seed(ctx context.Context, db *sql.DB) error {
	if err := ObjectTypes(ctx, db); err != nil {
		return fmt.Errorf("seed sobject types: %w", err)
	}
	if err := FieldDefinitions(ctx, db); err != nil {
		return fmt.Errorf("seed field definitions: %w", err)
	}
	return nil
}

// ObjectTypes inserts the standard sobject type rows.
func ObjectTypes(ctx context.Context, db *sql.DB) error {
	for _, def := range StandardObjects {
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO sobject_types (key_prefix, name, label, label_plural, custom, created_at, updated_at)
			 VALUES (?, ?, ?, ?, FALSE, ?, ?)`,
			def.KeyPrefix, def.Name, def.Label, def.LabelPlural, seedTimestamp, seedTimestamp,
		); err != nil {
			return fmt.Errorf("insert sobject type %s: %w", def.Name, err)
		}
	}
	return nil
}

// FieldDefinitions inserts the standard field definitions for each sobject
// type, including the system fields every type carries.
func FieldDefinitions(ctx context.Context, db *sql.DB) error {
	systemFields := []fieldDef{
		{Name: "Id", Label: "Record ID", Type: "id"},
		{Name: "CreatedDate", Label: "Created Date", Type: "datetime"},
		{Name: "LastModifiedDate", Label: "Last Modified Date", Type: "datetime"},
		{Name: "IsDeleted", Label: "Deleted", Type: "boolean"},
	}

	for _, obj := range StandardObjects {
		fields := append(append([]fieldDef{}, systemFields...), standardFields[obj.Name]...)
		for _, fd := range fields {
			var refTo any
			if fd.ReferenceTo != "" {
				refTo = fd.ReferenceTo
			}
			if _, err := db.ExecContext(ctx,
				`INSERT OR IGNORE INTO field_definitions (sobject_type, name, label, type, required, external_id, reference_to, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				obj.Name, fd.Name, fd.Label, fd.Type, fd.Required, fd.ExternalID, refTo, seedTimestamp, seedTimestamp,
			); err != nil {
				return fmt.Errorf("insert field %s.%s: %w", obj.Name, fd.Name, err)
			}
		}
	}
	return nil
}
