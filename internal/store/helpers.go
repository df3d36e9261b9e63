package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// now returns the current UTC time formatted as a Salesforce-compatible
// timestamp.
func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000+0000")
}

// recordID builds the 15-character record ID from a type's key prefix and
// the record's sequence number.
func recordID(keyPrefix string, num int64) string {
	return fmt.Sprintf("%s%012d", keyPrefix, num)
}

// ResolveSObjectType resolves an sobject API name (case-insensitive, e.g.
// "Account") to its canonical name and key prefix.
func ResolveSObjectType(ctx context.Context, db *sql.DB, sobject string) (name, keyPrefix string, err error) {
	err = db.QueryRowContext(ctx,
		`SELECT name, key_prefix FROM sobject_types WHERE name = ? COLLATE NOCASE`,
		sobject,
	).Scan(&name, &keyPrefix)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", "", fmt.Errorf("sobject type %q not found", sobject)
		}
		return "", "", fmt.Errorf("resolve sobject type: %w", err)
	}
	return name, keyPrefix, nil
}

// resolveKeyPrefix maps a record ID's 3-character key prefix back to the
// sobject type name.
func resolveKeyPrefix(ctx context.Context, db *sql.DB, id string) (string, error) {
	if len(id) < 15 {
		return "", &DMLError{StatusCode: StatusMalformedID, Message: fmt.Sprintf("malformed id %s", id)}
	}
	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sobject_types WHERE key_prefix = ?`, id[:3],
	).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", &DMLError{StatusCode: StatusMalformedID, Message: fmt.Sprintf("malformed id %s", id)}
		}
		return "", fmt.Errorf("resolve key prefix: %w", err)
	}
	return name, nil
}
