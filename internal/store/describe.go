package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandforce/sandforce/internal/domain"
)

// DescribeStore defines the interface for sobject metadata lookups.
type DescribeStore interface {
	DescribeGlobal(ctx context.Context) ([]domain.SObjectType, error)
	Describe(ctx context.Context, sobject string) (*domain.Describe, error)
}

// SQLiteDescribeStore implements DescribeStore backed by SQLite.
type SQLiteDescribeStore struct {
	db *sql.DB
}

// NewSQLiteDescribeStore creates a new SQLiteDescribeStore.
func NewSQLiteDescribeStore(db *sql.DB) *SQLiteDescribeStore {
	return &SQLiteDescribeStore{db: db}
}

// DescribeGlobal lists every sobject type known to the org.
func (s *SQLiteDescribeStore) DescribeGlobal(ctx context.Context) ([]domain.SObjectType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, label, label_plural, key_prefix, custom FROM sobject_types ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("describe global: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var types []domain.SObjectType
	for rows.Next() {
		t := domain.SObjectType{Createable: true, Updateable: true, Deletable: true, Queryable: true}
		if err := rows.Scan(&t.Name, &t.Label, &t.LabelPlural, &t.KeyPrefix, &t.Custom); err != nil {
			return nil, fmt.Errorf("scan sobject type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// Describe returns the full field metadata for one sobject type.
func (s *SQLiteDescribeStore) Describe(ctx context.Context, sobject string) (*domain.Describe, error) {
	name, keyPrefix, err := ResolveSObjectType(ctx, s.db, sobject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrNotFound)
	}

	d := &domain.Describe{}
	err = s.db.QueryRowContext(ctx,
		`SELECT name, label, label_plural, custom FROM sobject_types WHERE name = ?`, name,
	).Scan(&d.Name, &d.Label, &d.LabelPlural, &d.Custom)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", name, ErrNotFound)
	}
	d.KeyPrefix = keyPrefix
	d.Createable = true
	d.Updateable = true
	d.Deletable = true
	d.Queryable = true

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, label, type, required, external_id, COALESCE(reference_to, '')
		 FROM field_definitions WHERE sobject_type = ? ORDER BY name ASC`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("describe fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var f domain.Field
		var required bool
		var refTo string
		if err := rows.Scan(&f.Name, &f.Label, &f.Type, &required, &f.ExternalID, &refTo); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		f.Nillable = !required
		f.ReferenceTo = []string{}
		if refTo != "" {
			f.ReferenceTo = []string{refTo}
		}
		d.Fields = append(d.Fields, f)
	}
	return d, rows.Err()
}
