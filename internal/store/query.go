package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sandforce/sandforce/internal/domain"
	"github.com/sandforce/sandforce/internal/soql"
)

// QueryStore defines the interface for executing parsed SOQL queries.
type QueryStore interface {
	Query(ctx context.Context, q *soql.Query) (*domain.QueryResult, error)
}

// SQLiteQueryStore implements QueryStore backed by SQLite.
type SQLiteQueryStore struct {
	db *sql.DB
}

// NewSQLiteQueryStore creates a new SQLiteQueryStore.
func NewSQLiteQueryStore(db *sql.DB) *SQLiteQueryStore {
	return &SQLiteQueryStore{db: db}
}

const maxQueryRows = 2000

// Query executes a parsed SOQL query against the record tables. Deleted
// records are never returned.
func (s *SQLiteQueryStore) Query(ctx context.Context, q *soql.Query) (*domain.QueryResult, error) {
	name, _, err := ResolveSObjectType(ctx, s.db, q.SObject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrNotFound)
	}

	metas, err := s.fieldMetas(ctx, name)
	if err != nil {
		return nil, err
	}

	selectFields, err := canonicalFields(name, metas, q.Fields)
	if err != nil {
		return nil, err
	}
	for i := range q.Where {
		canon, ok := metas[strings.ToLower(q.Where[i].Field)]
		if !ok {
			return nil, invalidField(name, q.Where[i].Field)
		}
		q.Where[i].Field = canon.Name
	}
	sortField := ""
	if q.OrderBy != nil {
		canon, ok := metas[strings.ToLower(q.OrderBy.Field)]
		if !ok {
			return nil, invalidField(name, q.OrderBy.Field)
		}
		sortField = canon.Name
	}

	limit := maxQueryRows
	if q.HasLimit && q.Limit < maxQueryRows {
		limit = q.Limit
	}

	// Build the FROM + WHERE clause: one LEFT JOIN on field_values per
	// condition, plus one for the sort field.
	var fromSB strings.Builder
	var whereSB strings.Builder
	var args []any

	fromSB.WriteString(" FROM records r")
	for i, cond := range q.Where {
		alias := fmt.Sprintf("fv_c%d", i)
		fmt.Fprintf(&fromSB, " LEFT JOIN field_values %s ON %s.record_num = r.num AND %s.field_name = ?",
			alias, alias, alias)
		args = append(args, cond.Field)
	}
	sortAlias := ""
	if sortField != "" {
		sortAlias = "fv_s"
		fmt.Fprintf(&fromSB, " LEFT JOIN field_values %s ON %s.record_num = r.num AND %s.field_name = ?",
			sortAlias, sortAlias, sortAlias)
		args = append(args, sortField)
	}

	whereSB.WriteString(" WHERE r.sobject_type = ? AND r.is_deleted = FALSE")
	args = append(args, name)

	for i, cond := range q.Where {
		alias := fmt.Sprintf("fv_c%d", i)
		clause, condArgs := buildConditionClause(alias, cond)
		whereSB.WriteString(" AND " + clause)
		args = append(args, condArgs...)
	}

	selectSQL := "SELECT DISTINCT r.num, r.id" + fromSB.String() + whereSB.String()
	if sortAlias != "" {
		direction := "ASC"
		if q.OrderBy.Descending {
			direction = "DESC"
		}
		selectSQL += fmt.Sprintf(" ORDER BY %s.value %s, r.num ASC", sortAlias, direction)
	} else {
		selectSQL += " ORDER BY r.num ASC"
	}
	selectSQL += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type hit struct {
		num int64
		id  string
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.num, &h.id); err != nil {
			return nil, fmt.Errorf("scan query result: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}

	results := make([]*domain.Record, 0, len(hits))
	for _, h := range hits {
		fields, err := s.getRecordFields(ctx, h.num, selectFields)
		if err != nil {
			return nil, err
		}
		results = append(results, &domain.Record{
			Attributes: domain.Attributes{Type: name},
			ID:         h.id,
			Fields:     fields,
		})
	}

	return &domain.QueryResult{
		TotalSize: len(results),
		Done:      true,
		Records:   results,
	}, nil
}

// canonicalFields resolves the SELECT list to canonical field names.
func canonicalFields(sobject string, metas map[string]fieldMeta, fields []string) ([]string, error) {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		m, ok := metas[strings.ToLower(f)]
		if !ok {
			return nil, invalidField(sobject, f)
		}
		out = append(out, m.Name)
	}
	return out, nil
}

// buildConditionClause renders a single WHERE condition against the joined
// field_values alias.
func buildConditionClause(alias string, cond soql.Condition) (string, []any) {
	if cond.IsNull {
		switch cond.Op {
		case "=":
			return fmt.Sprintf("(%s.value IS NULL OR %s.value = '')", alias, alias), nil
		default: // "!="
			return fmt.Sprintf("(%s.value IS NOT NULL AND %s.value != '')", alias, alias), nil
		}
	}
	switch cond.Op {
	case "=":
		return fmt.Sprintf("%s.value = ?", alias), []any{cond.Value}
	case "!=":
		return fmt.Sprintf("(%s.value IS NULL OR %s.value != ?)", alias, alias), []any{cond.Value}
	default: // "LIKE"
		return fmt.Sprintf("%s.value LIKE ?", alias), []any{cond.Value}
	}
}

// fieldMetas loads the field definitions for an sobject type, keyed by
// lowercased field name.
func (s *SQLiteQueryStore) fieldMetas(ctx context.Context, name string) (map[string]fieldMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, required, external_id, COALESCE(reference_to, '') FROM field_definitions WHERE sobject_type = ?`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("load field definitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	metas := make(map[string]fieldMeta)
	for rows.Next() {
		var m fieldMeta
		if err := rows.Scan(&m.Name, &m.Required, &m.ExternalID, &m.ReferenceTo); err != nil {
			return nil, fmt.Errorf("scan field definition: %w", err)
		}
		metas[strings.ToLower(m.Name)] = m
	}
	return metas, rows.Err()
}

// getRecordFields fetches the selected field values for one record.
func (s *SQLiteQueryStore) getRecordFields(ctx context.Context, num int64, fields []string) (map[string]string, error) {
	placeholders := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	args = append(args, num)
	for _, f := range fields {
		placeholders = append(placeholders, "?")
		args = append(args, f)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT field_name, value FROM field_values WHERE record_num = ? AND field_name IN (`+strings.Join(placeholders, ",")+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("get record fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		result[name] = value
	}
	return result, rows.Err()
}
