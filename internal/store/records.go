package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sandforce/sandforce/internal/domain"
)

// RecordStore defines the interface for sobject record persistence. The
// store owns identity assignment, field validation, referential integrity
// and recycle-bin semantics; callers perform none of that.
type RecordStore interface {
	Insert(ctx context.Context, sobject string, fields map[string]string) (*domain.Record, error)
	Retrieve(ctx context.Context, sobject, id string, fields []string) (*domain.Record, error)
	RetrieveByField(ctx context.Context, sobject, field, value string, fields []string) (*domain.Record, error)
	Update(ctx context.Context, sobject, id string, fields map[string]string) (*domain.Record, error)
	Delete(ctx context.Context, sobject, id string) error
	UpsertByField(ctx context.Context, sobject, field, value string, fields map[string]string) (*domain.Record, bool, error)
	InsertAll(ctx context.Context, sobject string, inputs []domain.InsertInput, allOrNone bool) ([]domain.SaveResult, error)
	UpdateAll(ctx context.Context, sobject string, inputs []domain.UpdateInput, allOrNone bool) ([]domain.SaveResult, error)
	UpsertAll(ctx context.Context, sobject, matchField string, inputs []domain.UpsertInput, allOrNone bool) ([]domain.SaveResult, error)
	DeleteAll(ctx context.Context, ids []string, allOrNone bool) ([]domain.DeleteResult, error)
}

// SQLiteRecordStore implements RecordStore backed by SQLite.
type SQLiteRecordStore struct {
	db *sql.DB
}

// NewSQLiteRecordStore creates a new SQLiteRecordStore.
func NewSQLiteRecordStore(db *sql.DB) *SQLiteRecordStore {
	return &SQLiteRecordStore{db: db}
}

// defaultFields are always returned even when a caller narrows the field list.
var defaultFields = []string{"Id", "CreatedDate", "LastModifiedDate"}

// systemFields are platform-managed and rejected in write payloads.
var systemFields = map[string]bool{
	"id":               true,
	"createddate":      true,
	"lastmodifieddate": true,
	"isdeleted":        true,
}

// fieldMeta holds the validation-relevant parts of a field definition.
type fieldMeta struct {
	Name        string
	Required    bool
	ExternalID  bool
	ReferenceTo string
}

func (s *SQLiteRecordStore) resolveType(ctx context.Context, sobject string) (name, keyPrefix string, err error) {
	name, keyPrefix, err = ResolveSObjectType(ctx, s.db, sobject)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", err.Error(), ErrNotFound)
	}
	return name, keyPrefix, nil
}

// fieldMetas loads the field definitions for an sobject type, keyed by
// lowercased field name.
func (s *SQLiteRecordStore) fieldMetas(ctx context.Context, name string) (map[string]fieldMeta, error) {
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

// validateWrite checks a field map against the type's field definitions and
// returns a canonically-named copy. With requireAll set, missing required
// fields are an error (insert semantics).
func validateWrite(sobject string, metas map[string]fieldMeta, fields map[string]string, requireAll bool) (map[string]string, *DMLError) {
	canon := make(map[string]string, len(fields))
	for k, v := range fields {
		lower := strings.ToLower(k)
		if systemFields[lower] {
			return nil, &DMLError{
				StatusCode: StatusInvalidFieldForWrite,
				Message:    fmt.Sprintf("Unable to create/update fields: %s", k),
				Fields:     []string{k},
			}
		}
		m, ok := metas[lower]
		if !ok {
			return nil, invalidField(sobject, k)
		}
		canon[m.Name] = v
	}

	if requireAll {
		var missing []string
		for _, m := range metas {
			if m.Required && canon[m.Name] == "" {
				missing = append(missing, m.Name)
			}
		}
		if len(missing) > 0 {
			return nil, requiredFieldMissing(missing)
		}
	}

	return canon, nil
}

// checkReferences verifies every populated reference field points at a live
// record of the referenced type.
func (s *SQLiteRecordStore) checkReferences(ctx context.Context, metas map[string]fieldMeta, fields map[string]string) error {
	for name, value := range fields {
		m := metas[strings.ToLower(name)]
		if m.ReferenceTo == "" || value == "" {
			continue
		}
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM records WHERE id = ? AND sobject_type = ? AND is_deleted = FALSE`,
			value, m.ReferenceTo,
		).Scan(&exists)
		if err != nil {
			if err == sql.ErrNoRows {
				return invalidCrossReference(name, value)
			}
			return fmt.Errorf("check reference %s: %w", name, err)
		}
	}
	return nil
}

// validateInsert runs insert validation without writing anything.
func (s *SQLiteRecordStore) validateInsert(ctx context.Context, sobject string, fields map[string]string) error {
	name, _, err := s.resolveType(ctx, sobject)
	if err != nil {
		return err
	}
	metas, err := s.fieldMetas(ctx, name)
	if err != nil {
		return err
	}
	canon, derr := validateWrite(name, metas, fields, true)
	if derr != nil {
		return derr
	}
	return s.checkReferences(ctx, metas, canon)
}

// validateUpdate runs update validation without writing anything.
func (s *SQLiteRecordStore) validateUpdate(ctx context.Context, sobject, id string, fields map[string]string) error {
	name, _, err := s.resolveType(ctx, sobject)
	if err != nil {
		return err
	}
	if err := s.checkLive(ctx, name, id); err != nil {
		return err
	}
	metas, err := s.fieldMetas(ctx, name)
	if err != nil {
		return err
	}
	canon, derr := validateWrite(name, metas, fields, false)
	if derr != nil {
		return derr
	}
	return s.checkReferences(ctx, metas, canon)
}

// checkLive verifies a record exists and is not in the recycle bin.
func (s *SQLiteRecordStore) checkLive(ctx context.Context, name, id string) error {
	var isDeleted bool
	err := s.db.QueryRowContext(ctx,
		`SELECT is_deleted FROM records WHERE id = ? AND sobject_type = ?`, id, name,
	).Scan(&isDeleted)
	if err != nil {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if isDeleted {
		return entityDeleted(id)
	}
	return nil
}

// Insert creates a new record with the given field values and assigns it a
// key-prefixed identity.
func (s *SQLiteRecordStore) Insert(ctx context.Context, sobject string, fields map[string]string) (*domain.Record, error) {
	name, keyPrefix, err := s.resolveType(ctx, sobject)
	if err != nil {
		return nil, err
	}

	metas, err := s.fieldMetas(ctx, name)
	if err != nil {
		return nil, err
	}
	canon, derr := validateWrite(name, metas, fields, true)
	if derr != nil {
		return nil, derr
	}
	if err := s.checkReferences(ctx, metas, canon); err != nil {
		return nil, err
	}

	ts := now()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO records (sobject_type, is_deleted, created_at, updated_at) VALUES (?, FALSE, ?, ?)`,
		name, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	num, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	id := recordID(keyPrefix, num)
	if _, err := s.db.ExecContext(ctx, `UPDATE records SET id = ? WHERE num = ?`, id, num); err != nil {
		return nil, fmt.Errorf("assign record id: %w", err)
	}

	// Auto-set system fields.
	values := map[string]string{
		"Id":               id,
		"CreatedDate":      ts,
		"LastModifiedDate": ts,
		"IsDeleted":        "false",
	}
	for k, v := range canon {
		values[k] = v
	}

	if err := s.setFields(ctx, num, values, ts); err != nil {
		return nil, err
	}

	return s.getWithAllFields(ctx, name, id)
}

// Retrieve fetches a single record by ID. A nil fields slice returns every
// stored field; otherwise the requested fields plus defaults are returned.
func (s *SQLiteRecordStore) Retrieve(ctx context.Context, sobject, id string, fields []string) (*domain.Record, error) {
	name, _, err := s.resolveType(ctx, sobject)
	if err != nil {
		return nil, err
	}

	var rec domain.Record
	var num int64
	err = s.db.QueryRowContext(ctx,
		`SELECT num, id, is_deleted, created_at, updated_at FROM records WHERE id = ? AND sobject_type = ?`,
		id, name,
	).Scan(&num, &rec.ID, &rec.IsDeleted, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("retrieve record %s: %w", id, ErrNotFound)
	}
	if rec.IsDeleted {
		return nil, entityDeleted(id)
	}
	rec.Attributes = domain.Attributes{Type: name}

	rec.Fields, err = s.getFields(ctx, num, fields)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// RetrieveByField looks up a single live record by a field value.
func (s *SQLiteRecordStore) RetrieveByField(ctx context.Context, sobject, field, value string, fields []string) (*domain.Record, error) {
	name, _, err := s.resolveType(ctx, sobject)
	if err != nil {
		return nil, err
	}

	var id string
	err = s.db.QueryRowContext(ctx,
		`SELECT r.id FROM records r
		 JOIN field_values fv ON fv.record_num = r.num
		 WHERE r.sobject_type = ? AND fv.field_name = ? AND fv.value = ? AND r.is_deleted = FALSE
		 ORDER BY r.num ASC LIMIT 1`,
		name, field, value,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("retrieve record by %s=%s: %w", field, value, ErrNotFound)
	}

	return s.Retrieve(ctx, name, id, fields)
}

// Update merges the given field values into an existing record.
func (s *SQLiteRecordStore) Update(ctx context.Context, sobject, id string, fields map[string]string) (*domain.Record, error) {
	name, _, err := s.resolveType(ctx, sobject)
	if err != nil {
		return nil, err
	}

	if err := s.checkLive(ctx, name, id); err != nil {
		return nil, err
	}

	metas, err := s.fieldMetas(ctx, name)
	if err != nil {
		return nil, err
	}
	canon, derr := validateWrite(name, metas, fields, false)
	if derr != nil {
		return nil, derr
	}
	if err := s.checkReferences(ctx, metas, canon); err != nil {
		return nil, err
	}

	ts := now()
	canon["LastModifiedDate"] = ts

	var num int64
	if err := s.db.QueryRowContext(ctx, `SELECT num FROM records WHERE id = ?`, id).Scan(&num); err != nil {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}

	if err := s.setFields(ctx, num, canon, ts); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE records SET updated_at = ? WHERE num = ?`, ts, num); err != nil {
		return nil, fmt.Errorf("update record timestamp: %w", err)
	}

	return s.getWithAllFields(ctx, name, id)
}

// Delete moves a record to the recycle bin.
func (s *SQLiteRecordStore) Delete(ctx context.Context, sobject, id string) error {
	name, _, err := s.resolveType(ctx, sobject)
	if err != nil {
		return err
	}

	if err := s.checkLive(ctx, name, id); err != nil {
		return err
	}

	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET is_deleted = TRUE, deleted_at = ?, updated_at = ? WHERE id = ? AND sobject_type = ? AND is_deleted = FALSE`,
		ts, ts, id, name,
	)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}

	var num int64
	if err := s.db.QueryRowContext(ctx, `SELECT num FROM records WHERE id = ?`, id).Scan(&num); err == nil {
		_ = s.setFields(ctx, num, map[string]string{"IsDeleted": "true"}, ts)
	}

	return nil
}

// UpsertByField inserts or updates a record matched on the given field.
// "Id" gives DML upsert semantics: inputs carrying an ID update, the rest
// insert. Any other match field must be flagged as an external ID. The
// returned bool reports whether a new record was created.
func (s *SQLiteRecordStore) UpsertByField(ctx context.Context, sobject, field, value string, fields map[string]string) (*domain.Record, bool, error) {
	name, _, err := s.resolveType(ctx, sobject)
	if err != nil {
		return nil, false, err
	}

	if strings.EqualFold(field, "Id") {
		if value == "" {
			rec, err := s.Insert(ctx, name, fields)
			return rec, true, err
		}
		rec, err := s.Update(ctx, name, value, fields)
		return rec, false, err
	}

	metas, err := s.fieldMetas(ctx, name)
	if err != nil {
		return nil, false, err
	}
	m, ok := metas[strings.ToLower(field)]
	if !ok {
		return nil, false, invalidField(name, field)
	}
	if !m.ExternalID {
		return nil, false, &DMLError{
			StatusCode: StatusInvalidExternalIDField,
			Message:    fmt.Sprintf("The field %s.%s is not an external ID field", name, field),
			Fields:     []string{field},
		}
	}

	existing, err := s.RetrieveByField(ctx, name, m.Name, value, defaultFields)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
		merged := make(map[string]string, len(fields)+1)
		for k, v := range fields {
			merged[k] = v
		}
		merged[m.Name] = value
		rec, err := s.Insert(ctx, name, merged)
		return rec, true, err
	}

	rec, err := s.Update(ctx, name, existing.ID, fields)
	return rec, false, err
}

// InsertAll creates multiple records. Without allOrNone each record succeeds
// or fails independently; with it, the whole batch is validated first and
// nothing is written unless every record passes.
func (s *SQLiteRecordStore) InsertAll(ctx context.Context, sobject string, inputs []domain.InsertInput, allOrNone bool) ([]domain.SaveResult, error) {
	if allOrNone {
		errs := make([]error, len(inputs))
		failed := false
		for i, input := range inputs {
			if err := s.validateInsert(ctx, sobject, input.Fields); err != nil {
				errs[i] = err
				failed = true
			}
		}
		if failed {
			return rolledBackResults(errs), nil
		}
	}

	results := make([]domain.SaveResult, 0, len(inputs))
	for _, input := range inputs {
		rec, err := s.Insert(ctx, sobject, input.Fields)
		if err != nil {
			results = append(results, domain.SaveResult{Success: false, Errors: []domain.SaveError{toSaveError(err)}})
			continue
		}
		results = append(results, domain.SaveResult{ID: rec.ID, Success: true, Errors: []domain.SaveError{}})
	}
	return results, nil
}

// UpdateAll updates multiple records with the same batch semantics as
// InsertAll.
func (s *SQLiteRecordStore) UpdateAll(ctx context.Context, sobject string, inputs []domain.UpdateInput, allOrNone bool) ([]domain.SaveResult, error) {
	if allOrNone {
		errs := make([]error, len(inputs))
		failed := false
		for i, input := range inputs {
			if err := s.validateUpdate(ctx, sobject, input.ID, input.Fields); err != nil {
				errs[i] = err
				failed = true
			}
		}
		if failed {
			return rolledBackResults(errs), nil
		}
	}

	results := make([]domain.SaveResult, 0, len(inputs))
	for _, input := range inputs {
		rec, err := s.Update(ctx, sobject, input.ID, input.Fields)
		if err != nil {
			results = append(results, domain.SaveResult{Success: false, Errors: []domain.SaveError{toSaveError(err)}})
			continue
		}
		results = append(results, domain.SaveResult{ID: rec.ID, Success: true, Errors: []domain.SaveError{}})
	}
	return results, nil
}

// UpsertAll inserts or updates multiple records matched on matchField.
func (s *SQLiteRecordStore) UpsertAll(ctx context.Context, sobject, matchField string, inputs []domain.UpsertInput, allOrNone bool) ([]domain.SaveResult, error) {
	if matchField == "" {
		matchField = "Id"
	}

	if allOrNone {
		errs := make([]error, len(inputs))
		failed := false
		for i, input := range inputs {
			if err := s.validateUpsert(ctx, sobject, matchField, input); err != nil {
				errs[i] = err
				failed = true
			}
		}
		if failed {
			return rolledBackResults(errs), nil
		}
	}

	results := make([]domain.SaveResult, 0, len(inputs))
	for _, input := range inputs {
		value := input.ID
		if !strings.EqualFold(matchField, "Id") {
			value = input.Fields[matchField]
		}
		rec, created, err := s.UpsertByField(ctx, sobject, matchField, value, input.Fields)
		if err != nil {
			results = append(results, domain.SaveResult{Success: false, Errors: []domain.SaveError{toSaveError(err)}})
			continue
		}
		results = append(results, domain.SaveResult{ID: rec.ID, Success: true, Created: created, Errors: []domain.SaveError{}})
	}
	return results, nil
}

func (s *SQLiteRecordStore) validateUpsert(ctx context.Context, sobject, matchField string, input domain.UpsertInput) error {
	if strings.EqualFold(matchField, "Id") {
		if input.ID == "" {
			return s.validateInsert(ctx, sobject, input.Fields)
		}
		return s.validateUpdate(ctx, sobject, input.ID, input.Fields)
	}
	// External-ID match: existence decides insert vs update at apply time;
	// field-level validation is the shared part.
	name, _, err := s.resolveType(ctx, sobject)
	if err != nil {
		return err
	}
	metas, err := s.fieldMetas(ctx, name)
	if err != nil {
		return err
	}
	if _, ok := metas[strings.ToLower(matchField)]; !ok {
		return invalidField(name, matchField)
	}
	canon, derr := validateWrite(name, metas, input.Fields, false)
	if derr != nil {
		return derr
	}
	return s.checkReferences(ctx, metas, canon)
}

// DeleteAll deletes multiple records, each resolved to its sobject type by
// key prefix.
func (s *SQLiteRecordStore) DeleteAll(ctx context.Context, ids []string, allOrNone bool) ([]domain.DeleteResult, error) {
	if allOrNone {
		errs := make([]error, len(ids))
		failed := false
		for i, id := range ids {
			name, err := resolveKeyPrefix(ctx, s.db, id)
			if err == nil {
				err = s.checkLive(ctx, name, id)
			}
			if err != nil {
				errs[i] = err
				failed = true
			}
		}
		if failed {
			results := make([]domain.DeleteResult, len(ids))
			for i, id := range ids {
				results[i] = domain.DeleteResult{ID: id, Success: false, Errors: rolledBackErrors(errs[i])}
			}
			return results, nil
		}
	}

	results := make([]domain.DeleteResult, 0, len(ids))
	for _, id := range ids {
		name, err := resolveKeyPrefix(ctx, s.db, id)
		if err == nil {
			err = s.Delete(ctx, name, id)
		}
		if err != nil {
			results = append(results, domain.DeleteResult{ID: id, Success: false, Errors: []domain.SaveError{toSaveError(err)}})
			continue
		}
		results = append(results, domain.DeleteResult{ID: id, Success: true, Errors: []domain.SaveError{}})
	}
	return results, nil
}

// rolledBackResults marks every record of a failed all-or-none batch: the
// offending records carry their own errors, the rest the rollback code.
func rolledBackResults(errs []error) []domain.SaveResult {
	results := make([]domain.SaveResult, len(errs))
	for i, err := range errs {
		results[i] = domain.SaveResult{Success: false, Errors: rolledBackErrors(err)}
	}
	return results
}

func rolledBackErrors(err error) []domain.SaveError {
	if err != nil {
		return []domain.SaveError{toSaveError(err)}
	}
	return []domain.SaveError{{
		Message:    "The transaction was rolled back since another operation in the same transaction failed.",
		StatusCode: StatusAllOrNoneRollback,
		Fields:     []string{},
	}}
}

// toSaveError converts a store error into its wire representation.
func toSaveError(err error) domain.SaveError {
	var dmlErr *DMLError
	if errors.As(err, &dmlErr) {
		fields := dmlErr.Fields
		if fields == nil {
			fields = []string{}
		}
		return domain.SaveError{Message: dmlErr.Message, StatusCode: dmlErr.StatusCode, Fields: fields}
	}
	if errors.Is(err, ErrNotFound) {
		return domain.SaveError{Message: err.Error(), StatusCode: StatusNotFound, Fields: []string{}}
	}
	return domain.SaveError{Message: err.Error(), StatusCode: "UNKNOWN_EXCEPTION", Fields: []string{}}
}

// getWithAllFields retrieves a record with every stored field (used by
// Insert, Update and the upserts where the caller gets everything back).
func (s *SQLiteRecordStore) getWithAllFields(ctx context.Context, name, id string) (*domain.Record, error) {
	var rec domain.Record
	var num int64
	err := s.db.QueryRowContext(ctx,
		`SELECT num, id, is_deleted, created_at, updated_at FROM records WHERE id = ? AND sobject_type = ?`,
		id, name,
	).Scan(&num, &rec.ID, &rec.IsDeleted, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, ErrNotFound)
	}
	rec.Attributes = domain.Attributes{Type: name}

	rec.Fields, err = s.getFields(ctx, num, nil)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// setFields upserts field values and records history.
func (s *SQLiteRecordStore) setFields(ctx context.Context, num int64, fields map[string]string, ts string) error {
	for name, value := range fields {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO field_values (record_num, field_name, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(record_num, field_name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			num, name, value, ts,
		)
		if err != nil {
			return fmt.Errorf("set field %s: %w", name, err)
		}

		_, err = s.db.ExecContext(ctx,
			`INSERT INTO field_history (record_num, field_name, value, changed_at) VALUES (?, ?, ?, ?)`,
			num, name, value, ts,
		)
		if err != nil {
			return fmt.Errorf("record field history %s: %w", name, err)
		}
	}
	return nil
}

// getFields fetches field values for a record. A nil or empty slice returns
// every stored field; otherwise the requested fields plus defaults.
func (s *SQLiteRecordStore) getFields(ctx context.Context, num int64, fields []string) (map[string]string, error) {
	var rows *sql.Rows
	var err error

	if len(fields) == 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT field_name, value FROM field_values WHERE record_num = ?`, num,
		)
	} else {
		wanted := make(map[string]bool)
		for _, f := range defaultFields {
			wanted[f] = true
		}
		for _, f := range fields {
			wanted[f] = true
		}

		placeholders := make([]string, 0, len(wanted))
		args := make([]any, 0, len(wanted)+1)
		args = append(args, num)
		for f := range wanted {
			placeholders = append(placeholders, "?")
			args = append(args, f)
		}
		rows, err = s.db.QueryContext(ctx,
			`SELECT field_name, value FROM field_values WHERE record_num = ? AND field_name COLLATE NOCASE IN (`+strings.Join(placeholders, ",")+`)`,
			args...,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("get fields: %w", err)
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
