package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sandforce/sandforce/internal/database"
	"github.com/sandforce/sandforce/internal/domain"
	"github.com/sandforce/sandforce/internal/seed"
	"github.com/sandforce/sandforce/internal/store"
	"github.com/sandforce/sandforce/internal/testhelpers"
)

// Verify interface compliance at compile time.
var _ store.RecordStore = (*store.SQLiteRecordStore)(nil)

func setupStore(t *testing.T) *store.SQLiteRecordStore {
	t.Helper()
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := seed.Seed(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	return store.NewSQLiteRecordStore(db)
}

func TestInsertAndRetrieve(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, "Account", map[string]string{
		"Name":     "Edge Communications",
		"Industry": "Electronics",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if rec.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if !strings.HasPrefix(rec.ID, "001") {
		t.Errorf("expected Account key prefix 001, got %s", rec.ID)
	}
	if len(rec.ID) != 15 {
		t.Errorf("expected 15-char ID, got %d chars", len(rec.ID))
	}
	if rec.Fields["Name"] != "Edge Communications" {
		t.Errorf("expected Name=Edge Communications, got %s", rec.Fields["Name"])
	}
	if rec.Fields["Id"] != rec.ID {
		t.Errorf("expected Id field %s, got %s", rec.ID, rec.Fields["Id"])
	}

	// Retrieve with a narrowed field list.
	got, err := s.Retrieve(ctx, "Account", rec.ID, []string{"Name"})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if got.Fields["Name"] != "Edge Communications" {
		t.Errorf("expected Name in requested fields")
	}
	if _, ok := got.Fields["Industry"]; ok {
		t.Error("expected Industry NOT in narrowed fields")
	}

	// Retrieve with nil fields returns everything.
	got, err = s.Retrieve(ctx, "Account", rec.ID, nil)
	if err != nil {
		t.Fatalf("retrieve all: %v", err)
	}
	if got.Fields["Industry"] != "Electronics" {
		t.Errorf("expected Industry=Electronics, got %s", got.Fields["Industry"])
	}
}

func TestInsertCaseInsensitiveType(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, "account", map[string]string{"Name": "United Oil"})
	if err != nil {
		t.Fatalf("insert via lowercase type: %v", err)
	}
	if rec.Attributes.Type != "Account" {
		t.Errorf("expected canonical type Account, got %s", rec.Attributes.Type)
	}
}

func TestInsertUnknownType(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "Gizmo", map[string]string{"Name": "x"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertRequiredFieldMissing(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "Opportunity", map[string]string{"Name": "Big Deal"})
	var dmlErr *store.DMLError
	if !errors.As(err, &dmlErr) {
		t.Fatalf("expected DMLError, got %v", err)
	}
	if dmlErr.StatusCode != store.StatusRequiredFieldMissing {
		t.Errorf("StatusCode = %s, want %s", dmlErr.StatusCode, store.StatusRequiredFieldMissing)
	}
}

func TestInsertUnknownField(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "Account", map[string]string{"Name": "x", "Bogus": "y"})
	var dmlErr *store.DMLError
	if !errors.As(err, &dmlErr) {
		t.Fatalf("expected DMLError, got %v", err)
	}
	if dmlErr.StatusCode != store.StatusInvalidField {
		t.Errorf("StatusCode = %s, want %s", dmlErr.StatusCode, store.StatusInvalidField)
	}
}

func TestInsertSystemFieldRejected(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "Account", map[string]string{"Name": "x", "Id": "001000000000999"})
	var dmlErr *store.DMLError
	if !errors.As(err, &dmlErr) {
		t.Fatalf("expected DMLError, got %v", err)
	}
	if dmlErr.StatusCode != store.StatusInvalidFieldForWrite {
		t.Errorf("StatusCode = %s, want %s", dmlErr.StatusCode, store.StatusInvalidFieldForWrite)
	}
}

func TestInsertBadReference(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "Contact", map[string]string{
		"LastName":  "Forbes",
		"AccountId": "001999999999999",
	})
	var dmlErr *store.DMLError
	if !errors.As(err, &dmlErr) {
		t.Fatalf("expected DMLError, got %v", err)
	}
	if dmlErr.StatusCode != store.StatusInvalidCrossReference {
		t.Errorf("StatusCode = %s, want %s", dmlErr.StatusCode, store.StatusInvalidCrossReference)
	}
}

func TestInsertValidReference(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	account, err := s.Insert(ctx, "Account", map[string]string{"Name": "Grand Hotels"})
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}

	contact, err := s.Insert(ctx, "Contact", map[string]string{
		"FirstName": "Tim",
		"LastName":  "Barr",
		"AccountId": account.ID,
	})
	if err != nil {
		t.Fatalf("insert contact: %v", err)
	}
	if contact.Fields["AccountId"] != account.ID {
		t.Errorf("expected AccountId=%s, got %s", account.ID, contact.Fields["AccountId"])
	}
	if !strings.HasPrefix(contact.ID, "003") {
		t.Errorf("expected Contact key prefix 003, got %s", contact.ID)
	}
}

func TestRetrieveByField(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "Account", map[string]string{"Name": "Pyramid Construction", "Industry": "Construction"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.RetrieveByField(ctx, "Account", "Name", "Pyramid Construction", []string{"Industry"})
	if err != nil {
		t.Fatalf("retrieve by field: %v", err)
	}
	if got.Fields["Industry"] != "Construction" {
		t.Errorf("expected Industry=Construction, got %s", got.Fields["Industry"])
	}

	_, err = s.RetrieveByField(ctx, "Account", "Name", "No Such Account", nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, "Account", map[string]string{"Name": "Old Name", "Industry": "Banking"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	updated, err := s.Update(ctx, "Account", rec.ID, map[string]string{"Name": "New Name"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Fields["Name"] != "New Name" {
		t.Errorf("expected Name=New Name, got %s", updated.Fields["Name"])
	}
	if updated.Fields["Industry"] != "Banking" {
		t.Errorf("expected Industry unchanged, got %s", updated.Fields["Industry"])
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Update(ctx, "Account", "001000000000404", map[string]string{"Name": "x"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, "Lead", map[string]string{"LastName": "Bair", "Company": "Grand Hotels"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.Delete(ctx, "Lead", rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Retrieving a recycled record fails.
	_, err = s.Retrieve(ctx, "Lead", rec.ID, nil)
	var dmlErr *store.DMLError
	if !errors.As(err, &dmlErr) {
		t.Fatalf("expected DMLError, got %v", err)
	}
	if dmlErr.StatusCode != store.StatusEntityDeleted {
		t.Errorf("StatusCode = %s, want %s", dmlErr.StatusCode, store.StatusEntityDeleted)
	}

	// Double delete fails the same way.
	err = s.Delete(ctx, "Lead", rec.ID)
	if !errors.As(err, &dmlErr) {
		t.Fatalf("expected DMLError on double delete, got %v", err)
	}
}

func TestUpsertByIdInsertsAndUpdates(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// No ID: insert.
	rec, created, err := s.UpsertByField(ctx, "Account", "Id", "", map[string]string{"Name": "Dickenson"})
	if err != nil {
		t.Fatalf("upsert insert: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}

	// With ID: update.
	updated, created, err := s.UpsertByField(ctx, "Account", "Id", rec.ID, map[string]string{"Industry": "Consulting"})
	if err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	if created {
		t.Error("expected created=false")
	}
	if updated.ID != rec.ID {
		t.Errorf("expected same ID %s, got %s", rec.ID, updated.ID)
	}
	if updated.Fields["Industry"] != "Consulting" {
		t.Errorf("expected Industry=Consulting, got %s", updated.Fields["Industry"])
	}
}

func TestUpsertByExternalID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// First upsert creates.
	rec, created, err := s.UpsertByField(ctx, "Account", "AccountNumber", "CD-355118", map[string]string{"Name": "Express Logistics"})
	if err != nil {
		t.Fatalf("upsert create: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	if rec.Fields["AccountNumber"] != "CD-355118" {
		t.Errorf("expected AccountNumber stored, got %s", rec.Fields["AccountNumber"])
	}

	// Second upsert on the same key updates in place.
	again, created, err := s.UpsertByField(ctx, "Account", "AccountNumber", "CD-355118", map[string]string{"Industry": "Transportation"})
	if err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	if created {
		t.Error("expected created=false")
	}
	if again.ID != rec.ID {
		t.Errorf("expected same record, got %s and %s", rec.ID, again.ID)
	}
}

func TestUpsertByNonExternalFieldRejected(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, _, err := s.UpsertByField(ctx, "Account", "Name", "Acme", map[string]string{"Industry": "Retail"})
	var dmlErr *store.DMLError
	if !errors.As(err, &dmlErr) {
		t.Fatalf("expected DMLError, got %v", err)
	}
	if dmlErr.StatusCode != store.StatusInvalidExternalIDField {
		t.Errorf("StatusCode = %s, want %s", dmlErr.StatusCode, store.StatusInvalidExternalIDField)
	}
}

func TestInsertAll(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	inputs := []domain.InsertInput{
		{Fields: map[string]string{"LastName": "Dunn", "Company": "Green Energy"}},
		{Fields: map[string]string{"LastName": "Piper", "Company": "Universal Containers"}},
	}

	results, err := s.InsertAll(ctx, "Lead", inputs, false)
	if err != nil {
		t.Fatalf("insert all: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, res := range results {
		if !res.Success {
			t.Errorf("result %d: expected success, got %+v", i, res.Errors)
		}
		if res.ID == "" {
			t.Errorf("result %d: expected ID", i)
		}
	}
}

func TestInsertAllPartialFailure(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	inputs := []domain.InsertInput{
		{Fields: map[string]string{"LastName": "Good", "Company": "Acme"}},
		{Fields: map[string]string{"LastName": "Bad"}}, // missing Company
	}

	results, err := s.InsertAll(ctx, "Lead", inputs, false)
	if err != nil {
		t.Fatalf("insert all: %v", err)
	}
	if !results[0].Success {
		t.Errorf("result 0: expected success, got %+v", results[0].Errors)
	}
	if results[1].Success {
		t.Error("result 1: expected failure")
	}
	if results[1].Errors[0].StatusCode != store.StatusRequiredFieldMissing {
		t.Errorf("result 1: StatusCode = %s", results[1].Errors[0].StatusCode)
	}
}

func TestInsertAllAllOrNone(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	inputs := []domain.InsertInput{
		{Fields: map[string]string{"LastName": "Good", "Company": "Acme"}},
		{Fields: map[string]string{"LastName": "Bad"}}, // missing Company
	}

	results, err := s.InsertAll(ctx, "Lead", inputs, true)
	if err != nil {
		t.Fatalf("insert all: %v", err)
	}
	if results[0].Success || results[1].Success {
		t.Error("expected both records to fail under allOrNone")
	}
	if results[0].Errors[0].StatusCode != store.StatusAllOrNoneRollback {
		t.Errorf("result 0: StatusCode = %s, want rollback", results[0].Errors[0].StatusCode)
	}
	if results[1].Errors[0].StatusCode != store.StatusRequiredFieldMissing {
		t.Errorf("result 1: StatusCode = %s", results[1].Errors[0].StatusCode)
	}

	// Nothing was written.
	_, err = s.RetrieveByField(ctx, "Lead", "LastName", "Good", nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no Lead written, got %v", err)
	}
}

func TestUpdateAll(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	a, _ := s.Insert(ctx, "Account", map[string]string{"Name": "A1"})
	b, _ := s.Insert(ctx, "Account", map[string]string{"Name": "B1"})

	results, err := s.UpdateAll(ctx, "Account", []domain.UpdateInput{
		{ID: a.ID, Fields: map[string]string{"Name": "A2"}},
		{ID: b.ID, Fields: map[string]string{"Name": "B2"}},
	}, false)
	if err != nil {
		t.Fatalf("update all: %v", err)
	}
	for i, res := range results {
		if !res.Success {
			t.Errorf("result %d: expected success, got %+v", i, res.Errors)
		}
	}

	got, _ := s.Retrieve(ctx, "Account", b.ID, []string{"Name"})
	if got.Fields["Name"] != "B2" {
		t.Errorf("expected Name=B2, got %s", got.Fields["Name"])
	}
}

func TestUpsertAllMixed(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	existing, _ := s.Insert(ctx, "Account", map[string]string{"Name": "Existing"})

	results, err := s.UpsertAll(ctx, "Account", "Id", []domain.UpsertInput{
		{ID: existing.ID, Fields: map[string]string{"Industry": "Banking"}},
		{Fields: map[string]string{"Name": "Brand New"}},
	}, false)
	if err != nil {
		t.Fatalf("upsert all: %v", err)
	}
	if results[0].Created {
		t.Error("result 0: expected update, not create")
	}
	if !results[1].Created {
		t.Error("result 1: expected create")
	}
	if results[1].ID == "" {
		t.Error("result 1: expected new ID")
	}
}

func TestDeleteAll(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	lead, _ := s.Insert(ctx, "Lead", map[string]string{"LastName": "Gone", "Company": "Acme"})
	account, _ := s.Insert(ctx, "Account", map[string]string{"Name": "Gone Too"})

	// Mixed types in one call: each ID resolves by key prefix.
	results, err := s.DeleteAll(ctx, []string{lead.ID, account.ID, "001000000000404"}, false)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if !results[0].Success || !results[1].Success {
		t.Error("expected first two deletes to succeed")
	}
	if results[2].Success {
		t.Error("expected missing record delete to fail")
	}
	if results[2].Errors[0].StatusCode != store.StatusNotFound {
		t.Errorf("StatusCode = %s, want %s", results[2].Errors[0].StatusCode, store.StatusNotFound)
	}
}

func TestDeleteAllMalformedID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	results, err := s.DeleteAll(ctx, []string{"nonsense"}, false)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if results[0].Success {
		t.Error("expected failure for malformed id")
	}
	if results[0].Errors[0].StatusCode != store.StatusMalformedID {
		t.Errorf("StatusCode = %s, want %s", results[0].Errors[0].StatusCode, store.StatusMalformedID)
	}
}

func TestFieldHistoryRecorded(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := seed.Seed(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := store.NewSQLiteRecordStore(db)

	rec, err := s.Insert(ctx, "Account", map[string]string{"Name": "First"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Update(ctx, "Account", rec.ID, map[string]string{"Name": "Second"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	var count int
	err = db.QueryRow(
		`SELECT COUNT(*) FROM field_history h JOIN records r ON r.num = h.record_num WHERE r.id = ? AND h.field_name = 'Name'`,
		rec.ID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("query history: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 history rows for Name, got %d", count)
	}
}
