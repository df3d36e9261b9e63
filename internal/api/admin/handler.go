package admin

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sandforce/sandforce/internal/api"
	"github.com/sandforce/sandforce/internal/seed"
)

// Handler serves the sandbox admin API at /_sandforce/.
type Handler struct {
	db *sql.DB
}

// dataTableNames lists all data tables in foreign-key-safe deletion order.
var dataTableNames = []string{
	"field_history",
	"field_values",
	"records",
	"field_definitions",
	"sobject_types",
}

// Reset drops all data from all tables and re-runs seeds.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := ResetData(r.Context(), h.db); err != nil {
		api.WriteError(w, http.StatusInternalServerError,
			api.NewError(api.CodeUnknownException, err.Error()))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SeedData runs seed data without dropping existing data first.
func (h *Handler) SeedData(w http.ResponseWriter, r *http.Request) {
	if err := seed.Seed(r.Context(), h.db); err != nil {
		api.WriteError(w, http.StatusInternalServerError,
			api.NewError(api.CodeUnknownException, fmt.Sprintf("failed to seed: %s", err)))
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Health reports liveness and the served API version.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": api.APIVersion,
	})
}

// ResetData clears all data tables and re-seeds the standard sobject types.
// Exported for reuse by tests and other callers.
func ResetData(ctx context.Context, db *sql.DB) error {
	for _, table := range dataTableNames {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil { //nolint:gosec // table names are hardcoded constants
			return fmt.Errorf("clear table %s: %w", table, err)
		}
	}
	// Restart record numbering so key-prefixed IDs are deterministic again.
	if _, err := db.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'records'`); err != nil {
		return fmt.Errorf("reset record sequence: %w", err)
	}
	return seed.Seed(ctx, db)
}
