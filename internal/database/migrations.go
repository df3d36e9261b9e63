package database

// migrations is an ordered list of SQL migration groups. Each entry is a slice
// of SQL statements that are executed together in a single transaction. The
// version number is the 1-based index into this slice.
var migrations = [][]string{
	// Migration 1: all core tables
	{
		`CREATE TABLE sobject_types (
			key_prefix TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			label TEXT NOT NULL,
			label_plural TEXT NOT NULL,
			custom BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE field_definitions (
			sobject_type TEXT NOT NULL,
			name TEXT NOT NULL,
			label TEXT NOT NULL,
			type TEXT NOT NULL,
			required BOOLEAN NOT NULL DEFAULT FALSE,
			external_id BOOLEAN NOT NULL DEFAULT FALSE,
			reference_to TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (sobject_type, name),
			FOREIGN KEY (sobject_type) REFERENCES sobject_types(name)
		)`,

		`CREATE TABLE records (
			num INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE,
			sobject_type TEXT NOT NULL,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (sobject_type) REFERENCES sobject_types(name)
		)`,
		`CREATE INDEX idx_records_type ON records(sobject_type, is_deleted)`,
		`CREATE INDEX idx_records_id ON records(id)`,

		`CREATE TABLE field_values (
			record_num INTEGER NOT NULL,
			field_name TEXT NOT NULL,
			value TEXT,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (record_num, field_name),
			FOREIGN KEY (record_num) REFERENCES records(num)
		)`,
		`CREATE INDEX idx_field_values_value ON field_values(field_name, value)`,

		`CREATE TABLE field_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			record_num INTEGER NOT NULL,
			field_name TEXT NOT NULL,
			value TEXT,
			changed_at TEXT NOT NULL,
			FOREIGN KEY (record_num) REFERENCES records(num)
		)`,
		`CREATE INDEX idx_field_history ON field_history(record_num, field_name, changed_at)`,
	},
}
