package sqlite

// Schema DDL for all tables.
const (
	createRecords = `CREATE TABLE records (
    record_id TEXT PRIMARY KEY,
    content_type_id TEXT NOT NULL,
    data TEXT NOT NULL
);`

	createContentTypes = `CREATE TABLE content_types (
    content_type_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    display_field TEXT NOT NULL
);`

	createFieldValues = `CREATE TABLE field_values (
    field_id TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxRecordsContentType = `CREATE INDEX idx_records_content_type ON records(content_type_id);`
)

// schemaDDL lists all statements in execution order.
var schemaDDL = []string{
	createRecords,
	createContentTypes,
	createFieldValues,
	idxRecordsContentType,
}

// JSONL files backing each table.
const (
	recordsFile      = "records.jsonl"
	contentTypesFile = "content_types.jsonl"
	fieldValuesFile  = "field_values.jsonl"
)
