// This file implements JSONL loading for startup.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

// fieldValueLine is one line of field_values.jsonl.
type fieldValueLine struct {
	FieldID   string          `json:"field_id"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt string          `json:"updated_at"`
}

// loadAllJSONL reads each JSONL file from dataDir and inserts its lines into
// the matching SQLite table. Loading is transactional: all succeed or the
// database stays empty. Lines that do not describe a valid entity are skipped.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	loaders := []struct {
		file string
		load func(*sql.Tx, []json.RawMessage) error
	}{
		{contentTypesFile, loadContentTypes},
		{recordsFile, loadRecords},
		{fieldValuesFile, loadFieldValues},
	}
	for _, l := range loaders {
		lines, err := readJSONL(filepath.Join(dataDir, l.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", l.file, err)
		}
		if len(lines) == 0 {
			continue
		}
		if err := l.load(tx, lines); err != nil {
			return fmt.Errorf("loading %s: %w", l.file, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

func loadRecords(tx *sql.Tx, lines []json.RawMessage) error {
	for _, line := range lines {
		r, err := types.ParseRecord(line)
		if err != nil || r.ID() == "" {
			continue
		}
		if _, err := tx.Exec(upsertRecordSQL, r.ID(), r.ContentTypeID(), string(line)); err != nil {
			return fmt.Errorf("inserting record %s: %w", r.ID(), err)
		}
	}
	return nil
}

func loadContentTypes(tx *sql.Tx, lines []json.RawMessage) error {
	for _, line := range lines {
		var ct types.ContentType
		if err := json.Unmarshal(line, &ct); err != nil {
			continue
		}
		if ct.ID == "" || ct.Validate() != nil {
			continue
		}
		if _, err := tx.Exec(upsertContentTypeSQL, ct.ID, ct.Name, ct.DisplayField); err != nil {
			return fmt.Errorf("inserting content type %s: %w", ct.ID, err)
		}
	}
	return nil
}

func loadFieldValues(tx *sql.Tx, lines []json.RawMessage) error {
	for _, line := range lines {
		var fv fieldValueLine
		if err := json.Unmarshal(line, &fv); err != nil || fv.FieldID == "" {
			continue
		}
		value := []byte(fv.Value)
		if len(value) == 0 {
			value = []byte("null")
		}
		if err := validateValue(value); err != nil {
			continue
		}
		if _, err := tx.Exec(upsertFieldValueSQL, fv.FieldID, string(value), fv.UpdatedAt); err != nil {
			return fmt.Errorf("inserting field value %s: %w", fv.FieldID, err)
		}
	}
	return nil
}
