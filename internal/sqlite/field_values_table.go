package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

const upsertFieldValueSQL = `INSERT INTO field_values (field_id, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(field_id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// GetFieldValue returns the persisted value of fieldID. A field that was never
// written, or was reset, returns nil.
func (b *Backend) GetFieldValue(fieldID string) (*types.FieldValue, error) {
	if fieldID == "" {
		return nil, types.ErrInvalidID
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkAttached(); err != nil {
		return nil, err
	}

	var data string
	err := b.db.QueryRow("SELECT value FROM field_values WHERE field_id = ?", fieldID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying field value: %w", err)
	}
	return types.DecodeValue([]byte(data))
}

// SetFieldValue replaces the value of fieldID after checking it against the
// value schema, then notifies the field's subscribers.
func (b *Backend) SetFieldValue(fieldID string, v *types.FieldValue) error {
	if fieldID == "" {
		return types.ErrInvalidID
	}
	data, err := types.EncodeValue(v)
	if err != nil {
		return err
	}
	if err := validateValue(data); err != nil {
		return err
	}

	if err := b.saveFieldValue(fieldID, data); err != nil {
		return err
	}
	b.notify(fieldID, v)
	return nil
}

func (b *Backend) saveFieldValue(fieldID string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAttached(); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := b.db.Exec(upsertFieldValueSQL, fieldID, string(data), now); err != nil {
		return fmt.Errorf("saving field value: %w", err)
	}
	return b.persistFieldValues()
}

// persistFieldValues rewrites field_values.jsonl from the table.
// The caller must hold b.mu write lock.
func (b *Backend) persistFieldValues() error {
	rows, err := b.db.Query("SELECT field_id, value, updated_at FROM field_values ORDER BY field_id")
	if err != nil {
		return fmt.Errorf("querying field values for persist: %w", err)
	}
	defer rows.Close()

	var lines []json.RawMessage
	for rows.Next() {
		var fieldID, value, updatedAt string
		if err := rows.Scan(&fieldID, &value, &updatedAt); err != nil {
			return fmt.Errorf("scanning field value for persist: %w", err)
		}
		line, err := json.Marshal(fieldValueLine{
			FieldID:   fieldID,
			Value:     json.RawMessage(value),
			UpdatedAt: updatedAt,
		})
		if err != nil {
			return fmt.Errorf("marshaling field value %s: %w", fieldID, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(b.jsonlPath(fieldValuesFile), lines)
}
