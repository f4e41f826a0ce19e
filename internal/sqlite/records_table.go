package sqlite

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

const upsertRecordSQL = `INSERT INTO records (record_id, content_type_id, data) VALUES (?, ?, ?)
ON CONFLICT(record_id) DO UPDATE SET content_type_id = excluded.content_type_id, data = excluded.data`

// GetRecord retrieves a record by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if no record has that ID.
func (b *Backend) GetRecord(id string) (*types.Record, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkAttached(); err != nil {
		return nil, err
	}

	var data string
	err := b.db.QueryRow("SELECT data FROM records WHERE record_id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}
	return types.ParseRecord([]byte(data))
}

// SetRecord creates or replaces a record. A record without sys.id gets a new
// UUID v7. Returns the ID used.
func (b *Backend) SetRecord(r *types.Record) (string, error) {
	if r == nil || r.ContentTypeID() == "" {
		return "", types.ErrInvalidRecord
	}
	id := r.ID()
	if id == "" {
		var err error
		id = newUUID()
		if r, err = r.WithID(id); err != nil {
			return "", err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAttached(); err != nil {
		return "", err
	}

	if _, err := b.db.Exec(upsertRecordSQL, id, r.ContentTypeID(), string(r.Bytes())); err != nil {
		return "", fmt.Errorf("saving record: %w", err)
	}
	if err := b.persistRecords(); err != nil {
		return "", err
	}
	return id, nil
}

// DeleteRecord removes a record. Returns ErrNotFound if it does not exist.
func (b *Backend) DeleteRecord(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAttached(); err != nil {
		return err
	}

	res, err := b.db.Exec("DELETE FROM records WHERE record_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	return b.persistRecords()
}

// FetchRecords returns the records of contentTypeID ordered by ID, or every
// record when contentTypeID is empty.
func (b *Backend) FetchRecords(contentTypeID string) ([]*types.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkAttached(); err != nil {
		return nil, err
	}

	query := "SELECT data FROM records ORDER BY record_id"
	var args []any
	if contentTypeID != "" {
		query = "SELECT data FROM records WHERE content_type_id = ? ORDER BY record_id"
		args = append(args, contentTypeID)
	}
	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []*types.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r, err := types.ParseRecord([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// persistRecords rewrites records.jsonl from the table.
// The caller must hold b.mu write lock.
func (b *Backend) persistRecords() error {
	rows, err := b.db.Query("SELECT data FROM records ORDER BY record_id")
	if err != nil {
		return fmt.Errorf("querying records for persist: %w", err)
	}
	defer rows.Close()

	var lines []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("scanning record for persist: %w", err)
		}
		// One record per line, whatever the layout it was stored with.
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(data)); err != nil {
			return fmt.Errorf("compacting record for persist: %w", err)
		}
		lines = append(lines, json.RawMessage(buf.Bytes()))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(b.jsonlPath(recordsFile), lines)
}
