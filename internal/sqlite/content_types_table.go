package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

const upsertContentTypeSQL = `INSERT INTO content_types (content_type_id, name, display_field) VALUES (?, ?, ?)
ON CONFLICT(content_type_id) DO UPDATE SET name = excluded.name, display_field = excluded.display_field`

// GetContentType retrieves content type metadata by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if it does not exist.
func (b *Backend) GetContentType(id string) (*types.ContentType, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkAttached(); err != nil {
		return nil, err
	}

	ct := &types.ContentType{}
	err := b.db.QueryRow(
		"SELECT content_type_id, name, display_field FROM content_types WHERE content_type_id = ?", id,
	).Scan(&ct.ID, &ct.Name, &ct.DisplayField)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying content type: %w", err)
	}
	return ct, nil
}

// SetContentType creates or replaces a content type. An empty ID is replaced
// by a new UUID v7. Returns the ID used.
func (b *Backend) SetContentType(ct *types.ContentType) (string, error) {
	if err := ct.Validate(); err != nil {
		return "", err
	}
	saved := *ct
	if saved.ID == "" {
		saved.ID = newUUID()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAttached(); err != nil {
		return "", err
	}

	if _, err := b.db.Exec(upsertContentTypeSQL, saved.ID, saved.Name, saved.DisplayField); err != nil {
		return "", fmt.Errorf("saving content type: %w", err)
	}
	if err := b.persistContentTypes(); err != nil {
		return "", err
	}
	return saved.ID, nil
}

// FetchContentTypes returns every content type ordered by ID.
func (b *Backend) FetchContentTypes() ([]*types.ContentType, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	return b.queryContentTypes()
}

func (b *Backend) queryContentTypes() ([]*types.ContentType, error) {
	rows, err := b.db.Query("SELECT content_type_id, name, display_field FROM content_types ORDER BY content_type_id")
	if err != nil {
		return nil, fmt.Errorf("querying content types: %w", err)
	}
	defer rows.Close()

	var out []*types.ContentType
	for rows.Next() {
		ct := &types.ContentType{}
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.DisplayField); err != nil {
			return nil, fmt.Errorf("scanning content type: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// persistContentTypes rewrites content_types.jsonl from the table.
// The caller must hold b.mu write lock.
func (b *Backend) persistContentTypes() error {
	cts, err := b.queryContentTypes()
	if err != nil {
		return err
	}
	lines := make([]json.RawMessage, 0, len(cts))
	for _, ct := range cts {
		line, err := json.Marshal(ct)
		if err != nil {
			return fmt.Errorf("marshaling content type %s: %w", ct.ID, err)
		}
		lines = append(lines, line)
	}
	return writeJSONL(b.jsonlPath(contentTypesFile), lines)
}
