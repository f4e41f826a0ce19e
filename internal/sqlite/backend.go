// Package sqlite implements the SQLite storage backend for the local link
// field host. SQLite is the query engine; JSONL files in the data directory
// are the source of truth and are rewritten after every change.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

// dbFileName is the SQLite file created inside the data directory.
const dbFileName = "linkfield.db"

// Backend implements types.Store using SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	subMu   sync.Mutex
	subs    map[string]map[int]func(*types.FieldValue)
	nextSub int
}

var _ types.Store = (*Backend)(nil)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		subs: make(map[string]map[int]func(*types.FieldValue)),
	}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, rebuilds the SQLite schema, and loads
// the JSONL files. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// The database is rebuilt from JSONL on every attach.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}

	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	config.DataDir = dataDir
	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the SQLite connection. After Detach, all operations return
// ErrDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	return nil
}

// Subscribe registers fn for changes to fieldID and returns a function that
// removes the registration. Subscriptions survive Detach.
func (b *Backend) Subscribe(fieldID string, fn func(*types.FieldValue)) func() {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	id := b.nextSub
	b.nextSub++
	if b.subs[fieldID] == nil {
		b.subs[fieldID] = make(map[int]func(*types.FieldValue))
	}
	b.subs[fieldID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			defer b.subMu.Unlock()
			delete(b.subs[fieldID], id)
			if len(b.subs[fieldID]) == 0 {
				delete(b.subs, fieldID)
			}
		})
	}
}

// notify calls every subscriber of fieldID. The caller must not hold b.mu.
func (b *Backend) notify(fieldID string, v *types.FieldValue) {
	b.subMu.Lock()
	fns := make([]func(*types.FieldValue), 0, len(b.subs[fieldID]))
	for _, fn := range b.subs[fieldID] {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// checkAttached returns ErrDetached when the backend is not attached.
// The caller must hold b.mu.
func (b *Backend) checkAttached() error {
	if !b.attached {
		return types.ErrDetached
	}
	return nil
}

func (b *Backend) jsonlPath(name string) string {
	return filepath.Join(b.config.DataDir, name)
}

// newUUID generates a UUID v7 string for entity IDs.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
