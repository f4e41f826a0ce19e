package types

import "errors"

// Store is the local host's backend-agnostic storage for records, content
// types, and persisted field values. Callers attach to a backend, use it, and
// detach when done.
type Store interface {
	// Attach connects the Store to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	GetRecord(id string) (*Record, error)
	SetRecord(r *Record) (string, error)
	DeleteRecord(id string) error
	// FetchRecords returns records of contentTypeID, or all when it is "".
	FetchRecords(contentTypeID string) ([]*Record, error)

	GetContentType(id string) (*ContentType, error)
	SetContentType(ct *ContentType) (string, error)
	FetchContentTypes() ([]*ContentType, error)

	// GetFieldValue returns the persisted value of fieldID, nil when unset.
	GetFieldValue(fieldID string) (*FieldValue, error)
	// SetFieldValue replaces the value of fieldID and notifies subscribers.
	SetFieldValue(fieldID string, v *FieldValue) error
	// Subscribe calls fn after every SetFieldValue on fieldID.
	Subscribe(fieldID string, fn func(*FieldValue)) (unsubscribe func())
}

// Store lifecycle errors.
var (
	ErrDetached        = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrInvalidID       = errors.New("invalid entity ID")
)
