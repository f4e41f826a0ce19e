package field

import (
	"context"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

// Host is the capability surface the editing environment offers the field.
type Host interface {
	// Value returns the persisted value, nil when unset.
	Value(ctx context.Context) (*types.FieldValue, error)

	// SetValue replaces the persisted value. nil clears it.
	SetValue(ctx context.Context, v *types.FieldValue) error

	// OnValueChanged registers fn for changes to the persisted value and
	// returns a function that removes the registration.
	OnValueChanged(fn func(*types.FieldValue)) (unsubscribe func())

	// SetInvalid reports the field-invalid flag.
	SetInvalid(invalid bool)

	// SelectSingleRecord opens the record chooser. A nil Record with a nil
	// error means the chooser was dismissed.
	SelectSingleRecord(ctx context.Context) (*types.Record, error)

	// ContentType looks up metadata for a content type ID.
	ContentType(ctx context.Context, id string) (*types.ContentType, error)

	// DefaultLocale is the locale used to read a Record's display field.
	DefaultLocale() string

	// RequestAutoResize asks the host to fit its container to the content.
	RequestAutoResize()
}
