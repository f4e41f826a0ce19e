// Package host provides a local implementation of the link field's host
// environment, backed by a types.Store.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/linkfield/internal/field"
	"github.com/mesh-intelligence/linkfield/pkg/types"
)

// Candidate is a record offered by the chooser together with its summary.
type Candidate struct {
	Record  *types.Record
	Summary *types.DisplaySummary
}

// Chooser picks one record out of the candidates. Returning a nil record with
// a nil error means the choice was dismissed.
type Chooser interface {
	Choose(ctx context.Context, candidates []Candidate) (*types.Record, error)
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(ctx context.Context, candidates []Candidate) (*types.Record, error)

// Choose calls f.
func (f ChooserFunc) Choose(ctx context.Context, candidates []Candidate) (*types.Record, error) {
	return f(ctx, candidates)
}

// Option configures a Local host.
type Option func(*Local)

// WithChooser sets the record chooser. Without one every choice is dismissed.
func WithChooser(c Chooser) Option {
	return func(l *Local) { l.chooser = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Local) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Local is a field.Host for one field stored in a types.Store.
type Local struct {
	store   types.Store
	fieldID string
	locale  string
	chooser Chooser
	logger  *slog.Logger

	mu      sync.Mutex
	invalid bool
	resizes int
}

var _ field.Host = (*Local)(nil)

// New creates a host for cfg.FieldID in store, reading display fields in
// cfg.DefaultLocale.
func New(store types.Store, cfg types.Config, opts ...Option) *Local {
	l := &Local{
		store:   store,
		fieldID: cfg.FieldID,
		locale:  cfg.DefaultLocale,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("field", l.fieldID)
	return l
}

// Value returns the stored value of the field.
func (l *Local) Value(ctx context.Context) (*types.FieldValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.store.GetFieldValue(l.fieldID)
}

// SetValue stores v as the field value.
func (l *Local) SetValue(ctx context.Context, v *types.FieldValue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.store.SetFieldValue(l.fieldID, v); err != nil {
		return err
	}
	l.logger.Info("field value written", "link_type", v.Kind(), "target", v.TargetID())
	return nil
}

// OnValueChanged subscribes fn to changes of the field in the store.
func (l *Local) OnValueChanged(fn func(*types.FieldValue)) func() {
	return l.store.Subscribe(l.fieldID, fn)
}

// SetInvalid records the field-invalid flag.
func (l *Local) SetInvalid(invalid bool) {
	l.mu.Lock()
	changed := l.invalid != invalid
	l.invalid = invalid
	l.mu.Unlock()

	if changed {
		l.logger.Debug("field validity changed", "invalid", invalid)
	}
}

// Invalid returns the last flag passed to SetInvalid.
func (l *Local) Invalid() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.invalid
}

// SelectSingleRecord offers every stored record to the chooser.
func (l *Local) SelectSingleRecord(ctx context.Context) (*types.Record, error) {
	if l.chooser == nil {
		return nil, nil
	}
	candidates, err := l.Candidates(ctx)
	if err != nil {
		return nil, err
	}
	return l.chooser.Choose(ctx, candidates)
}

// Candidates lists the stored records with their display summaries.
func (l *Local) Candidates(ctx context.Context) ([]Candidate, error) {
	records, err := l.store.FetchRecords("")
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	cts := make(map[string]*types.ContentType)
	out := make([]Candidate, 0, len(records))
	for _, r := range records {
		id := r.ContentTypeID()
		ct, ok := cts[id]
		if !ok {
			ct, _ = l.ContentType(ctx, id)
			cts[id] = ct
		}
		out = append(out, Candidate{Record: r, Summary: types.Summarize(r, ct, l.locale)})
	}
	return out, nil
}

// ContentType looks up content type metadata in the store.
func (l *Local) ContentType(ctx context.Context, id string) (*types.ContentType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.store.GetContentType(id)
}

// DefaultLocale returns the configured locale.
func (l *Local) DefaultLocale() string {
	return l.locale
}

// RequestAutoResize has no container to fit; it only counts requests.
func (l *Local) RequestAutoResize() {
	l.mu.Lock()
	l.resizes++
	l.mu.Unlock()
	l.logger.Debug("auto resize requested")
}

// Resizes returns how many times RequestAutoResize was called.
func (l *Local) Resizes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resizes
}
