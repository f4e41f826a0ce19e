// Package field implements the link field controller: the state machine that
// owns a link field's value, its validity flag, and the display summary of the
// linked record.
//
// All transitions go through the Host. The controller writes the new value,
// mirrors it locally, recomputes validity, and reports it back. Summary
// resolution runs asynchronously; each request is tagged with the target it
// was issued for and its result is dropped once the target has moved on.
package field

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for controller events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller drives one link field on top of a Host.
type Controller struct {
	host   Host
	logger *slog.Logger

	// opMu serializes user operations; mu guards the state below and is never
	// held across a Host call.
	opMu sync.Mutex
	mu   sync.Mutex

	value   *types.FieldValue
	summary *types.DisplaySummary
	invalid bool

	// generation advances whenever the summary slot is invalidated.
	// pending is the record whose summary is being resolved.
	generation uint64
	pending    *types.Record

	initialized bool
	disposed    bool
	unsubscribe func()
	baseCtx     context.Context

	resolvers conc.WaitGroup
}

// New creates a Controller for host. Call Initialize before any operation.
func New(host Host, opts ...Option) *Controller {
	c := &Controller{
		host:    host,
		logger:  slog.Default(),
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "linkfield")
	return c
}

// Initialize loads the persisted value, resolves its summary when it links a
// record, subscribes to host-driven changes, and asks the host to resize.
// Returns ErrAlreadyInitialized on a second call.
func (c *Controller) Initialize(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	switch {
	case c.disposed:
		c.mu.Unlock()
		return ErrDisposed
	case c.initialized:
		c.mu.Unlock()
		return ErrAlreadyInitialized
	}
	c.baseCtx = context.WithoutCancel(ctx)
	c.mu.Unlock()

	v, err := c.host.Value(ctx)
	if err != nil {
		return fmt.Errorf("read field value: %w", err)
	}

	c.mu.Lock()
	t := c.applyLocked(v)
	c.initialized = true
	c.mu.Unlock()

	unsubscribe := c.host.OnValueChanged(c.handleExternalChange)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	c.finish(t)
	c.host.RequestAutoResize()
	c.logger.Debug("field initialized", "link_type", v.Kind(), "target", v.TargetID())
	return nil
}

// SelectLinkType switches the field to kind with an empty payload, discarding
// whatever the previous variant held. Returns types.ErrInvalidLinkType for an
// unknown kind.
func (c *Controller) SelectLinkType(ctx context.Context, kind types.LinkType) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.ready(); err != nil {
		return err
	}
	next, err := types.Empty(kind)
	if err != nil {
		return err
	}
	return c.commit(ctx, next)
}

// ChooseTarget opens the host's record chooser and links the selected record.
// Dismissing the chooser, or a chooser failure, leaves the field untouched.
func (c *Controller) ChooseTarget(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.ready(); err != nil {
		return err
	}
	rec, err := c.host.SelectSingleRecord(ctx)
	if err != nil {
		c.logger.Warn("record chooser failed", "error", err)
		return nil
	}
	if rec == nil {
		c.logger.Debug("record chooser dismissed")
		return nil
	}
	return c.commit(ctx, c.Value().WithTarget(rec))
}

// SetExternalURL stores url as the external link. Every edit is written; the
// empty string is kept as a legal not-yet-filled value.
func (c *Controller) SetExternalURL(ctx context.Context, url string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.ready(); err != nil {
		return err
	}
	return c.commit(ctx, c.Value().WithURL(url))
}

// Reset clears the field value and any cached summary.
func (c *Controller) Reset(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.ready(); err != nil {
		return err
	}
	return c.commit(ctx, nil)
}

// Dispose detaches the host subscription. Notifications and summary results
// arriving afterwards are ignored. Dispose is idempotent.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.generation++
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.logger.Debug("field disposed")
}

// Wait blocks until every in-flight summary resolution has finished.
func (c *Controller) Wait() {
	c.resolvers.Wait()
}

// Value returns the current field value, nil when unset.
func (c *Controller) Value() *types.FieldValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Summary returns a copy of the current display summary, nil when absent.
func (c *Controller) Summary() *types.DisplaySummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return nil
	}
	s := *c.summary
	return &s
}

// Invalid returns the validity flag last reported to the host.
func (c *Controller) Invalid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalid
}

func (c *Controller) ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return ErrDisposed
	}
	if !c.initialized {
		return ErrNotInitialized
	}
	return nil
}

// commit writes next to the host and mirrors it locally.
func (c *Controller) commit(ctx context.Context, next *types.FieldValue) error {
	if err := c.host.SetValue(ctx, next); err != nil {
		return fmt.Errorf("write field value: %w", err)
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	t := c.applyLocked(next)
	c.mu.Unlock()

	c.finish(t)
	return nil
}

func (c *Controller) handleExternalChange(v *types.FieldValue) {
	c.mu.Lock()
	if c.disposed || !c.initialized {
		c.mu.Unlock()
		return
	}
	t := c.applyLocked(v)
	c.mu.Unlock()

	c.logger.Debug("field changed by host", "link_type", v.Kind(), "target", v.TargetID())
	c.finish(t)
}

// transition carries the work left after a state change once mu is released.
type transition struct {
	invalid    bool
	resolve    *types.Record
	generation uint64
}

// applyLocked replaces the value verbatim and invalidates the summary when the
// target changed. Targets are compared by content, so records without an ID
// and records edited in place are both told apart. The caller must hold c.mu.
func (c *Controller) applyLocked(next *types.FieldValue) transition {
	prev := c.value.Target()
	c.value = next
	c.invalid = next.IsInvalid()
	t := transition{invalid: c.invalid}

	target := next.Target()
	if target == nil {
		if c.summary != nil || c.pending != nil {
			c.generation++
		}
		c.summary = nil
		c.pending = nil
		return t
	}

	if target.Same(prev) && (c.summary != nil || target.Same(c.pending)) {
		return t
	}
	c.generation++
	c.summary = nil
	c.pending = target
	t.resolve = target
	t.generation = c.generation
	return t
}

func (c *Controller) finish(t transition) {
	c.host.SetInvalid(t.invalid)
	if t.resolve != nil {
		c.resolveSummary(t.resolve, t.generation)
	}
}

// resolveSummary looks up target's content type in the background and stores
// the resulting summary if target is still the linked record.
func (c *Controller) resolveSummary(target *types.Record, generation uint64) {
	c.mu.Lock()
	ctx := c.baseCtx
	c.mu.Unlock()

	c.resolvers.Go(func() {
		var pc panics.Catcher
		pc.Try(func() {
			c.storeSummary(generation, target, c.lookupSummary(ctx, target))
		})
		if r := pc.Recovered(); r != nil {
			c.logger.Error("summary resolution panicked", "record", target.ID(), "panic", r.Value)
		}
	})
}

func (c *Controller) lookupSummary(ctx context.Context, target *types.Record) *types.DisplaySummary {
	ct, err := c.host.ContentType(ctx, target.ContentTypeID())
	if err != nil {
		c.logger.Debug("content type lookup failed",
			"record", target.ID(), "content_type", target.ContentTypeID(), "error", err)
		return nil
	}
	if ct == nil {
		return nil
	}
	return types.Summarize(target, ct, c.host.DefaultLocale())
}

func (c *Controller) storeSummary(generation uint64, target *types.Record, summary *types.DisplaySummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || generation != c.generation {
		c.logger.Debug("discarding stale summary", "generation", generation)
		return
	}
	c.pending = nil
	if summary == nil || !target.Same(c.value.Target()) {
		return
	}
	c.summary = summary
}
