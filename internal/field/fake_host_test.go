package field

import (
	"context"
	"errors"
	"sync"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

// fakeHost is an in-memory Host that records every call made on it.
type fakeHost struct {
	mu sync.Mutex

	value        *types.FieldValue
	writes       []*types.FieldValue
	invalidCalls []bool
	resizes      int
	subs         map[int]func(*types.FieldValue)
	nextSub      int
	unsubscribed int

	// echo makes SetValue notify subscribers, as hosts that report their own
	// writes do.
	echo bool

	chooseRecord *types.Record
	chooseErr    error
	chooseCalls  int

	contentTypes map[string]*types.ContentType
	lookupErr    error
	lookups      int
	// gates blocks ContentType for an ID until the channel is closed.
	gates map[string]chan struct{}

	setErr error
	locale string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		subs:   make(map[int]func(*types.FieldValue)),
		gates:  make(map[string]chan struct{}),
		locale: "en-US",
		contentTypes: map[string]*types.ContentType{
			"article": {ID: "article", Name: "Article", DisplayField: "title"},
			"page":    {ID: "page", Name: "Page", DisplayField: "heading"},
		},
	}
}

func (h *fakeHost) Value(ctx context.Context) (*types.FieldValue, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value, nil
}

func (h *fakeHost) SetValue(ctx context.Context, v *types.FieldValue) error {
	h.mu.Lock()
	if h.setErr != nil {
		h.mu.Unlock()
		return h.setErr
	}
	h.value = v
	h.writes = append(h.writes, v)
	echo := h.echo
	h.mu.Unlock()

	if echo {
		h.notify(v)
	}
	return nil
}

func (h *fakeHost) OnValueChanged(fn func(*types.FieldValue)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			h.unsubscribed++
		}
	}
}

// Change simulates a value change made by another writer.
func (h *fakeHost) Change(v *types.FieldValue) {
	h.mu.Lock()
	h.value = v
	h.mu.Unlock()
	h.notify(v)
}

func (h *fakeHost) notify(v *types.FieldValue) {
	h.mu.Lock()
	fns := make([]func(*types.FieldValue), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

func (h *fakeHost) SetInvalid(invalid bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.invalidCalls = append(h.invalidCalls, invalid)
}

func (h *fakeHost) SelectSingleRecord(ctx context.Context) (*types.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chooseCalls++
	return h.chooseRecord, h.chooseErr
}

func (h *fakeHost) ContentType(ctx context.Context, id string) (*types.ContentType, error) {
	h.mu.Lock()
	gate := h.gates[id]
	h.mu.Unlock()
	if gate != nil {
		<-gate
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lookups++
	if h.lookupErr != nil {
		return nil, h.lookupErr
	}
	ct, ok := h.contentTypes[id]
	if !ok {
		return nil, errors.New("content type not found")
	}
	return ct, nil
}

func (h *fakeHost) DefaultLocale() string { return h.locale }

func (h *fakeHost) RequestAutoResize() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resizes++
}

func (h *fakeHost) writeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.writes)
}

func (h *fakeHost) lastInvalid() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.invalidCalls) == 0 {
		return false
	}
	return h.invalidCalls[len(h.invalidCalls)-1]
}

func (h *fakeHost) gate(contentTypeID string) chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan struct{})
	h.gates[contentTypeID] = ch
	return ch
}
