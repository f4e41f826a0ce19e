package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/mesh-intelligence/linkfield/internal/field"
	"github.com/mesh-intelligence/linkfield/internal/host"
	"github.com/mesh-intelligence/linkfield/internal/sqlite"
	"github.com/mesh-intelligence/linkfield/pkg/types"
)

// attachBackend resolves the configuration and attaches a SQLite backend.
// The caller must Detach it.
func (a *app) attachBackend() (*sqlite.Backend, types.Config, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, cfg, err
	}
	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, cfg, sysError(fmt.Errorf("attach backend: %w", err))
	}
	return backend, cfg, nil
}

// fieldSession is an initialized controller for the configured field.
type fieldSession struct {
	fieldID string
	backend *sqlite.Backend
	host    *host.Local
	ctrl    *field.Controller
}

// openField attaches the backend and initializes a controller on a local
// host for the configured field. chooser may be nil.
func (a *app) openField(ctx context.Context, chooser host.Chooser) (*fieldSession, error) {
	backend, cfg, err := a.attachBackend()
	if err != nil {
		return nil, err
	}

	opts := []host.Option{host.WithLogger(a.logger)}
	if chooser != nil {
		opts = append(opts, host.WithChooser(chooser))
	}
	h := host.New(backend, cfg, opts...)
	ctrl := field.New(h, field.WithLogger(a.logger))
	if err := ctrl.Initialize(ctx); err != nil {
		backend.Detach()
		return nil, sysError(fmt.Errorf("initialize field %q: %w", cfg.FieldID, err))
	}
	return &fieldSession{fieldID: cfg.FieldID, backend: backend, host: h, ctrl: ctrl}, nil
}

// settle waits for summary resolution to finish.
func (s *fieldSession) settle() {
	s.ctrl.Wait()
}

func (s *fieldSession) close() error {
	s.ctrl.Wait()
	s.ctrl.Dispose()
	return s.backend.Detach()
}

// fieldOutput is the JSON form of a field's state.
type fieldOutput struct {
	Field string            `json:"field"`
	Value *types.FieldValue `json:"value"`
	View  field.View        `json:"view"`
}

// printField writes the settled state of the field.
func (a *app) printField(w io.Writer, s *fieldSession) error {
	s.settle()
	view := s.ctrl.View()
	if a.flags.jsonMode {
		return writeJSON(w, fieldOutput{Field: s.fieldID, Value: s.ctrl.Value(), View: view})
	}
	renderView(w, s.fieldID, view)
	return nil
}

// renderView prints the controls the field shows for view.
func renderView(w io.Writer, fieldID string, view field.View) {
	fmt.Fprintf(w, "field:   %s\n", fieldID)
	switch view.Selected {
	case types.LinkTypeInternal:
		fmt.Fprintln(w, "type:    internal")
		switch {
		case view.ShowChooseRecord:
			fmt.Fprintln(w, "record:  (none chosen; run `linkfield choose`)")
		case view.Loading:
			fmt.Fprintln(w, "record:  loading...")
		case view.Summary != nil:
			fmt.Fprintf(w, "record:  %s\n", view.Summary)
		}
	case types.LinkTypeExternal:
		fmt.Fprintln(w, "type:    external")
		if view.URLError {
			fmt.Fprintln(w, "url:     (empty)")
		} else {
			fmt.Fprintf(w, "url:     %s\n", view.URL)
		}
	default:
		fmt.Fprintln(w, "type:    (not set)")
	}
	if view.Invalid {
		fmt.Fprintln(w, "status:  invalid")
	} else {
		fmt.Fprintln(w, "status:  ok")
	}
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// storeError classifies a store error: missing or malformed input is the
// user's, anything else is a system error.
func storeError(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidRecord),
		errors.Is(err, types.ErrInvalidContentType),
		errors.Is(err, types.ErrInvalidValue),
		errors.Is(err, types.ErrInvalidLinkType):
		return userError(err)
	default:
		return sysError(err)
	}
}
