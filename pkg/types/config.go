package types

import "errors"

// Config holds backend selection and the field binding used by the local host.
type Config struct {
	Backend       string `json:"backend" yaml:"backend"`
	DataDir       string `json:"data_dir" yaml:"data_dir"`
	FieldID       string `json:"field_id" yaml:"field_id"`
	DefaultLocale string `json:"default_locale" yaml:"default_locale"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults applied by the CLI when the config file leaves a key out.
const (
	DefaultFieldID = "link"
	DefaultLocale  = "en-US"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrFieldIDEmpty   = errors.New("field id must not be empty")
	ErrLocaleEmpty    = errors.New("default locale must not be empty")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.FieldID == "" {
		return ErrFieldIDEmpty
	}
	if c.DefaultLocale == "" {
		return ErrLocaleEmpty
	}
	return nil
}
