// Package cli implements the linkfield command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkfield/internal/logging"
	"github.com/mesh-intelligence/linkfield/internal/paths"
	"github.com/mesh-intelligence/linkfield/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitErr carries the process exit code for an error returned by a command.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

func userError(err error) error { return &exitErr{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitErr{code: exitSysError, err: err} }

// exitCode maps an error returned by Execute to a process exit code.
// Errors not tagged by a command (flag parsing, unknown commands) are user
// errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitErr
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	fieldID   string
	logLevel  string
	jsonMode  bool
	noColor   bool
}

// app is the state shared by one command tree.
type app struct {
	flags rootFlags

	// Filled by the root PersistentPreRunE.
	configDir string
	settings  settings
	logger    *slog.Logger

	// newLogger builds the logger once the level is known.
	newLogger func(w io.Writer, level slog.Level, noColor bool) *slog.Logger
}

// NewRootCmd creates the top-level "linkfield" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{newLogger: logging.New})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "linkfield",
		Short: "Edit a link field that points at a record or an external URL",
		Long: `linkfield drives a single link field stored in a local data directory.
The field either links an internal record or holds an external URL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/linkfield)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.linkfield-db)")
	pf.StringVar(&a.flags.fieldID, "field", "", "field to edit (default: config field_id)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVar(&a.flags.noColor, "no-color", colorDisabled(), "disable colored log output")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newTypeCmd(a))
	root.AddCommand(newChooseCmd(a))
	root.AddCommand(newURLCmd(a))
	root.AddCommand(newResetCmd(a))
	root.AddCommand(newRecordCmd(a))
	root.AddCommand(newContentTypeCmd(a))

	return root
}

// colorDisabled reports whether log output should be plain by default:
// NO_COLOR is set or stderr is not a terminal.
func colorDisabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return true
	}
	fd := os.Stderr.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	a := &app{newLogger: logging.Setup}
	root := newRootCmd(a)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "linkfield:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// load resolves the config directory, reads config.yaml, and builds the
// logger. It runs before every subcommand.
func (a *app) load(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return sysError(err)
	}
	if a.flags.logLevel != "" {
		s.LogLevel = a.flags.logLevel
	}
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return userError(err)
	}

	a.configDir = configDir
	a.settings = s
	a.logger = a.newLogger(cmd.ErrOrStderr(), level, a.flags.noColor)
	return nil
}

// config returns the backend configuration after applying flags to the
// loaded settings.
func (a *app) config() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.settings.DataDir)
	if err != nil {
		return types.Config{}, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg := types.Config{
		Backend:       a.settings.Backend,
		DataDir:       dataDir,
		FieldID:       a.settings.FieldID,
		DefaultLocale: a.settings.DefaultLocale,
	}
	if a.flags.fieldID != "" {
		cfg.FieldID = a.flags.fieldID
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userError(fmt.Errorf("config: %w", err))
	}
	return cfg, nil
}
