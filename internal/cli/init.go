package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkfield/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize linkfield storage",
		Long:  "Create the configuration and data directories, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}

	// A --data-dir given at init time is remembered in the new config file.
	s := defaultSettings()
	if a.flags.dataDir != "" {
		s.DataDir = cfg.DataDir
	}
	written, err := writeConfigIfMissing(a.configDir, s)
	if err != nil {
		return sysError(err)
	}

	// Attach creates the data directory and its JSONL files.
	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return sysError(fmt.Errorf("initialize storage: %w", err))
	}
	if err := backend.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}
	if written {
		a.logger.Info("wrote default config", "dir", a.configDir)
	}

	out := cmd.OutOrStdout()
	if a.flags.jsonMode {
		return writeJSON(out, map[string]string{"config": a.configDir, "data": cfg.DataDir})
	}
	fmt.Fprintln(out, "linkfield initialized successfully")
	fmt.Fprintln(out, "  config:", a.configDir)
	fmt.Fprintln(out, "  data:  ", cfg.DataDir)
	return nil
}
