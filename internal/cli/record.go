package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkfield/internal/host"
	"github.com/mesh-intelligence/linkfield/pkg/types"
)

func newRecordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Manage the records a field can link",
	}
	cmd.AddCommand(newRecordAddCmd(a))
	cmd.AddCommand(newRecordImportCmd(a))
	cmd.AddCommand(newRecordListCmd(a))
	cmd.AddCommand(newRecordGetCmd(a))
	cmd.AddCommand(newRecordDeleteCmd(a))
	return cmd
}

// parseFieldArgs turns key=value and key@locale=value arguments into record
// fields. Values that parse as JSON keep their JSON type.
func parseFieldArgs(args []string, defaultLocale string) (map[string]map[string]any, error) {
	fields := make(map[string]map[string]any)
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q (expected key=value or key@locale=value)", arg)
		}
		fieldID, locale, hasLocale := strings.Cut(key, "@")
		if !hasLocale {
			locale = defaultLocale
		}
		if fieldID == "" || locale == "" {
			return nil, fmt.Errorf("invalid field %q (expected key=value or key@locale=value)", arg)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		if fields[fieldID] == nil {
			fields[fieldID] = make(map[string]any)
		}
		fields[fieldID][locale] = value
	}
	return fields, nil
}

func newRecordAddCmd(a *app) *cobra.Command {
	var contentTypeID, recordID string
	cmd := &cobra.Command{
		Use:   "add --type <content-type> [field=value...]",
		Short: "Create or replace a record",
		Long: `Add stores a record of the given content type. Fields are key=value
pairs in the default locale, or key@locale=value for another locale.

Example:
  linkfield record add --type article title="Launch notes"
  linkfield record add --type article --id rec-1 title=Hello title@de-DE=Hallo`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if contentTypeID == "" {
				return userError(fmt.Errorf("--type is required"))
			}
			backend, cfg, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			fields, err := parseFieldArgs(args, cfg.DefaultLocale)
			if err != nil {
				return userError(err)
			}
			rec, err := types.NewRecord(recordID, contentTypeID, fields)
			if err != nil {
				return userError(err)
			}
			id, err := backend.SetRecord(rec)
			if err != nil {
				return storeError("add record", err)
			}
			a.logger.Info("record stored", "record", id, "content_type", contentTypeID)
			return printID(cmd.OutOrStdout(), a.flags.jsonMode, id)
		},
	}
	cmd.Flags().StringVar(&contentTypeID, "type", "", "content type ID")
	cmd.Flags().StringVar(&recordID, "id", "", "record ID (default: generated)")
	return cmd
}

func newRecordImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Store a record given as a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return userError(fmt.Errorf("read record: %w", err))
			}
			rec, err := types.ParseRecord(data)
			if err != nil {
				return userError(err)
			}

			backend, _, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			id, err := backend.SetRecord(rec)
			if err != nil {
				return storeError("import record", err)
			}
			return printID(cmd.OutOrStdout(), a.flags.jsonMode, id)
		},
	}
}

func newRecordListCmd(a *app) *cobra.Command {
	var contentTypeID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records with their display titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, cfg, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			candidates, err := host.New(backend, cfg, host.WithLogger(a.logger)).Candidates(ctx)
			if err != nil {
				return sysError(err)
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonMode {
				records := make([]*types.Record, 0, len(candidates))
				for _, c := range candidates {
					if contentTypeID == "" || c.Record.ContentTypeID() == contentTypeID {
						records = append(records, c.Record)
					}
				}
				return writeJSON(out, records)
			}
			for _, c := range candidates {
				if contentTypeID != "" && c.Record.ContentTypeID() != contentTypeID {
					continue
				}
				fmt.Fprintln(out, c.Summary)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contentTypeID, "type", "", "only list records of this content type")
	return cmd
}

func newRecordGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			rec, err := backend.GetRecord(args[0])
			if err != nil {
				return storeError(fmt.Sprintf("record %q", args[0]), err)
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func newRecordDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			if err := backend.DeleteRecord(args[0]); err != nil {
				return storeError(fmt.Sprintf("record %q", args[0]), err)
			}
			if !a.flags.jsonMode {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			}
			return nil
		},
	}
}

// printID writes the ID of a stored entity.
func printID(w io.Writer, jsonMode bool, id string) error {
	if jsonMode {
		return writeJSON(w, map[string]string{"id": id})
	}
	_, err := fmt.Fprintln(w, id)
	return err
}
