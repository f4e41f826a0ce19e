package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

func newContentTypeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "content-type",
		Aliases: []string{"ct"},
		Short:   "Manage content types",
	}
	cmd.AddCommand(newContentTypeAddCmd(a))
	cmd.AddCommand(newContentTypeListCmd(a))
	return cmd
}

func newContentTypeAddCmd(a *app) *cobra.Command {
	var name, displayField string
	cmd := &cobra.Command{
		Use:   "add [id] --name <name> [--display-field <field>]",
		Short: "Create or replace a content type",
		Long: `Add stores a content type. Records of this type show the value of the
display field as their title; without one they show as Untitled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct := &types.ContentType{Name: name, DisplayField: displayField}
			if len(args) == 1 {
				ct.ID = args[0]
			}
			if err := ct.Validate(); err != nil {
				return userError(err)
			}

			backend, _, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			id, err := backend.SetContentType(ct)
			if err != nil {
				return storeError("add content type", err)
			}
			return printID(cmd.OutOrStdout(), a.flags.jsonMode, id)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&displayField, "display-field", "", "field whose value is the record title")
	return cmd
}

func newContentTypeListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List content types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _, err := a.attachBackend()
			if err != nil {
				return err
			}
			defer backend.Detach()

			cts, err := backend.FetchContentTypes()
			if err != nil {
				return sysError(fmt.Errorf("fetch content types: %w", err))
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), cts)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDISPLAY FIELD")
			for _, ct := range cts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", ct.ID, ct.Name, ct.DisplayField)
			}
			return tw.Flush()
		},
	}
}
