package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/linkfield/internal/host"
	"github.com/mesh-intelligence/linkfield/pkg/types"
)

// runField opens the field, applies op, and prints the settled state.
func (a *app) runField(cmd *cobra.Command, chooser host.Chooser, op func(ctx context.Context, s *fieldSession) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := a.openField(ctx, chooser)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = sysError(fmt.Errorf("close field: %w", cerr))
		}
	}()

	if op != nil {
		if err := op(ctx, s); err != nil {
			return err
		}
	}
	return a.printField(cmd.OutOrStdout(), s)
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the field value and what the editor displays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runField(cmd, nil, nil)
		},
	}
}

func newTypeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "type <internal|external>",
		Short: "Select the link type, discarding the current link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := types.ParseLinkType(args[0])
			if err != nil {
				return userError(err)
			}
			return a.runField(cmd, nil, func(ctx context.Context, s *fieldSession) error {
				if err := s.ctrl.SelectLinkType(ctx, kind); err != nil {
					return sysError(err)
				}
				return nil
			})
		},
	}
}

func newChooseCmd(a *app) *cobra.Command {
	var recordID string
	cmd := &cobra.Command{
		Use:   "choose",
		Short: "Link a record, prompting for one unless --record is given",
		Long: `Choose opens the record chooser and links the selected record.
Without --record the stored records are listed and one is read from stdin.
An empty answer leaves the field unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var chooser host.Chooser
			if recordID != "" {
				chooser = host.ByID(recordID)
			} else {
				chooser = host.Prompt(cmd.InOrStdin(), cmd.ErrOrStderr())
			}
			return a.runField(cmd, chooser, func(ctx context.Context, s *fieldSession) error {
				before := s.ctrl.Value()
				if err := s.ctrl.ChooseTarget(ctx); err != nil {
					return sysError(err)
				}
				// The controller treats a failed lookup as a dismissal; a
				// record asked for by ID that does not exist is reported.
				if recordID != "" && s.ctrl.Value().TargetID() != recordID {
					if _, err := s.backend.GetRecord(recordID); err != nil {
						return storeError("choose", err)
					}
				}
				if s.ctrl.Value().Equal(before) {
					a.logger.Info("field unchanged")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&recordID, "record", "", "record ID to link")
	return cmd
}

func newURLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "url <url>",
		Short: "Set the external URL (an empty string is allowed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runField(cmd, nil, func(ctx context.Context, s *fieldSession) error {
				if err := s.ctrl.SetExternalURL(ctx, args[0]); err != nil {
					return sysError(err)
				}
				return nil
			})
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runField(cmd, nil, func(ctx context.Context, s *fieldSession) error {
				if err := s.ctrl.Reset(ctx); err != nil {
					return sysError(err)
				}
				return nil
			})
		},
	}
}
