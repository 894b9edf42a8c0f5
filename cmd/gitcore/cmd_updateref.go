package main

import (
	"fmt"

	"github.com/vcsdb/gitkernel/pkg/refs"
	"github.com/vcsdb/gitkernel/pkg/repo"
	"github.com/spf13/cobra"
)

func newUpdateRefCmd() *cobra.Command {
	var oldValue, reason string
	var force bool

	cmd := &cobra.Command{
		Use:   "update-ref <ref> <new-value>",
		Short: "Update a ref's value under compare-and-swap semantics",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.OpenDiscovered(".")
			if err != nil {
				return err
			}
			defer r.Close()

			if err := repo.ValidateRefName(args[0]); err != nil {
				return err
			}

			newID, err := r.Resolve(args[1])
			if err != nil {
				return err
			}
			if newID.IsZero() {
				return fmt.Errorf("update-ref: %s: unknown revision", args[1])
			}

			update := refs.NewUpdate(r.Refs(), args[0], newID).WithForce(force)
			if reason != "" {
				update = update.WithReason(reason)
			}
			if oldValue != "" {
				oldID, err := r.Resolve(oldValue)
				if err != nil {
					return err
				}
				update = update.WithExpectedOld(oldID)
			}

			result, err := update.Execute()
			if err != nil {
				return fmt.Errorf("update-ref %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&oldValue, "old-value", "", "require the ref's current value to resolve to this revision")
	cmd.Flags().StringVar(&reason, "reason", "", "reflog reason for this update")
	cmd.Flags().BoolVar(&force, "force", false, "allow a non-fast-forward update")
	return cmd
}
