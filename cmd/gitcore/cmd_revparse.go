package main

import (
	"fmt"

	"github.com/vcsdb/gitkernel/pkg/repo"
	"github.com/spf13/cobra"
)

func newRevParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rev-parse <rev>...",
		Short: "Resolve a revision expression to an object id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.OpenDiscovered(".")
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			for _, rev := range args {
				id, err := r.Resolve(rev)
				if err != nil {
					return fmt.Errorf("rev-parse %s: %w", rev, err)
				}
				if id.IsZero() {
					return fmt.Errorf("rev-parse %s: unknown revision", rev)
				}
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
}
