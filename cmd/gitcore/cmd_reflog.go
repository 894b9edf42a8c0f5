package main

import (
	"fmt"
	"time"

	"github.com/vcsdb/gitkernel/pkg/repo"
	"github.com/spf13/cobra"
)

func newReflogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reflog [ref]",
		Short: "Show a ref's update history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.OpenDiscovered(".")
			if err != nil {
				return err
			}
			defer r.Close()

			ref := "HEAD"
			if len(args) == 1 {
				ref = args[0]
			}
			entries, err := r.Refs().ReadReflog(ref, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, e := range entries {
				sha := e.NewID.String()[:8]
				ts := time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339)
				fmt.Fprintf(out, "%s@{%d}: %s %s %s\n", ref, i, sha, ts, e.Reason)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show (0 for all)")
	return cmd
}
