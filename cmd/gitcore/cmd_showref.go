package main

import (
	"fmt"
	"sort"

	"github.com/vcsdb/gitkernel/pkg/repo"
	"github.com/spf13/cobra"
)

func newShowRefCmd() *cobra.Command {
	var tagsOnly bool

	cmd := &cobra.Command{
		Use:   "show-ref [prefix]",
		Short: "List refs and the object ids they point at",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.OpenDiscovered(".")
			if err != nil {
				return err
			}
			defer r.Close()

			prefix := "refs/"
			if len(args) == 1 {
				prefix = args[0]
			}
			if tagsOnly {
				prefix = "refs/tags/"
			}

			refsByName, err := r.Refs().GetRefs(prefix)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(refsByName))
			for name := range refsByName {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				ref := refsByName[name]
				if ref.IsSymbolic() {
					fmt.Fprintf(out, "ref: %s %s\n", ref.SymbolicTarget, name)
					continue
				}
				fmt.Fprintf(out, "%s %s\n", ref.ObjectID, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&tagsOnly, "tags", false, "show only refs/tags/")
	return cmd
}
