package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vcsdb/gitkernel/pkg/repo"
	"github.com/spf13/cobra"
)

func newSymbolicRefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbolic-ref <name> [target]",
		Short: "Read or write a symbolic ref (e.g. HEAD)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.OpenDiscovered(".")
			if err != nil {
				return err
			}
			defer r.Close()

			name := args[0]
			if len(args) == 2 {
				target := args[1]
				if err := repo.ValidateRefName(target); err != nil {
					return err
				}
				return os.WriteFile(
					filepath.Join(r.GitDir(), filepath.FromSlash(name)),
					[]byte("ref: "+target+"\n"),
					0o644,
				)
			}

			ref, err := r.Refs().ExactRef(name)
			if err != nil {
				return err
			}
			if !ref.IsSymbolic() {
				return fmt.Errorf("symbolic-ref: %s is not a symbolic ref", name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ref.SymbolicTarget)
			return nil
		},
	}
	return cmd
}
