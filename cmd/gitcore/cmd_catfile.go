package main

import (
	"fmt"

	"github.com/vcsdb/gitkernel/pkg/object"
	"github.com/vcsdb/gitkernel/pkg/repo"
	"github.com/spf13/cobra"
)

func newCatFileCmd() *cobra.Command {
	var showType, showSize, prettyPrint bool

	cmd := &cobra.Command{
		Use:   "cat-file <object>",
		Short: "Print object type, size, or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.OpenDiscovered(".")
			if err != nil {
				return err
			}
			defer r.Close()

			id, err := r.Resolve(args[0])
			if err != nil {
				return err
			}
			if id.IsZero() {
				return fmt.Errorf("cat-file: %s: not found", args[0])
			}

			loader, err := r.Objects().Open(id, object.TypeAny)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, loader.Type())
			case showSize:
				fmt.Fprintln(out, loader.Size())
			case prettyPrint:
				data, err := loader.Bytes()
				if err != nil {
					return err
				}
				out.Write(data)
			default:
				return fmt.Errorf("cat-file: one of -t, -s, or -p is required")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print the object size")
	cmd.Flags().BoolVarP(&prettyPrint, "print", "p", false, "print the object content")
	return cmd
}
