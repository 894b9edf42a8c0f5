package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "gitcore",
		Short: "Plumbing over a content-addressed object store and reference database",
	}

	root.AddCommand(newCatFileCmd())
	root.AddCommand(newRevParseCmd())
	root.AddCommand(newUpdateRefCmd())
	root.AddCommand(newShowRefCmd())
	root.AddCommand(newSymbolicRefCmd())
	root.AddCommand(newReflogCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
