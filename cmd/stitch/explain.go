package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/stitch/internal/errors"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe an error code, or list them all",
		Example: `  stitch explain
  stitch explain S201`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, code := range errors.Codes() {
					t, _ := errors.Lookup(code)
					fmt.Fprintf(out, "%s  %-9s %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			if _, ok := errors.Lookup(args[0]); !ok {
				return errors.Newf(errors.CategoryCLI, "unknown error code %q", args[0]).
					WithSuggestion("Run 'stitch explain' to list all codes")
			}
			fmt.Fprint(out, errors.New(args[0]).Format())
			return nil
		},
	}
}
