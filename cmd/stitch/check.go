package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/stitch/pkg/component"
)

func checkCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and every template",
		Long: `Load the configuration and all templates, and validate the
component tree. Every problem is reported, not just the first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.config)
			if err != nil {
				return err
			}
			root, err := loadTree(cmd.Context(), cfg, flags.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			success(out, "%s is valid", cfg.Path())
			info(out, "%d components", countComponents(root.Children))
			return nil
		},
	}
}

// countComponents counts the distinct descriptors reachable from children.
func countComponents(children []component.Child) int {
	seen := map[*component.Descriptor]bool{}
	var walk func([]component.Child)
	walk = func(cs []component.Child) {
		for _, c := range cs {
			if c.Component == nil || seen[c.Component] {
				continue
			}
			seen[c.Component] = true
			walk(c.Component.Children)
		}
	}
	walk(children)
	return len(seen)
}
