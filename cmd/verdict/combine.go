package main

import (
	"fmt"

	"github.com/ezachrisen/verdict"
	"github.com/spf13/cobra"
)

func newCombineCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "combine <rule> <rule>...",
		Short:   "Combine rules into one syntax tree",
		Example: `  verdict combine "age > 30" "department = 'Sales'" --format rule`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, log, _, err := opts.engine()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			trees := make([]*verdict.Node, len(args))
			for i, r := range args {
				trees[i], err = e.ParseRule(r)
				if err != nil {
					return fmt.Errorf("rule %d: %w", i, err)
				}
			}
			n, stats, err := e.CombineTreesWithStats(trees)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "combined %d rules with %s (AND %d, OR %d, duplicates %d)\n",
				stats.Inputs, stats.Connective, stats.And, stats.Or, stats.Duplicates)
			return printTree(cmd, n, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, tree, table, rule)")
	return cmd
}
