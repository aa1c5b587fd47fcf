package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/ezachrisen/verdict"
	"github.com/spf13/cobra"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "parse <rule>",
		Short: "Parse a rule and print its syntax tree",
		Example: `  verdict parse "age > 30 AND department = 'Sales'"
  verdict parse --format tree "a = 1 OR b = 2 AND c = 3"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, log, _, err := opts.engine()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			n, err := e.ParseRule(args[0])
			if err != nil {
				return err
			}
			return printTree(cmd, n, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, tree, table, rule)")
	return cmd
}

func printTree(cmd *cobra.Command, n *verdict.Node, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := sonic.ConfigStd.MarshalIndent(n, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "tree":
		fmt.Fprint(out, n.Tree())
	case "table":
		fmt.Fprintln(out, n.Table())
	case "rule":
		fmt.Fprintln(out, n.String())
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}
