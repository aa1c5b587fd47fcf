package main

import (
	"fmt"

	"github.com/ezachrisen/verdict/schema"
	"github.com/spf13/cobra"
)

func newEvalCmd(opts *rootOptions) *cobra.Command {
	var (
		record  string
		explain bool
		check   bool
	)
	cmd := &cobra.Command{
		Use:   "eval <rule>",
		Short: "Evaluate a rule against a record",
		Example: `  verdict eval "age > 30 AND department = 'Sales'" --record '{"age": 35, "department": "Sales"}'
  verdict eval "age > 30 OR experience >= 5" --record '{"age": 20, "experience": 7}' --explain`,
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
			rec, err := parseRecord(record)
			if err != nil {
				return err
			}

			if check {
				if err := schema.FromTree(n).Validate(rec); err != nil {
					return err
				}
			}

			if explain {
				d, err := e.Explain(n, rec)
				fmt.Fprintln(cmd.OutOrStdout(), d.AsString(rec))
				return err
			}

			pass, err := e.EvaluateRule(n, rec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pass)
			return nil
		},
	}
	cmd.Flags().StringVarP(&record, "record", "r", "", "record as a JSON object")
	cmd.Flags().BoolVar(&explain, "explain", false, "print how every node was evaluated")
	cmd.Flags().BoolVar(&check, "check", false, "require every attribute in the rule to be present and typed correctly")
	return cmd
}
