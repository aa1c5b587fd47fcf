package main

import (
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newBenchCmd(opts *rootOptions) *cobra.Command {
	var (
		record string
		n      int
	)
	cmd := &cobra.Command{
		Use:     "bench <rule>",
		Short:   "Measure evaluation latency of a rule",
		Example: `  verdict bench "age > 30 AND department = 'Sales'" --record '{"age": 35, "department": "Sales"}' -n 100000 --backend cel`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			e, log, cfg, err := opts.engine()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			tree, err := e.ParseRule(args[0])
			if err != nil {
				return err
			}
			rec, err := parseRecord(record)
			if err != nil {
				return err
			}
			// fail early rather than timing errors
			if _, err := e.EvaluateRule(tree, rec); err != nil {
				return err
			}

			// latencies in nanoseconds, 1ns to 10s
			h := hdrhistogram.New(1, int64(10*time.Second), 3)
			passed := 0
			start := time.Now()
			for range n {
				t := time.Now()
				ok, _ := e.EvaluateRule(tree, rec)
				_ = h.RecordValue(max(time.Since(t).Nanoseconds(), 1))
				if ok {
					passed++
				}
			}
			elapsed := time.Since(start)

			tw := table.NewWriter()
			tw.SetTitle(fmt.Sprintf("%s evaluator, %s evaluations (%s passed)",
				cfg.Eval.Backend, humanize.Comma(int64(n)), humanize.Comma(int64(passed))))
			tw.AppendHeader(table.Row{"Statistic", "Value"})
			tw.AppendRows([]table.Row{
				{"total time", elapsed.Round(time.Microsecond)},
				{"evaluations/s", humanize.Commaf(float64(n) / elapsed.Seconds())},
				{"mean", time.Duration(h.Mean()).Round(time.Nanosecond)},
				{"p50", time.Duration(h.ValueAtQuantile(50))},
				{"p90", time.Duration(h.ValueAtQuantile(90))},
				{"p99", time.Duration(h.ValueAtQuantile(99))},
				{"max", time.Duration(h.Max())},
			})
			tw.SetStyle(table.StyleLight)
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			return nil
		},
	}
	cmd.Flags().StringVarP(&record, "record", "r", "", "record as a JSON object")
	cmd.Flags().IntVarP(&n, "count", "n", 100000, "number of evaluations")
	return cmd
}
