package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/ezachrisen/verdict"
	"github.com/ezachrisen/verdict/cel"
	"github.com/ezachrisen/verdict/internal/config"
	"github.com/ezachrisen/verdict/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.1.0"

// options shared by all subcommands
type rootOptions struct {
	cfgFile  string
	logLevel string
	backend  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "verdict",
		Short: "Boolean eligibility rules as syntax trees",
		Long: `verdict parses rules such as

  (age > 30 AND department = 'Sales') OR experience >= 5

into syntax trees, combines several rules into one, and evaluates a rule
against a record of attribute values.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config file")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "evaluator (tree, cel); overrides the config file")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newServeCmd(opts),
		newParseCmd(opts),
		newCombineCmd(opts),
		newEvalCmd(opts),
		newBenchCmd(opts),
	)
	return root
}

// load reads the config file and applies the command line overrides.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.backend != "" {
		cfg.Eval.Backend = o.backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// engine builds the logger and the engine described by the config.
func (o *rootOptions) engine() (*verdict.Engine, *zap.Logger, *config.Config, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Log.Output == "stdout" {
		// stdout carries command output
		cfg.Log.Output = "stderr"
	}
	log := logger.New(cfg.Log)
	opts := []verdict.EngineOption{verdict.WithLogger(log)}
	if cfg.Eval.Backend == "cel" {
		opts = append(opts, verdict.WithEvaluator(cel.NewEvaluator()))
	}
	return verdict.NewEngine(opts...), log, cfg, nil
}

func parseRecord(s string) (verdict.Record, error) {
	if s == "" {
		return verdict.Record{}, nil
	}
	var rec verdict.Record
	if err := sonic.UnmarshalString(s, &rec); err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return rec, nil
}
