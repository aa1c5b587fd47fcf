package verdict

import (
	"fmt"

	"go.uber.org/zap"
)

// Engine is the entry point used by callers that hand in rule strings and
// records and expect trees and verdicts back. It holds no rules and no
// mutable state, so one Engine may be shared by any number of goroutines.
type Engine struct {
	// Options used by the engine during parsing, combining and evaluation
	opts EngineOptions
}

// See the functional definitions below for the meaning.
type EngineOptions struct {
	Logger    *zap.Logger
	Evaluator Evaluator
}

type EngineOption func(f *EngineOptions)

// NewEngine initializes a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := Engine{
		opts: EngineOptions{
			Logger:    zap.NewNop(),
			Evaluator: TreeEvaluator{},
		},
	}
	applyEngineOptions(&e.opts, opts...)
	return &e
}

// Given an array of EngineOption functions, apply their effect
// on the EngineOptions struct.
func applyEngineOptions(o *EngineOptions, opts ...EngineOption) {
	for _, opt := range opts {
		opt(o)
	}
}

// WithLogger sets the logger used to report duplicate rules and failures.
// Default: no logging
func WithLogger(l *zap.Logger) EngineOption {
	return func(f *EngineOptions) {
		if l != nil {
			f.Logger = l
		}
	}
}

// WithEvaluator replaces the tree-walking evaluator.
// Default: TreeEvaluator
func WithEvaluator(ev Evaluator) EngineOption {
	return func(f *EngineOptions) {
		if ev != nil {
			f.Evaluator = ev
		}
	}
}

// ParseRule parses a rule string. The error is a *LexError or *ParseError.
func (e *Engine) ParseRule(rule string) (*Node, error) {
	n, err := ParseRule(rule)
	if err != nil {
		e.opts.Logger.Debug("rule rejected", zap.String("rule", rule), zap.Error(err))
		return nil, err
	}
	return n, nil
}

// CombineRules parses each rule string and combines the trees. Parse errors
// identify the rule by its position in the list; errors.As still reaches the
// underlying *LexError or *ParseError.
func (e *Engine) CombineRules(rules []string) (*Node, error) {
	if len(rules) == 0 {
		return nil, &CombineError{Reason: "no rules to combine"}
	}
	trees := make([]*Node, len(rules))
	for i, r := range rules {
		n, err := e.ParseRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		trees[i] = n
	}
	return e.CombineTrees(trees)
}

// CombineTrees combines already parsed trees; see Combine. Duplicate inputs
// are logged at warn level.
func (e *Engine) CombineTrees(trees []*Node) (*Node, error) {
	n, _, err := e.CombineTreesWithStats(trees)
	return n, err
}

// CombineTreesWithStats is CombineTrees, also returning what the combiner
// counted.
func (e *Engine) CombineTreesWithStats(trees []*Node) (*Node, CombineStats, error) {
	n, stats, err := Combine(trees)
	if err != nil {
		return nil, stats, err
	}
	if stats.Duplicates > 0 {
		e.opts.Logger.Warn("duplicate rules folded once",
			zap.Int("duplicates", stats.Duplicates),
			zap.Int("inputs", stats.Inputs))
	}
	e.opts.Logger.Debug("rules combined",
		zap.Int("inputs", stats.Inputs),
		zap.Stringer("connective", stats.Connective),
		zap.Int("and", stats.And),
		zap.Int("or", stats.Or))
	return n, stats, nil
}

// EvaluateRule decides the tree against the record using the engine's
// evaluator.
func (e *Engine) EvaluateRule(n *Node, rec Record) (bool, error) {
	return e.opts.Evaluator.Evaluate(n, rec)
}

// Explain evaluates the tree with the tree-walking evaluator and returns
// per-node diagnostics.
func (e *Engine) Explain(n *Node, rec Record) (*Diagnostics, error) {
	return Explain(n, rec)
}
