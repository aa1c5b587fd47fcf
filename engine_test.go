package verdict_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/ezachrisen/verdict"
	"github.com/matryer/is"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCombineRulesLogsDuplicates(t *testing.T) {
	is := is.New(t)

	core, logs := observer.New(zapcore.WarnLevel)
	e := verdict.NewEngine(verdict.WithLogger(zap.New(core)))

	n, err := e.CombineRules([]string{"age > 30", "department = 'Sales'", "age > 30"})
	is.NoErr(err)
	is.Equal(n.String(), "age > 30 AND department = 'Sales'")

	entries := logs.FilterMessage("duplicate rules folded once").All()
	is.Equal(len(entries), 1)
	is.Equal(entries[0].ContextMap()["duplicates"], int64(1))
	is.Equal(entries[0].ContextMap()["inputs"], int64(3))
}

func TestCombineRulesErrors(t *testing.T) {
	is := is.New(t)
	e := verdict.NewEngine()

	_, err := e.CombineRules(nil)
	var ce *verdict.CombineError
	is.True(errors.As(err, &ce))

	_, err = e.CombineRules([]string{"age > 30", "age >", "x = 1"})
	var pe *verdict.ParseError
	is.True(errors.As(err, &pe))
	is.True(strings.HasPrefix(err.Error(), "rule 1: "))

	_, err = e.CombineRules([]string{"age > 30", "name = 'open"})
	var le *verdict.LexError
	is.True(errors.As(err, &le))
}

type constEvaluator bool

func (c constEvaluator) Evaluate(*verdict.Node, verdict.Record) (bool, error) {
	return bool(c), nil
}

func TestWithEvaluator(t *testing.T) {
	is := is.New(t)

	n, err := verdict.ParseRule("age > 30")
	is.NoErr(err)

	got, err := verdict.NewEngine(verdict.WithEvaluator(constEvaluator(true))).EvaluateRule(n, verdict.Record{})
	is.NoErr(err)
	is.True(got)

	// nil options keep the defaults
	_, err = verdict.NewEngine(verdict.WithEvaluator(nil), verdict.WithLogger(nil)).EvaluateRule(n, verdict.Record{})
	var ee *verdict.EvalError
	is.True(errors.As(err, &ee))
}

func TestEngineParseRuleLogsRejects(t *testing.T) {
	is := is.New(t)

	core, logs := observer.New(zapcore.DebugLevel)
	e := verdict.NewEngine(verdict.WithLogger(zap.New(core)))
	_, err := e.ParseRule("age >")
	is.True(err != nil)
	is.Equal(logs.FilterMessage("rule rejected").Len(), 1)
}
