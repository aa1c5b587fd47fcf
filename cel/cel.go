package cel

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ezachrisen/verdict"
	"github.com/ezachrisen/verdict/schema"
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Evaluator implements the verdict.Evaluator interface. It can be shared by
// any number of goroutines.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*program
}

type program struct {
	prg    celgo.Program
	schema schema.Schema
}

// NewEvaluator creates a CEL evaluator with an empty program cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		programs: map[string]*program{},
	}
}

// Evaluate compiles the tree (or reuses the compiled program for the same
// rule) and evaluates it against the record.
func (e *Evaluator) Evaluate(n *verdict.Node, rec verdict.Record) (bool, error) {
	p, err := e.compile(n)
	if err != nil {
		return false, err
	}

	out, _, err := p.prg.Eval(activation(p.schema, rec))
	if err != nil {
		return false, evalError(err)
	}
	pass, ok := out.Value().(bool)
	if !ok {
		return false, &verdict.EvalError{Kind: verdict.MalformedTree, Reason: fmt.Sprintf("rule produced %T, not a boolean", out.Value())}
	}
	return pass, nil
}

// compile returns the cached program for the tree, compiling it on first use.
func (e *Evaluator) compile(n *verdict.Node) (*program, error) {
	if err := n.Validate(); err != nil {
		return nil, &verdict.EvalError{Kind: verdict.MalformedTree, Reason: err.Error()}
	}
	expr, err := translate(n)
	if err != nil {
		return nil, &verdict.EvalError{Kind: verdict.MalformedTree, Reason: err.Error()}
	}

	e.mu.RLock()
	p, ok := e.programs[expr]
	e.mu.RUnlock()
	if ok {
		return p, nil
	}

	s := schema.FromTree(n)
	env, err := celgo.NewEnv(declarations(s)...)
	if err != nil {
		return nil, &verdict.EvalError{Kind: verdict.MalformedTree, Reason: fmt.Sprintf("creating CEL environment: %v", err)}
	}

	// Parse and type-check the expression against the declarations
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, &verdict.EvalError{Kind: verdict.MalformedTree, Reason: fmt.Sprintf("compiling %s: %v", expr, iss.Err())}
	}

	// Generate an evaluable program
	prg, err := env.Program(ast)
	if err != nil {
		return nil, &verdict.EvalError{Kind: verdict.MalformedTree, Reason: fmt.Sprintf("generating program for %s: %v", expr, err)}
	}

	p = &program{prg: prg, schema: s}
	e.mu.Lock()
	if existing, ok := e.programs[expr]; ok {
		p = existing
	} else {
		e.programs[expr] = p
	}
	e.mu.Unlock()
	return p, nil
}

// activation builds the CEL input from the record. Every attribute named in
// the schema is bound: numbers are converted to float64, and an attribute that
// is missing or holds an unsupported type is bound to an error value, which
// CEL raises only if a comparison reaches it.
func activation(s schema.Schema, rec verdict.Record) map[string]any {
	act := make(map[string]any, len(s.Elements))
	for _, el := range s.Elements {
		raw, ok := rec.Lookup(el.Name)
		if !ok {
			act[el.Name] = types.WrapErr(&verdict.EvalError{Kind: verdict.MissingAttribute, Attribute: el.Name, Reason: "no value in record"})
			continue
		}
		v, err := verdict.NormalizeValue(raw)
		if err != nil {
			act[el.Name] = types.WrapErr(&verdict.EvalError{Kind: verdict.TypeMismatch, Attribute: el.Name, Reason: err.Error()})
			continue
		}
		act[el.Name] = v
	}
	return act
}

// evalError converts a CEL runtime error. Errors raised by the activation and
// by verdict_mismatch carry their *verdict.EvalError.
func evalError(err error) error {
	var ee *verdict.EvalError
	if errors.As(err, &ee) {
		return ee
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such attribute"):
		return &verdict.EvalError{Kind: verdict.MissingAttribute, Reason: msg}
	case strings.Contains(msg, "no such overload"):
		return &verdict.EvalError{Kind: verdict.TypeMismatch, Reason: msg}
	default:
		return &verdict.EvalError{Kind: verdict.MalformedTree, Reason: msg}
	}
}
