package verdict

import "fmt"

// Evaluator is the interface implemented by types that can decide a tree
// against a record. The Engine uses TreeEvaluator unless told otherwise.
type Evaluator interface {
	Evaluate(n *Node, rec Record) (bool, error)
}

// TreeEvaluator evaluates trees by walking them directly.
type TreeEvaluator struct{}

func (TreeEvaluator) Evaluate(n *Node, rec Record) (bool, error) {
	return Evaluate(n, rec)
}

// Evaluate decides the tree against the record.
//
// AND and OR short-circuit from left to right: when the left child decides
// the result the right child is not visited, and a missing or mistyped
// attribute that only appears there does not cause an error. Any error on a
// visited operand is returned as an *EvalError; it is never reported as
// false.
//
// A tree that fails Validate is a MalformedTree error, even if the bad node
// would not be reached.
func Evaluate(n *Node, rec Record) (bool, error) {
	if err := checkTree(n); err != nil {
		return false, err
	}
	return evaluate(n, rec, nil, 1)
}

// Explain evaluates the tree like Evaluate and records what happened at every
// node. The diagnostics are returned even when evaluation fails, so the
// failing operand can be located.
func Explain(n *Node, rec Record) (*Diagnostics, error) {
	d := &Diagnostics{}
	if err := checkTree(n); err != nil {
		d.Err = err
		return d, err
	}
	_, err := evaluate(n, rec, d, 1)
	return d, err
}

func checkTree(n *Node) error {
	if err := n.Validate(); err != nil {
		return &EvalError{Kind: MalformedTree, Reason: err.Error()}
	}
	return nil
}

// evaluate walks the tree. d is nil unless the caller wants diagnostics.
func evaluate(n *Node, rec Record, d *Diagnostics, depth int) (bool, error) {
	fail := func(err error) (bool, error) {
		if d != nil {
			d.Err = err
		}
		return false, err
	}

	if n == nil {
		return fail(&EvalError{Kind: MalformedTree, Reason: "nil node"})
	}
	if depth > MaxDepth {
		return fail(&EvalError{Kind: MalformedTree, Reason: fmt.Sprintf("tree deeper than %d", MaxDepth)})
	}
	if d != nil {
		d.Node = n
		d.Expr = n.String()
	}

	switch n.Type {
	case Operand:
		raw, ok := rec.Lookup(n.Attribute)
		if !ok {
			return fail(&EvalError{Kind: MissingAttribute, Attribute: n.Attribute, Reason: "no value in record"})
		}
		if d != nil {
			d.Value = raw
		}
		pass, err := compare(n, raw)
		if err != nil {
			return fail(err)
		}
		if d != nil {
			d.Pass = pass
		}
		return pass, nil

	case Operator:
		if n.Left == nil || n.Right == nil {
			return fail(&EvalError{Kind: MalformedTree, Reason: fmt.Sprintf("%s operator is missing a child", n.Connective)})
		}
		if n.Connective != And && n.Connective != Or {
			return fail(&EvalError{Kind: MalformedTree, Reason: fmt.Sprintf("unknown connective %d", int(n.Connective))})
		}

		var ld, rd *Diagnostics
		if d != nil {
			ld, rd = &Diagnostics{}, &Diagnostics{}
			d.Children = []*Diagnostics{ld, rd}
		}

		left, err := evaluate(n.Left, rec, ld, depth+1)
		if err != nil {
			return fail(err)
		}
		if (n.Connective == And && !left) || (n.Connective == Or && left) {
			if d != nil {
				rd.Node = n.Right
				rd.Expr = n.Right.String()
				rd.Skipped = true
				d.Pass = left
			}
			return left, nil
		}

		right, err := evaluate(n.Right, rec, rd, depth+1)
		if err != nil {
			return fail(err)
		}
		if d != nil {
			d.Pass = right
		}
		return right, nil

	default:
		return fail(&EvalError{Kind: MalformedTree, Reason: fmt.Sprintf("unknown node type %d", int(n.Type))})
	}
}
