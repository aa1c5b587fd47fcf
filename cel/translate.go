package cel

// This file contains functions that convert
//   FROM a verdict tree and its schema
//   TO a CEL expression and CEL declarations

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ezachrisen/verdict"
	"github.com/ezachrisen/verdict/schema"
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// mismatchFunc is called by a translated comparison when the record value
// has the wrong type for the literal. It always returns an error.
const mismatchFunc = "verdict_mismatch"

// translate writes the tree as a CEL expression.
//
// CEL's && and || absorb an error on either side when the other side decides
// the result, so connectives are written as conditionals, which evaluate the
// condition first and then only the branch it selects:
//
//	L AND R  =>  (L ? R : false)
//	L OR R   =>  (L ? true : R)
func translate(n *verdict.Node) (string, error) {
	var sb strings.Builder
	if err := writeExpr(&sb, n, 1); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeExpr(sb *strings.Builder, n *verdict.Node, depth int) error {
	if n == nil {
		return fmt.Errorf("nil node")
	}
	if depth > verdict.MaxDepth {
		return fmt.Errorf("tree deeper than %d", verdict.MaxDepth)
	}

	switch n.Type {
	case verdict.Operand:
		writeComparison(sb, n)
		return nil
	case verdict.Operator:
		sb.WriteString("(")
		if err := writeExpr(sb, n.Left, depth+1); err != nil {
			return err
		}
		if n.Connective == verdict.Or {
			sb.WriteString(" ? true : ")
			if err := writeExpr(sb, n.Right, depth+1); err != nil {
				return err
			}
		} else {
			sb.WriteString(" ? ")
			if err := writeExpr(sb, n.Right, depth+1); err != nil {
				return err
			}
			sb.WriteString(" : false")
		}
		sb.WriteString(")")
		return nil
	default:
		return fmt.Errorf("unknown node type %d", int(n.Type))
	}
}

// writeComparison writes an operand guarded by the type its literal needs:
//
//	(type(age) == double ? age > 30.0 : verdict_mismatch("age", "...", age))
//
// An ordering comparator with a text literal can never hold, so it is written
// as the mismatch call alone. A missing attribute fails when the guard reads
// it, before any comparison is made.
func writeComparison(sb *strings.Builder, n *verdict.Node) {
	attr := n.Attribute
	if n.Comparator.Ordering() && n.Literal.Kind() != verdict.NumberLiteral {
		writeMismatch(sb, attr, n.Comparator.String()+" needs numbers")
		return
	}

	celType := "double"
	if n.Literal.Kind() == verdict.TextLiteral {
		celType = "string"
	}
	op := n.Comparator.String()
	if n.Comparator == verdict.Equal {
		op = "=="
	}

	fmt.Fprintf(sb, "(type(%s) == %s ? %s %s %s : ", attr, celType, attr, op, celLiteral(n.Literal))
	writeMismatch(sb, attr, fmt.Sprintf("cannot compare with %s literal", n.Literal.Kind()))
	sb.WriteString(")")
}

func writeMismatch(sb *strings.Builder, attr, reason string) {
	fmt.Fprintf(sb, "%s(%s, %s, %s)", mismatchFunc, strconv.Quote(attr), strconv.Quote(reason), attr)
}

// celLiteral writes numbers as CEL doubles and text as a quoted CEL string.
func celLiteral(l verdict.Literal) string {
	if text, ok := l.Str(); ok {
		return strconv.Quote(text)
	}
	f, _ := l.Num()
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// declarations converts a schema to CEL declarations. Every attribute is
// declared dyn; the guards written by writeComparison check record types when
// a comparison is reached.
func declarations(s schema.Schema) []celgo.EnvOption {
	opts := make([]celgo.EnvOption, 0, len(s.Elements)+1)
	for _, e := range s.Elements {
		opts = append(opts, celgo.Variable(e.Name, celgo.DynType))
	}
	return append(opts, mismatch)
}

// mismatch declares verdict_mismatch(attribute, reason, value). CEL calls it
// only with a value, never with an error, so a missing attribute is reported
// before a mismatch.
var mismatch = celgo.Function(mismatchFunc,
	celgo.Overload("verdict_mismatch_string_string_dyn",
		[]*celgo.Type{celgo.StringType, celgo.StringType, celgo.DynType},
		celgo.BoolType,
		celgo.FunctionBinding(func(args ...ref.Val) ref.Val {
			attr, _ := args[0].Value().(string)
			reason, _ := args[1].Value().(string)
			return types.WrapErr(&verdict.EvalError{
				Kind:      verdict.TypeMismatch,
				Attribute: attr,
				Reason:    fmt.Sprintf("%s, got %s value", reason, valueKind(args[2])),
			})
		})))

func valueKind(v ref.Val) string {
	switch v.Type().TypeName() {
	case "double":
		return "number"
	case "string":
		return "text"
	case "bool":
		return "boolean"
	default:
		return v.Type().TypeName()
	}
}
