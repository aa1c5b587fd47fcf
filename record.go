package verdict

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Record holds the attribute values a tree is evaluated against. Values may
// be any Go integer or float type, json.Number, string or bool. A nil value is
// treated as missing.
//
// An attribute name containing dots, such as "employee.age", is first looked
// up as a key of its own. If there is no such key, it is resolved as a path
// through nested map[string]any values.
type Record map[string]any

// Lookup returns the value of the attribute, following dotted names into
// nested maps. A nil value is reported as not found.
func (r Record) Lookup(name string) (any, bool) {
	if v, ok := r[name]; ok {
		return v, v != nil
	}
	if !strings.Contains(name, ".") {
		return nil, false
	}
	var path jp.Expr
	for _, part := range strings.Split(name, ".") {
		path = path.C(part)
	}
	found := path.Get(map[string]any(r))
	if len(found) == 0 || found[0] == nil {
		return nil, false
	}
	return found[0], true
}

type valueKind int

const (
	numberValue valueKind = iota
	textValue
	boolValue
)

func (k valueKind) String() string {
	switch k {
	case numberValue:
		return "number"
	case textValue:
		return "text"
	default:
		return "boolean"
	}
}

// NormalizeValue converts a record value to float64, string or bool. Any
// other type is an error.
func NormalizeValue(v any) (any, error) {
	s, err := toScalar(v)
	if err != nil {
		return nil, err
	}
	switch s.kind {
	case numberValue:
		return s.num, nil
	case textValue:
		return s.text, nil
	default:
		return s.b, nil
	}
}

// scalar is a record value after normalisation.
type scalar struct {
	kind valueKind
	num  float64
	text string
	b    bool
}

func toScalar(v any) (scalar, error) {
	switch x := v.(type) {
	case float64:
		return scalar{kind: numberValue, num: x}, nil
	case float32:
		return scalar{kind: numberValue, num: float64(x)}, nil
	case int:
		return scalar{kind: numberValue, num: float64(x)}, nil
	case int8:
		return scalar{kind: numberValue, num: float64(x)}, nil
	case int16:
		return scalar{kind: numberValue, num: float64(x)}, nil
	case int32:
		return scalar{kind: numberValue, num: float64(x)}, nil
	case int64:
		return scalar{kind: numberValue, num: float64(x)}, nil
	case uint:
		return scalar{kind: numberValue, num: float64(x)}, nil
	case uint8:
		return scalar{kind: numberValue, num: float64(x)}, nil
	case uint16:
		return scalar{kind: numberValue, num: float64(x)}, nil
	case uint32:
		return scalar{kind: numberValue, num: float64(x)}, nil
	case uint64:
		return scalar{kind: numberValue, num: float64(x)}, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return scalar{}, fmt.Errorf("invalid number %q", x.String())
		}
		return scalar{kind: numberValue, num: f}, nil
	case string:
		return scalar{kind: textValue, text: x}, nil
	case bool:
		return scalar{kind: boolValue, b: x}, nil
	default:
		return scalar{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// compare applies the operand's comparator to a record value. Values are
// never coerced: a number only compares with a number literal, text only with
// a text literal, and ordering comparators require numbers on both sides.
func compare(n *Node, raw any) (bool, error) {
	v, err := toScalar(raw)
	if err != nil {
		return false, &EvalError{Kind: TypeMismatch, Attribute: n.Attribute, Reason: err.Error()}
	}
	lit := n.Literal

	if n.Comparator.Ordering() {
		if v.kind != numberValue || lit.Kind() != NumberLiteral {
			return false, &EvalError{
				Kind:      TypeMismatch,
				Attribute: n.Attribute,
				Reason:    fmt.Sprintf("%s needs numbers, got %s value and %s literal", n.Comparator, v.kind, lit.Kind()),
			}
		}
		switch n.Comparator {
		case Greater:
			return v.num > lit.num, nil
		case Less:
			return v.num < lit.num, nil
		case GreaterOrEqual:
			return v.num >= lit.num, nil
		default:
			return v.num <= lit.num, nil
		}
	}

	var same bool
	switch {
	case v.kind == numberValue && lit.Kind() == NumberLiteral:
		same = v.num == lit.num
	case v.kind == textValue && lit.Kind() == TextLiteral:
		same = v.text == lit.text
	default:
		return false, &EvalError{
			Kind:      TypeMismatch,
			Attribute: n.Attribute,
			Reason:    fmt.Sprintf("cannot compare %s value with %s literal", v.kind, lit.Kind()),
		}
	}

	switch n.Comparator {
	case Equal:
		return same, nil
	case NotEqual:
		return !same, nil
	default:
		return false, &EvalError{Kind: MalformedTree, Attribute: n.Attribute, Reason: fmt.Sprintf("unknown comparator %d", int(n.Comparator))}
	}
}
