package verdict_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/ezachrisen/verdict"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"pgregory.net/rapid"
)

var comparators = []verdict.Comparator{
	verdict.Equal, verdict.NotEqual, verdict.Greater,
	verdict.Less, verdict.GreaterOrEqual, verdict.LessOrEqual,
}

func goCompare(c verdict.Comparator, a, b float64) bool {
	switch c {
	case verdict.Equal:
		return a == b
	case verdict.NotEqual:
		return a != b
	case verdict.Greater:
		return a > b
	case verdict.Less:
		return a < b
	case verdict.GreaterOrEqual:
		return a >= b
	default:
		return a <= b
	}
}

func TestEvaluationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("number comparisons match Go", prop.ForAll(
		func(value, lit float64, ci int) bool {
			c := comparators[ci]
			n := verdict.NewOperand("x", c, verdict.Number(lit))
			got, err := verdict.Evaluate(n, verdict.Record{"x": value})
			return err == nil && got == goCompare(c, value, lit)
		},
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(-1000, 1000),
		gen.IntRange(0, len(comparators)-1),
	))

	properties.Property("AND binds tighter than OR", prop.ForAll(
		func(a, b, c int) bool {
			n, err := verdict.ParseRule("a = 1 OR b = 1 AND c = 1")
			if err != nil {
				return false
			}
			got, err := verdict.Evaluate(n, verdict.Record{"a": a, "b": b, "c": c})
			return err == nil && got == (a == 1 || (b == 1 && c == 1))
		},
		gen.IntRange(0, 1),
		gen.IntRange(0, 1),
		gen.IntRange(0, 1),
	))

	properties.Property("false AND never reaches the right side", prop.ForAll(
		func(age int) bool {
			n, err := verdict.ParseRule(fmt.Sprintf("age > %d AND missing_field = 1", age))
			if err != nil {
				return false
			}
			got, err := verdict.Evaluate(n, verdict.Record{"age": age})
			return err == nil && !got
		},
		gen.IntRange(-500, 500),
	))

	properties.Property("true OR never reaches the right side", prop.ForAll(
		func(name string) bool {
			n := verdict.NewOperator(verdict.Or,
				verdict.NewOperand("name", verdict.Equal, verdict.Text(name)),
				verdict.NewOperand("missing_field", verdict.Equal, verdict.Number(1)))
			got, err := verdict.Evaluate(n, verdict.Record{"name": name})
			return err == nil && got
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

var propAttributes = []string{"age", "department", "salary", "employee.age", "x_1"}

func drawOperand(t *rapid.T) *verdict.Node {
	attr := rapid.SampledFrom(propAttributes).Draw(t, "attr")
	var lit verdict.Literal
	if rapid.Bool().Draw(t, "text") {
		lit = verdict.Text(rapid.StringMatching(`[a-zA-Z0-9 ']{0,8}`).Draw(t, "lit"))
	} else {
		lit = verdict.Number(float64(rapid.IntRange(-100000, 100000).Draw(t, "lit")) / 100)
	}
	return verdict.NewOperand(attr, rapid.SampledFrom(comparators).Draw(t, "cmp"), lit)
}

func drawTree(t *rapid.T, depth int) *verdict.Node {
	if depth == 0 || rapid.Bool().Draw(t, "leaf") {
		return drawOperand(t)
	}
	conn := rapid.SampledFrom([]verdict.Connective{verdict.And, verdict.Or}).Draw(t, "conn")
	return verdict.NewOperator(conn, drawTree(t, depth-1), drawTree(t, depth-1))
}

func TestStringParsesBack(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := drawTree(t, 5)
		back, err := verdict.ParseRule(n.String())
		if err != nil {
			t.Fatalf("parsing %q: %v", n.String(), err)
		}
		if !back.Equal(n) {
			t.Fatalf("%q parsed to %q", n.String(), back.String())
		}
	})
}

func TestJSONRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := drawTree(t, 5)
		data, err := json.Marshal(n)
		if err != nil {
			t.Fatalf("encoding %s: %v", n, err)
		}
		var back verdict.Node
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("decoding %s: %v", data, err)
		}
		if !back.Equal(n) {
			t.Fatalf("%s decoded to %s", n, &back)
		}
	})
}

func TestCombineProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		trees := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) *verdict.Node {
			return drawTree(t, 3)
		}), 1, 6).Draw(t, "trees")

		var unique []*verdict.Node
		for _, tr := range trees {
			dup := false
			for _, u := range unique {
				dup = dup || u.Equal(tr)
			}
			if !dup {
				unique = append(unique, tr.Clone())
			}
		}
		var and, or int
		for _, tr := range trees {
			tr.Walk(func(n *verdict.Node) bool {
				if n.Type == verdict.Operator {
					if n.Connective == verdict.And {
						and++
					} else {
						or++
					}
				}
				return true
			})
		}
		conn := verdict.And
		if or > and {
			conn = verdict.Or
		}
		want := unique[0]
		for _, u := range unique[1:] {
			want = verdict.NewOperator(conn, want, u)
		}

		got, stats, err := verdict.Combine(trees)
		if err != nil {
			t.Fatalf("combining: %v", err)
		}
		if err := got.Validate(); err != nil {
			t.Fatalf("combined tree is invalid: %v", err)
		}
		if !got.Equal(want) {
			t.Fatalf("got %s, want %s", got, want)
		}
		if stats.Duplicates != len(trees)-len(unique) {
			t.Fatalf("duplicates: got %d, want %d", stats.Duplicates, len(trees)-len(unique))
		}
	})
}
