package cel

import (
	"testing"

	"github.com/ezachrisen/verdict"
	"github.com/matryer/is"
)

func TestTranslate(t *testing.T) {
	opA := `(type(a) == double ? a == 1.0 : verdict_mismatch("a", "cannot compare with number literal", a))`
	opB := `(type(b) == double ? b == 2.0 : verdict_mismatch("b", "cannot compare with number literal", b))`
	opC := `(type(c) == double ? c == 3.0 : verdict_mismatch("c", "cannot compare with number literal", c))`

	cases := map[string]struct {
		rule string
		want string
	}{
		"operand": {
			"age > 30",
			`(type(age) == double ? age > 30.0 : verdict_mismatch("age", "cannot compare with number literal", age))`,
		},
		"equality": {
			"department = 'Sales'",
			`(type(department) == string ? department == "Sales" : verdict_mismatch("department", "cannot compare with text literal", department))`,
		},
		"text ordering": {
			"department > 'A'",
			`verdict_mismatch("department", "> needs numbers", department)`,
		},
		"decimal": {
			"score <= 2.5",
			`(type(score) == double ? score <= 2.5 : verdict_mismatch("score", "cannot compare with number literal", score))`,
		},
		"negative": {
			"balance != -3",
			`(type(balance) == double ? balance != -3.0 : verdict_mismatch("balance", "cannot compare with number literal", balance))`,
		},
		"quoted": {
			`name = "O'Brien"`,
			`(type(name) == string ? name == "O'Brien" : verdict_mismatch("name", "cannot compare with text literal", name))`,
		},
		"connective":       {"a = 1 AND b = 2 OR c = 3", "((" + opA + " ? " + opB + " : false) ? true : " + opC + ")"},
		"grouping":         {"a = 1 AND (b = 2 OR c = 3)", "(" + opA + " ? (" + opB + " ? true : " + opC + ") : false)"},
		"left association": {"a = 1 OR b = 2 OR c = 3", "((" + opA + " ? true : " + opB + ") ? true : " + opC + ")"},
	}

	for k, c := range cases {
		t.Run(k, func(t *testing.T) {
			is := is.New(t)
			n, err := verdict.ParseRule(c.rule)
			is.NoErr(err)
			got, err := translate(n)
			is.NoErr(err)
			is.Equal(got, c.want)
		})
	}
}

func TestProgramCache(t *testing.T) {
	is := is.New(t)
	ev := NewEvaluator()

	for _, rule := range []string{"age > 30", "age  >  30", "age > 31"} {
		n, err := verdict.ParseRule(rule)
		is.NoErr(err)
		_, err = ev.Evaluate(n, verdict.Record{"age": 40})
		is.NoErr(err)
	}
	is.Equal(len(ev.programs), 2) // the first two rules are the same tree
}
