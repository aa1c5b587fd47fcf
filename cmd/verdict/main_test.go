package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ezachrisen/verdict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestParse(t *testing.T) {
	out, err := run(t, "parse", "age > 30 AND department = 'Sales'")
	require.NoError(t, err)
	assert.Contains(t, out, `"node_type": "operator"`)
	assert.Contains(t, out, `"value": "age > 30"`)

	out, err = run(t, "parse", "--format", "rule", "a = 1 OR b = 2 AND c = 3")
	require.NoError(t, err)
	assert.Equal(t, "a = 1 OR (b = 2 AND c = 3)\n", out)

	out, err = run(t, "parse", "--format", "tree", "a = 1 OR b = 2")
	require.NoError(t, err)
	assert.Equal(t, "OR\n├── a = 1\n└── b = 2\n", out)

	_, err = run(t, "parse", "age >")
	var pe *verdict.ParseError
	assert.True(t, errors.As(err, &pe))

	_, err = run(t, "parse", "--format", "yaml", "a = 1")
	assert.ErrorContains(t, err, "unknown format")
}

func TestCombine(t *testing.T) {
	out, err := run(t, "combine", "--format", "rule", "age > 30", "department = 'Sales'", "age > 30")
	require.NoError(t, err)
	assert.Equal(t, "age > 30 AND department = 'Sales'\n", out)

	_, err = run(t, "combine", "age > 30", "age >")
	assert.ErrorContains(t, err, "rule 1")
}

func TestEval(t *testing.T) {
	cases := map[string]struct {
		backend string
		record  string
		want    string
	}{
		"tree pass": {"tree", `{"age": 35, "department": "Sales"}`, "true\n"},
		"tree fail": {"tree", `{"age": 25, "department": "Sales"}`, "false\n"},
		"cel pass":  {"cel", `{"age": 35, "department": "Sales"}`, "true\n"},
		"cel fail":  {"cel", `{"age": 35, "department": "HR"}`, "false\n"},
	}
	for k, c := range cases {
		t.Run(k, func(t *testing.T) {
			out, err := run(t, "eval", "--backend", c.backend, "--record", c.record, "age > 30 AND department = 'Sales'")
			require.NoError(t, err)
			assert.Equal(t, c.want, out)
		})
	}

	_, err := run(t, "eval", "--record", `{"department": "Sales"}`, "age > 30")
	var ee *verdict.EvalError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, verdict.MissingAttribute, ee.Kind)

	_, err = run(t, "eval", "--check", "--record", `{"age": 20}`, "age > 30 OR department = 'Sales'")
	assert.ErrorContains(t, err, "department: missing")

	_, err = run(t, "eval", "--record", `{"age":`, "age > 30")
	assert.ErrorContains(t, err, "reading record")
}

func TestEvalExplain(t *testing.T) {
	out, err := run(t, "eval", "--explain", "--record", `{"age": 20, "experience": 7}`, "age > 30 OR experience >= 5")
	require.NoError(t, err)
	assert.Contains(t, out, "VERDICT EVALUATION REPORT")
	assert.Contains(t, out, "experience >= 5")
	assert.True(t, strings.Count(out, "true") >= 2)
}

func TestBench(t *testing.T) {
	out, err := run(t, "bench", "-n", "100", "--record", `{"age": 35}`, "age > 30")
	require.NoError(t, err)
	assert.Contains(t, out, "100 evaluations (100 passed)")
	assert.Contains(t, out, "p99")

	_, err = run(t, "bench", "-n", "0", "age > 30")
	assert.Error(t, err)

	_, err = run(t, "bench", "-n", "10", "age > 30")
	assert.Error(t, err, "the record has no age")
}

func TestBadBackend(t *testing.T) {
	_, err := run(t, "eval", "--backend", "lua", "a = 1")
	assert.ErrorContains(t, err, "eval.backend")
}
