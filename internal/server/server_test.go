package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ezachrisen/verdict"
	"github.com/ezachrisen/verdict/internal/config"
	"github.com/ezachrisen/verdict/internal/server"
	"github.com/ezachrisen/verdict/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newServer(t *testing.T, st store.Store) *server.Server {
	t.Helper()
	if st == nil {
		st = store.NewMemory()
	}
	log := zaptest.NewLogger(t)
	s, err := server.New(context.Background(), config.Default().Server, verdict.NewEngine(verdict.WithLogger(log)), st, log)
	require.NoError(t, err)
	return s
}

// do sends the request and decodes the JSON response into a map.
func do(t *testing.T, s *server.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestCreateRule(t *testing.T) {
	s := newServer(t, nil)

	code, body := do(t, s, http.MethodPost, "/create_rule", `{"rule_string": "age > 30 AND department = 'Sales'"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "age > 30 AND department = 'Sales'", body["rule_string"])

	ast := body["ast"].(map[string]any)
	assert.Equal(t, "operator", ast["node_type"])
	assert.Equal(t, "AND", ast["value"])
	assert.Equal(t, "age > 30", ast["left"].(map[string]any)["value"])

	code, body = do(t, s, http.MethodGet, "/rules/1", "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "AND", body["ast"].(map[string]any)["value"])
}

func TestCreateRuleErrors(t *testing.T) {
	s := newServer(t, nil)

	cases := map[string]struct {
		body     string
		kind     string
		position float64
	}{
		"missing rule":       {`{}`, "request", -1},
		"unterminated quote": {`{"rule_string": "name = 'Bob"}`, "lex", 7},
		"dangling operator":  {`{"rule_string": "age > 30 AND"}`, "parse", -1},
	}
	for k, c := range cases {
		t.Run(k, func(t *testing.T) {
			code, body := do(t, s, http.MethodPost, "/create_rule", c.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, c.kind, body["kind"])
			if c.position >= 0 {
				assert.Equal(t, c.position, body["position"])
			}
		})
	}

	code, body := do(t, s, http.MethodGet, "/rules", "")
	assert.Equal(t, http.StatusOK, code, body)
	code, _ = do(t, s, http.MethodGet, "/rules/1", "")
	assert.Equal(t, http.StatusNotFound, code, "rejected rules are not stored")
}

func TestCombineRules(t *testing.T) {
	s := newServer(t, nil)

	code, body := do(t, s, http.MethodPost, "/combine_rules",
		`{"rules": ["a > 1 OR b > 1 OR c > 1", "d = 'x'", "d = 'x'"]}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "OR", body["connective"])
	assert.Equal(t, float64(1), body["duplicates"])
	assert.Equal(t, "OR", body["ast"].(map[string]any)["value"])

	code, body = do(t, s, http.MethodPost, "/combine_rules", `{"rules": []}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "request", body["kind"])

	code, _ = do(t, s, http.MethodPost, "/combine_rules", `{"ids": [42]}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCombineStoredRules(t *testing.T) {
	s := newServer(t, nil)
	for _, r := range []string{"age > 30", "department = 'Sales'"} {
		code, body := do(t, s, http.MethodPost, "/create_rule", `{"rule_string": "`+r+`"}`)
		require.Equal(t, http.StatusOK, code, body)
	}

	code, body := do(t, s, http.MethodPost, "/combine_rules", `{"ids": [1, 2]}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "AND", body["connective"], "ties go to AND")
	ast := body["ast"].(map[string]any)
	assert.Equal(t, "age > 30", ast["left"].(map[string]any)["value"])
	assert.Equal(t, "department = 'Sales'", ast["right"].(map[string]any)["value"])
}

func TestEvaluateRule(t *testing.T) {
	s := newServer(t, nil)
	ast := `{"node_type": "operator", "value": "AND",
		"left": {"node_type": "operand", "value": "age > 30"},
		"right": {"node_type": "operand", "value": "department = 'Sales'"}}`

	cases := map[string]struct {
		data   string
		code   int
		result bool
		kind   string
	}{
		"pass":          {`{"age": 35, "department": "Sales"}`, http.StatusOK, true, ""},
		"fail":          {`{"age": 35, "department": "Marketing"}`, http.StatusOK, false, ""},
		"short circuit": {`{"age": 20}`, http.StatusOK, false, ""},
		"missing":       {`{"department": "Sales"}`, http.StatusBadRequest, false, "missing_attribute"},
		"mismatch":      {`{"age": "old", "department": "Sales"}`, http.StatusBadRequest, false, "type_mismatch"},
	}
	for k, c := range cases {
		t.Run(k, func(t *testing.T) {
			code, body := do(t, s, http.MethodPost, "/evaluate_rule", `{"ast": `+ast+`, "data": `+c.data+`}`)
			require.Equal(t, c.code, code, body)
			if c.kind != "" {
				assert.Equal(t, c.kind, body["kind"])
				return
			}
			assert.Equal(t, c.result, body["result"])
		})
	}

	code, body := do(t, s, http.MethodPost, "/evaluate_rule", `{"ast": {"node_type": "operator", "value": "AND"}, "data": {}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "decode", body["kind"])

	code, body = do(t, s, http.MethodPost, "/evaluate_rule", `{"data": {"age": 1}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "request", body["kind"])
}

func TestStoredRuleLifecycle(t *testing.T) {
	st := store.NewMemory()
	_, err := st.Add(context.Background(), "experience >= 5")
	require.NoError(t, err)
	s := newServer(t, st)

	code, body := do(t, s, http.MethodPost, "/rules/1/evaluate", `{"data": {"experience": 6}}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["result"])

	code, _ = do(t, s, http.MethodDelete, "/rules/1", "")
	assert.Equal(t, http.StatusNoContent, code)

	code, body = do(t, s, http.MethodPost, "/rules/1/evaluate", `{"data": {"experience": 6}}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["kind"])

	code, _ = do(t, s, http.MethodGet, "/rules/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

// A rule written to a shared store by another process is not in this
// server's vault; deleting it still succeeds.
func TestDeleteRuleNotInVault(t *testing.T) {
	st := store.NewMemory()
	s := newServer(t, st)

	r, err := st.Add(context.Background(), "age > 30")
	require.NoError(t, err)

	code, body := do(t, s, http.MethodDelete, fmt.Sprintf("/rules/%d", r.ID), "")
	require.Equal(t, http.StatusNoContent, code, body)

	_, err = st.Get(context.Background(), r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	code, body = do(t, s, http.MethodDelete, fmt.Sprintf("/rules/%d", r.ID), "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["kind"])
}

func TestBadStoredRule(t *testing.T) {
	st := store.NewMemory()
	_, err := st.Add(context.Background(), "age >")
	require.NoError(t, err)

	_, err = server.New(context.Background(), config.Default().Server, verdict.NewEngine(), st, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newServer(t, nil)
	code, body := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}
