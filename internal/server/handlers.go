package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/ezachrisen/verdict"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type createRuleRequest struct {
	RuleString string `json:"rule_string"`
}

type ruleResponse struct {
	ID         int64         `json:"id"`
	RuleString string        `json:"rule_string"`
	AST        *verdict.Node `json:"ast,omitempty"`
}

type combineRequest struct {
	Rules []string `json:"rules"`
	IDs   []int64  `json:"ids"`
}

type combineResponse struct {
	AST        *verdict.Node `json:"ast"`
	Connective string        `json:"connective"`
	Duplicates int           `json:"duplicates"`
}

type evaluateRequest struct {
	AST  json.RawMessage `json:"ast"`
	Data verdict.Record  `json:"data"`
}

type evaluateResponse struct {
	Result bool `json:"result"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "rules": s.vault.Len()})
}

// createRule parses the rule, stores it and adds it to the vault. A rule
// that does not parse is not stored.
func (s *Server) createRule(c *fiber.Ctx) error {
	var req createRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest("invalid request body: " + err.Error())
	}
	if strings.TrimSpace(req.RuleString) == "" {
		return errBadRequest("rule_string is required")
	}

	n, err := s.engine.ParseRule(req.RuleString)
	if err != nil {
		return err
	}
	r, err := s.store.Add(c.UserContext(), req.RuleString)
	if err != nil {
		return err
	}
	if err := s.vault.ApplyMutations([]verdict.RuleMutation{{ID: r.ID, Rule: r.Text}}); err != nil {
		return err
	}
	s.log.Debug("rule created", zap.Int64("id", r.ID))
	return c.JSON(ruleResponse{ID: r.ID, RuleString: r.Text, AST: n})
}

// combineRules combines rule strings, or stored rules by ID.
func (s *Server) combineRules(c *fiber.Ctx) error {
	var req combineRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest("invalid request body: " + err.Error())
	}

	var (
		n     *verdict.Node
		stats verdict.CombineStats
		err   error
	)
	switch {
	case len(req.Rules) > 0 && len(req.IDs) > 0:
		return errBadRequest("give either rules or ids, not both")
	case len(req.Rules) > 0:
		trees := make([]*verdict.Node, len(req.Rules))
		for i, r := range req.Rules {
			trees[i], err = s.engine.ParseRule(r)
			if err != nil {
				return err
			}
		}
		n, stats, err = s.engine.CombineTreesWithStats(trees)
	case len(req.IDs) > 0:
		n, stats, err = s.vault.Combine(req.IDs)
	default:
		return errBadRequest("a non-empty list of rules or ids is required")
	}
	if err != nil {
		return err
	}
	return c.JSON(combineResponse{AST: n, Connective: stats.Connective.String(), Duplicates: stats.Duplicates})
}

// evaluateRule evaluates a tree sent in wire form.
func (s *Server) evaluateRule(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest("invalid request body: " + err.Error())
	}
	if len(req.AST) == 0 || req.Data == nil {
		return errBadRequest("data and ast are required")
	}

	var n verdict.Node
	if err := n.UnmarshalJSON(req.AST); err != nil {
		return err
	}
	result, err := s.engine.EvaluateRule(&n, req.Data)
	if err != nil {
		return err
	}
	return c.JSON(evaluateResponse{Result: result})
}

func (s *Server) listRules(c *fiber.Ctx) error {
	rules, err := s.store.List(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]ruleResponse, len(rules))
	for i, r := range rules {
		resp[i] = ruleResponse{ID: r.ID, RuleString: r.Text}
	}
	return c.JSON(resp)
}

func (s *Server) getRule(c *fiber.Ctx) error {
	id, err := ruleID(c)
	if err != nil {
		return err
	}
	r, err := s.store.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	n, _ := s.vault.Tree(id)
	return c.JSON(ruleResponse{ID: r.ID, RuleString: r.Text, AST: n})
}

func (s *Server) deleteRule(c *fiber.Ctx) error {
	id, err := ruleID(c)
	if err != nil {
		return err
	}
	if err := s.store.Delete(c.UserContext(), id); err != nil {
		return err
	}
	// The store is the record of truth; a rule added to a shared store by
	// another process is not in this vault.
	err = s.vault.ApplyMutations([]verdict.RuleMutation{{ID: id}})
	if err != nil && !errors.Is(err, verdict.ErrRuleNotFound) {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// evaluateStored evaluates a stored rule against {"data": {...}}.
func (s *Server) evaluateStored(c *fiber.Ctx) error {
	id, err := ruleID(c)
	if err != nil {
		return err
	}
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadRequest("invalid request body: " + err.Error())
	}
	if req.Data == nil {
		return errBadRequest("data is required")
	}
	result, err := s.vault.Evaluate(id, req.Data)
	if err != nil {
		return err
	}
	return c.JSON(evaluateResponse{Result: result})
}

func ruleID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, errBadRequest("rule id must be an integer")
	}
	return id, nil
}
