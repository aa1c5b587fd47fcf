package server

import (
	"errors"

	"github.com/ezachrisen/verdict"
	"github.com/ezachrisen/verdict/store"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Position  *int   `json:"position,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Path      string `json:"path,omitempty"`
}

// errBadRequest marks request validation failures.
type errBadRequest string

func (e errBadRequest) Error() string { return string(e) }

// errorHandler maps rule errors to 400, unknown rules to 404 and anything
// else to 500. Internal errors are logged and not shown to the client.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code, body := s.classify(err)
	if code == fiber.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.Status(code).JSON(body)
}

func (s *Server) classify(err error) (int, ErrorResponse) {
	var (
		badRequest errBadRequest
		lexErr     *verdict.LexError
		parseErr   *verdict.ParseError
		combineErr *verdict.CombineError
		evalErr    *verdict.EvalError
		decodeErr  *verdict.DecodeError
		fiberErr   *fiber.Error
	)
	body := ErrorResponse{Error: err.Error()}

	switch {
	case errors.As(err, &badRequest):
		body.Kind = "request"
	case errors.As(err, &lexErr):
		body.Kind = "lex"
		body.Position = &lexErr.Pos
	case errors.As(err, &parseErr):
		body.Kind = "parse"
		if parseErr.Pos >= 0 {
			body.Position = &parseErr.Pos
		}
	case errors.As(err, &combineErr):
		body.Kind = "combine"
	case errors.As(err, &evalErr):
		body.Kind = evalKind(evalErr.Kind)
		body.Attribute = evalErr.Attribute
	case errors.As(err, &decodeErr):
		body.Kind = "decode"
		body.Path = decodeErr.Path
	case errors.Is(err, verdict.ErrRuleNotFound), errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: "not_found"}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, ErrorResponse{Error: fiberErr.Message, Kind: "http"}
	default:
		return fiber.StatusInternalServerError, ErrorResponse{Error: "internal server error", Kind: "internal"}
	}
	return fiber.StatusBadRequest, body
}

func evalKind(k verdict.EvalErrorKind) string {
	switch k {
	case verdict.MissingAttribute:
		return "missing_attribute"
	case verdict.TypeMismatch:
		return "type_mismatch"
	default:
		return "malformed_tree"
	}
}
