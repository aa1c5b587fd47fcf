package verdict

import (
	"errors"
	"fmt"
)

// ErrRuleNotFound is returned by the Vault when a rule ID is unknown.
var ErrRuleNotFound = errors.New("rule not found")

// LexError reports a rule string that could not be tokenized: an
// unrecognized character, an unterminated quoted literal, or an empty rule.
type LexError struct {
	// Byte offset in the rule string
	Pos    int
	Reason string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at position %d: %s", e.Pos, e.Reason)
}

// ParseError reports a token sequence that does not form a rule.
type ParseError struct {
	// Index of the offending token; equal to the number of tokens when the
	// rule ended early.
	Index int
	// Byte offset of the offending token in the rule string, or -1 if unknown.
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("parse error at token %d (position %d): %s", e.Index, e.Pos, e.Reason)
	}
	return fmt.Sprintf("parse error at token %d: %s", e.Index, e.Reason)
}

// CombineError is returned by Combine when there is nothing to combine.
type CombineError struct {
	Reason string
}

func (e *CombineError) Error() string {
	return "combine error: " + e.Reason
}

// EvalErrorKind classifies evaluation failures.
type EvalErrorKind int

const (
	// The record has no value for an attribute the evaluation visited.
	MissingAttribute EvalErrorKind = iota
	// The record value cannot be compared with the literal using the comparator.
	TypeMismatch
	// The tree itself is not well formed (nil node, operator without children).
	MalformedTree
)

func (k EvalErrorKind) String() string {
	switch k {
	case MissingAttribute:
		return "missing attribute"
	case TypeMismatch:
		return "type mismatch"
	case MalformedTree:
		return "malformed tree"
	default:
		return "unknown"
	}
}

// EvalError is returned when a tree cannot be evaluated against a record.
// It is never folded into a false result.
type EvalError struct {
	Kind      EvalErrorKind
	Attribute string
	Reason    string
}

func (e *EvalError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("evaluation error: %s: %s: %s", e.Kind, e.Attribute, e.Reason)
	}
	return fmt.Sprintf("evaluation error: %s: %s", e.Kind, e.Reason)
}

// DecodeError is returned when a serialized tree does not have the
// operand/operator shape.
type DecodeError struct {
	// Location of the bad node, e.g. "$.left.right"
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at %s: %s", e.Path, e.Reason)
}
