package verdict

import "fmt"

// TokenKind identifies the lexical class of a Token.
type TokenKind int

const (
	Identifier TokenKind = iota
	ComparatorToken
	LiteralToken
	LogicalOp
	LeftParen
	RightParen
)

func (k TokenKind) String() string {
	switch k {
	case Identifier:
		return "identifier"
	case ComparatorToken:
		return "comparator"
	case LiteralToken:
		return "literal"
	case LogicalOp:
		return "logical operator"
	case LeftParen:
		return "("
	case RightParen:
		return ")"
	default:
		return "unknown"
	}
}

// Token is one lexical element of a rule string.
//
// For literals, Text holds the value with quotes stripped and Quoted reports
// whether it was a string literal. For logical operators Text is upper-cased.
// Comparators are normalised, so "==" is reported as "=".
type Token struct {
	Kind   TokenKind
	Text   string
	Quoted bool
	// Byte offset of the token in the rule string
	Pos int
}

func (t Token) String() string {
	if t.Kind == LiteralToken && t.Quoted {
		return fmt.Sprintf("%s '%s'", t.Kind, t.Text)
	}
	return fmt.Sprintf("%s %s", t.Kind, t.Text)
}
