package verdict

import (
	"fmt"
	"strconv"
	"strings"
)

// LiteralKind distinguishes number literals from text literals.
type LiteralKind int

const (
	NumberLiteral LiteralKind = iota
	TextLiteral
)

func (k LiteralKind) String() string {
	switch k {
	case NumberLiteral:
		return "number"
	case TextLiteral:
		return "text"
	default:
		return "unknown"
	}
}

// Literal is the right-hand side of a comparison: either a number or a piece
// of text. The zero value is the number 0.
type Literal struct {
	kind LiteralKind
	num  float64
	text string
}

// Number returns a number literal.
func Number(f float64) Literal {
	return Literal{kind: NumberLiteral, num: f}
}

// Text returns a text literal.
func Text(s string) Literal {
	return Literal{kind: TextLiteral, text: s}
}

func (l Literal) Kind() LiteralKind { return l.kind }

// Num returns the value of a number literal; ok is false for text.
func (l Literal) Num() (f float64, ok bool) {
	return l.num, l.kind == NumberLiteral
}

// Str returns the value of a text literal; ok is false for numbers.
func (l Literal) Str() (s string, ok bool) {
	return l.text, l.kind == TextLiteral
}

// Value returns the literal as float64 or string.
func (l Literal) Value() any {
	if l.kind == TextLiteral {
		return l.text
	}
	return l.num
}

// Equal reports whether two literals have the same kind and value.
func (l Literal) Equal(o Literal) bool {
	if l.kind != o.kind {
		return false
	}
	if l.kind == TextLiteral {
		return l.text == o.text
	}
	return l.num == o.num
}

// String returns the literal as it is written in a rule: numbers in shortest
// form, text in single quotes, or double quotes if the text holds a single
// quote.
func (l Literal) String() string {
	if l.kind == NumberLiteral {
		return strconv.FormatFloat(l.num, 'f', -1, 64)
	}
	if strings.ContainsRune(l.text, '\'') {
		return `"` + l.text + `"`
	}
	return "'" + l.text + "'"
}

// printable reports whether the literal can be written in a rule and read
// back. Text holding both quote characters has no spelling without escapes.
func (l Literal) printable() error {
	if l.kind == TextLiteral && strings.ContainsRune(l.text, '\'') && strings.ContainsRune(l.text, '"') {
		return fmt.Errorf("text literal %q contains both quote characters", l.text)
	}
	return nil
}

func literalFromToken(t Token) (Literal, error) {
	if t.Quoted {
		return Text(t.Text), nil
	}
	f, err := strconv.ParseFloat(t.Text, 64)
	if err != nil {
		return Literal{}, fmt.Errorf("invalid number %q: %w", t.Text, err)
	}
	return Number(f), nil
}
