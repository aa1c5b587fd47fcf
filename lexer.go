package verdict

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Tokenize splits a rule string into tokens.
//
// Whitespace separates tokens and is otherwise ignored. AND and OR are
// recognized case-insensitively, but only as whole words; "ORDER" is an
// identifier. Quoted literals may use single or double quotes and do not
// support escapes.
func Tokenize(raw string) ([]Token, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &LexError{Pos: 0, Reason: "empty rule"}
	}
	l := lexer{input: raw}
	var tokens []Token
	for {
		tok, ok, err := l.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

type lexer struct {
	input string
	pos   int
}

// next returns the next token; ok is false at the end of input.
func (l *lexer) next() (tok Token, ok bool, err error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{}, false, nil
	}

	start := l.pos
	ch := l.input[l.pos]
	switch {
	case ch == '(':
		l.pos++
		return Token{Kind: LeftParen, Text: "(", Pos: start}, true, nil
	case ch == ')':
		l.pos++
		return Token{Kind: RightParen, Text: ")", Pos: start}, true, nil
	case ch == '>' || ch == '<' || ch == '=' || ch == '!':
		return l.readComparator()
	case ch == '\'' || ch == '"':
		return l.readQuoted()
	case isDigit(ch) || ((ch == '-' || ch == '+') && isDigit(l.peek(1))):
		return l.readNumber()
	case isIdentStart(ch):
		return l.readWord(), true, nil
	default:
		r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
		return Token{}, false, &LexError{Pos: start, Reason: fmt.Sprintf("unrecognized character %q", r)}
	}
}

func (l *lexer) peek(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

// readComparator matches the longest comparator at the current position.
func (l *lexer) readComparator() (Token, bool, error) {
	start := l.pos
	first, second := l.input[l.pos], l.peek(1)
	op := ""
	switch {
	case first == '>' && second == '=':
		op = ">="
	case first == '<' && second == '=':
		op = "<="
	case first == '!' && second == '=':
		op = "!="
	case first == '=' && second == '=':
		op = "=="
	case first == '>':
		op = ">"
	case first == '<':
		op = "<"
	case first == '=':
		op = "="
	default:
		return Token{}, false, &LexError{Pos: start, Reason: "unrecognized character '!'"}
	}
	l.pos += len(op)
	if op == "==" {
		op = "="
	}
	return Token{Kind: ComparatorToken, Text: op, Pos: start}, true, nil
}

func (l *lexer) readQuoted() (Token, bool, error) {
	start := l.pos
	quote := l.input[l.pos]
	end := strings.IndexByte(l.input[start+1:], quote)
	if end < 0 {
		return Token{}, false, &LexError{Pos: start, Reason: "unterminated quoted literal"}
	}
	text := l.input[start+1 : start+1+end]
	l.pos = start + end + 2
	return Token{Kind: LiteralToken, Text: text, Quoted: true, Pos: start}, true, nil
}

func (l *lexer) readNumber() (Token, bool, error) {
	start := l.pos
	if l.input[l.pos] == '-' || l.input[l.pos] == '+' {
		l.pos++
	}
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' && isDigit(l.peek(1)) {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (isIdentPart(l.input[l.pos]) || l.input[l.pos] == '.') {
		return Token{}, false, &LexError{Pos: start, Reason: fmt.Sprintf("malformed number %q", l.input[start:l.pos+1])}
	}
	return Token{Kind: LiteralToken, Text: l.input[start:l.pos], Pos: start}, true, nil
}

// readWord reads an identifier or a keyword. Dots are allowed between
// identifier characters, so nested attributes can be named as "employee.age".
func (l *lexer) readWord() Token {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if isIdentPart(ch) {
			l.pos++
			continue
		}
		if ch == '.' && isIdentStart(l.peek(1)) {
			l.pos++
			continue
		}
		break
	}
	word := l.input[start:l.pos]
	switch upper := strings.ToUpper(word); upper {
	case "AND", "OR":
		return Token{Kind: LogicalOp, Text: upper, Pos: start}
	}
	return Token{Kind: Identifier, Text: word, Pos: start}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
