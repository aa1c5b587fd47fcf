package verdict

import "fmt"

// ParseRule tokenizes and parses a rule string.
func ParseRule(rule string) (*Node, error) {
	tokens, err := Tokenize(rule)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// Parse builds a tree from tokens using the grammar
//
//	expr       := or_expr
//	or_expr    := and_expr ( "OR" and_expr )*
//	and_expr   := atom ( "AND" atom )*
//	atom       := "(" expr ")" | comparison
//	comparison := Identifier Comparator Literal
//
// AND binds tighter than OR and both associate to the left. A rule with a
// single comparison yields a single Operand.
func Parse(tokens []Token) (*Node, error) {
	if len(tokens) == 0 {
		return nil, &ParseError{Index: 0, Pos: -1, Reason: "no tokens"}
	}
	p := parser{tokens: tokens}
	n, err := p.parseOr(1)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		t := p.tokens[p.pos]
		if t.Kind == RightParen {
			return nil, p.errorf("unbalanced parentheses: unexpected ')'")
		}
		return nil, p.errorf("unexpected %s after complete expression", t)
	}
	if d := n.Depth(); d > MaxDepth {
		return nil, &ParseError{Index: 0, Pos: tokens[0].Pos, Reason: fmt.Sprintf("rule is %d levels deep, the limit is %d", d, MaxDepth)}
	}
	return n, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	pos := -1
	if p.pos < len(p.tokens) {
		pos = p.tokens[p.pos].Pos
	}
	return &ParseError{Index: p.pos, Pos: pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) atLogical(op string) bool {
	t, ok := p.peek()
	return ok && t.Kind == LogicalOp && t.Text == op
}

func (p *parser) parseOr(depth int) (*Node, error) {
	left, err := p.parseAnd(depth)
	if err != nil {
		return nil, err
	}
	for p.atLogical("OR") {
		p.pos++
		right, err := p.parseAnd(depth)
		if err != nil {
			return nil, err
		}
		left = NewOperator(Or, left, right)
	}
	return left, nil
}

func (p *parser) parseAnd(depth int) (*Node, error) {
	left, err := p.parseAtom(depth)
	if err != nil {
		return nil, err
	}
	for p.atLogical("AND") {
		p.pos++
		right, err := p.parseAtom(depth)
		if err != nil {
			return nil, err
		}
		left = NewOperator(And, left, right)
	}
	return left, nil
}

func (p *parser) parseAtom(depth int) (*Node, error) {
	t, ok := p.peek()
	if !ok {
		return nil, p.errorf("rule ends where a condition was expected")
	}
	switch t.Kind {
	case LeftParen:
		if depth >= MaxDepth {
			return nil, p.errorf("parentheses nested deeper than %d", MaxDepth)
		}
		open := p.pos
		p.pos++
		n, err := p.parseOr(depth + 1)
		if err != nil {
			return nil, err
		}
		if closing, ok := p.peek(); !ok || closing.Kind != RightParen {
			if !ok {
				return nil, &ParseError{Index: open, Pos: t.Pos, Reason: "unbalanced parentheses: '(' is never closed"}
			}
			return nil, p.errorf("expected ')', got %s", closing)
		}
		p.pos++
		return n, nil
	case Identifier:
		return p.parseComparison()
	case LogicalOp:
		return nil, p.errorf("%s is missing its left operand", t.Text)
	case RightParen:
		return nil, p.errorf("unexpected ')' where a condition was expected")
	default:
		return nil, p.errorf("comparator must sit between an identifier and a literal, got %s", t)
	}
}

func (p *parser) parseComparison() (*Node, error) {
	ident := p.tokens[p.pos]
	p.pos++

	cmpTok, ok := p.peek()
	if !ok {
		return nil, p.errorf("rule ends after %q, expected a comparator", ident.Text)
	}
	if cmpTok.Kind != ComparatorToken {
		return nil, p.errorf("expected a comparator after %q, got %s", ident.Text, cmpTok)
	}
	cmp, err := ParseComparator(cmpTok.Text)
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	p.pos++

	litTok, ok := p.peek()
	if !ok {
		return nil, p.errorf("rule ends after %q %s, expected a literal", ident.Text, cmpTok.Text)
	}
	if litTok.Kind != LiteralToken {
		return nil, p.errorf("comparator %s must be followed by a literal, got %s", cmpTok.Text, litTok)
	}
	lit, err := literalFromToken(litTok)
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	p.pos++

	return NewOperand(ident.Text, cmp, lit), nil
}
