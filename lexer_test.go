package verdict_test

import (
	"errors"
	"testing"

	"github.com/ezachrisen/verdict"
	"github.com/matryer/is"
)

func TestTokenize(t *testing.T) {
	is := is.New(t)

	tokens, err := verdict.Tokenize(`(age >= 30 and dept == "Sales") OR score<-1.5`)
	is.NoErr(err)

	want := []struct {
		kind verdict.TokenKind
		text string
		pos  int
	}{
		{verdict.LeftParen, "(", 0},
		{verdict.Identifier, "age", 1},
		{verdict.ComparatorToken, ">=", 5},
		{verdict.LiteralToken, "30", 8},
		{verdict.LogicalOp, "AND", 11},
		{verdict.Identifier, "dept", 15},
		{verdict.ComparatorToken, "=", 20},
		{verdict.LiteralToken, "Sales", 23},
		{verdict.RightParen, ")", 30},
		{verdict.LogicalOp, "OR", 32},
		{verdict.Identifier, "score", 35},
		{verdict.ComparatorToken, "<", 40},
		{verdict.LiteralToken, "-1.5", 41},
	}
	is.Equal(len(tokens), len(want))
	for i, w := range want {
		is.Equal(tokens[i].Kind, w.kind) // kind
		is.Equal(tokens[i].Text, w.text) // text
		is.Equal(tokens[i].Pos, w.pos)   // position
	}
	is.True(tokens[7].Quoted)
	is.True(!tokens[3].Quoted)
}

func TestTokenizeWholeWordKeywords(t *testing.T) {
	is := is.New(t)

	tokens, err := verdict.Tokenize("ORDER = 1 AND ANDROID = 2 or oregon = 'x'")
	is.NoErr(err)
	is.Equal(tokens[0].Kind, verdict.Identifier)
	is.Equal(tokens[0].Text, "ORDER")
	is.Equal(tokens[3].Kind, verdict.LogicalOp)
	is.Equal(tokens[4].Kind, verdict.Identifier)
	is.Equal(tokens[4].Text, "ANDROID")
	is.Equal(tokens[7].Kind, verdict.LogicalOp)
	is.Equal(tokens[7].Text, "OR")
	is.Equal(tokens[8].Text, "oregon")
}

func TestTokenizeLongestComparator(t *testing.T) {
	cases := map[string]string{
		"a>=1": ">=",
		"a<=1": "<=",
		"a!=1": "!=",
		"a==1": "=",
		"a=1":  "=",
		"a>1":  ">",
		"a<1":  "<",
	}
	for rule, want := range cases {
		tokens, err := verdict.Tokenize(rule)
		if err != nil {
			t.Errorf("case %s: %v", rule, err)
			continue
		}
		if len(tokens) != 3 || tokens[1].Text != want {
			t.Errorf("case %s: wanted comparator %s, got %v", rule, want, tokens)
		}
	}
}

func TestTokenizeLiterals(t *testing.T) {
	is := is.New(t)

	tokens, err := verdict.Tokenize(`a = 'it''s' b = "O'Brien" c = '' d = +7 e = 0.25 employee.age = 3`)
	is.NoErr(err)
	var texts []string
	for _, tok := range tokens {
		if tok.Kind == verdict.LiteralToken || tok.Kind == verdict.Identifier {
			texts = append(texts, tok.Text)
		}
	}
	is.Equal(texts, []string{"a", "it", "s", "b", "O'Brien", "c", "", "d", "+7", "e", "0.25", "employee.age", "3"})
}

func TestTokenizeErrors(t *testing.T) {
	cases := map[string]struct {
		rule string
		pos  int
	}{
		"empty":               {"", 0},
		"blank":               {"   \t", 0},
		"unknown character":   {"age > 30 & x = 1", 9},
		"bang alone":          {"age ! 30", 4},
		"unterminated":        {"name = 'Bob", 7},
		"unterminated double": {`name = "Bob'`, 7},
		"number then letter":  {"age > 30abc", 6},
		"trailing dot":        {"age > 30.", 6},
		"unicode":             {"âge > 1", 0},
	}
	for k, c := range cases {
		t.Run(k, func(t *testing.T) {
			is := is.New(t)
			_, err := verdict.Tokenize(c.rule)
			var le *verdict.LexError
			is.True(errors.As(err, &le))
			is.Equal(le.Pos, c.pos)
		})
	}
}
