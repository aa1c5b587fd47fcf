package verdict

import (
	"fmt"
	"sort"
	"strings"
)

// MaxDepth is the deepest tree the parser, decoder and validator accept.
// Rules written by people are far shallower; the limit keeps recursion
// bounded on hostile input.
const MaxDepth = 1024

// NodeType is the variant of a Node.
type NodeType int

const (
	// An Operand holds a single comparison and has no children.
	Operand NodeType = iota
	// An Operator joins exactly two children with AND or OR.
	Operator
)

func (t NodeType) String() string {
	switch t {
	case Operand:
		return "operand"
	case Operator:
		return "operator"
	default:
		return "unknown"
	}
}

// Comparator is the relation tested by an Operand.
type Comparator int

const (
	Equal Comparator = iota
	NotEqual
	Greater
	Less
	GreaterOrEqual
	LessOrEqual
)

var comparatorText = map[Comparator]string{
	Equal:          "=",
	NotEqual:       "!=",
	Greater:        ">",
	Less:           "<",
	GreaterOrEqual: ">=",
	LessOrEqual:    "<=",
}

func (c Comparator) String() string {
	if s, ok := comparatorText[c]; ok {
		return s
	}
	return fmt.Sprintf("Comparator(%d)", int(c))
}

// Ordering reports whether the comparator is only defined for numbers.
func (c Comparator) Ordering() bool {
	return c == Greater || c == Less || c == GreaterOrEqual || c == LessOrEqual
}

// ParseComparator converts the text form of a comparator. "==" is accepted
// as another spelling of "=".
func ParseComparator(s string) (Comparator, error) {
	if s == "==" {
		return Equal, nil
	}
	for c, t := range comparatorText {
		if t == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown comparator %q", s)
}

// Connective is the logical operator of an Operator node.
type Connective int

const (
	And Connective = iota
	Or
)

func (c Connective) String() string {
	switch c {
	case And:
		return "AND"
	case Or:
		return "OR"
	default:
		return fmt.Sprintf("Connective(%d)", int(c))
	}
}

// ParseConnective converts "AND" or "OR", in any case.
func ParseConnective(s string) (Connective, error) {
	switch strings.ToUpper(s) {
	case "AND":
		return And, nil
	case "OR":
		return Or, nil
	}
	return 0, fmt.Errorf("unknown logical operator %q", s)
}

// A Node is one element of a rule's abstract syntax tree.
//
// Trees are values owned by whoever built them. Once a tree is handed to
// Evaluate, Combine or another goroutine it must not be modified; a node must
// never be the child of more than one parent. Evaluation never modifies a
// tree, so one tree may be evaluated concurrently against many records.
type Node struct {
	Type NodeType

	// Operand fields
	Attribute  string
	Comparator Comparator
	Literal    Literal

	// Operator fields
	Connective Connective
	Left       *Node
	Right      *Node
}

// NewOperand returns a leaf comparing attr with lit.
func NewOperand(attr string, cmp Comparator, lit Literal) *Node {
	return &Node{
		Type:       Operand,
		Attribute:  attr,
		Comparator: cmp,
		Literal:    lit,
	}
}

// NewOperator joins left and right with the connective. The caller gives up
// ownership of both children.
func NewOperator(c Connective, left, right *Node) *Node {
	return &Node{
		Type:       Operator,
		Connective: c,
		Left:       left,
		Right:      right,
	}
}

// Equal reports whether n and o have the same shape, connectives,
// comparators, attribute names and literal values.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Type != o.Type {
		return false
	}
	switch n.Type {
	case Operand:
		return n.Attribute == o.Attribute &&
			n.Comparator == o.Comparator &&
			n.Literal.Equal(o.Literal)
	default:
		return n.Connective == o.Connective &&
			n.Left.Equal(o.Left) &&
			n.Right.Equal(o.Right)
	}
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Left = n.Left.Clone()
	c.Right = n.Right.Clone()
	return &c
}

// Walk calls f for every node in the tree, parents before children and left
// before right. If f returns false the children of that node are skipped.
func (n *Node) Walk(f func(*Node) bool) {
	if n == nil || !f(n) {
		return
	}
	if n.Type == Operator {
		n.Left.Walk(f)
		n.Right.Walk(f)
	}
}

// Validate checks that the tree is a strict binary tree: every Operator has
// two children, every Operand has none, no node appears twice, and the depth
// does not exceed MaxDepth.
func (n *Node) Validate() error {
	if n == nil {
		return fmt.Errorf("nil tree")
	}
	seen := map[*Node]bool{}
	return n.validate(seen, 1)
}

func (n *Node) validate(seen map[*Node]bool, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("tree deeper than %d", MaxDepth)
	}
	if seen[n] {
		return fmt.Errorf("node %s appears more than once", n.label())
	}
	seen[n] = true
	switch n.Type {
	case Operand:
		if n.Left != nil || n.Right != nil {
			return fmt.Errorf("operand %s has children", n.label())
		}
		if !validIdentifier(n.Attribute) {
			return fmt.Errorf("operand has invalid attribute name %q", n.Attribute)
		}
		if _, ok := comparatorText[n.Comparator]; !ok {
			return fmt.Errorf("operand %s has unknown comparator", n.Attribute)
		}
		return n.Literal.printable()
	case Operator:
		if n.Connective != And && n.Connective != Or {
			return fmt.Errorf("operator has unknown connective %d", int(n.Connective))
		}
		if n.Left == nil || n.Right == nil {
			return fmt.Errorf("%s operator is missing a child", n.Connective)
		}
		if err := n.Left.validate(seen, depth+1); err != nil {
			return err
		}
		return n.Right.validate(seen, depth+1)
	default:
		return fmt.Errorf("unknown node type %d", int(n.Type))
	}
}

// Depth returns the number of nodes on the longest root-to-leaf path.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	if n.Type != Operator {
		return 1
	}
	l, r := n.Left.Depth(), n.Right.Depth()
	if l > r {
		return l + 1
	}
	return r + 1
}

// Size returns the number of nodes in the tree.
func (n *Node) Size() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Attributes returns the sorted, de-duplicated attribute names the tree refers to.
func (n *Node) Attributes() []string {
	set := map[string]struct{}{}
	n.Walk(func(c *Node) bool {
		if c.Type == Operand {
			set[c.Attribute] = struct{}{}
		}
		return true
	})
	names := make([]string, 0, len(set))
	for k := range set {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Condition returns the comparison held by an Operand as rule text, e.g.
// "age > 30". For an Operator it returns the connective.
func (n *Node) Condition() string {
	if n.Type == Operand {
		return n.Attribute + " " + n.Comparator.String() + " " + n.Literal.String()
	}
	return n.Connective.String()
}

// String returns the tree as a rule string. Every Operator child is wrapped
// in parentheses, so parsing the result yields a tree equal to n.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if n.Type == Operand {
		sb.WriteString(n.Condition())
		return
	}
	writeChild := func(c *Node) {
		if c != nil && c.Type == Operator {
			sb.WriteString("(")
			c.write(sb)
			sb.WriteString(")")
			return
		}
		if c == nil {
			sb.WriteString("<nil>")
			return
		}
		c.write(sb)
	}
	writeChild(n.Left)
	sb.WriteString(" ")
	sb.WriteString(n.Connective.String())
	sb.WriteString(" ")
	writeChild(n.Right)
}

func (n *Node) label() string {
	if n.Type == Operand {
		return fmt.Sprintf("%q", n.Condition())
	}
	return n.Connective.String()
}

// countConnectives returns the number of AND and OR operators in the tree.
func (n *Node) countConnectives() (and, or int) {
	n.Walk(func(c *Node) bool {
		if c.Type == Operator {
			switch c.Connective {
			case And:
				and++
			case Or:
				or++
			}
		}
		return true
	})
	return and, or
}

// validIdentifier reports whether s would be read back by Tokenize as a
// single identifier.
func validIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	switch strings.ToUpper(s) {
	case "AND", "OR":
		return false
	}
	for i := 1; i < len(s); i++ {
		switch {
		case isIdentPart(s[i]):
		case s[i] == '.' && i+1 < len(s) && isIdentStart(s[i+1]):
		default:
			return false
		}
	}
	return true
}
