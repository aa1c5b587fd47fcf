package verdict

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireNode is the transport and storage shape of a Node:
//
//	{"node_type": "operand",  "value": "age > 30"}
//	{"node_type": "operator", "value": "AND", "left": {...}, "right": {...}}
type wireNode struct {
	NodeType string    `json:"node_type"`
	Value    string    `json:"value"`
	Left     *wireNode `json:"left,omitempty"`
	Right    *wireNode `json:"right,omitempty"`
}

// MarshalJSON encodes the tree in its wire shape. The tree must be well formed.
func (n *Node) MarshalJSON() ([]byte, error) {
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("encoding tree: %w", err)
	}
	return json.Marshal(toWire(n))
}

// UnmarshalJSON decodes a tree from its wire shape. Operand values are read
// with the same comparison grammar the parser uses.
func (n *Node) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return &DecodeError{Path: "$", Reason: "tree is null"}
	}
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return &DecodeError{Path: "$", Reason: err.Error()}
	}
	decoded, err := fromWire(&w, "$", 1)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}

func toWire(n *Node) *wireNode {
	if n.Type == Operand {
		return &wireNode{NodeType: Operand.String(), Value: n.Condition()}
	}
	return &wireNode{
		NodeType: Operator.String(),
		Value:    n.Connective.String(),
		Left:     toWire(n.Left),
		Right:    toWire(n.Right),
	}
}

func fromWire(w *wireNode, path string, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, &DecodeError{Path: path, Reason: fmt.Sprintf("tree deeper than %d", MaxDepth)}
	}
	switch w.NodeType {
	case "operand":
		if w.Left != nil || w.Right != nil {
			return nil, &DecodeError{Path: path, Reason: "operand must not have children"}
		}
		n, err := ParseCondition(w.Value)
		if err != nil {
			return nil, &DecodeError{Path: path, Reason: err.Error()}
		}
		return n, nil
	case "operator":
		c, err := ParseConnective(w.Value)
		if err != nil {
			return nil, &DecodeError{Path: path, Reason: err.Error()}
		}
		if w.Left == nil || w.Right == nil {
			return nil, &DecodeError{Path: path, Reason: "operator needs both left and right"}
		}
		left, err := fromWire(w.Left, path+".left", depth+1)
		if err != nil {
			return nil, err
		}
		right, err := fromWire(w.Right, path+".right", depth+1)
		if err != nil {
			return nil, err
		}
		return NewOperator(c, left, right), nil
	default:
		return nil, &DecodeError{Path: path, Reason: fmt.Sprintf("unknown node_type %q", w.NodeType)}
	}
}

// ParseCondition reads a single comparison such as "age > 30" into an Operand.
func ParseCondition(s string) (*Node, error) {
	tokens, err := Tokenize(s)
	if err != nil {
		return nil, err
	}
	p := parser{tokens: tokens}
	if tokens[0].Kind != Identifier {
		return nil, p.errorf("condition must start with an identifier, got %s", tokens[0])
	}
	n, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.pos < len(tokens) {
		return nil, p.errorf("unexpected %s after condition", tokens[p.pos])
	}
	return n, nil
}
