package verdict

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Tree returns the tree drawn with box-drawing characters, one node per line.
// Drawing stops 20 levels down.
//
// Example output for "age > 30 AND (department = 'Sales' OR salary > 50000)":
//
//	AND
//	├── age > 30
//	└── OR
//	    ├── department = 'Sales'
//	    └── salary > 50000
func (n *Node) Tree() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(n.Condition())
	sb.WriteString("\n")
	n.buildTree(&sb, "", 0)
	return sb.String()
}

// buildTree writes the children of n with the tree characters (├──, └──, │).
func (n *Node) buildTree(sb *strings.Builder, prefix string, depth int) {
	if depth >= 20 || n.Type != Operator {
		return
	}
	children := []*Node{n.Left, n.Right}
	for i, child := range children {
		if child == nil {
			continue
		}
		var connector, childPrefix string
		if i == len(children)-1 {
			connector = "└── "
			childPrefix = "    "
		} else {
			connector = "├── "
			childPrefix = "│   "
		}
		sb.WriteString(prefix)
		sb.WriteString(connector)
		sb.WriteString(child.Condition())
		sb.WriteString("\n")
		child.buildTree(sb, prefix+childPrefix, depth+1)
	}
}

// Table returns the operands of the tree as a table, in evaluation order,
// indented by depth.
func (n *Node) Table() string {
	tw := table.NewWriter()
	tw.SetTitle("\nVERDICT RULE\n")
	tw.AppendHeader(table.Row{"\nNode", "\nAttribute", "\nComparator", "\nLiteral", "Literal\nType"})

	for _, r := range n.nodesToRows(0) {
		tw.AppendRow(r)
	}

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func (n *Node) nodesToRows(level int) []table.Row {
	if n == nil {
		return nil
	}
	indent := strings.Repeat("  ", level)
	if n.Type == Operand {
		return []table.Row{{
			fmt.Sprintf("%s%s", indent, n.Type),
			n.Attribute,
			n.Comparator.String(),
			n.Literal.String(),
			n.Literal.Kind().String(),
		}}
	}
	rows := []table.Row{{fmt.Sprintf("%s%s", indent, n.Connective), "", "", "", ""}}
	rows = append(rows, n.Left.nodesToRows(level+1)...)
	rows = append(rows, n.Right.nodesToRows(level+1)...)
	return rows
}
