package verdict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Delta456/box-cli-maker/v2"
	"github.com/alexeyco/simpletable"
)

// Diagnostics records the evaluation of one node and, for operators, of its
// children. It is produced by Explain.
type Diagnostics struct {
	Node *Node
	// The node as rule text
	Expr string
	// The record value compared by an operand
	Value any
	Pass  bool
	// Set when short-circuiting made evaluating the node unnecessary
	Skipped  bool
	Err      error
	Children []*Diagnostics
}

// AsString renders the diagnostics as a boxed report listing every node in
// evaluation order, followed by the record if one is given.
func (d *Diagnostics) AsString(rec Record) string {
	Box := box.New(box.Config{Px: 2, Py: 1, Type: "Double", Color: "Cyan", TitlePos: "Top", ContentAlign: "Left"})

	s := strings.Builder{}
	if d.Node != nil {
		s.WriteString("Rule:\n")
		s.WriteString("-----\n")
		s.WriteString(wordWrap(d.Expr, 100))
		s.WriteString("\n\n")
	}

	s.WriteString("Evaluation:\n")
	s.WriteString("-----------\n")
	s.WriteString(d.diagnosticTable().String())

	if rec != nil {
		s.WriteString("\n\n")
		s.WriteString("Record:\n")
		s.WriteString("-------\n")
		s.WriteString(recordTable(rec).String())
	}
	return Box.String("VERDICT EVALUATION REPORT", s.String())
}

func (d *Diagnostics) diagnosticTable() *simpletable.Table {
	table := simpletable.New()
	table.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Node"},
			{Align: simpletable.AlignCenter, Text: "Value"},
			{Align: simpletable.AlignCenter, Text: "Result"},
		},
	}

	for _, fd := range flattenDiagnostics(d, 0) {
		r := []*simpletable.Cell{
			{Text: strings.Repeat("  ", fd.level) + fd.label()},
			{Text: fd.value()},
			{Text: fd.result()},
		}
		table.Body.Cells = append(table.Body.Cells, r)
	}

	table.SetStyle(simpletable.StyleUnicode)
	return table
}

func recordTable(rec Record) *simpletable.Table {
	table := simpletable.New()
	table.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Name"},
			{Align: simpletable.AlignCenter, Text: "Value"},
		},
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r := []*simpletable.Cell{
			{Text: k},
			{Text: fmt.Sprintf("%v", rec[k])},
		}
		table.Body.Cells = append(table.Body.Cells, r)
	}

	table.SetStyle(simpletable.StyleUnicode)
	return table
}

type flatDiagnostic struct {
	*Diagnostics
	level int
}

func flattenDiagnostics(d *Diagnostics, level int) []flatDiagnostic {
	l := []flatDiagnostic{{d, level}}
	for _, c := range d.Children {
		if c.Node == nil && c.Err == nil {
			// never reached because an earlier sibling failed
			continue
		}
		l = append(l, flattenDiagnostics(c, level+1)...)
	}
	return l
}

func (d *Diagnostics) label() string {
	if d.Node == nil {
		return d.Expr
	}
	if d.Node.Type == Operator {
		return d.Node.Connective.String()
	}
	return d.Node.Condition()
}

func (d *Diagnostics) value() string {
	if d.Node == nil || d.Node.Type != Operand || d.Skipped || d.Value == nil {
		return ""
	}
	return fmt.Sprintf("%v", d.Value)
}

func (d *Diagnostics) result() string {
	switch {
	case d.Err != nil:
		return "ERROR: " + d.Err.Error()
	case d.Skipped:
		return "skipped"
	case d.Pass:
		return "true"
	default:
		return "false"
	}
}

func wordWrap(text string, lineWidth int) string {
	words := strings.Fields(strings.TrimSpace(text))
	if len(words) == 0 {
		return text
	}
	wrapped := words[0]
	spaceLeft := lineWidth - len(wrapped)
	for _, word := range words[1:] {
		if len(word)+1 > spaceLeft {
			wrapped += "\n" + word
			spaceLeft = lineWidth - len(word)
		} else {
			wrapped += " " + word
			spaceLeft -= 1 + len(word)
		}
	}
	return wrapped
}
