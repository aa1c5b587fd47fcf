// Package schema describes the attributes a rule reads and the types of
// value it expects for them.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ezachrisen/verdict"
)

// Schema lists the attributes (variable names) used in a rule and their
// types. A record evaluated against the rule must supply values of these
// types for the attributes evaluation reaches.
type Schema struct {
	// Identifier for the schema. Useful for the hosting application; not used by verdict internally.
	ID string `json:"id,omitempty"`
	// List of data elements supported by this schema
	Elements []DataElement `json:"elements,omitempty"`
}

// DataElement defines a named attribute in a schema
type DataElement struct {
	// Attribute name as written in rules, e.g. "age" or "employee.age"
	Name string `json:"name"`

	// One of the Type values defined below.
	Type Type `json:"type"`

	// Optional description of the attribute.
	Description string `json:"description,omitempty"`
}

// Type is the type of value an attribute holds.
type Type interface {
	String() string
}

type Number struct{}
type Text struct{}
type Bool struct{}
type Any struct{}

func (t Number) String() string { return "number" }
func (t Text) String() string   { return "text" }
func (t Bool) String() string   { return "bool" }
func (t Any) String() string    { return "any" }

// ParseType converts a type name ("number", "text", "bool", "any") to a Type.
// "string" is accepted for text.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number":
		return Number{}, nil
	case "text", "string":
		return Text{}, nil
	case "bool":
		return Bool{}, nil
	case "any":
		return Any{}, nil
	}
	return nil, fmt.Errorf("unknown type %q", s)
}

type wireElement struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

func (e DataElement) MarshalJSON() ([]byte, error) {
	typ := "any"
	if e.Type != nil {
		typ = e.Type.String()
	}
	return json.Marshal(wireElement{Name: e.Name, Type: typ, Description: e.Description})
}

func (e *DataElement) UnmarshalJSON(data []byte) error {
	var w wireElement
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t, err := ParseType(w.Type)
	if err != nil {
		return fmt.Errorf("element %s: %w", w.Name, err)
	}
	*e = DataElement{Name: w.Name, Type: t, Description: w.Description}
	return nil
}

// FromTree infers a schema from the literals a tree compares each attribute
// with. An attribute compared with both numbers and text gets type Any.
// Elements are sorted by name.
func FromTree(n *verdict.Node) Schema {
	types := map[string]Type{}
	n.Walk(func(c *verdict.Node) bool {
		if c.Type != verdict.Operand {
			return true
		}
		var t Type = Number{}
		if c.Literal.Kind() == verdict.TextLiteral {
			t = Text{}
		}
		if prev, ok := types[c.Attribute]; ok && prev != t {
			t = Any{}
		}
		types[c.Attribute] = t
		return true
	})

	s := Schema{Elements: make([]DataElement, 0, len(types))}
	for name, t := range types {
		s.Elements = append(s.Elements, DataElement{Name: name, Type: t})
	}
	sort.Slice(s.Elements, func(i, j int) bool {
		return s.Elements[i].Name < s.Elements[j].Name
	})
	return s
}

// Lookup returns the element with the name.
func (s Schema) Lookup(name string) (DataElement, bool) {
	for _, e := range s.Elements {
		if e.Name == name {
			return e, true
		}
	}
	return DataElement{}, false
}

// Validate checks every element against the record: the attribute must be
// present and hold a value of the element's type. It reports all problems,
// not just the first. Unlike evaluation, it does not consider
// short-circuiting; an attribute that evaluation would never reach is still
// required.
func (s Schema) Validate(rec verdict.Record) error {
	var problems []string
	for _, e := range s.Elements {
		v, ok := rec.Lookup(e.Name)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: missing", e.Name))
			continue
		}
		if !conforms(e.Type, v) {
			problems = append(problems, fmt.Sprintf("%s: want %s, got %T", e.Name, e.Type, v))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("record does not match schema: %s", strings.Join(problems, "; "))
	}
	return nil
}

func conforms(t Type, v any) bool {
	if _, ok := t.(Any); ok {
		return true
	}
	norm, err := verdict.NormalizeValue(v)
	if err != nil {
		return false
	}
	switch norm.(type) {
	case float64:
		_, ok := t.(Number)
		return ok
	case string:
		_, ok := t.(Text)
		return ok
	default:
		_, ok := t.(Bool)
		return ok
	}
}
