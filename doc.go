// Package verdict parses boolean eligibility rules such as
//
//	(age > 30 AND department = 'Sales') OR experience >= 5
//
// into abstract syntax trees, combines several trees into one, and evaluates
// trees against a record of named attribute values.
//
// Typical use is as follows:
//
//  1. Create an engine
//  2. Parse one rule with ParseRule, or several with CombineRules
//  3. Evaluate the tree against a Record with EvaluateRule
//  4. Inspect the verdict, or call Explain to see how it was reached
//
// # Rules
//
// A rule is a list of comparisons joined by AND and OR. AND binds tighter
// than OR, both associate to the left, and parentheses group explicitly. A
// comparison is an attribute name, one of > < >= <= = != (== is accepted for
// =), and a number or a quoted string. Strings may be quoted with ' or " and
// do not support escapes.
//
// # Evaluation
//
// Numbers compare with numbers and text with text; nothing is coerced. The
// ordering comparators are defined for numbers only. A missing attribute or a
// mismatched type on a comparison that evaluation actually reaches is an
// *EvalError, never false. Because AND and OR short-circuit from the left, an
// attribute used only on the side that is not reached may be absent.
//
// # Tree Ownership
//
// Trees are plain values, exclusively owned by the call that produced them:
//  1. You must not modify a tree while it is being evaluated.
//  2. A node must not be the child of more than one parent.
//  3. Combine takes ownership of the trees passed to it.
//
// Evaluation reads but never writes a tree, so the same tree can be evaluated
// concurrently against different records.
//
// # Wire Format
//
// Trees are encoded to JSON as
//
//	{"node_type": "operand",  "value": "age > 30"}
//	{"node_type": "operator", "value": "AND", "left": {...}, "right": {...}}
//
// Operand values are written with single spaces between attribute, comparator
// and literal, and are read back with the parser's comparison grammar. A tree
// built by Combine and one built by ParseRule encode the same way.
package verdict
