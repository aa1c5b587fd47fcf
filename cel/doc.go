// Package cel provides a verdict.Evaluator backed by Google's cel-go rules engine.
//
// See https://github.com/google/cel-go and https://opensource.google/projects/cel for more information
// about CEL.
//
// A tree is translated to a CEL expression, checked against declarations for
// the attributes it names (see schema.FromTree) and compiled once. The
// compiled program is cached by the tree's rule text, so evaluating the same
// rule again only pays for the evaluation.
//
// # Agreement With the Tree Evaluator
//
// The backend returns the same verdicts and the same *verdict.EvalError kinds
// as verdict.Evaluate:
//
//  1. AND and OR are translated to CEL conditionals rather than && and ||.
//     A conditional evaluates its condition first and then only the branch
//     it selects, so evaluation short-circuits from the left and an error on
//     a visited operand is never dropped.
//  2. Every comparison is guarded by the type its literal needs. A record
//     value of another type is a TypeMismatch when, and only when, the
//     comparison is reached.
//  3. Missing attributes, and values of unsupported Go types, are bound as
//     CEL error values, which are raised only by a comparison that reads them.
//
// Like verdict.Evaluate, the backend rejects trees that fail Node.Validate with a
// MalformedTree error.
package cel
