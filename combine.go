package verdict

import "fmt"

// CombineStats describes how Combine built its result.
type CombineStats struct {
	// Number of trees passed in
	Inputs int
	// Operator counts across all inputs, used to pick the connective
	And, Or int
	// The connective used to join the inputs
	Connective Connective
	// Inputs dropped because they were structurally equal to an earlier input
	Duplicates int
}

// Combine folds the trees into one tree.
//
// A single tree is returned unchanged. Otherwise every Operator node in every
// input is counted, and the more frequent connective joins the inputs, with
// ties going to AND. The join is a left fold in input order:
//
//	Combine([A, B, C]) = (A op B) op C
//
// Inputs structurally equal to an earlier input are dropped and counted in
// CombineStats.Duplicates. Combine takes ownership of its inputs; a node that
// is reachable from more than one input is copied so the result never shares
// a subtree between two parents.
func Combine(trees []*Node) (*Node, CombineStats, error) {
	stats := CombineStats{Inputs: len(trees)}
	if len(trees) == 0 {
		return nil, stats, &CombineError{Reason: "no rules to combine"}
	}
	for i, t := range trees {
		if t == nil {
			return nil, stats, &CombineError{Reason: fmt.Sprintf("rule %d is nil", i)}
		}
	}
	if len(trees) == 1 {
		stats.And, stats.Or = trees[0].countConnectives()
		stats.Connective = majority(stats.And, stats.Or)
		return trees[0], stats, nil
	}

	for _, t := range trees {
		a, o := t.countConnectives()
		stats.And += a
		stats.Or += o
	}
	stats.Connective = majority(stats.And, stats.Or)

	unique := make([]*Node, 0, len(trees))
	for _, t := range trees {
		if containsEqual(unique, t) {
			stats.Duplicates++
			continue
		}
		unique = append(unique, t)
	}

	owned := map[*Node]bool{}
	var result *Node
	for _, t := range unique {
		t = exclusive(t, owned)
		if result == nil {
			result = t
			continue
		}
		result = NewOperator(stats.Connective, result, t)
	}
	return result, stats, nil
}

// majority picks the connective used to join top-level trees.
func majority(and, or int) Connective {
	if and >= or {
		return And
	}
	return Or
}

func containsEqual(list []*Node, t *Node) bool {
	for _, u := range list {
		if u.Equal(t) {
			return true
		}
	}
	return false
}

// exclusive returns t, or a copy of t if any of its nodes already belongs to
// the result, and marks the returned nodes as owned.
func exclusive(t *Node, owned map[*Node]bool) *Node {
	shared := false
	t.Walk(func(n *Node) bool {
		if owned[n] {
			shared = true
		}
		return !shared
	})
	if shared {
		t = t.Clone()
	}
	t.Walk(func(n *Node) bool {
		owned[n] = true
		return true
	})
	return t
}
