package verdict

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
)

// Vault holds parsed trees for stored rules, keyed by the store's rule ID.
// Readers see an immutable snapshot and never block; ApplyMutations builds a
// new snapshot and swaps it in.
type Vault struct {
	root   atomic.Pointer[map[int64]*Node] // current immutable snapshot
	mu     sync.Mutex                      // serialises writers
	engine *Engine
}

// RuleMutation defines a single change to the vault.
type RuleMutation struct {
	// Required; the store's identifier for the rule
	ID int64

	// The rule text replacing or adding the rule with ID. If empty, the rule
	// with ID is deleted.
	Rule string
}

// NewVault parses the initial rules and returns a vault holding them. A rule
// that fails to parse is an error; the vault is not created.
func NewVault(e *Engine, initial map[int64]string) (*Vault, error) {
	if e == nil {
		e = NewEngine()
	}
	v := &Vault{engine: e}
	empty := map[int64]*Node{}
	v.root.Store(&empty)

	mut := make([]RuleMutation, 0, len(initial))
	for id, text := range initial {
		mut = append(mut, RuleMutation{ID: id, Rule: text})
	}
	if err := v.ApplyMutations(mut); err != nil {
		return nil, fmt.Errorf("loading initial rules into the vault: %w", err)
	}
	return v, nil
}

// ApplyMutations parses every new rule and then swaps in a snapshot with all
// changes applied. If any rule fails to parse, or a delete names an unknown
// rule, nothing changes.
func (v *Vault) ApplyMutations(mutations []RuleMutation) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	next := maps.Clone(*v.root.Load())
	for _, m := range mutations {
		if m.Rule == "" {
			if _, ok := next[m.ID]; !ok {
				return fmt.Errorf("deleting rule %d: %w", m.ID, ErrRuleNotFound)
			}
			delete(next, m.ID)
			continue
		}
		n, err := v.engine.ParseRule(m.Rule)
		if err != nil {
			return fmt.Errorf("parsing rule %d: %w", m.ID, err)
		}
		next[m.ID] = n
	}
	v.root.Store(&next)
	return nil
}

// Tree returns the parsed tree for the rule. The tree is shared with other
// readers and must not be modified.
func (v *Vault) Tree(id int64) (*Node, bool) {
	n, ok := (*v.root.Load())[id]
	return n, ok
}

// IDs returns the rule IDs in ascending order.
func (v *Vault) IDs() []int64 {
	ids := slices.Collect(maps.Keys(*v.root.Load()))
	slices.Sort(ids)
	return ids
}

// Len is the number of rules in the vault.
func (v *Vault) Len() int {
	return len(*v.root.Load())
}

// Evaluate decides the rule with the ID against the record.
func (v *Vault) Evaluate(id int64, rec Record) (bool, error) {
	n, ok := v.Tree(id)
	if !ok {
		return false, fmt.Errorf("rule %d: %w", id, ErrRuleNotFound)
	}
	return v.engine.EvaluateRule(n, rec)
}

// Combine combines the rules with the IDs, in the order given. The stored
// trees are copied first, since Combine takes ownership of its inputs.
func (v *Vault) Combine(ids []int64) (*Node, CombineStats, error) {
	snapshot := *v.root.Load()
	trees := make([]*Node, len(ids))
	for i, id := range ids {
		n, ok := snapshot[id]
		if !ok {
			return nil, CombineStats{}, fmt.Errorf("rule %d: %w", id, ErrRuleNotFound)
		}
		trees[i] = n.Clone()
	}
	return v.engine.CombineTreesWithStats(trees)
}
