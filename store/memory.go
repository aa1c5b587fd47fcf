package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Memory is a Store that keeps rules in a map. Its contents are lost when
// the process exits.
type Memory struct {
	mu    sync.RWMutex
	rules map[int64]Rule
	next  int64
}

// NewMemory returns an empty memory store.
func NewMemory() *Memory {
	return &Memory{
		rules: map[int64]Rule{},
	}
}

func (m *Memory) Add(_ context.Context, text string) (Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	r := Rule{ID: m.next, Text: text, CreatedAt: time.Now().UTC()}
	m.rules[r.ID] = r
	return r, nil
}

func (m *Memory) Get(_ context.Context, id int64) (Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rules[id]
	if !ok {
		return Rule{}, fmt.Errorf("rule %d: %w", id, ErrNotFound)
	}
	return r, nil
}

func (m *Memory) List(_ context.Context) ([]Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rules := make([]Rule, 0, len(m.rules))
	for _, r := range m.rules {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return fmt.Errorf("rule %d: %w", id, ErrNotFound)
	}
	delete(m.rules, id)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
