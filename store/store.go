// Package store persists rule text. Stores never parse rules; the rule text
// is handed back exactly as it was added.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no rule has the requested ID.
var ErrNotFound = errors.New("rule not found")

// Rule is a stored rule string.
type Rule struct {
	ID        int64     `json:"id"`
	Text      string    `json:"rule_string"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is implemented by rule stores. IDs are assigned by the store and
// are never reused. Implementations are safe for concurrent use.
type Store interface {
	// Add stores the rule text under a new ID.
	Add(ctx context.Context, text string) (Rule, error)
	// Get returns the rule with the ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (Rule, error)
	// List returns all rules in ascending ID order.
	List(ctx context.Context) ([]Rule, error)
	// Delete removes the rule with the ID, or returns ErrNotFound.
	Delete(ctx context.Context, id int64) error
	Close() error
}
