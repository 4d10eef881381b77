package audit

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryRepo mirrors the Postgres table for tests: ids are unique and rows
// are never changed once written.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
	seen   map[string]struct{}

	// Err, when set, is returned by every Append.
	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{seen: map[string]struct{}{}} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, dup := r.seen[e.ID]; dup {
		return fmt.Errorf("audit/Append: duplicate id %s", e.ID)
	}
	r.seen[e.ID] = struct{}{}
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy in append order.
func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

var _ Repository = (*MemoryRepo)(nil)
