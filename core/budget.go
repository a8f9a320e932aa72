package core

import (
	"fmt"
	"sync"
)

// CallBudget enforces a maximum number of allowed model calls per run.
type CallBudget struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCallBudget creates a new budget with a max number of calls.
// If max == 0, unlimited calls are allowed.
func NewCallBudget(max int) *CallBudget {
	return &CallBudget{max: max}
}

// Next consumes one call from the budget. It returns ErrBudgetExhausted
// (wrapped) when the budget is already spent; callers must check before
// issuing the model call so a run with budget N performs exactly N calls.
func (b *CallBudget) Next() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.count++
	if b.max > 0 && b.count > b.max {
		return fmt.Errorf("agent reached maximum model calls (%d): %w", b.max, ErrBudgetExhausted)
	}

	return nil
}

// Count returns the current number of calls made.
func (b *CallBudget) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

// Max returns the configured ceiling (0 means unlimited).
func (b *CallBudget) Max() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.max
}

// Remaining returns how many calls are left before hitting the limit.
func (b *CallBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max == 0 {
		return -1 // unlimited
	}

	return b.max - b.count
}
