package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrModelCallLimit is returned once an invocation exceeds its model call budget.
var ErrModelCallLimit = errors.New("model call limit exceeded")

// ModelLimiter bounds the number of model calls a single capability
// invocation may make (the tool loop calls the model once per round).
type ModelLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewModelLimiter creates a limiter allowing max calls. Zero means unlimited.
func NewModelLimiter(max int) *ModelLimiter {
	return &ModelLimiter{max: max}
}

// Acquire records one call and fails when the budget is exhausted.
func (ml *ModelLimiter) Acquire() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.max > 0 && ml.count >= ml.max {
		return fmt.Errorf("%w: %d", ErrModelCallLimit, ml.max)
	}
	ml.count++

	return nil
}

// Count returns the number of calls made so far.
func (ml *ModelLimiter) Count() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	return ml.count
}

// Remaining returns how many calls are left, or -1 when unlimited.
func (ml *ModelLimiter) Remaining() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.max == 0 {
		return -1
	}

	return ml.max - ml.count
}
