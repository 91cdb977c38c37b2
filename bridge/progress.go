package bridge

import (
	"fmt"
	"sync"

	"github.com/flowbridge/flowbridge/types"
)

// Tracker folds progress events into the current transfer state and
// enforces step ordering: a transfer never moves backward and never leaves
// a terminal step. It is safe for concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	current  Progress
	started  bool
	finished bool
}

// NewTracker creates a tracker in the not-started state.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe applies a progress event. Backward transitions and events after
// a terminal step are rejected.
func (t *Tracker) Observe(p Progress) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p.Step.rank() == 0 {
		return types.NewError(types.ErrInternalError, fmt.Sprintf("unknown bridge step: %s", p.Step))
	}
	if t.finished {
		return types.NewError(types.ErrInternalError,
			fmt.Sprintf("progress after terminal step %s: %s", t.current.Step, p.Step))
	}
	if t.started && p.Step.rank() < t.current.Step.rank() {
		return types.NewError(types.ErrInternalError,
			fmt.Sprintf("backward step transition: %s -> %s", t.current.Step, p.Step))
	}

	// TxHash appears once submitted and is carried forward on later events
	// that omit it.
	if p.TxHash == "" {
		p.TxHash = t.current.TxHash
	}

	t.current = p
	t.started = true
	if p.Step.Terminal() {
		t.finished = true
	}
	return nil
}

// Current returns the latest observed progress event.
func (t *Tracker) Current() Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Finished reports whether a terminal step has been observed.
func (t *Tracker) Finished() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.finished
}
