package export

import (
	"sync"
)

// Tracker records the completion of a fixed set of tasks by id. It is
// finished once every expected id has reported success or failure.
type Tracker struct {
	mu       sync.Mutex
	order    []string
	pending  map[string]struct{}
	faults   map[string]error
	finished chan struct{}
}

// NewTracker expects exactly the given task ids.
func NewTracker(ids []string) *Tracker {
	t := &Tracker{
		order:    append([]string(nil), ids...),
		pending:  make(map[string]struct{}, len(ids)),
		faults:   make(map[string]error),
		finished: make(chan struct{}),
	}
	for _, id := range ids {
		t.pending[id] = struct{}{}
	}
	if len(t.pending) == 0 {
		close(t.finished)
	}
	return t
}

// Done records a successful task. Unknown or already recorded ids are ignored.
func (t *Tracker) Done(id string) bool {
	return t.record(id, nil)
}

// Fail records a failed task. Unknown or already recorded ids are ignored.
func (t *Tracker) Fail(id string, err error) bool {
	return t.record(id, err)
}

func (t *Tracker) record(id string, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.pending[id]; !ok {
		return false
	}
	delete(t.pending, id)
	if err != nil {
		t.faults[id] = err
	}
	if len(t.pending) == 0 {
		close(t.finished)
	}
	return true
}

// Finished is closed once every expected task has reported.
func (t *Tracker) Finished() <-chan struct{} {
	return t.finished
}

// Complete reports whether every expected task has reported.
func (t *Tracker) Complete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending) == 0
}

// Pending returns how many tasks have not reported yet.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Faults returns the recorded failures in task order.
func (t *Tracker) Faults() []error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var faults []error
	for _, id := range t.order {
		if err, ok := t.faults[id]; ok {
			faults = append(faults, err)
		}
	}
	return faults
}
