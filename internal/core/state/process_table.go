package state

import (
	"fmt"

	"github.com/mverhage/bothive/internal/core/domain"
)

// ProcessTable maps bot IDs to live process handles. A bot is considered
// running iff it has an entry here; at most one entry can exist per ID.
type ProcessTable struct {
	procs map[string]*domain.RunningProcess
}

func NewProcessTable() *ProcessTable {
	return &ProcessTable{procs: make(map[string]*domain.RunningProcess)}
}

// Insert records a running process. The presence check and the insert are
// a single step so a concurrent start for the same bot cannot slip in
// between them (the supervisor holds the write lock across the call).
func (t *ProcessTable) Insert(botID string, p *domain.RunningProcess) error {
	if _, exists := t.procs[botID]; exists {
		return fmt.Errorf("%w: %s", domain.ErrAlreadyRunning, botID)
	}
	t.procs[botID] = p
	return nil
}

func (t *ProcessTable) Get(botID string) (*domain.RunningProcess, error) {
	p, ok := t.procs[botID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotRunning, botID)
	}
	return p, nil
}

// Remove drops the entry and returns the handle. It never terminates the
// process; that is the supervisor's job, done before removal.
func (t *ProcessTable) Remove(botID string) (*domain.RunningProcess, error) {
	p, ok := t.procs[botID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotRunning, botID)
	}
	delete(t.procs, botID)
	return p, nil
}

func (t *ProcessTable) Contains(botID string) bool {
	_, ok := t.procs[botID]
	return ok
}

// Entries returns a snapshot of the current table contents.
func (t *ProcessTable) Entries() []*domain.RunningProcess {
	out := make([]*domain.RunningProcess, 0, len(t.procs))
	for _, p := range t.procs {
		out = append(out, p)
	}
	return out
}

func (t *ProcessTable) Len() int {
	return len(t.procs)
}
