package investigate

import (
	"context"
	"sort"

	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/errs"
)

// StatusSnapshot is a read-only view of the shared state. No side effects.
type StatusSnapshot struct {
	Pending     []investigation.WorkItem `json:"pending" yaml:"pending"`
	Completed   map[string][]int         `json:"completed" yaml:"completed"`
	WorkerAlive bool                     `json:"worker_alive" yaml:"worker_alive"`
	WorkerPID   int                      `json:"worker_pid,omitempty" yaml:"worker_pid,omitempty"`
}

// Status reads the queue, the completed set and the worker liveness in one
// pass. Completed issue numbers come back sorted per repository for stable
// output.
func (s *Service) Status(ctx context.Context) (StatusSnapshot, error) {
	if err := s.checkQueueDeps(ctx); err != nil {
		return StatusSnapshot{}, err
	}

	pending, err := s.store.LoadQueue(ctx)
	if err != nil {
		return StatusSnapshot{}, errs.Wrap(err, "load pending queue")
	}

	completed, err := s.store.LoadCompleted(ctx)
	if err != nil {
		return StatusSnapshot{}, errs.Wrap(err, "load completed set")
	}
	for repository := range completed {
		sort.Ints(completed[repository])
	}

	snapshot := StatusSnapshot{
		Pending:   pending,
		Completed: completed,
	}

	pid, present, err := s.store.LoadOwner(ctx)
	if err != nil {
		return StatusSnapshot{}, errs.Wrap(err, "load owner record")
	}
	if present && s.alive(pid) {
		snapshot.WorkerAlive = true
		snapshot.WorkerPID = pid
	}

	return snapshot, nil
}
