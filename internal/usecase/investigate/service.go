package investigate

import (
	"context"
	"os"
	"time"

	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/ports"
)

// Service carries the queue operations, the worker loop and the trigger
// reconciler over a shared state store. The store is the only shared state;
// trigger and worker run as separate processes against it.
type Service struct {
	store        ports.StateStore
	tracker      ports.IssueTracker
	investigator ports.Investigator
	spawner      ports.WorkerSpawner
	probe        ports.ProcessProbe

	policy investigation.RetryPolicy

	// Overridable for tests.
	now    func() time.Time
	ownPID func() int
	sleep  func(ctx context.Context, d time.Duration) error
}

type ServiceDeps struct {
	Store        ports.StateStore
	Tracker      ports.IssueTracker
	Investigator ports.Investigator
	Spawner      ports.WorkerSpawner
	Probe        ports.ProcessProbe
	Policy       investigation.RetryPolicy
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		store:        deps.Store,
		tracker:      deps.Tracker,
		investigator: deps.Investigator,
		spawner:      deps.Spawner,
		probe:        deps.Probe,
		policy:       deps.Policy.Normalize(),
		now:          time.Now,
		ownPID:       os.Getpid,
		sleep:        sleepUntil,
	}
}

// sleepUntil blocks for d or until ctx is done. The backoff cooldown is the
// only deliberate wait in the core; it stays interruptible.
func sleepUntil(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
