package ports

import "context"

// WorkerSpawner starts a detached worker-loop process. The spawned process
// claims ownership itself; the returned pid is informational.
type WorkerSpawner interface {
	SpawnWorker(ctx context.Context) (pid int, err error)
}

// ProcessProbe checks whether the process behind an ownership marker is
// still alive. A recorded owner whose process is gone is reclaimable, never
// a permanent lock.
type ProcessProbe interface {
	Alive(pid int) bool
}
