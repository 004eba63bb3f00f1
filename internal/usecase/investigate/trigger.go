package investigate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/errs"
)

type TriggerInput struct {
	Repository  string
	IssueNumber int
}

type TriggerResult struct {
	// Inserted is true when the triggering issue itself was newly queued.
	Inserted bool
	// Reconciled counts open issues picked up by catchup reconciliation.
	Reconciled int
	// QueueDepth is the pending queue length after the trigger.
	QueueDepth int
	// WorkerAlive reports a live worker observed before any spawn.
	WorkerAlive bool
	// WorkerStarted is true when this trigger spawned a new worker.
	WorkerStarted bool
}

// Trigger handles one external event: ensure the issue is queued, re-sync
// the queue against the tracker's open issues, and make sure a worker is
// draining. Reconciliation and worker spawn are best effort; the insertion
// is not.
func (s *Service) Trigger(ctx context.Context, input TriggerInput) (TriggerResult, error) {
	if err := s.checkQueueDeps(ctx); err != nil {
		return TriggerResult{}, err
	}

	repository := strings.TrimSpace(input.Repository)
	if err := investigation.ValidateRef(repository, input.IssueNumber); err != nil {
		return TriggerResult{}, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "trigger"),
		slog.String("repository", repository),
		slog.Int("issue", input.IssueNumber),
	)

	var result TriggerResult

	inserted, err := s.Enqueue(ctx, repository, input.IssueNumber)
	if err != nil {
		return TriggerResult{}, errs.Wrap(err, "enqueue triggering issue")
	}
	result.Inserted = inserted
	if !inserted {
		logging.Info(logCtx, "issue already queued or completed")
	}

	result.Reconciled = s.reconcile(logCtx, repository)

	alive, started := s.ensureWorker(logCtx)
	result.WorkerAlive = alive
	result.WorkerStarted = started

	depth, err := s.Length(ctx)
	if err != nil {
		return TriggerResult{}, errs.Wrap(err, "read queue depth")
	}
	result.QueueDepth = depth

	logging.Info(logCtx, "trigger handled",
		slog.Bool("inserted", result.Inserted),
		slog.Int("reconciled", result.Reconciled),
		slog.Int("queue_depth", result.QueueDepth),
		slog.Bool("worker_alive", result.WorkerAlive),
		slog.Bool("worker_started", result.WorkerStarted),
	)
	return result, nil
}

// reconcile enqueues every open issue the tracker knows about that is
// neither completed nor queued. This makes triggers self-healing against
// missed webhook deliveries. A tracker failure only skips this step.
func (s *Service) reconcile(ctx context.Context, repository string) int {
	if s.tracker == nil {
		return 0
	}

	numbers, err := s.tracker.ListOpenIssues(ctx, repository)
	if err != nil {
		logging.Warn(ctx, "reconciliation skipped, tracker unavailable",
			slog.Any("err", errs.Loggable(err)),
		)
		return 0
	}
	if len(numbers) == 0 {
		logging.Info(ctx, "reconciliation found no open issues")
		return 0
	}

	added := 0
	for _, number := range numbers {
		inserted, err := s.Enqueue(ctx, repository, number)
		if err != nil {
			logging.Warn(ctx, "reconciliation enqueue failed",
				slog.Int("issue", number),
				slog.Any("err", errs.Loggable(err)),
			)
			continue
		}
		if inserted {
			added++
		}
	}

	if added > 0 {
		logging.Info(ctx, "reconciliation enqueued missed issues", slog.Int("added", added))
	}
	return added
}

// ensureWorker spawns a detached worker process when no live one is
// recorded. The spawned process claims ownership itself on startup.
func (s *Service) ensureWorker(ctx context.Context) (alive bool, started bool) {
	pid, present, err := s.store.LoadOwner(ctx)
	if err != nil {
		logging.Warn(ctx, "owner record unreadable", slog.Any("err", errs.Loggable(err)))
	}
	if present && s.alive(pid) {
		return true, false
	}
	if present {
		logging.Warn(ctx, "recorded worker is dead, starting a new one", slog.Int("stale_pid", pid))
	}

	if s.spawner == nil {
		logging.Warn(ctx, "no worker spawner configured, queue will wait")
		return false, false
	}

	spawnedPID, err := s.spawner.SpawnWorker(ctx)
	if err != nil {
		logging.Error(ctx, "spawn worker failed", slog.Any("err", errs.Loggable(err)))
		return false, false
	}

	logging.Info(ctx, "worker spawned", slog.Int("worker_pid", spawnedPID))
	return false, true
}
