package investigate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/errs"
)

// ErrWorkerActive is returned when another worker process owns the queue.
var ErrWorkerActive = errors.New("another worker is already running")

// RunWorker drains the pending queue FIFO as the single live worker process.
// It claims the ownership marker first and releases it on every exit path;
// a stale marker (recorded process dead) is reclaimed, not honored.
//
// Per item the investigator runs once. Success marks the issue completed and
// pops it; failure moves the item to the tail so the rest of the queue keeps
// making progress, and bumps the run-wide consecutive-failure counter that
// drives the retry policy.
func (s *Service) RunWorker(ctx context.Context) error {
	if err := s.checkQueueDeps(ctx); err != nil {
		return err
	}
	if s.investigator == nil {
		return errors.New("investigator is required")
	}

	if err := s.claimOwnership(ctx); err != nil {
		return err
	}
	defer s.releaseOwnership(ctx)

	logCtx := logging.WithAttrs(ctx, slog.String("component", "worker"), slog.Int("pid", s.ownPID()))
	logging.Info(logCtx, "worker loop started")

	streak := &investigation.FailureStreak{}
	for {
		if err := ctx.Err(); err != nil {
			return errs.Wrap(err, "worker interrupted")
		}

		item, ok, err := s.PeekFront(ctx)
		if err != nil {
			return errs.Wrap(err, "peek pending queue")
		}
		if !ok {
			logging.Info(logCtx, "queue drained, worker exiting")
			return nil
		}

		itemCtx := logging.WithAttrs(logCtx, slog.String("issue", item.Ref()))
		logging.Info(itemCtx, "investigation started")

		invErr := s.investigator.Investigate(ctx, item)
		if invErr == nil {
			if err := s.MarkCompleted(ctx, item.Repository, item.IssueNumber); err != nil {
				return errs.Wrap(err, "mark issue completed")
			}
			if err := s.PopFront(ctx); err != nil {
				return errs.Wrap(err, "pop completed item")
			}
			streak.Success()
			logging.Info(itemCtx, "investigation succeeded")
			continue
		}

		streak.Failure()
		logging.Warn(itemCtx, "investigation failed, moving item to tail",
			slog.Int("consecutive_failures", streak.SinceSuccess()),
			slog.Any("err", errs.Loggable(invErr)),
		)

		if err := s.PopFront(ctx); err != nil {
			return errs.Wrap(err, "pop failed item")
		}
		if err := s.Requeue(ctx, item); err != nil {
			return errs.Wrap(err, "requeue failed item")
		}

		switch s.policy.Decide(streak) {
		case investigation.ActionStop:
			// Designed stop, not a crash: remaining items stay queued for
			// the next trigger to resume.
			logging.Error(logCtx, "worker stopping deliberately after repeated failures",
				slog.Int("consecutive_failures", streak.SinceSuccess()),
				slog.Int("stop_after", s.policy.StopAfter),
			)
			return nil
		case investigation.ActionCooldown:
			logging.Warn(logCtx, "worker entering cooldown",
				slog.Int("consecutive_failures", streak.SinceSuccess()),
				slog.Duration("cooldown", s.policy.Cooldown),
			)
			if err := s.sleep(ctx, s.policy.Cooldown); err != nil {
				return errs.Wrap(err, "cooldown interrupted")
			}
			streak.CooldownDone()
		case investigation.ActionContinue:
		}
	}
}

const claimAttempts = 3

// claimOwnership records our pid as the single live worker through the
// store's atomic claim: of any number of racing starters exactly one wins.
// A lost claim against a live worker is a refusal; against a dead one the
// stale marker is cleared and the claim retried, so two workers both
// reclaiming a stale marker still end with a single owner.
func (s *Service) claimOwnership(ctx context.Context) error {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		claimed, err := s.store.ClaimOwner(ctx, s.ownPID())
		if err != nil {
			return errs.Wrap(err, "claim worker ownership")
		}
		if claimed {
			return nil
		}

		pid, present, err := s.store.LoadOwner(ctx)
		if err != nil {
			return errs.Wrap(err, "load owner record")
		}
		if !present {
			// The holder vanished between our claim and the read; retry.
			continue
		}
		if pid == s.ownPID() {
			return nil
		}
		if s.alive(pid) {
			return errs.Wrapf(ErrWorkerActive, "pid %d", pid)
		}

		logging.Warn(ctx, "clearing stale worker ownership", slog.Int("stale_pid", pid))
		if err := s.store.ClearOwner(ctx); err != nil {
			return errs.Wrap(err, "clear stale owner record")
		}
	}
	return errs.Wrap(ErrWorkerActive, "ownership contended")
}

// releaseOwnership clears the marker on a context that survives
// cancellation; the release is a cleanup obligation, not best effort.
func (s *Service) releaseOwnership(ctx context.Context) {
	releaseCtx := context.WithoutCancel(ctx)
	if err := s.store.ClearOwner(releaseCtx); err != nil {
		logging.Error(releaseCtx, "release worker ownership failed", slog.Any("err", errs.Loggable(err)))
	}
}

func (s *Service) alive(pid int) bool {
	if s.probe == nil {
		return false
	}
	return s.probe.Alive(pid)
}
