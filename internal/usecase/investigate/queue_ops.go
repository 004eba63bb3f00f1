package investigate

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/errs"
)

// IsCompleted reports whether the issue has already been investigated.
func (s *Service) IsCompleted(ctx context.Context, repository string, issueNumber int) (bool, error) {
	if err := s.checkQueueDeps(ctx); err != nil {
		return false, err
	}

	completed, err := s.store.LoadCompleted(ctx)
	if err != nil {
		return false, errs.Wrap(err, "load completed set")
	}
	return slices.Contains(completed[strings.TrimSpace(repository)], issueNumber), nil
}

// IsQueued reports whether a work item with this identity is pending.
func (s *Service) IsQueued(ctx context.Context, repository string, issueNumber int) (bool, error) {
	if err := s.checkQueueDeps(ctx); err != nil {
		return false, err
	}

	queue, err := s.store.LoadQueue(ctx)
	if err != nil {
		return false, errs.Wrap(err, "load pending queue")
	}
	repository = strings.TrimSpace(repository)
	for _, item := range queue {
		if item.SameIdentity(repository, issueNumber) {
			return true, nil
		}
	}
	return false, nil
}

// Enqueue appends a new work item unless the issue is already completed or
// already queued. This is the sole insertion path for fresh work: the dedup
// gate for the whole system.
func (s *Service) Enqueue(ctx context.Context, repository string, issueNumber int) (bool, error) {
	if err := s.checkQueueDeps(ctx); err != nil {
		return false, err
	}

	item, err := investigation.NewWorkItem(repository, issueNumber, s.now())
	if err != nil {
		return false, err
	}

	completed, err := s.store.LoadCompleted(ctx)
	if err != nil {
		return false, errs.Wrap(err, "load completed set")
	}
	if slices.Contains(completed[item.Repository], item.IssueNumber) {
		return false, nil
	}

	queue, err := s.store.LoadQueue(ctx)
	if err != nil {
		return false, errs.Wrap(err, "load pending queue")
	}
	for _, existing := range queue {
		if existing.SameIdentity(item.Repository, item.IssueNumber) {
			return false, nil
		}
	}

	queue = append(queue, item)
	if err := s.store.ReplaceQueue(ctx, queue); err != nil {
		return false, errs.Wrap(err, "append to pending queue")
	}
	return true, nil
}

// Requeue moves a just-failed item to the tail. Unlike Enqueue it does not
// drop on "already queued": if a fresh trigger re-inserted the same identity
// between pop and requeue, the duplicate is collapsed and the item still ends
// up exactly once, at the tail.
func (s *Service) Requeue(ctx context.Context, item investigation.WorkItem) error {
	if err := s.checkQueueDeps(ctx); err != nil {
		return err
	}

	queue, err := s.store.LoadQueue(ctx)
	if err != nil {
		return errs.Wrap(err, "load pending queue")
	}

	kept := queue[:0]
	for _, existing := range queue {
		if existing.SameIdentity(item.Repository, item.IssueNumber) {
			continue
		}
		kept = append(kept, existing)
	}

	item.EnqueuedAt = s.now().UTC()
	kept = append(kept, item)
	return errs.Wrap(s.store.ReplaceQueue(ctx, kept), "requeue to tail")
}

// PeekFront returns the head of the queue without removing it.
func (s *Service) PeekFront(ctx context.Context) (investigation.WorkItem, bool, error) {
	if err := s.checkQueueDeps(ctx); err != nil {
		return investigation.WorkItem{}, false, err
	}

	queue, err := s.store.LoadQueue(ctx)
	if err != nil {
		return investigation.WorkItem{}, false, errs.Wrap(err, "load pending queue")
	}
	if len(queue) == 0 {
		return investigation.WorkItem{}, false, nil
	}
	return queue[0], true, nil
}

// PopFront removes the head of the queue. Single-worker discipline makes the
// peek-then-pop pair safe; popping an empty queue is a no-op.
func (s *Service) PopFront(ctx context.Context) error {
	if err := s.checkQueueDeps(ctx); err != nil {
		return err
	}

	queue, err := s.store.LoadQueue(ctx)
	if err != nil {
		return errs.Wrap(err, "load pending queue")
	}
	if len(queue) == 0 {
		return nil
	}
	return errs.Wrap(s.store.ReplaceQueue(ctx, queue[1:]), "pop pending queue")
}

// MarkCompleted records a successful investigation. Idempotent.
func (s *Service) MarkCompleted(ctx context.Context, repository string, issueNumber int) error {
	if err := s.checkQueueDeps(ctx); err != nil {
		return err
	}

	repository = strings.TrimSpace(repository)
	completed, err := s.store.LoadCompleted(ctx)
	if err != nil {
		return errs.Wrap(err, "load completed set")
	}
	if slices.Contains(completed[repository], issueNumber) {
		return nil
	}

	completed[repository] = append(completed[repository], issueNumber)
	return errs.Wrap(s.store.ReplaceCompleted(ctx, completed), "record completed issue")
}

// Length returns the current pending queue size.
func (s *Service) Length(ctx context.Context) (int, error) {
	if err := s.checkQueueDeps(ctx); err != nil {
		return 0, err
	}

	queue, err := s.store.LoadQueue(ctx)
	if err != nil {
		return 0, errs.Wrap(err, "load pending queue")
	}
	return len(queue), nil
}

func (s *Service) checkQueueDeps(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.store == nil {
		return errors.New("state store is required")
	}
	return nil
}
