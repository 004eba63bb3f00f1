package investigate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yoke233/sleuth/internal/domain/investigation"
)

func TestEnqueueDeduplicates(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t)
	service := fixture.service

	inserted, err := service.Enqueue(ctx, "org/repo", 42)
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if !inserted {
		t.Fatalf("first Enqueue() should insert")
	}
	if got := queueLength(t, service); got != 1 {
		t.Fatalf("Length() = %d, want 1", got)
	}

	inserted, err = service.Enqueue(ctx, "org/repo", 42)
	if err != nil {
		t.Fatalf("second Enqueue() error = %v", err)
	}
	if inserted {
		t.Fatalf("second Enqueue() should be a no-op")
	}
	if got := queueLength(t, service); got != 1 {
		t.Fatalf("Length() after duplicate = %d, want 1", got)
	}
}

func TestEnqueueExcludesCompleted(t *testing.T) {
	ctx := context.Background()
	service := newFixture(t).service

	if err := service.MarkCompleted(ctx, "org/repo", 42); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}

	inserted, err := service.Enqueue(ctx, "org/repo", 42)
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if inserted {
		t.Fatalf("Enqueue() of a completed issue should be a no-op")
	}
	if got := queueLength(t, service); got != 0 {
		t.Fatalf("Length() = %d, want 0", got)
	}
}

func TestEnqueueRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	service := newFixture(t).service

	if _, err := service.Enqueue(ctx, "not-a-repo", 1); !errors.Is(err, investigation.ErrInvalidRepository) {
		t.Fatalf("Enqueue(bad repo) error = %v", err)
	}
	if _, err := service.Enqueue(ctx, "org/repo", 0); !errors.Is(err, investigation.ErrInvalidIssueNumber) {
		t.Fatalf("Enqueue(bad issue) error = %v", err)
	}
	if got := queueLength(t, service); got != 0 {
		t.Fatalf("invalid input mutated state, Length() = %d", got)
	}
}

func TestFIFOOrder(t *testing.T) {
	ctx := context.Background()
	service := newFixture(t).service

	for _, issue := range []int{5, 1, 9, 3} {
		mustEnqueue(t, service, "org/repo", issue)
	}

	for _, want := range []int{5, 1, 9, 3} {
		item, ok, err := service.PeekFront(ctx)
		if err != nil || !ok {
			t.Fatalf("PeekFront() = ok %v, err %v", ok, err)
		}
		if item.IssueNumber != want {
			t.Fatalf("PeekFront() issue = %d, want %d", item.IssueNumber, want)
		}
		if err := service.PopFront(ctx); err != nil {
			t.Fatalf("PopFront() error = %v", err)
		}
	}

	if _, ok, _ := service.PeekFront(ctx); ok {
		t.Fatalf("queue should be drained")
	}
}

func TestPopFrontOnEmptyQueueIsNoop(t *testing.T) {
	service := newFixture(t).service
	if err := service.PopFront(context.Background()); err != nil {
		t.Fatalf("PopFront() on empty queue error = %v", err)
	}
}

func TestMarkCompletedIdempotent(t *testing.T) {
	ctx := context.Background()
	service := newFixture(t).service

	for i := 0; i < 3; i++ {
		if err := service.MarkCompleted(ctx, "org/repo", 7); err != nil {
			t.Fatalf("MarkCompleted() error = %v", err)
		}
	}

	snapshot, err := service.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if got := snapshot.Completed["org/repo"]; len(got) != 1 || got[0] != 7 {
		t.Fatalf("completed set = %#v", got)
	}

	done, err := service.IsCompleted(ctx, "org/repo", 7)
	if err != nil || !done {
		t.Fatalf("IsCompleted() = %v, %v", done, err)
	}
}

func TestRequeueMovesToTailWithoutDuplicating(t *testing.T) {
	ctx := context.Background()
	service := newFixture(t).service

	mustEnqueue(t, service, "org/repo", 1)
	mustEnqueue(t, service, "org/repo", 2)

	head, ok, err := service.PeekFront(ctx)
	if err != nil || !ok {
		t.Fatalf("PeekFront() = ok %v, err %v", ok, err)
	}
	if err := service.PopFront(ctx); err != nil {
		t.Fatalf("PopFront() error = %v", err)
	}

	// A fresh trigger slips the same identity back in between pop and
	// requeue; requeue must still leave exactly one entry, at the tail.
	if _, err := service.Enqueue(ctx, "org/repo", 1); err != nil {
		t.Fatalf("interleaved Enqueue() error = %v", err)
	}
	if err := service.Requeue(ctx, head); err != nil {
		t.Fatalf("Requeue() error = %v", err)
	}

	if got := queueLength(t, service); got != 2 {
		t.Fatalf("Length() = %d, want 2", got)
	}
	item, _, err := service.PeekFront(ctx)
	if err != nil {
		t.Fatalf("PeekFront() error = %v", err)
	}
	if item.IssueNumber != 2 {
		t.Fatalf("head after requeue = %d, want 2", item.IssueNumber)
	}
}

func TestIsQueued(t *testing.T) {
	ctx := context.Background()
	service := newFixture(t).service

	mustEnqueue(t, service, "org/repo", 8)

	queued, err := service.IsQueued(ctx, "org/repo", 8)
	if err != nil || !queued {
		t.Fatalf("IsQueued() = %v, %v", queued, err)
	}
	queued, err = service.IsQueued(ctx, "org/repo", 9)
	if err != nil || queued {
		t.Fatalf("IsQueued(absent) = %v, %v", queued, err)
	}
}

func TestEnqueueStampsTime(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture(t)
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	fixture.service.now = func() time.Time { return at }

	mustEnqueue(t, fixture.service, "org/repo", 1)

	item, _, err := fixture.service.PeekFront(ctx)
	if err != nil {
		t.Fatalf("PeekFront() error = %v", err)
	}
	if !item.EnqueuedAt.Equal(at) {
		t.Fatalf("EnqueuedAt = %v, want %v", item.EnqueuedAt, at)
	}
}
