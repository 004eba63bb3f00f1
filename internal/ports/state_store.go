package ports

import (
	"context"

	"github.com/yoke233/sleuth/internal/domain/investigation"
)

// StateStore persists the three shared records behind the queue: the pending
// queue, the completed set and the worker ownership marker. Two processes
// (trigger and worker) read and write through it concurrently, so every
// replace must be atomic: readers see either the previous record or the new
// one, never a partial write.
//
// Reads fail open: a missing or unreadable record loads as its empty value.
// A failed replace must leave the previous record intact.
type StateStore interface {
	// LoadQueue returns the pending queue in FIFO order.
	LoadQueue(ctx context.Context) ([]investigation.WorkItem, error)
	// ReplaceQueue atomically swaps the whole pending queue.
	ReplaceQueue(ctx context.Context, items []investigation.WorkItem) error

	// LoadCompleted returns repository -> issue numbers already investigated.
	LoadCompleted(ctx context.Context) (map[string][]int, error)
	// ReplaceCompleted atomically swaps the completed set.
	ReplaceCompleted(ctx context.Context, completed map[string][]int) error

	// LoadOwner returns the recorded worker pid, if any.
	LoadOwner(ctx context.Context) (pid int, present bool, err error)
	// ClaimOwner records pid as the live worker if and only if no marker
	// exists, in one atomic step. claimed is false when a marker is already
	// present, whoever holds it.
	ClaimOwner(ctx context.Context, pid int) (claimed bool, err error)
	// ReplaceOwner records the given pid as the live worker, overwriting any
	// existing marker.
	ReplaceOwner(ctx context.Context, pid int) error
	// ClearOwner removes the ownership marker.
	ClearOwner(ctx context.Context) error
}
