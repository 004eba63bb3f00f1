package sqlitestore

import (
	"context"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yoke233/sleuth/internal/domain/investigation"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	store := New(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return store
}

func TestQueueReplaceKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	items := make([]investigation.WorkItem, 0, 3)
	for _, issue := range []int{7, 3, 9} {
		item, err := investigation.NewWorkItem("org/repo", issue, time.Now())
		if err != nil {
			t.Fatalf("NewWorkItem() error = %v", err)
		}
		items = append(items, item)
	}

	if err := store.ReplaceQueue(ctx, items); err != nil {
		t.Fatalf("ReplaceQueue() error = %v", err)
	}

	got, err := store.LoadQueue(ctx)
	if err != nil {
		t.Fatalf("LoadQueue() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("queue length = %d", len(got))
	}
	for i, issue := range []int{7, 3, 9} {
		if got[i].IssueNumber != issue {
			t.Fatalf("queue[%d] = %d, want %d", i, got[i].IssueNumber, issue)
		}
	}

	if err := store.ReplaceQueue(ctx, got[1:]); err != nil {
		t.Fatalf("ReplaceQueue() shrink error = %v", err)
	}
	got, err = store.LoadQueue(ctx)
	if err != nil {
		t.Fatalf("LoadQueue() error = %v", err)
	}
	if len(got) != 2 || got[0].IssueNumber != 3 {
		t.Fatalf("queue after shrink = %#v", got)
	}
}

func TestCompletedRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	completed, err := store.LoadCompleted(ctx)
	if err != nil {
		t.Fatalf("LoadCompleted() error = %v", err)
	}
	if len(completed) != 0 {
		t.Fatalf("fresh completed set = %#v", completed)
	}

	want := map[string][]int{
		"org/alpha": {1, 2},
		"org/beta":  {9},
	}
	if err := store.ReplaceCompleted(ctx, want); err != nil {
		t.Fatalf("ReplaceCompleted() error = %v", err)
	}

	completed, err = store.LoadCompleted(ctx)
	if err != nil {
		t.Fatalf("LoadCompleted() error = %v", err)
	}
	if len(completed["org/alpha"]) != 2 || len(completed["org/beta"]) != 1 {
		t.Fatalf("completed = %#v", completed)
	}
}

func TestClaimOwnerExclusive(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	claimed, err := store.ClaimOwner(ctx, 101)
	if err != nil || !claimed {
		t.Fatalf("first ClaimOwner() = %v, %v", claimed, err)
	}

	// A second claimant loses and must not disturb the row.
	claimed, err = store.ClaimOwner(ctx, 202)
	if err != nil {
		t.Fatalf("second ClaimOwner() error = %v", err)
	}
	if claimed {
		t.Fatalf("second ClaimOwner() won against a held marker")
	}
	pid, present, err := store.LoadOwner(ctx)
	if err != nil || !present || pid != 101 {
		t.Fatalf("owner after lost claim = %d/%v/%v", pid, present, err)
	}

	if err := store.ClearOwner(ctx); err != nil {
		t.Fatalf("ClearOwner() error = %v", err)
	}
	claimed, err = store.ClaimOwner(ctx, 202)
	if err != nil || !claimed {
		t.Fatalf("ClaimOwner() after clear = %v, %v", claimed, err)
	}
}

func TestOwnerLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, present, err := store.LoadOwner(ctx); err != nil || present {
		t.Fatalf("LoadOwner() fresh = present %v, err %v", present, err)
	}

	if err := store.ReplaceOwner(ctx, 111); err != nil {
		t.Fatalf("ReplaceOwner() error = %v", err)
	}
	if err := store.ReplaceOwner(ctx, 222); err != nil {
		t.Fatalf("ReplaceOwner() overwrite error = %v", err)
	}

	pid, present, err := store.LoadOwner(ctx)
	if err != nil || !present || pid != 222 {
		t.Fatalf("LoadOwner() = %d/%v/%v", pid, present, err)
	}

	if err := store.ClearOwner(ctx); err != nil {
		t.Fatalf("ClearOwner() error = %v", err)
	}
	if _, present, _ := store.LoadOwner(ctx); present {
		t.Fatalf("owner still present after clear")
	}
}
