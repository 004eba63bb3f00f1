package console

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/usecase/investigate"
)

func newTestModel(t *testing.T) *model {
	t.Helper()
	m, ok := NewModel(context.Background(), nil, Options{RefreshInterval: time.Second}).(*model)
	if !ok {
		t.Fatalf("NewModel() did not return *model")
	}
	return m
}

func TestUpdateAppliesSnapshot(t *testing.T) {
	m := newTestModel(t)

	item, err := investigation.NewWorkItem("org/repo", 42, time.Now())
	if err != nil {
		t.Fatalf("NewWorkItem() error = %v", err)
	}
	updated, _ := m.Update(snapshotLoadedMsg{snapshot: investigate.StatusSnapshot{
		Pending:     []investigation.WorkItem{item},
		Completed:   map[string][]int{"org/repo": {7}},
		WorkerAlive: true,
		WorkerPID:   4321,
	}})

	view := updated.View()
	for _, want := range []string{"org/repo#42", "pid=4321", "org/repo: 1 issues"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestUpdateKeepsLastSnapshotOnError(t *testing.T) {
	m := newTestModel(t)

	item, err := investigation.NewWorkItem("org/repo", 1, time.Now())
	if err != nil {
		t.Fatalf("NewWorkItem() error = %v", err)
	}
	updated, _ := m.Update(snapshotLoadedMsg{snapshot: investigate.StatusSnapshot{
		Pending: []investigation.WorkItem{item},
	}})
	updated, _ = updated.Update(snapshotLoadedMsg{err: errors.New("store unreadable")})

	view := updated.View()
	if !strings.Contains(view, "org/repo#1") {
		t.Fatalf("stale snapshot dropped on refresh error:\n%s", view)
	}
	if !strings.Contains(view, "refresh failed") {
		t.Fatalf("refresh error not surfaced:\n%s", view)
	}
}
