package investigate

import (
	"context"
	"testing"
	"time"

	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/infrastructure/state/filestore"
)

type stubInvestigator struct {
	// results is consumed call by call; nil means success. When exhausted,
	// fail is returned for every further call.
	results []error
	fail    error
	calls   []string
}

func (s *stubInvestigator) Investigate(_ context.Context, item investigation.WorkItem) error {
	s.calls = append(s.calls, item.Ref())
	if len(s.results) > 0 {
		result := s.results[0]
		s.results = s.results[1:]
		return result
	}
	return s.fail
}

type stubTracker struct {
	numbers []int
	err     error
	calls   int
}

func (s *stubTracker) ListOpenIssues(context.Context, string) ([]int, error) {
	s.calls++
	return s.numbers, s.err
}

type stubSpawner struct {
	pid   int
	err   error
	calls int
}

func (s *stubSpawner) SpawnWorker(context.Context) (int, error) {
	s.calls++
	return s.pid, s.err
}

type stubProbe struct {
	alivePIDs map[int]bool
}

func (s stubProbe) Alive(pid int) bool {
	return s.alivePIDs[pid]
}

type serviceFixture struct {
	service      *Service
	investigator *stubInvestigator
	tracker      *stubTracker
	spawner      *stubSpawner
	probe        *stubProbe
	sleeps       []time.Duration
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	fixture := &serviceFixture{
		investigator: &stubInvestigator{},
		tracker:      &stubTracker{},
		spawner:      &stubSpawner{pid: 9999},
		probe:        &stubProbe{alivePIDs: map[int]bool{}},
	}

	fixture.service = NewService(ServiceDeps{
		Store:        filestore.New(t.TempDir()),
		Tracker:      fixture.tracker,
		Investigator: fixture.investigator,
		Spawner:      fixture.spawner,
		Probe:        fixture.probe,
		Policy:       investigation.RetryPolicy{BackoffAfter: 3, StopAfter: 6, Cooldown: 30 * time.Minute},
	})
	fixture.service.ownPID = func() int { return 1234 }
	fixture.service.sleep = func(_ context.Context, d time.Duration) error {
		fixture.sleeps = append(fixture.sleeps, d)
		return nil
	}
	return fixture
}

func mustEnqueue(t *testing.T, service *Service, repo string, issue int) {
	t.Helper()
	inserted, err := service.Enqueue(context.Background(), repo, issue)
	if err != nil {
		t.Fatalf("Enqueue(%s#%d) error = %v", repo, issue, err)
	}
	if !inserted {
		t.Fatalf("Enqueue(%s#%d) not inserted", repo, issue)
	}
}

func queueLength(t *testing.T, service *Service) int {
	t.Helper()
	length, err := service.Length(context.Background())
	if err != nil {
		t.Fatalf("Length() error = %v", err)
	}
	return length
}
