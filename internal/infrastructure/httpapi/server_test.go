package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/infrastructure/state/filestore"
	"github.com/yoke233/sleuth/internal/usecase/investigate"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	service := investigate.NewService(investigate.ServiceDeps{
		Store:  filestore.New(t.TempDir()),
		Policy: investigation.RetryPolicy{},
	})
	return NewServer(context.Background(), service)
}

func postTrigger(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/triggers", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestTriggerEndpointQueuesIssue(t *testing.T) {
	server := newTestServer(t)

	rec := postTrigger(t, server, `{"repository":"org/repo","issue_number":42}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp triggerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Queued || resp.QueueDepth != 1 {
		t.Fatalf("response = %+v", resp)
	}

	// Same trigger again: accepted but a no-op.
	rec = postTrigger(t, server, `{"repository":"org/repo","issue_number":42}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("duplicate status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Queued || resp.QueueDepth != 1 {
		t.Fatalf("duplicate response = %+v", resp)
	}
}

func TestTriggerEndpointRejectsInvalidInput(t *testing.T) {
	server := newTestServer(t)

	for _, body := range []string{
		`{"repository":"not-a-repo","issue_number":1}`,
		`{"repository":"org/repo","issue_number":0}`,
		`{broken`,
	} {
		rec := postTrigger(t, server, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestStatusEndpoint(t *testing.T) {
	server := newTestServer(t)

	if rec := postTrigger(t, server, `{"repository":"org/repo","issue_number":7}`); rec.Code != http.StatusAccepted {
		t.Fatalf("trigger status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var snapshot investigate.StatusSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snapshot.Pending) != 1 || snapshot.Pending[0].Ref() != "org/repo#7" {
		t.Fatalf("pending = %+v", snapshot.Pending)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
