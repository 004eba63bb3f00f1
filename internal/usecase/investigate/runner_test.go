package investigate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yoke233/sleuth/internal/domain/investigation"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "investigator.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoadInvestigatorProfile(t *testing.T) {
	path := writeProfile(t, `
version = 1

[investigator]
program = "sleuth-investigate"
args = ["--post-comment"]
timeout_seconds = 600
`)

	profile, err := loadInvestigatorProfile(path)
	if err != nil {
		t.Fatalf("loadInvestigatorProfile() error = %v", err)
	}
	if profile.Investigator.Program != "sleuth-investigate" {
		t.Fatalf("program = %q", profile.Investigator.Program)
	}
	if len(profile.Investigator.Args) != 1 || profile.Investigator.Args[0] != "--post-comment" {
		t.Fatalf("args = %#v", profile.Investigator.Args)
	}
	if profile.Investigator.TimeoutSeconds != 600 {
		t.Fatalf("timeout = %d", profile.Investigator.TimeoutSeconds)
	}
}

func TestLoadInvestigatorProfileDefaultsTimeout(t *testing.T) {
	path := writeProfile(t, `
[investigator]
program = "true"
`)

	profile, err := loadInvestigatorProfile(path)
	if err != nil {
		t.Fatalf("loadInvestigatorProfile() error = %v", err)
	}
	if profile.Investigator.TimeoutSeconds != defaultInvestigatorTimeout {
		t.Fatalf("timeout = %d, want default", profile.Investigator.TimeoutSeconds)
	}
}

func TestLoadInvestigatorProfileRequiresProgram(t *testing.T) {
	path := writeProfile(t, `
[investigator]
args = ["x"]
`)
	if _, err := loadInvestigatorProfile(path); err == nil {
		t.Fatalf("profile without program should fail")
	}
}

func testWorkItem(t *testing.T) investigation.WorkItem {
	t.Helper()
	item, err := investigation.NewWorkItem("org/repo", 42, time.Now())
	if err != nil {
		t.Fatalf("NewWorkItem() error = %v", err)
	}
	return item
}

func TestExecInvestigatorSuccess(t *testing.T) {
	logDir := t.TempDir()
	path := writeProfile(t, `
[investigator]
program = "/bin/sh"
args = ["-c", "echo investigating \"$SLEUTH_REPO#$SLEUTH_ISSUE\""]
`)

	runner := NewExecInvestigator(path, logDir)
	if err := runner.Investigate(context.Background(), testWorkItem(t)); err != nil {
		t.Fatalf("Investigate() error = %v", err)
	}

	runs, err := os.ReadDir(filepath.Join(logDir, "runs"))
	if err != nil || len(runs) != 1 {
		t.Fatalf("run log dirs = %v, err %v", runs, err)
	}
	raw, err := os.ReadFile(filepath.Join(logDir, "runs", runs[0].Name(), "stdout.log"))
	if err != nil {
		t.Fatalf("read stdout log: %v", err)
	}
	if !strings.Contains(string(raw), "org/repo#42") {
		t.Fatalf("stdout log = %q", raw)
	}
}

func TestExecInvestigatorFailure(t *testing.T) {
	path := writeProfile(t, `
[investigator]
program = "/bin/sh"
args = ["-c", "exit 3"]
`)

	runner := NewExecInvestigator(path, t.TempDir())
	err := runner.Investigate(context.Background(), testWorkItem(t))
	if err == nil {
		t.Fatalf("nonzero exit should be a failure")
	}
	if !strings.Contains(err.Error(), "code 3") {
		t.Fatalf("error = %v, want exit code in message", err)
	}
}

func TestExecInvestigatorMissingProfile(t *testing.T) {
	runner := NewExecInvestigator(filepath.Join(t.TempDir(), "absent.toml"), t.TempDir())
	if err := runner.Investigate(context.Background(), testWorkItem(t)); err == nil {
		t.Fatalf("missing profile should fail")
	}
}
