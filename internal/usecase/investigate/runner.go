package investigate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/errs"
)

// ExecInvestigator runs the configured investigation executable once per
// work item. The executable gets the issue reference via env and trailing
// args; its exit code is the only thing the queue logic reads. Stdout and
// stderr land in per-run log files for humans.
type ExecInvestigator struct {
	profileFile string
	logDir      string
}

func NewExecInvestigator(profileFile string, logDir string) *ExecInvestigator {
	return &ExecInvestigator{
		profileFile: strings.TrimSpace(profileFile),
		logDir:      strings.TrimSpace(logDir),
	}
}

func (r *ExecInvestigator) Investigate(ctx context.Context, item investigation.WorkItem) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	profile, err := loadInvestigatorProfile(r.profileFile)
	if err != nil {
		return err
	}
	executor := profile.Investigator

	runID := uuid.NewString()
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(executor.TimeoutSeconds)*time.Second)
	defer cancel()

	args := append(append([]string{}, executor.Args...), item.Repository, strconv.Itoa(item.IssueNumber))
	cmd := exec.CommandContext(runCtx, executor.Program, args...)
	cmd.Env = append(os.Environ(),
		"SLEUTH_REPO="+item.Repository,
		"SLEUTH_ISSUE="+strconv.Itoa(item.IssueNumber),
		"SLEUTH_RUN_ID="+runID,
	)

	stdoutFile, stderrFile, err := r.ensureRunLogs(runID)
	if err != nil {
		return err
	}
	defer stdoutFile.Close()
	defer stderrFile.Close()
	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile

	logging.Info(ctx, "invoking investigator",
		slog.String("issue", item.Ref()),
		slog.String("run_id", runID),
		slog.String("program", executor.Program),
	)

	runErr := cmd.Run()
	if runErr == nil {
		return nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("investigator timed out after %ds (run %s)", executor.TimeoutSeconds, runID)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return fmt.Errorf("investigator exited with code %d (run %s)", exitErr.ExitCode(), runID)
	}
	return errs.Wrapf(runErr, "run investigator (run %s)", runID)
}

func (r *ExecInvestigator) ensureRunLogs(runID string) (*os.File, *os.File, error) {
	dir := r.logDir
	if dir == "" {
		dir = "."
	}
	runDir := filepath.Join(dir, "runs", runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, nil, errs.Wrapf(err, "create run log directory %q", runDir)
	}

	stdoutFile, err := os.Create(filepath.Join(runDir, "stdout.log"))
	if err != nil {
		return nil, nil, errs.Wrap(err, "create stdout log")
	}

	stderrFile, err := os.Create(filepath.Join(runDir, "stderr.log"))
	if err != nil {
		stdoutFile.Close()
		return nil, nil, errs.Wrap(err, "create stderr log")
	}

	return stdoutFile, stderrFile, nil
}
