package spawn

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/yoke233/sleuth/internal/errs"
)

// SelfSpawner starts the worker loop by re-exec'ing this binary with
// `worker run`, detached from the calling process. The worker claims the
// ownership marker itself on startup, so two racing triggers at worst start
// two processes and the loser exits immediately.
type SelfSpawner struct {
	configFile string
	logDir     string
}

func NewSelfSpawner(configFile string, logDir string) *SelfSpawner {
	return &SelfSpawner{
		configFile: strings.TrimSpace(configFile),
		logDir:     strings.TrimSpace(logDir),
	}
}

func (s *SelfSpawner) SpawnWorker(ctx context.Context) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(err, "check context")
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, errs.Wrap(err, "resolve own executable")
	}

	args := make([]string, 0, 4)
	if s.configFile != "" {
		args = append(args, "--config", s.configFile)
	}
	args = append(args, "worker", "run")

	// Plain Command, not CommandContext: the worker must outlive the
	// trigger's request context.
	cmd := exec.Command(executable, args...)

	stdoutFile, stderrFile, err := s.ensureWorkerLogs()
	if err != nil {
		return 0, err
	}
	defer stdoutFile.Close()
	defer stderrFile.Close()
	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile

	if err := cmd.Start(); err != nil {
		return 0, errs.Wrap(err, "start worker process")
	}

	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, errs.Wrap(err, "detach worker process")
	}
	return pid, nil
}

func (s *SelfSpawner) ensureWorkerLogs() (*os.File, *os.File, error) {
	dir := s.logDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, errs.Wrapf(err, "create worker log directory %q", dir)
	}

	stdoutFile, err := os.OpenFile(filepath.Join(dir, "worker_stdout.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errs.Wrap(err, "open worker stdout log")
	}

	stderrFile, err := os.OpenFile(filepath.Join(dir, "worker_stderr.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		stdoutFile.Close()
		return nil, nil, errs.Wrap(err, "open worker stderr log")
	}

	return stdoutFile, stderrFile, nil
}
