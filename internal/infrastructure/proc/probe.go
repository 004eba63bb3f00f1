package proc

import (
	"errors"
	"os"
	"syscall"
)

// Probe answers "is this pid a live process" with a zero signal. The check is
// advisory: it can say yes for an unrelated process that reused the pid, which
// only delays reclaim until that process exits.
type Probe struct{}

func New() Probe {
	return Probe{}
}

func (Probe) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	// EPERM means the process exists but belongs to someone else.
	return errors.Is(err, syscall.EPERM)
}
