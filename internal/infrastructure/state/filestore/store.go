package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/errs"
)

const (
	queueFile     = "queue.json"
	completedFile = "completed.json"
	ownerFile     = "worker.json"
)

// Store keeps the three state records as JSON documents in a directory on a
// shared filesystem. Every replace writes a sibling temp file and renames it
// over the original, so a concurrent reader sees the old document or the new
// one, never a torn write, and a failed write leaves the original untouched.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

type ownerRecord struct {
	PID int `json:"pid"`
}

func (s *Store) LoadQueue(ctx context.Context) ([]investigation.WorkItem, error) {
	var items []investigation.WorkItem
	if err := loadJSON(ctx, s.dir, queueFile, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []investigation.WorkItem{}
	}
	return items, nil
}

func (s *Store) ReplaceQueue(ctx context.Context, items []investigation.WorkItem) error {
	if items == nil {
		items = []investigation.WorkItem{}
	}
	return s.replaceJSON(ctx, queueFile, items)
}

func (s *Store) LoadCompleted(ctx context.Context) (map[string][]int, error) {
	var completed map[string][]int
	if err := loadJSON(ctx, s.dir, completedFile, &completed); err != nil {
		return nil, err
	}
	if completed == nil {
		completed = map[string][]int{}
	}
	return completed, nil
}

func (s *Store) ReplaceCompleted(ctx context.Context, completed map[string][]int) error {
	if completed == nil {
		completed = map[string][]int{}
	}
	return s.replaceJSON(ctx, completedFile, completed)
}

func (s *Store) LoadOwner(ctx context.Context) (int, bool, error) {
	var record ownerRecord
	if err := loadJSON(ctx, s.dir, ownerFile, &record); err != nil {
		return 0, false, err
	}
	if record.PID <= 0 {
		return 0, false, nil
	}
	return record.PID, true, nil
}

// ClaimOwner creates the owner file with O_EXCL, so exactly one of any number
// of racing claimants wins; the filesystem is the arbiter. Stale-marker
// handling stays with the caller: on a lost claim it probes the recorded pid
// and clears the marker before retrying.
func (s *Store) ClaimOwner(ctx context.Context, pid int) (bool, error) {
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return false, errs.Wrap(err, "check context")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false, errs.Wrapf(err, "create state directory %q", s.dir)
	}

	raw, err := json.MarshalIndent(ownerRecord{PID: pid}, "", "  ")
	if err != nil {
		return false, errs.Wrap(err, "encode owner record")
	}
	raw = append(raw, '\n')

	path := filepath.Join(s.dir, ownerFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrap(err, "create owner record")
	}

	if _, err := file.Write(raw); err != nil {
		file.Close()
		os.Remove(path)
		return false, errs.Wrap(err, "write owner record")
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(path)
		return false, errs.Wrap(err, "sync owner record")
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return false, errs.Wrap(err, "close owner record")
	}
	return true, nil
}

func (s *Store) ReplaceOwner(ctx context.Context, pid int) error {
	return s.replaceJSON(ctx, ownerFile, ownerRecord{PID: pid})
}

func (s *Store) ClearOwner(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	if err := os.Remove(filepath.Join(s.dir, ownerFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errs.Wrap(err, "remove owner record")
	}
	return nil
}

// loadJSON fails open: a missing or undecodable document leaves out at its
// zero value. Availability wins over strict persistence here; a corrupt
// record is logged and treated as empty. Decoding goes through a local value
// so a type error partway through a document cannot leak partial data into
// out.
func loadJSON[T any](ctx context.Context, dir string, name string, out *T) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	path := filepath.Join(dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Warn(ctx, "state record unreadable, treating as empty",
				slog.String("path", path),
				slog.Any("err", errs.Loggable(err)),
			)
		}
		return nil
	}

	var decoded T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		logging.Warn(ctx, "state record corrupt, treating as empty",
			slog.String("path", path),
			slog.Any("err", errs.Loggable(err)),
		)
		return nil
	}
	*out = decoded
	return nil
}

func (s *Store) replaceJSON(ctx context.Context, name string, value any) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errs.Wrapf(err, "create state directory %q", s.dir)
	}

	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errs.Wrapf(err, "encode state record %q", name)
	}
	raw = append(raw, '\n')

	// Temp file in the same directory so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return errs.Wrap(err, "create temp state file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrapf(err, "write temp state file %q", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrapf(err, "sync temp state file %q", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.Wrapf(err, "close temp state file %q", tmpPath)
	}

	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpPath)
		return errs.Wrapf(err, "replace state record %q", name)
	}
	return nil
}
