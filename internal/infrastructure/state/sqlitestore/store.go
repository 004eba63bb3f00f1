package sqlitestore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/domain/investigation"
	"github.com/yoke233/sleuth/internal/errs"
)

const ownerRowID = 1

// Store backs the state records with sqlite through gorm. Replace semantics
// come from wrapping delete-and-insert in one transaction; readers outside
// the transaction see the previous rows or the new ones.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the state tables. Also invoked by `sleuth init`.
func (s *Store) Migrate(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	if err := s.db.WithContext(ctx).AutoMigrate(
		&PendingItem{},
		&CompletedIssue{},
		&WorkerOwner{},
	); err != nil {
		return errs.Wrap(err, "migrate state schema")
	}
	return nil
}

func (s *Store) LoadQueue(ctx context.Context) ([]investigation.WorkItem, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	var rows []PendingItem
	if err := s.db.WithContext(ctx).Order("row_id asc").Find(&rows).Error; err != nil {
		logging.Warn(ctx, "pending queue unreadable, treating as empty", slog.Any("err", errs.Loggable(err)))
		return []investigation.WorkItem{}, nil
	}

	items := make([]investigation.WorkItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, investigation.WorkItem{
			Repository:  row.Repository,
			IssueNumber: row.IssueNumber,
			EnqueuedAt:  parseTimestamp(row.EnqueuedAt),
		})
	}
	return items, nil
}

func (s *Store) ReplaceQueue(ctx context.Context, items []investigation.WorkItem) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	rows := make([]PendingItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, PendingItem{
			Repository:  item.Repository,
			IssueNumber: item.IssueNumber,
			EnqueuedAt:  item.EnqueuedAt.UTC().Format(time.RFC3339),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&PendingItem{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	return errs.Wrap(err, "replace pending queue")
}

func (s *Store) LoadCompleted(ctx context.Context) (map[string][]int, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	var rows []CompletedIssue
	if err := s.db.WithContext(ctx).Order("row_id asc").Find(&rows).Error; err != nil {
		logging.Warn(ctx, "completed set unreadable, treating as empty", slog.Any("err", errs.Loggable(err)))
		return map[string][]int{}, nil
	}

	completed := make(map[string][]int, len(rows))
	for _, row := range rows {
		completed[row.Repository] = append(completed[row.Repository], row.IssueNumber)
	}
	return completed, nil
}

func (s *Store) ReplaceCompleted(ctx context.Context, completed map[string][]int) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	rows := make([]CompletedIssue, 0, len(completed))
	for repository, issues := range completed {
		for _, issue := range issues {
			rows = append(rows, CompletedIssue{
				Repository:  repository,
				IssueNumber: issue,
				CompletedAt: now,
			})
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&CompletedIssue{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	return errs.Wrap(err, "replace completed set")
}

func (s *Store) LoadOwner(ctx context.Context) (int, bool, error) {
	if ctx == nil {
		return 0, false, errors.New("context is required")
	}

	var row WorkerOwner
	err := s.db.WithContext(ctx).First(&row, "row_id = ?", ownerRowID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Warn(ctx, "owner record unreadable, treating as unowned", slog.Any("err", errs.Loggable(err)))
		}
		return 0, false, nil
	}
	if row.PID <= 0 {
		return 0, false, nil
	}
	return row.PID, true, nil
}

// ClaimOwner inserts the single owner row and lets the fixed primary key
// arbitrate: when the row already exists the insert affects nothing and the
// claim is lost. Stale-marker handling stays with the caller.
func (s *Store) ClaimOwner(ctx context.Context, pid int) (bool, error) {
	if ctx == nil {
		return false, errors.New("context is required")
	}

	row := WorkerOwner{
		RowID:     ownerRowID,
		PID:       pid,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrap(result.Error, "claim owner record")
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) ReplaceOwner(ctx context.Context, pid int) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	row := WorkerOwner{
		RowID:     ownerRowID,
		PID:       pid,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("row_id = ?", ownerRowID).Delete(&WorkerOwner{}).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	return errs.Wrap(err, "replace owner record")
}

func (s *Store) ClearOwner(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	err := s.db.WithContext(ctx).Where("row_id = ?", ownerRowID).Delete(&WorkerOwner{}).Error
	return errs.Wrap(err, "clear owner record")
}

func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
