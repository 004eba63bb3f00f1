package sqlitestore

// PendingItem is one row of the pending queue. RowID preserves FIFO order.
type PendingItem struct {
	RowID       uint64 `gorm:"column:row_id;primaryKey;autoIncrement"`
	Repository  string `gorm:"column:repository;type:text;not null;index:idx_pending_identity,unique"`
	IssueNumber int    `gorm:"column:issue_number;not null;index:idx_pending_identity,unique"`
	EnqueuedAt  string `gorm:"column:enqueued_at;type:text;not null"`
}

func (PendingItem) TableName() string {
	return "pending_items"
}

// CompletedIssue records one successfully investigated issue.
type CompletedIssue struct {
	RowID       uint64 `gorm:"column:row_id;primaryKey;autoIncrement"`
	Repository  string `gorm:"column:repository;type:text;not null;index:idx_completed_identity,unique"`
	IssueNumber int    `gorm:"column:issue_number;not null;index:idx_completed_identity,unique"`
	CompletedAt string `gorm:"column:completed_at;type:text;not null"`
}

func (CompletedIssue) TableName() string {
	return "completed_issues"
}

// WorkerOwner is the single-row ownership marker.
type WorkerOwner struct {
	RowID     uint64 `gorm:"column:row_id;primaryKey"`
	PID       int    `gorm:"column:pid;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (WorkerOwner) TableName() string {
	return "worker_owner"
}
