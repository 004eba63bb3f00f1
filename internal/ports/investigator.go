package ports

import (
	"context"

	"github.com/yoke233/sleuth/internal/domain/investigation"
)

// Investigator runs one investigation for a work item. The investigation
// itself (cloning, analysis, posting results) is a black box; a nil return
// means it succeeded, any error means it failed and the item will be
// requeued.
type Investigator interface {
	Investigate(ctx context.Context, item investigation.WorkItem) error
}
