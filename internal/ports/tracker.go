package ports

import "context"

// IssueTracker lists the currently open issue numbers of a repository on the
// upstream tracker. Used by the trigger's catchup reconciliation; callers
// treat a fetch error as "nothing to add" and keep going.
type IssueTracker interface {
	ListOpenIssues(ctx context.Context, repository string) ([]int, error)
}
