package investigation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidRepository  = errors.New("repository must look like owner/name")
	ErrInvalidIssueNumber = errors.New("issue number must be a positive integer")
)

// repoPattern follows the GitHub owner/name shape: owner is alphanumeric with
// inner hyphens, name allows dots, underscores and hyphens.
var repoPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?/[A-Za-z0-9._-]+$`)

// WorkItem is one pending investigation request. Identity is the
// (Repository, IssueNumber) pair; the pending queue never holds two items
// with the same identity.
type WorkItem struct {
	Repository  string    `json:"repository"`
	IssueNumber int       `json:"issue_number"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// NewWorkItem validates the reference and stamps the enqueue time.
func NewWorkItem(repository string, issueNumber int, enqueuedAt time.Time) (WorkItem, error) {
	repository = strings.TrimSpace(repository)
	if err := ValidateRef(repository, issueNumber); err != nil {
		return WorkItem{}, err
	}

	return WorkItem{
		Repository:  repository,
		IssueNumber: issueNumber,
		EnqueuedAt:  enqueuedAt.UTC(),
	}, nil
}

// SameIdentity reports whether the item represents the given issue reference.
func (i WorkItem) SameIdentity(repository string, issueNumber int) bool {
	return i.Repository == repository && i.IssueNumber == issueNumber
}

// Ref renders the item as owner/name#number for logs.
func (i WorkItem) Ref() string {
	return fmt.Sprintf("%s#%d", i.Repository, i.IssueNumber)
}

// ValidateRef rejects malformed issue references before they reach any state.
func ValidateRef(repository string, issueNumber int) error {
	if !repoPattern.MatchString(strings.TrimSpace(repository)) {
		return fmt.Errorf("%w: %q", ErrInvalidRepository, repository)
	}
	if issueNumber <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIssueNumber, issueNumber)
	}
	return nil
}
