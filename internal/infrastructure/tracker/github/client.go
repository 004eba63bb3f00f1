package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/yoke233/sleuth/internal/bootstrap/logging"
	"github.com/yoke233/sleuth/internal/errs"
)

const listPageSize = 100

// Config selects the auth mode for the tracker client. A personal token and
// a GitHub App installation are both supported; with neither set the client
// is unauthenticated and only works against public repositories.
type Config struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKeyFile string
	BaseURL        string
}

// Client answers "which issues are open right now" for the catchup
// reconciliation.
type Client struct {
	gh *gogithub.Client
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	var httpClient *http.Client
	switch {
	case cfg.AppID > 0:
		transport, err := ghinstallation.NewKeyFromFile(
			http.DefaultTransport,
			cfg.AppID,
			cfg.InstallationID,
			cfg.PrivateKeyFile,
		)
		if err != nil {
			return nil, errs.Wrap(err, "build github app transport")
		}
		httpClient = &http.Client{Transport: transport}
	case strings.TrimSpace(cfg.Token) != "":
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: strings.TrimSpace(cfg.Token)},
		))
	}

	gh := gogithub.NewClient(httpClient)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		enterprise, err := gh.WithEnterpriseURLs(base, base)
		if err != nil {
			return nil, errs.Wrap(err, "configure enterprise base url")
		}
		gh = enterprise
	}

	return &Client{gh: gh}, nil
}

// ListOpenIssues returns the open issue numbers of owner/name, pull requests
// excluded. Order is not meaningful to callers.
func (c *Client) ListOpenIssues(ctx context.Context, repository string) ([]int, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	owner, name, err := splitRepository(repository)
	if err != nil {
		return nil, err
	}

	options := &gogithub.IssueListByRepoOptions{
		State:       "open",
		ListOptions: gogithub.ListOptions{PerPage: listPageSize},
	}

	numbers := make([]int, 0, listPageSize)
	for {
		issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, name, options)
		if err != nil {
			return nil, errs.Wrapf(err, "list open issues for %s", repository)
		}

		for _, issue := range issues {
			// The issues API interleaves pull requests; those are not
			// investigation targets.
			if issue.IsPullRequest() {
				continue
			}
			numbers = append(numbers, issue.GetNumber())
		}

		if resp.NextPage == 0 {
			break
		}
		options.Page = resp.NextPage
	}

	logging.Info(ctx, "listed open issues",
		slog.String("repository", repository),
		slog.Int("count", len(numbers)),
	)
	return numbers, nil
}

func splitRepository(repository string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(repository), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository %q is not owner/name", repository)
	}
	return parts[0], parts[1], nil
}
