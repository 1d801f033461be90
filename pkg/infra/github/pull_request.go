package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// MakeReleasePR implements interfaces.HostingClient. An open pull request
// from the release branch is reused, so retrying after a crash does not open
// a second one.
func (c *Client) MakeReleasePR(ctx context.Context, pr *model.PendingPR) (string, error) {
	logger := ctxlog.From(ctx)

	if c.repo == nil {
		return "", goerr.New("no local repository to prepare the release pull request",
			goerr.T(model.ErrTagConfiguration))
	}

	existing, _, err := c.rest.PullRequests.List(ctx, c.owner, c.name, &github.PullRequestListOptions{
		State: "open",
		Head:  c.owner + ":" + pr.HeadBranch(),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to list release pull requests", goerr.V("head", pr.HeadBranch()))
	}
	if len(existing) > 0 {
		logger.Info("Release pull request already exists", "url", existing[0].GetHTMLURL())
		return existing[0].GetHTMLURL(), nil
	}

	info, _, err := c.rest.Repositories.Get(ctx, c.owner, c.name)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get repository")
	}
	base := info.GetDefaultBranch()

	commits, err := c.prepareReleaseBranch(ctx, pr, base)
	if err != nil {
		return "", err
	}

	created, _, err := c.rest.PullRequests.Create(ctx, c.owner, c.name, &github.NewPullRequest{
		Title: github.Ptr(pr.Title()),
		Head:  github.Ptr(pr.HeadBranch()),
		Base:  github.Ptr(base),
		Body:  github.Ptr(releasePRBody(pr, commits)),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to create release pull request",
			goerr.V("head", pr.HeadBranch()),
			goerr.V("base", base))
	}

	return created.GetHTMLURL(), nil
}

// prepareReleaseBranch commits the version bump on the release branch and
// pushes it. The checkout is returned to base afterwards.
func (c *Client) prepareReleaseBranch(ctx context.Context, pr *model.PendingPR, base string) ([]string, error) {
	logger := ctxlog.From(ctx)

	if err := c.repo.Checkout(ctx, base); err != nil {
		return nil, goerr.Wrap(err, "failed to check out base branch", goerr.V("base", base))
	}
	defer func() {
		if err := c.repo.Checkout(ctx, base); err != nil {
			logger.Warn("Failed to return to base branch", "error", err, "base", base)
		}
	}()

	if err := c.repo.CreateBranch(ctx, pr.HeadBranch()); err != nil {
		return nil, goerr.Wrap(err, "failed to create release branch", goerr.V("branch", pr.HeadBranch()))
	}

	changed, err := bumpVersionFiles(c.repo.Dir(), pr.VersionFiles, pr.Version)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return nil, goerr.New("no version assignment found in version files",
			goerr.V("patterns", pr.VersionFiles),
			goerr.T(model.ErrTagRelease))
	}
	logger.Info("Bumped version files", "files", changed, "version", pr.Version.String())

	author := model.CommitAuthor{Name: pr.AuthorName, Email: pr.AuthorEmail}
	if err := c.repo.CommitAll(ctx, pr.Title(), author); err != nil {
		return nil, goerr.Wrap(err, "failed to commit version bump")
	}

	var commits []string
	if !pr.PreviousVersion.IsZero() {
		commits, err = c.repo.Log(ctx, pr.PreviousVersion.String(), pr.HeadBranch())
		if err != nil {
			logger.Warn("Failed to read commits for pull request body", "error", err)
		}
	}

	if err := c.repo.Push(ctx, pr.HeadBranch()); err != nil {
		return nil, goerr.Wrap(err, "failed to push release branch", goerr.V("branch", pr.HeadBranch()))
	}

	return commits, nil
}

func releasePRBody(pr *model.PendingPR, commits []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Hi, you have requested a release PR from me in #%d. Here it is!\n", pr.IssueNumber))

	if len(commits) > 0 {
		sb.WriteString(fmt.Sprintf("\nChanges since %s:\n\n", pr.PreviousVersion))
		for _, commit := range commits {
			sb.WriteString(fmt.Sprintf("- %s\n", commit))
		}
	}

	sb.WriteString(fmt.Sprintf("\nMerging this pull request publishes version %s.\n", pr.Version))
	return sb.String()
}
