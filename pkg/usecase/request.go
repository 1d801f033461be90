package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// requestPath turns a single open release issue into a release pull request
func (o *Orchestrator) requestPath(ctx context.Context, c *cycle) error {
	logger := ctxlog.From(ctx)

	found, err := o.findOpenReleaseIssues(ctx, c.conf)
	if err != nil {
		return err
	}

	if len(found.Ambiguous) > 0 {
		// Ambiguous operator intent: report and act on none of them
		msg := fmt.Sprintf("Multiple release issues are open (%s), please reduce them to one",
			strings.Join(found.Ambiguous, ", "))
		logger.Error(msg)
		c.notifier.Append(msg)
		c.report.Errors = append(c.report.Errors, msg)
		return nil
	}
	if found.Pending == nil {
		return nil
	}
	c.pending = found.Pending

	return o.makeReleasePullRequest(ctx, c)
}

// makeReleasePullRequest opens the pull request for c.pending. Running it
// again after a crash either finds the version released (no-op) or asks the
// hosting client again, which reuses an existing pull request.
func (o *Orchestrator) makeReleasePullRequest(ctx context.Context, c *cycle) error {
	logger := ctxlog.From(ctx)
	pending := c.pending

	latest, _, err := o.latestGitHub(ctx)
	if err != nil {
		return err
	}
	pending.PreviousVersion = latest

	if model.IsReleased(latest, pending.Version) {
		logger.Warn("Version is already released and this issue is ignored",
			"latest", latest.String(),
			"requested", pending.Version.String(),
			"issue", pending.IssueNumber,
		)
		return nil
	}

	if len(pending.Labels) > 0 {
		if err := o.hosting.PutLabelsOnIssue(ctx, pending.IssueNumber, pending.Labels); err != nil {
			o.commentOnIssue(ctx, c, fmt.Sprintf("I just failed to put labels on this issue for a release version %s", pending.Version))
			return goerr.Wrap(err, "failed to put labels on release issue",
				goerr.V("issue", pending.IssueNumber),
				goerr.T(model.ErrTagRelease))
		}
	}

	if pending.AuthorName == "" {
		contact, err := o.hosting.UserContact(ctx)
		if err != nil {
			o.commentOnIssue(ctx, c, fmt.Sprintf("I just failed to get the commit author for a release version %s", pending.Version))
			return goerr.Wrap(err, "failed to get user contact for release commit", goerr.T(model.ErrTagRelease))
		}
		pending.AuthorName = contact.Name
		pending.AuthorEmail = contact.Email
	}

	logger.Info("Making a new PR for release based on an issue",
		"version", pending.Version.String(),
		"issue", pending.IssueNumber,
	)

	url, err := o.hosting.MakeReleasePR(ctx, pending)
	if err != nil {
		msg := fmt.Sprintf("I just failed to make a PR request for a release version %s", pending.Version)
		logger.Error(msg, "error", err)
		o.commentOnIssue(ctx, c, msg)
		o.record(ctx, c, model.TargetPullRequest, pending.Version, false, msg, "")
		return goerr.Wrap(err, "failed to make release PR",
			goerr.V("version", pending.Version.String()),
			goerr.T(model.ErrTagRelease))
	}
	pending.PRURL = url
	c.report.PullRequestURL = url

	msg := fmt.Sprintf("I just made a PR request for a release version %s", pending.Version)
	logger.Info(msg, "url", url)
	o.record(ctx, c, model.TargetPullRequest, pending.Version, true, msg, url)

	msg += fmt.Sprintf("\n Here's a [link to the PR](%s)", url)
	if err := c.notifier.Post(ctx, pending.IssueNumber, msg); err != nil {
		return goerr.Wrap(err, "failed to comment on release issue", goerr.T(model.ErrTagRelease))
	}

	if err := o.hosting.CloseIssue(ctx, pending.IssueNumber); err != nil {
		o.commentOnIssue(ctx, c, fmt.Sprintf("I just failed to close this issue, please close it once the PR for a release version %s is merged", pending.Version))
		return goerr.Wrap(err, "failed to close release issue",
			goerr.V("issue", pending.IssueNumber),
			goerr.T(model.ErrTagRelease))
	}
	return nil
}

// commentOnIssue reports a failure on the release issue right away. The
// batched notifications go to the release pull request, if any, so they
// cannot carry it.
func (o *Orchestrator) commentOnIssue(ctx context.Context, c *cycle, msg string) {
	if err := c.notifier.Post(ctx, c.pending.IssueNumber, msg); err != nil {
		ctxlog.From(ctx).Error("Failed to comment on release issue",
			"error", err,
			"issue", c.pending.IssueNumber,
		)
	}
}
