package usecase

import (
	"context"
	"slices"
	"sort"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// issueDiscovery is the outcome of scanning open issues
type issueDiscovery struct {
	// Pending is set when exactly one release version is requested
	Pending *model.PendingPR

	// Ambiguous lists the versions when more than one is requested at once
	Ambiguous []string
}

// findOpenReleaseIssues scans every open issue for a release request by a
// privileged author. The walk is newest first; the result does not depend on
// the order because matches are collected into a set keyed by version.
func (o *Orchestrator) findOpenReleaseIssues(ctx context.Context, conf *model.ReleaseConf) (*issueDiscovery, error) {
	logger := ctxlog.From(ctx)

	latest, _, err := o.latestGitHub(ctx)
	if err != nil {
		return nil, err
	}

	found := map[string]model.IssueNode{}
	versions := map[string]model.Version{}

	fetch := func(ctx context.Context, cursor string) ([]model.IssueEdge, error) {
		return o.hosting.OpenIssues(ctx, cursor, model.DirectionBefore)
	}
	cursorOf := func(e model.IssueEdge) string { return e.Cursor }

	for edge, err := range walkNewestFirst(ctx, fetch, cursorOf) {
		if err != nil {
			return nil, goerr.Wrap(err, "failed to walk open issues", goerr.T(model.ErrTagRelease))
		}

		issue := edge.Node
		intent := model.MatchReleaseTitle(issue.Title, latest)
		if !intent.Matched {
			continue
		}
		if intent.Err != nil {
			logger.Warn("Not a valid version in release issue",
				"version", intent.Raw,
				"issue", issue.Number,
			)
			continue
		}
		if !model.IsPrivilegedAssociation(issue.AuthorAssociation) {
			logger.Warn("Release issue author is not privileged",
				"author_association", issue.AuthorAssociation,
				"allowed", model.PrivilegedAssociations,
				"issue", issue.Number,
			)
			continue
		}

		key := intent.Version.String()
		found[key] = issue
		versions[key] = intent.Version
		logger.Info("Found new release issue", "version", key, "issue", issue.Number)
	}

	if len(found) == 0 {
		logger.Debug("No release issue found")
		return &issueDiscovery{}, nil
	}

	if len(found) > 1 {
		ambiguous := make([]string, 0, len(found))
		for v := range found {
			ambiguous = append(ambiguous, v)
		}
		sort.Strings(ambiguous)
		return &issueDiscovery{Ambiguous: ambiguous}, nil
	}

	for key, issue := range found {
		return &issueDiscovery{
			Pending: &model.PendingPR{
				Version:         versions[key],
				PreviousVersion: latest,
				IssueID:         issue.ID,
				IssueNumber:     issue.Number,
				Labels:          slices.Clone(conf.Labels),
				VersionFiles:    slices.Clone(conf.Files()),
				AuthorName:      conf.AuthorName,
				AuthorEmail:     conf.AuthorEmail,
			},
		}, nil
	}
	return &issueDiscovery{}, nil
}

// findNewestReleasePullRequest returns the newest merged release pull
// request, or nil. The walk is newest first and the first valid match wins;
// older merged release pull requests are superseded by it.
func (o *Orchestrator) findNewestReleasePullRequest(ctx context.Context, conf *model.ReleaseConf) (*model.ReleaseRequest, error) {
	logger := ctxlog.From(ctx)

	latest, latestTag, err := o.latestGitHub(ctx)
	if err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, cursor string) ([]model.PullRequestEdge, error) {
		return o.hosting.ClosedPullRequests(ctx, cursor, model.DirectionBefore)
	}
	cursorOf := func(e model.PullRequestEdge) string { return e.Cursor }

	for edge, err := range walkNewestFirst(ctx, fetch, cursorOf) {
		if err != nil {
			return nil, goerr.Wrap(err, "failed to walk pull requests", goerr.T(model.ErrTagRelease))
		}

		pr := edge.Node
		if pr.MergeCommit == nil || pr.MergeCommit.OID == "" {
			continue
		}

		intent := model.MatchReleaseTitle(pr.Title, latest)
		if !intent.Valid() {
			continue
		}

		version := intent.Version
		if intent.Relative {
			// Once a release exists for this merge commit the title means
			// that release, otherwise every cycle would bump again.
			tag, err := o.hosting.ReleaseForCommit(ctx, pr.MergeCommit.OID)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to find release of merge commit",
					goerr.V("commit", pr.MergeCommit.OID),
					goerr.T(model.ErrTagRelease))
			}
			if tag != "" {
				released, err := model.CoerceVersion(tag)
				if err != nil {
					return nil, goerr.Wrap(err, "release tag is not a version",
						goerr.V("tag", tag),
						goerr.T(model.ErrTagRelease))
				}
				version = released
			}
		}

		logger.Info("Found merged release PR",
			"version", version.String(),
			"commit", pr.MergeCommit.OID,
			"pr", pr.Number,
		)

		req := &model.ReleaseRequest{
			Version:           version,
			PreviousVersion:   latest,
			PreviousTag:       latestTag,
			Commitish:         pr.MergeCommit.OID,
			PullRequestID:     pr.ID,
			PullRequestNumber: pr.Number,
			AuthorName:        pr.MergeCommit.Author.Name,
			AuthorEmail:       pr.MergeCommit.Author.Email,
			PyPI:              conf.PyPIEnabled(),
			Fedora:            conf.Fedora,
			FedoraBranches:    slices.Clone(conf.FedoraBranches),
			TriggerOnIssue:    conf.TriggerOnIssue,
			Labels:            slices.Clone(conf.Labels),
		}
		if conf.AuthorName != "" {
			req.AuthorName = conf.AuthorName
			req.AuthorEmail = conf.AuthorEmail
		}
		return req, nil
	}

	logger.Debug("No merged release PR found")
	return nil, nil
}
