package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// Plan runs the discovery phases of a cycle without any externally visible
// action and reports what the next cycle would do
func (o *Orchestrator) Plan(ctx context.Context) (*model.Plan, error) {
	if err := o.repo.Pull(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to sync repository", goerr.T(model.ErrTagRepository))
	}

	conf, err := o.loadReleaseConf(ctx)
	if err != nil {
		return nil, err
	}

	_, latestTag, err := o.latestGitHub(ctx)
	if err != nil {
		return nil, err
	}
	plan := &model.Plan{
		LatestGitHub: latestTag,
		Conf:         conf,
	}

	if err := o.planPublish(ctx, plan); err != nil {
		return nil, err
	}

	if conf.TriggerOnIssue {
		if err := o.planRequest(ctx, plan); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

func (o *Orchestrator) planPublish(ctx context.Context, plan *model.Plan) error {
	req, err := o.findNewestReleasePullRequest(ctx, plan.Conf)
	if err != nil {
		return err
	}
	if req == nil {
		return nil
	}
	plan.Publish = req
	plan.PublishVersion = req.Version.String()
	plan.PublishPullRequest = req.PullRequestNumber

	if !model.IsReleased(req.PreviousVersion, req.Version) {
		plan.PublishTargets = append(plan.PublishTargets, model.TargetGitHub)
	}

	if req.Fedora && o.index == nil {
		plan.Skipped = append(plan.Skipped, "fedora is enabled but no PyPI project is configured")
	}
	if !req.PyPI || o.index == nil {
		return nil
	}

	raw, err := o.index.LatestVersion(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed getting latest PyPI version", goerr.T(model.ErrTagRelease))
	}
	plan.LatestPyPI = raw

	latest, err := model.CoerceVersion(raw)
	if err != nil {
		return goerr.Wrap(err, "latest PyPI version is not a version", goerr.T(model.ErrTagRelease))
	}
	if model.IsReleased(latest, req.Version) {
		return nil
	}

	plan.PublishTargets = append(plan.PublishTargets, model.TargetPyPI)
	if req.Fedora && o.fedora != nil {
		plan.PublishTargets = append(plan.PublishTargets, model.TargetFedora)
	}
	return nil
}

func (o *Orchestrator) planRequest(ctx context.Context, plan *model.Plan) error {
	found, err := o.findOpenReleaseIssues(ctx, plan.Conf)
	if err != nil {
		return err
	}

	switch {
	case len(found.Ambiguous) > 0:
		plan.Skipped = append(plan.Skipped, fmt.Sprintf("multiple release issues are open: %v", found.Ambiguous))
	case found.Pending == nil:
		return nil
	case model.IsReleased(found.Pending.PreviousVersion, found.Pending.Version):
		plan.Skipped = append(plan.Skipped, fmt.Sprintf("issue #%d requests %s which is already released",
			found.Pending.IssueNumber, found.Pending.Version))
	default:
		plan.Request = found.Pending
		plan.RequestVersion = found.Pending.Version.String()
		plan.RequestIssue = found.Pending.IssueNumber
	}
	return nil
}
