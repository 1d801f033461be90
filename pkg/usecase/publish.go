package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

const bodhiUpdateURL = "https://bodhi.fedoraproject.org/updates/new"

// publishPath looks for a merged release pull request and publishes it to
// every target in order. Each step checks its own target before acting, so a
// cycle interrupted half way resumes where it stopped.
func (o *Orchestrator) publishPath(ctx context.Context, c *cycle) error {
	req, err := o.findNewestReleasePullRequest(ctx, c.conf)
	if err != nil {
		return err
	}
	if req == nil {
		return nil
	}
	c.release = req
	c.report.Version = req.Version.String()

	if req.Fedora && o.index == nil {
		msg := "Fedora release is enabled but no PyPI project is configured, Fedora will not be triggered"
		ctxlog.From(ctx).Warn(msg, "version", req.Version.String())
		c.report.Errors = append(c.report.Errors, msg)
	}

	if err := o.makeNewGitHubRelease(ctx, c); err != nil {
		return err
	}

	// PyPI is attempted regardless of whether the GitHub release happened in
	// this cycle, to heal a previous cycle that stopped after GitHub.
	fresh, err := o.makeNewPyPIRelease(ctx, c)
	if err != nil {
		return err
	}

	// Fedora has no "already released" signal, so it only follows a fresh
	// PyPI release.
	if fresh {
		return o.makeNewFedoraRelease(ctx, c)
	}
	return nil
}

func (o *Orchestrator) makeNewGitHubRelease(ctx context.Context, c *cycle) error {
	logger := ctxlog.From(ctx)
	req := c.release

	latest, _, err := o.latestGitHub(ctx)
	if err != nil {
		return err
	}

	if model.IsReleased(latest, req.Version) {
		logger.Info("Version has already been released on GitHub", "version", req.Version.String())
	} else {
		req.Notes = o.draftNotes(ctx, req)

		released, err := o.hosting.MakeNewRelease(ctx, req)
		if err != nil {
			msg := fmt.Sprintf("I just failed to release version %s on GitHub", req.Version)
			logger.Error(msg, "error", err)
			c.notifier.Append(msg)
			o.record(ctx, c, model.TargetGitHub, req.Version, false, msg, "")
			return goerr.Wrap(err, "failed to make GitHub release",
				goerr.V("version", req.Version.String()),
				goerr.T(model.ErrTagRelease))
		}

		if released {
			msg := fmt.Sprintf("I just released version %s on GitHub", req.Version)
			logger.Info(msg, "url", req.ReleaseURL)
			c.notifier.Append(msg)
			c.report.MarkPublished(model.TargetGitHub)
			o.record(ctx, c, model.TargetGitHub, req.Version, true, msg, req.ReleaseURL)
		}
	}

	o.updateChangelog(ctx, c)
	return nil
}

// updateChangelog fills missing release notes. It runs whenever the release
// exists, so a release created without notes heals on a later cycle.
// Failures are logged only.
func (o *Orchestrator) updateChangelog(ctx context.Context, c *cycle) {
	logger := ctxlog.From(ctx)
	req := c.release

	body, err := o.hosting.ReleaseNotes(ctx, req.Version)
	if err != nil {
		logger.Warn("Failed to read release notes", "error", err, "version", req.Version.String())
		return
	}
	if strings.TrimSpace(body) != "" {
		logger.Debug("Release notes already present", "version", req.Version.String())
		return
	}

	if req.Notes == "" {
		req.Notes = o.draftNotes(ctx, req)
	}

	if err := o.hosting.UpdateChangelog(ctx, req.Version, req.Notes); err != nil {
		logger.Warn("Failed to update changelog", "error", err, "version", req.Version.String())
		return
	}

	logger.Info("Updated changelog", "version", req.Version.String())
	o.record(ctx, c, model.TargetChangelog, req.Version, true, "changelog updated", req.ReleaseURL)
}

// draftNotes builds release notes from the commits between the previous
// release and the merge commit. It never fails; the worst case is a generic
// line.
func (o *Orchestrator) draftNotes(ctx context.Context, req *model.ReleaseRequest) string {
	logger := ctxlog.From(ctx)

	commits, err := o.repo.Log(ctx, req.PreviousTag, req.Commitish)
	if err != nil {
		logger.Warn("Failed to read commit log for release notes", "error", err, "from", req.PreviousTag)
		commits, err = o.repo.Log(ctx, "", req.Commitish)
		if err != nil {
			logger.Warn("Failed to read commit log", "error", err)
		}
	}

	notes, err := o.notes.Generate(ctx, req, commits)
	if err != nil {
		logger.Warn("Failed to generate release notes, falling back to commit list", "error", err)
		notes, _ = NewCommitNotes().Generate(ctx, req, commits)
	}
	return notes
}

// makeNewPyPIRelease reports whether a fresh upload happened in this cycle
func (o *Orchestrator) makeNewPyPIRelease(ctx context.Context, c *cycle) (bool, error) {
	logger := ctxlog.From(ctx)
	req := c.release

	if !req.PyPI || o.index == nil {
		logger.Debug("Skipping PyPI release")
		return false, nil
	}

	raw, err := o.index.LatestVersion(ctx)
	if err != nil {
		return false, goerr.Wrap(err, "failed getting latest PyPI version", goerr.T(model.ErrTagRelease))
	}
	latest, err := model.CoerceVersion(raw)
	if err != nil {
		return false, goerr.Wrap(err, "latest PyPI version is not a version",
			goerr.V("latest", raw),
			goerr.T(model.ErrTagRelease))
	}

	if model.IsReleased(latest, req.Version) {
		logger.Info("Version has already been released on PyPI", "version", req.Version.String())
		return false, nil
	}

	artifacts, err := o.releaseCheckout(ctx, req)
	if err != nil {
		msg := fmt.Sprintf("I just failed to release version %s on PyPI", req.Version)
		logger.Error(msg, "error", err)
		c.notifier.Append(msg)
		o.record(ctx, c, model.TargetPyPI, req.Version, false, msg, "")
		return false, goerr.Wrap(err, "failed to make PyPI release",
			goerr.V("version", req.Version.String()),
			goerr.T(model.ErrTagRelease))
	}
	req.Artifacts = artifacts

	msg := fmt.Sprintf("I just released version %s on PyPI", req.Version)
	logger.Info(msg, "artifacts", artifacts)
	c.notifier.Append(msg)
	c.report.MarkPublished(model.TargetPyPI)
	o.record(ctx, c, model.TargetPyPI, req.Version, true, msg, "")

	if o.archive != nil && len(artifacts) > 0 {
		if err := o.archive.Store(ctx, req.Version, artifacts); err != nil {
			logger.Warn("Failed to archive artifacts", "error", err, "version", req.Version.String())
		}
	}

	return true, nil
}

// releaseCheckout checks out the release tag and uploads it
func (o *Orchestrator) releaseCheckout(ctx context.Context, req *model.ReleaseRequest) ([]string, error) {
	if err := o.repo.FetchTags(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to fetch tags", goerr.T(model.ErrTagRepository))
	}
	if err := o.repo.Checkout(ctx, req.Tag()); err != nil {
		return nil, goerr.Wrap(err, "failed to check out release tag",
			goerr.V("tag", req.Tag()),
			goerr.T(model.ErrTagRepository))
	}

	return o.index.Release(ctx, o.repo.Dir())
}

func (o *Orchestrator) makeNewFedoraRelease(ctx context.Context, c *cycle) error {
	logger := ctxlog.From(ctx)
	req := c.release

	if !req.Fedora || o.fedora == nil {
		logger.Debug("Skipping Fedora release")
		return nil
	}

	logger.Info("Triggering Fedora release", "branches", req.FedoraBranches)

	contact, err := o.hosting.UserContact(ctx)
	if err != nil {
		o.fedoraOutcome(ctx, c, false)
		return goerr.Wrap(err, "failed to get user contact for Fedora release", goerr.T(model.ErrTagRelease))
	}
	req.CommitName = contact.Name
	req.CommitEmail = contact.Email

	success, err := o.fedora.Release(ctx, req)
	if err != nil {
		o.fedoraOutcome(ctx, c, false)
		return goerr.Wrap(err, "failed to make Fedora release",
			goerr.V("version", req.Version.String()),
			goerr.T(model.ErrTagRelease))
	}

	o.fedoraOutcome(ctx, c, success)
	return nil
}

func (o *Orchestrator) fedoraOutcome(ctx context.Context, c *cycle, success bool) {
	result := "released"
	if !success {
		result = "failed to release"
	}
	msg := fmt.Sprintf("I just %s on Fedora", result)

	if builds := o.fedora.Builds(); len(builds) > 0 {
		msg += fmt.Sprintf(", successfully built for branches: %s.", strings.Join(builds, ", "))
		msg += fmt.Sprintf(" Follow this link to create bodhi update(s): %s", bodhiUpdateURL)
	}

	if success {
		ctxlog.From(ctx).Info(msg)
		c.report.MarkPublished(model.TargetFedora)
	} else {
		ctxlog.From(ctx).Error(msg)
	}
	c.notifier.Append(msg)
	o.record(ctx, c, model.TargetFedora, c.release.Version, success, msg, "")
}
