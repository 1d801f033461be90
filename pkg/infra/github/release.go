package github

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// listReleases walks every published release. Drafts are skipped.
func (c *Client) listReleases(ctx context.Context, fn func(*github.RepositoryRelease)) error {
	opt := &github.ListOptions{PerPage: 100}
	for {
		releases, resp, err := c.rest.Repositories.ListReleases(ctx, c.owner, c.name, opt)
		if err != nil {
			return goerr.Wrap(err, "failed to list releases", goerr.V("page", opt.Page))
		}

		for _, r := range releases {
			if !r.GetDraft() {
				fn(r)
			}
		}

		if resp == nil || resp.NextPage == 0 {
			return nil
		}
		opt.Page = resp.NextPage
	}
}

// LatestRelease implements interfaces.HostingClient. GitHub's own "latest"
// is the most recently created release, so the highest semantic version
// among all published releases is computed here instead. Tags that are not
// versions are ignored.
func (c *Client) LatestRelease(ctx context.Context) (string, error) {
	var latest string
	var latestVersion model.Version

	err := c.listReleases(ctx, func(r *github.RepositoryRelease) {
		v, err := model.CoerceVersion(r.GetTagName())
		if err != nil || v.IsZero() {
			return
		}
		if latest == "" || latestVersion.LessThan(v) {
			latest, latestVersion = r.GetTagName(), v
		}
	})
	if err != nil {
		return "", err
	}

	return latest, nil
}

// ReleaseForCommit implements interfaces.HostingClient. When several
// releases point at commit, the highest version wins.
func (c *Client) ReleaseForCommit(ctx context.Context, commit string) (string, error) {
	var found string
	var foundVersion model.Version

	err := c.listReleases(ctx, func(r *github.RepositoryRelease) {
		if r.GetTargetCommitish() != commit {
			return
		}
		v, err := model.CoerceVersion(r.GetTagName())
		if err != nil || v.IsZero() {
			return
		}
		if found == "" || foundVersion.LessThan(v) {
			found, foundVersion = r.GetTagName(), v
		}
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to find release for commit", goerr.V("commit", commit))
	}

	return found, nil
}

var errReleaseNotFound = errors.New("release not found")

func (c *Client) releaseByTag(ctx context.Context, tag string) (*github.RepositoryRelease, error) {
	release, resp, err := c.rest.Repositories.GetReleaseByTag(ctx, c.owner, c.name, tag)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, errReleaseNotFound
		}
		return nil, goerr.Wrap(err, "failed to get release", goerr.V("tag", tag))
	}
	return release, nil
}

// MakeNewRelease implements interfaces.HostingClient. An existing release
// with the same tag is not an error; nothing is created in that case.
func (c *Client) MakeNewRelease(ctx context.Context, req *model.ReleaseRequest) (bool, error) {
	existing, err := c.releaseByTag(ctx, req.Tag())
	if err == nil {
		req.ReleaseURL = existing.GetHTMLURL()
		return false, nil
	}
	if !errors.Is(err, errReleaseNotFound) {
		return false, err
	}

	release, _, err := c.rest.Repositories.CreateRelease(ctx, c.owner, c.name, &github.RepositoryRelease{
		TagName:         github.Ptr(req.Tag()),
		TargetCommitish: github.Ptr(req.Commitish),
		Name:            github.Ptr(req.Version.String()),
		Body:            github.Ptr(req.Notes),
		Draft:           github.Ptr(false),
		Prerelease:      github.Ptr(req.Version.Prerelease() != ""),
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to create release",
			goerr.V("tag", req.Tag()),
			goerr.V("commitish", req.Commitish))
	}

	req.ReleaseURL = release.GetHTMLURL()
	return true, nil
}

// ReleaseNotes implements interfaces.HostingClient
func (c *Client) ReleaseNotes(ctx context.Context, version model.Version) (string, error) {
	release, err := c.releaseByTag(ctx, version.String())
	if err != nil {
		return "", goerr.Wrap(err, "failed to read release notes", goerr.V("version", version.String()))
	}
	return release.GetBody(), nil
}

// UpdateChangelog implements interfaces.HostingClient
func (c *Client) UpdateChangelog(ctx context.Context, version model.Version, notes string) error {
	release, err := c.releaseByTag(ctx, version.String())
	if err != nil {
		return goerr.Wrap(err, "failed to find release for changelog", goerr.V("version", version.String()))
	}

	if _, _, err := c.rest.Repositories.EditRelease(ctx, c.owner, c.name, release.GetID(), &github.RepositoryRelease{
		Body: github.Ptr(notes),
	}); err != nil {
		return goerr.Wrap(err, "failed to update release notes",
			goerr.V("version", version.String()),
			goerr.V("release_id", release.GetID()))
	}
	return nil
}
