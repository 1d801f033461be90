package interfaces

import (
	"context"

	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// HostingClient defines operations against the code hosting platform
type HostingClient interface {
	// LatestRelease returns the tag of the latest published release, or an
	// empty string when the repository has none
	LatestRelease(ctx context.Context) (string, error)

	// OpenIssues returns one page of open issues. Edges are in ascending
	// creation order; an empty page ends the walk.
	OpenIssues(ctx context.Context, cursor string, direction model.Direction) ([]model.IssueEdge, error)

	// ClosedPullRequests returns one page of closed or merged pull requests
	// with the same ordering contract as OpenIssues
	ClosedPullRequests(ctx context.Context, cursor string, direction model.Direction) ([]model.PullRequestEdge, error)

	// MakeReleasePR opens (or finds) the pull request bumping the project to
	// the requested version and returns its URL
	MakeReleasePR(ctx context.Context, pr *model.PendingPR) (string, error)

	// MakeNewRelease creates the release from req.Commitish. It reports
	// whether a release was created and may update req (e.g. ReleaseURL).
	MakeNewRelease(ctx context.Context, req *model.ReleaseRequest) (bool, error)

	// ReleaseForCommit returns the tag of a published release created from
	// commit, or an empty string when there is none
	ReleaseForCommit(ctx context.Context, commit string) (string, error)

	// ReleaseNotes returns the body of the release of version
	ReleaseNotes(ctx context.Context, version model.Version) (string, error)

	// UpdateChangelog replaces the release notes of an existing release
	UpdateChangelog(ctx context.Context, version model.Version, notes string) error

	// AddComment posts one comment built from messages on an issue or pull
	// request
	AddComment(ctx context.Context, number int, messages []string) error

	CloseIssue(ctx context.Context, number int) error
	PutLabelsOnIssue(ctx context.Context, number int, labels []string) error

	// UserContact returns the name and e-mail of the account the bot acts as
	UserContact(ctx context.Context) (*model.UserContact, error)

	// Configuration returns the raw release-conf.yaml of the repository
	Configuration(ctx context.Context) ([]byte, error)
}
