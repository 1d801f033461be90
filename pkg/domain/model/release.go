package model

// PrivilegedAssociations are the author associations allowed to request a
// release through an issue
var PrivilegedAssociations = []string{"MEMBER", "OWNER", "COLLABORATOR"}

// IsPrivilegedAssociation reports whether association may request releases
func IsPrivilegedAssociation(association string) bool {
	for _, a := range PrivilegedAssociations {
		if a == association {
			return true
		}
	}
	return false
}

// PendingPR tracks the transition from a release issue to a release pull
// request within one cycle
type PendingPR struct {
	Version         Version
	PreviousVersion Version
	IssueID         string
	IssueNumber     int
	Labels          []string
	VersionFiles    []string
	AuthorName      string
	AuthorEmail     string

	// PRURL is set once the pull request exists
	PRURL string
}

// HeadBranch is the branch name used for the release pull request
func (x *PendingPR) HeadBranch() string {
	return x.Version.String() + "-release"
}

// Title is the pull request title. It must match MatchReleaseTitle so that
// the merged pull request is picked up by the publication path.
func (x *PendingPR) Title() string {
	return x.Version.String() + " release"
}

// ReleaseRequest is the in-flight publication state of one cycle. It is
// owned by the orchestrator and updated in place as each target succeeds.
type ReleaseRequest struct {
	Version           Version
	PreviousVersion   Version
	PreviousTag       string
	Commitish         string
	PullRequestID     string
	PullRequestNumber int
	AuthorName        string
	AuthorEmail       string

	// Policy copied from the cycle's release configuration
	PyPI           bool
	Fedora         bool
	FedoraBranches []string
	TriggerOnIssue bool
	Labels         []string

	// Filled while publishing
	Notes       string
	ReleaseURL  string
	CommitName  string
	CommitEmail string
	Artifacts   []string
}

// Tag is the git tag of the release
func (x *ReleaseRequest) Tag() string {
	return x.Version.String()
}
