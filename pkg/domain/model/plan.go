package model

// Plan describes what the next cycle would do, without doing it
type Plan struct {
	LatestGitHub string `json:"latest_github"`
	LatestPyPI   string `json:"latest_pypi,omitempty"`

	Conf *ReleaseConf `json:"conf,omitempty"`

	// Publish is the merged release pull request awaiting publication
	Publish *ReleaseRequest `json:"-"`

	// PublishTargets lists targets that would receive a release
	PublishTargets []Target `json:"publish_targets,omitempty"`

	// Request is the release issue that would become a pull request
	Request *PendingPR `json:"-"`

	// Flattened views of Publish and Request for JSON output
	PublishVersion     string `json:"publish_version,omitempty"`
	PublishPullRequest int    `json:"publish_pull_request,omitempty"`
	RequestVersion     string `json:"request_version,omitempty"`
	RequestIssue       int    `json:"request_issue,omitempty"`

	// Skipped explains candidates that were found but are not acted upon
	Skipped []string `json:"skipped,omitempty"`
}
