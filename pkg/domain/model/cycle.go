package model

import (
	"time"

	"github.com/google/uuid"
)

// CycleState is a state of the release state machine
type CycleState string

const (
	StateIdle        CycleState = "idle"
	StateSync        CycleState = "sync"
	StateLoadConfig  CycleState = "load_config"
	StatePublishPath CycleState = "publish_path"
	StateRequestPath CycleState = "request_path"
	StateSkip        CycleState = "skip"
	StateNotify      CycleState = "notify"
	StateSleep       CycleState = "sleep"
)

// Target is an externally visible release destination
type Target string

const (
	TargetPullRequest Target = "pull_request"
	TargetGitHub      Target = "github"
	TargetChangelog   Target = "changelog"
	TargetPyPI        Target = "pypi"
	TargetFedora      Target = "fedora"
)

// CycleID identifies one poll cycle in logs, reports and the journal
type CycleID string

// NewCycleID returns a fresh random cycle id
func NewCycleID() CycleID {
	return CycleID(uuid.NewString())
}

// CycleReport summarizes one cycle. It is what the scheduler keeps for the
// status endpoint and what tests assert on.
type CycleReport struct {
	ID         CycleID      `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	States     []CycleState `json:"states"`

	// Version of the merged release pull request found this cycle, if any
	Version string `json:"version,omitempty"`

	// Published lists targets that received a fresh release this cycle
	Published []Target `json:"published,omitempty"`

	// PullRequestURL is set when a release pull request was opened
	PullRequestURL string `json:"pull_request_url,omitempty"`

	Messages []string `json:"messages,omitempty"`
	Errors   []string `json:"errors,omitempty"`

	// NextInterval is how long the scheduler should sleep before the next
	// cycle
	NextInterval time.Duration `json:"next_interval"`
}

// Enter records a state transition
func (x *CycleReport) Enter(state CycleState) {
	x.States = append(x.States, state)
}

// AddError records a failure caught at the cycle boundary
func (x *CycleReport) AddError(err error) {
	x.Errors = append(x.Errors, err.Error())
}

// MarkPublished records a fresh release to target
func (x *CycleReport) MarkPublished(target Target) {
	x.Published = append(x.Published, target)
}

// HasPublished reports whether target was freshly released this cycle
func (x *CycleReport) HasPublished(target Target) bool {
	for _, t := range x.Published {
		if t == target {
			return true
		}
	}
	return false
}
