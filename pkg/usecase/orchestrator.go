package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"github.com/m-mizutani/releasebot/pkg/utils/errutil"
)

// DefaultRefreshInterval is the sleep between cycles when neither the process
// nor release-conf.yaml configures one
const DefaultRefreshInterval = 5 * time.Minute

// Orchestrator is the release state machine. It owns all in-flight release
// state and the local repository mirror; collaborators are stateless.
type Orchestrator struct {
	repo    interfaces.Repository
	hosting interfaces.HostingClient
	index   interfaces.PackageIndex
	fedora  interfaces.DownstreamTrigger
	journal interfaces.Journal
	archive interfaces.ArtifactArchive
	notes   interfaces.ReleaseNotes
	chats   []interfaces.ChatNotifier

	interval time.Duration
	now      func() time.Time
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPackageIndex enables the package index target
func WithPackageIndex(index interfaces.PackageIndex) Option {
	return func(o *Orchestrator) {
		o.index = index
	}
}

// WithDownstreamTrigger enables the downstream packaging target
func WithDownstreamTrigger(trigger interfaces.DownstreamTrigger) Option {
	return func(o *Orchestrator) {
		o.fedora = trigger
	}
}

// WithJournal sets where executed actions are recorded
func WithJournal(journal interfaces.Journal) Option {
	return func(o *Orchestrator) {
		o.journal = journal
	}
}

// WithArtifactArchive keeps a copy of uploaded packages
func WithArtifactArchive(archive interfaces.ArtifactArchive) Option {
	return func(o *Orchestrator) {
		o.archive = archive
	}
}

// WithReleaseNotes replaces the commit list release notes
func WithReleaseNotes(notes interfaces.ReleaseNotes) Option {
	return func(o *Orchestrator) {
		o.notes = notes
	}
}

// WithChatNotifier mirrors notifications to a chat channel
func WithChatNotifier(chat interfaces.ChatNotifier) Option {
	return func(o *Orchestrator) {
		o.chats = append(o.chats, chat)
	}
}

// WithRefreshInterval sets the default sleep between cycles
func WithRefreshInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.interval = d
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates the release state machine
func NewOrchestrator(repo interfaces.Repository, hosting interfaces.HostingClient, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		repo:     repo,
		hosting:  hosting,
		notes:    NewCommitNotes(),
		interval: DefaultRefreshInterval,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

var _ interfaces.ReleaseUseCase = (*Orchestrator)(nil)

// cycle is the state of one poll cycle. A new one is created at the top of
// every cycle, so nothing leaks from one cycle into the next.
type cycle struct {
	report   *model.CycleReport
	conf     *model.ReleaseConf
	release  *model.ReleaseRequest
	pending  *model.PendingPR
	notifier *Notifier
}

func (c *cycle) enter(ctx context.Context, state model.CycleState) {
	c.report.Enter(state)
	ctxlog.From(ctx).Debug("Entering cycle state", "state", state)
}

// RunCycle runs one cycle of the state machine:
//
//	IDLE -> SYNC -> LOAD_CONFIG -> PUBLISH_PATH|SKIP -> REQUEST_PATH|SKIP -> NOTIFY -> SLEEP
//
// Failures inside a phase are logged, reported and recorded in the returned
// report; the cycle always reaches SLEEP.
func (o *Orchestrator) RunCycle(ctx context.Context) *model.CycleReport {
	c := &cycle{
		report: &model.CycleReport{
			ID:        model.NewCycleID(),
			StartedAt: o.now(),
		},
		notifier: NewNotifier(o.hosting, o.chats...),
	}

	logger := ctxlog.From(ctx).With("cycle_id", c.report.ID)
	ctx = ctxlog.With(ctx, logger)

	c.enter(ctx, model.StateIdle)
	o.runPhases(ctx, c)

	c.enter(ctx, model.StateNotify)
	c.report.Messages = c.notifier.Messages()
	if err := c.notifier.Flush(ctx, c.target()); err != nil {
		o.fail(ctx, c, err)
	}

	c.enter(ctx, model.StateSleep)
	c.report.NextInterval = c.conf.Interval(o.interval)
	c.report.FinishedAt = o.now()

	logger.Debug("Done. Going to sleep",
		"interval", c.report.NextInterval.String(),
		"published", c.report.Published,
		"errors", len(c.report.Errors),
	)
	return c.report
}

func (o *Orchestrator) runPhases(ctx context.Context, c *cycle) {
	c.enter(ctx, model.StateSync)
	if err := o.repo.Pull(ctx); err != nil {
		o.fail(ctx, c, goerr.Wrap(err, "failed to sync repository", goerr.T(model.ErrTagRepository)))
		c.enter(ctx, model.StateSkip)
		return
	}

	c.enter(ctx, model.StateLoadConfig)
	conf, err := o.loadReleaseConf(ctx)
	if err != nil {
		o.fail(ctx, c, err)
		c.enter(ctx, model.StateSkip)
		return
	}
	c.conf = conf

	c.enter(ctx, model.StatePublishPath)
	if err := o.publishPath(ctx, c); err != nil {
		o.fail(ctx, c, err)
	}

	if !conf.TriggerOnIssue {
		c.enter(ctx, model.StateSkip)
		return
	}

	c.enter(ctx, model.StateRequestPath)
	if err := o.requestPath(ctx, c); err != nil {
		o.fail(ctx, c, err)
	}
}

// target is the issue or pull request that receives the batched comment
func (c *cycle) target() int {
	if c.release != nil {
		return c.release.PullRequestNumber
	}
	return 0
}

// fail is the cycle boundary for errors: nothing escapes it
func (o *Orchestrator) fail(ctx context.Context, c *cycle, err error) {
	c.report.AddError(err)
	errutil.Handle(ctx, "release cycle step failed", err)
}

// Close releases the working copy. It is called once on shutdown.
func (o *Orchestrator) Close() error {
	if err := o.repo.Cleanup(); err != nil {
		return goerr.Wrap(err, "failed to clean up working copy", goerr.T(model.ErrTagRepository))
	}
	return nil
}

// record appends an entry to the journal. Journal failures never affect the
// release itself.
func (o *Orchestrator) record(ctx context.Context, c *cycle, target model.Target, version model.Version, success bool, msg, url string) {
	if o.journal == nil {
		return
	}

	entry := &model.JournalEntry{
		CycleID:   c.report.ID,
		Target:    target,
		Version:   version.String(),
		URL:       url,
		Success:   success,
		Message:   msg,
		CreatedAt: o.now(),
	}
	if c.release != nil {
		entry.Commitish = c.release.Commitish
	}

	if err := o.journal.Record(ctx, entry); err != nil {
		ctxlog.From(ctx).Warn("Failed to record journal entry",
			"error", err,
			"target", target,
			"version", entry.Version,
		)
	}
}

// latestGitHub returns the latest release version on the hosting platform
// together with its raw tag
func (o *Orchestrator) latestGitHub(ctx context.Context) (model.Version, string, error) {
	tag, err := o.hosting.LatestRelease(ctx)
	if err != nil {
		return model.Version{}, "", goerr.Wrap(err, "failed getting latest GitHub release",
			goerr.T(model.ErrTagRelease))
	}

	latest, err := model.CoerceVersion(tag)
	if err != nil {
		return model.Version{}, "", goerr.Wrap(err, "latest GitHub release is not a version",
			goerr.V("tag", tag),
			goerr.T(model.ErrTagRelease))
	}
	return latest, tag, nil
}
