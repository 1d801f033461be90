package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/cli/config"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/infra/git"
	"github.com/m-mizutani/releasebot/pkg/infra/memory"
	"github.com/m-mizutani/releasebot/pkg/infra/shell"
	"github.com/m-mizutani/releasebot/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// releaseConfig groups the configuration needed to build an orchestrator
type releaseConfig struct {
	github    config.GitHub
	bot       config.Bot
	pypi      config.PyPI
	fedora    config.Fedora
	gemini    config.Gemini
	slack     config.Slack
	firestore config.Firestore
	storage   config.Storage
}

func (x *releaseConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.github.Flags()...)
	flags = append(flags, x.bot.Flags()...)
	flags = append(flags, x.pypi.Flags()...)
	flags = append(flags, x.fedora.Flags()...)
	flags = append(flags, x.gemini.Flags()...)
	flags = append(flags, x.slack.Flags()...)
	flags = append(flags, x.firestore.Flags()...)
	flags = append(flags, x.storage.Flags()...)
	return flags
}

// application is the wired release bot
type application struct {
	orchestrator *usecase.Orchestrator
	journal      interfaces.Journal
	closers      []func() error
}

// Close releases clients in reverse order of creation. The orchestrator is
// closed by its driver.
func (x *application) Close(ctx context.Context) {
	for i := len(x.closers) - 1; i >= 0; i-- {
		if err := x.closers[i](); err != nil {
			ctxlog.From(ctx).Warn("Failed to close client", "error", err)
		}
	}
}

// build clones the repository and wires the orchestrator with every
// configured collaborator
func (x *releaseConfig) build(ctx context.Context) (*application, error) {
	logger := ctxlog.From(ctx)
	app := &application{}

	httpClient, remote, err := x.github.Auth(ctx)
	if err != nil {
		return nil, err
	}

	var cloneOpts []git.Option
	if x.bot.CloneDir != "" {
		cloneOpts = append(cloneOpts, git.WithDir(x.bot.CloneDir))
	}
	repo, err := git.Clone(ctx, shell.New(), remote, cloneOpts...)
	if err != nil {
		return nil, err
	}

	hosting, err := x.github.NewClient(httpClient, repo)
	if err != nil {
		_ = repo.Cleanup()
		return nil, err
	}

	opts := []usecase.Option{
		usecase.WithRefreshInterval(x.bot.Interval),
	}

	if x.pypi.Enabled() {
		opts = append(opts, usecase.WithPackageIndex(x.pypi.NewIndex()))
	} else {
		logger.Info("PyPI project is not configured, PyPI releases are disabled")
	}

	if x.fedora.Enabled() {
		if !x.pypi.Enabled() {
			logger.Warn("Fedora packaging is configured without a PyPI project, Fedora releases will never be triggered")
		}
		opts = append(opts, usecase.WithDownstreamTrigger(x.fedora.NewPackager()))
	}

	llmClient, err := x.gemini.NewClient(ctx)
	if err != nil {
		_ = repo.Cleanup()
		return nil, err
	}
	if llmClient != nil {
		notes, err := usecase.NewLLMNotes(llmClient)
		if err != nil {
			_ = repo.Cleanup()
			return nil, goerr.Wrap(err, "failed to create release notes generator")
		}
		opts = append(opts, usecase.WithReleaseNotes(notes))
	}

	if chat := x.slack.NewNotifier(x.github.FullName()); chat != nil {
		opts = append(opts, usecase.WithChatNotifier(chat))
	}

	if x.firestore.Enabled() {
		journal, err := x.firestore.NewJournal(ctx)
		if err != nil {
			_ = repo.Cleanup()
			return nil, err
		}
		app.journal = journal
		app.closers = append(app.closers, journal.Close)
	} else {
		app.journal = memory.NewJournal(0)
	}
	opts = append(opts, usecase.WithJournal(app.journal))

	if x.storage.Enabled() {
		archive, err := x.storage.NewArchive(ctx)
		if err != nil {
			_ = repo.Cleanup()
			app.Close(ctx)
			return nil, err
		}
		app.closers = append(app.closers, archive.Close)
		opts = append(opts, usecase.WithArtifactArchive(archive))
	}

	app.orchestrator = usecase.NewOrchestrator(repo, hosting, opts...)
	return app, nil
}
