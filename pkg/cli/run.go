package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/cli/config"
	"github.com/m-mizutani/releasebot/pkg/controller/poller"
	controller "github.com/m-mizutani/releasebot/pkg/controller/http"
	"github.com/m-mizutani/releasebot/pkg/usecase"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func cmdRun(file *config.File) *cli.Command {
	var (
		serverCfg  config.Server
		releaseCfg releaseConfig
	)

	flags := append(serverCfg.Flags(), releaseCfg.Flags()...)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Watch the repository and release when asked",
		Flags:   flags,
		Before:  applyConfigFile(file),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("Starting releasebot",
				slog.String("repository", releaseCfg.github.FullName()),
				slog.String("addr", serverCfg.Addr),
			)

			app, err := releaseCfg.build(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			var pollerOpts []poller.Option
			if releaseCfg.bot.Schedule != "" {
				schedule, err := poller.ParseSchedule(releaseCfg.bot.Schedule)
				if err != nil {
					_ = app.orchestrator.Close()
					return err
				}
				pollerOpts = append(pollerOpts, poller.WithSchedule(schedule))
			}
			if releaseCfg.bot.Once {
				pollerOpts = append(pollerOpts, poller.WithMaxCycles(1))
			}
			p := poller.New(app.orchestrator, pollerOpts...)

			var server *controller.Server
			if serverCfg.Addr != "" && !releaseCfg.bot.Once {
				server, err = controller.NewServer(
					ctx,
					usecase.NewWebhook(p),
					controller.WithAddr(serverCfg.Addr),
					controller.WithWebhookSecret(releaseCfg.github.WebhookSecret),
					controller.WithRepository(releaseCfg.github.FullName()),
					controller.WithStatus(p),
					controller.WithJournal(app.journal),
				)
				if err != nil {
					_ = app.orchestrator.Close()
					return goerr.Wrap(err, "failed to create HTTP server")
				}
			}

			if err := serve(ctx, p, server); err != nil {
				return err
			}

			logger.Info("Releasebot stopped")
			return nil
		},
	}
}

type cycleRunner interface {
	Run(ctx context.Context) error
}

// serve runs the poller and, if server is not nil, the HTTP server until ctx
// is cancelled or one of them fails. A failure of either stops the other.
func serve(ctx context.Context, p cycleRunner, server *controller.Server) error {
	logger := ctxlog.From(ctx)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return p.Run(ctx)
	})

	if server != nil {
		eg.Go(func() error {
			logger.Info("HTTP server starting", slog.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return goerr.Wrap(err, "HTTP server error", goerr.V("addr", server.Addr))
			}
			return nil
		})

		eg.Go(func() error {
			<-ctx.Done()
			logger.Info("Shutting down HTTP server")

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}
			return nil
		})
	}

	return eg.Wait()
}

func applyConfigFile(file *config.File) cli.BeforeFunc {
	return func(ctx context.Context, c *cli.Command) (context.Context, error) {
		ignored, err := file.Apply(c)
		if err != nil {
			return ctx, err
		}
		if len(ignored) > 0 {
			ctxlog.From(ctx).Warn("Unknown keys in config file", "keys", ignored, "path", file.Config)
		}
		return ctx, nil
	}
}
