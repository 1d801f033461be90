package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/releasebot/pkg/cli/config"
	"github.com/m-mizutani/releasebot/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg config.Logger
		sentryCfg config.Sentry
		fileCfg   config.File
		logger    *slog.Logger
		flush     = func() {}
	)

	var flags []cli.Flag
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, fileCfg.Flags()...)

	app := &cli.Command{
		Name:    types.AppName,
		Usage:   "Release bot turning release issues into pull requests and merged release pull requests into releases",
		Version: types.Version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Values from the env file reach subcommand flags only, since
			// root flags are parsed already
			if err := fileCfg.LoadEnv(); err != nil {
				return nil, err
			}
			if _, err := fileCfg.Apply(c); err != nil {
				return nil, err
			}

			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)

			flush, err = sentryCfg.Configure()
			if err != nil {
				return nil, err
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdRun(&fileCfg),
			cmdPlan(&fileCfg),
			cmdVersion(),
		},
	}

	err := app.Run(ctx, args)
	flush()
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}

func cmdVersion() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Action: func(ctx context.Context, c *cli.Command) error {
			_, err := fmt.Fprintf(c.Root().Writer, "%s %s\n", types.AppName, types.Version)
			return err
		},
	}
}
