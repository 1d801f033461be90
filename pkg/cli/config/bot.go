package config

import (
	"time"

	"github.com/m-mizutani/releasebot/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Bot holds the scheduling and working copy configuration
type Bot struct {
	Interval time.Duration
	Schedule string
	CloneDir string
	Once     bool
}

// Flags returns CLI flags for the bot loop
func (c *Bot) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "interval",
			Usage:       "Sleep between cycles unless refresh_interval is set in the repository",
			Value:       usecase.DefaultRefreshInterval,
			Destination: &c.Interval,
			Sources:     cli.EnvVars("RELEASEBOT_INTERVAL"),
		},
		&cli.StringFlag{
			Name:        "schedule",
			Usage:       "Cron expression waking the bot in addition to the interval (e.g. \"0 9 * * 1-5\")",
			Destination: &c.Schedule,
			Sources:     cli.EnvVars("RELEASEBOT_SCHEDULE"),
		},
		&cli.StringFlag{
			Name:        "clone-dir",
			Usage:       "Directory of the working copy; a temporary directory is used when empty",
			Destination: &c.CloneDir,
			Sources:     cli.EnvVars("RELEASEBOT_CLONE_DIR"),
		},
		&cli.BoolFlag{
			Name:        "once",
			Usage:       "Run a single cycle and exit",
			Destination: &c.Once,
			Sources:     cli.EnvVars("RELEASEBOT_ONCE"),
		},
	}
}
