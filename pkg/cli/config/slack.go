package config

import (
	"github.com/m-mizutani/releasebot/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds chat mirror configuration
type Slack struct {
	Token   string `masq:"secret"`
	Channel string
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-token",
			Usage:       "Slack bot token; release messages are mirrored to Slack when set",
			Destination: &c.Token,
			Sources:     cli.EnvVars("RELEASEBOT_SLACK_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID",
			Destination: &c.Channel,
			Sources:     cli.EnvVars("RELEASEBOT_SLACK_CHANNEL"),
		},
	}
}

// NewNotifier returns the Slack notifier, or nil when Slack is not
// configured
func (c *Slack) NewNotifier(repository string) *slack.Notifier {
	if c.Token == "" || c.Channel == "" {
		return nil
	}
	return slack.New(c.Token, c.Channel, slack.WithPrefix(repository))
}
