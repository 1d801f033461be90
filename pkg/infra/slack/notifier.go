package slack

import (
	"context"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/slack-go/slack"
)

// Notifier mirrors release messages to a Slack channel
type Notifier struct {
	client     *slack.Client
	channel    string
	prefix     string
	clientOpts []slack.Option
}

var _ interfaces.ChatNotifier = (*Notifier)(nil)

// Option configures Notifier
type Option func(*Notifier)

// WithAPIURL overrides the Slack API endpoint. The URL must end with a slash.
func WithAPIURL(url string) Option {
	return func(n *Notifier) {
		n.clientOpts = append(n.clientOpts, slack.OptionAPIURL(url))
	}
}

// WithPrefix puts prefix, typically the repository name, at the head of every
// posted message
func WithPrefix(prefix string) Option {
	return func(n *Notifier) {
		n.prefix = prefix
	}
}

// New creates a Notifier posting to channel with a bot token
func New(token, channel string, opts ...Option) *Notifier {
	n := &Notifier{channel: channel}
	for _, opt := range opts {
		opt(n)
	}
	n.client = slack.New(token, n.clientOpts...)
	return n
}

// Post implements interfaces.ChatNotifier. All messages go in one post.
func (x *Notifier) Post(ctx context.Context, messages []string) error {
	if len(messages) == 0 {
		return nil
	}

	text := strings.Join(messages, "\n")
	if x.prefix != "" {
		text = "*" + x.prefix + "*\n" + text
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
	}

	channel, ts, err := x.client.PostMessageContext(ctx, x.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post message to Slack", goerr.V("channel", x.channel))
	}

	ctxlog.From(ctx).Debug("Posted message to Slack", "channel", channel, "ts", ts)
	return nil
}
