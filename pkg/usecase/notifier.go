package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/utils/async"
)

// Notifier accumulates human readable status lines during a cycle and posts
// them as a single comment at the end of it
type Notifier struct {
	hosting  interfaces.HostingClient
	chats    []interfaces.ChatNotifier
	messages []string
}

// NewNotifier creates an empty notification log
func NewNotifier(hosting interfaces.HostingClient, chats ...interfaces.ChatNotifier) *Notifier {
	return &Notifier{
		hosting: hosting,
		chats:   chats,
	}
}

// Append adds one line to the log
func (n *Notifier) Append(msg string) {
	n.messages = append(n.messages, msg)
}

// Messages returns a copy of the pending lines
func (n *Notifier) Messages() []string {
	return append([]string(nil), n.messages...)
}

// Len returns the number of pending lines
func (n *Notifier) Len() int {
	return len(n.messages)
}

// Flush posts every pending line as one comment on the issue or pull
// request number and clears the log. Without a target the lines are only
// logged. The log is cleared even when posting fails.
func (n *Notifier) Flush(ctx context.Context, target int) error {
	if len(n.messages) == 0 {
		return nil
	}

	messages := n.messages
	n.messages = nil

	n.mirror(ctx, messages)

	if target == 0 {
		ctxlog.From(ctx).Warn("No issue or pull request to comment on, dropping notifications",
			"messages", messages,
		)
		return nil
	}

	if err := n.hosting.AddComment(ctx, target, messages); err != nil {
		return goerr.Wrap(err, "failed to post notifications", goerr.V("target", target))
	}
	return nil
}

// Post immediately comments msg on target, bypassing the log
func (n *Notifier) Post(ctx context.Context, target int, msg string) error {
	n.mirror(ctx, []string{msg})

	if err := n.hosting.AddComment(ctx, target, []string{msg}); err != nil {
		return goerr.Wrap(err, "failed to post comment", goerr.V("target", target))
	}
	return nil
}

func (n *Notifier) mirror(ctx context.Context, messages []string) {
	for _, chat := range n.chats {
		async.Dispatch(ctx, func(ctx context.Context) error {
			return chat.Post(ctx, messages)
		})
	}
}
