package github

import (
	"context"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// EventProcessor converts parsed GitHub webhook payloads into WebhookEvent
// and hands events of the watched repository to the webhook use case
type EventProcessor struct {
	webhookUC  interfaces.WebhookUseCase
	repository string
}

// NewEventProcessor creates a new GitHub event processor. Events of other
// repositories than repository ("owner/name") are dropped; an empty
// repository accepts all.
func NewEventProcessor(webhookUC interfaces.WebhookUseCase, repository string) *EventProcessor {
	return &EventProcessor{
		webhookUC:  webhookUC,
		repository: repository,
	}
}

// ProcessEvent processes a GitHub webhook event
func (p *EventProcessor) ProcessEvent(ctx context.Context, deliveryID, eventType string, payload any) error {
	logger := ctxlog.From(ctx)

	event := ToWebhookEvent(eventType, payload)
	event.ID = deliveryID
	event.ReceivedAt = time.Now()

	if p.repository != "" && event.Repository != "" && !strings.EqualFold(p.repository, event.Repository) {
		logger.Info("Ignoring event of another repository",
			"repository", event.Repository,
			"watching", p.repository,
		)
		return nil
	}

	return p.webhookUC.ProcessEvent(ctx, event)
}

// ToWebhookEvent extracts the fields the bot cares about from a payload
// returned by github.ParseWebHook
func ToWebhookEvent(eventType string, payload any) *model.WebhookEvent {
	event := &model.WebhookEvent{
		Type: model.WebhookEventType(eventType),
	}

	switch e := payload.(type) {
	case *github.IssuesEvent:
		event.Action = e.GetAction()
		event.Repository = e.GetRepo().GetFullName()
		event.Sender = e.GetSender().GetLogin()
		event.Title = e.GetIssue().GetTitle()
	case *github.PullRequestEvent:
		event.Action = e.GetAction()
		event.Repository = e.GetRepo().GetFullName()
		event.Sender = e.GetSender().GetLogin()
		event.Title = e.GetPullRequest().GetTitle()
		event.Merged = e.GetPullRequest().GetMerged()
	case *github.ReleaseEvent:
		event.Action = e.GetAction()
		event.Repository = e.GetRepo().GetFullName()
		event.Sender = e.GetSender().GetLogin()
		event.Title = e.GetRelease().GetTagName()
	case *github.PingEvent:
		event.Type = model.EventTypePing
		event.Repository = e.GetRepo().GetFullName()
		event.Sender = e.GetSender().GetLogin()
	default:
		event.Type = model.EventTypeUnknown
	}

	return event
}
