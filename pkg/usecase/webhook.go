package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

type webhookUseCase struct {
	trigger interfaces.Trigger
}

// NewWebhook creates a new instance of WebhookUseCase. Relevant events wake
// trigger so the next cycle starts without waiting for the refresh interval.
func NewWebhook(trigger interfaces.Trigger) *webhookUseCase {
	return &webhookUseCase{
		trigger: trigger,
	}
}

// ProcessEvent processes a webhook event. The event itself is never acted
// upon; the cycle re-reads everything from the hosting platform.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx)

	logger.Info("Processing webhook event",
		"id", event.ID,
		"type", event.Type,
		"action", event.Action,
		"repository", event.Repository,
		"sender", event.Sender,
		"supported", event.IsSupportedEvent(),
	)

	if !event.IsSupportedEvent() {
		logger.Debug("Ignoring webhook event",
			"type", event.Type,
			"action", event.Action,
		)
		return nil
	}

	if uc.trigger != nil {
		uc.trigger.Kick()
	}
	return nil
}
