package interfaces

import (
	"context"

	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent processes a webhook event
	ProcessEvent(ctx context.Context, event *model.WebhookEvent) error
}

// ReleaseUseCase runs release cycles
type ReleaseUseCase interface {
	// RunCycle runs exactly one cycle of the release state machine. Release
	// failures are contained in the report, never returned.
	RunCycle(ctx context.Context) *model.CycleReport

	// Plan runs discovery only and reports what the next cycle would do
	Plan(ctx context.Context) (*model.Plan, error)

	// Close releases the working copy and resets in-flight state
	Close() error
}

// Trigger wakes the scheduler for an early cycle
type Trigger interface {
	Kick()
}
