package interfaces

import (
	"context"

	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// Journal is an append-only record of actions taken by the bot
type Journal interface {
	Record(ctx context.Context, entry *model.JournalEntry) error
	List(ctx context.Context, limit int) ([]*model.JournalEntry, error)
}

// ChatNotifier mirrors release messages to a chat channel
type ChatNotifier interface {
	Post(ctx context.Context, messages []string) error
}
