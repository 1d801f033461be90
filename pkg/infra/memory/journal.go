package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// DefaultCapacity is the number of entries kept by NewJournal
const DefaultCapacity = 1000

// Journal keeps the most recent entries in memory. It is the journal used
// when no Firestore project is configured.
type Journal struct {
	mu       sync.RWMutex
	entries  []*model.JournalEntry
	capacity int
}

var _ interfaces.Journal = (*Journal)(nil)

// NewJournal creates a Journal holding at most capacity entries. A
// non-positive capacity means DefaultCapacity.
func NewJournal(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{capacity: capacity}
}

// Record implements interfaces.Journal
func (x *Journal) Record(ctx context.Context, entry *model.JournalEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	copied := *entry
	x.entries = append(x.entries, &copied)
	if over := len(x.entries) - x.capacity; over > 0 {
		x.entries = x.entries[over:]
	}
	return nil
}

// List implements interfaces.Journal. Entries are newest first.
func (x *Journal) List(ctx context.Context, limit int) ([]*model.JournalEntry, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if limit <= 0 || limit > len(x.entries) {
		limit = len(x.entries)
	}

	result := make([]*model.JournalEntry, 0, limit)
	for i := len(x.entries) - 1; i >= 0 && len(result) < limit; i-- {
		copied := *x.entries[i]
		result = append(result, &copied)
	}
	return result, nil
}
