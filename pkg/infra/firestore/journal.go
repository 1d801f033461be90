package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection holds journal entries when no collection is configured
const DefaultCollection = "releasebot_journal"

// Journal stores journal entries in a Firestore collection, one document per
// cycle and target
type Journal struct {
	client     *firestore.Client
	collection string
}

var _ interfaces.Journal = (*Journal)(nil)

// New connects to the Firestore database databaseID of projectID
func New(ctx context.Context, projectID, databaseID, collection string) (*Journal, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}

	return &Journal{client: client, collection: collection}, nil
}

func documentID(entry *model.JournalEntry) string {
	return fmt.Sprintf("%s_%s", entry.CycleID, entry.Target)
}

// Record implements interfaces.Journal
func (x *Journal) Record(ctx context.Context, entry *model.JournalEntry) error {
	doc := x.client.Collection(x.collection).Doc(documentID(entry))
	if _, err := doc.Set(ctx, entry); err != nil {
		return goerr.Wrap(err, "failed to save journal entry",
			goerr.V("collection", x.collection),
			goerr.V("doc", doc.ID))
	}
	return nil
}

// List implements interfaces.Journal. Entries are newest first.
func (x *Journal) List(ctx context.Context, limit int) ([]*model.JournalEntry, error) {
	q := x.client.Collection(x.collection).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var entries []*model.JournalEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if status.Code(err) == codes.NotFound {
			// Database or collection not created yet
			return entries, nil
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list journal entries", goerr.V("collection", x.collection))
		}

		var entry model.JournalEntry
		if err := doc.DataTo(&entry); err != nil {
			return nil, goerr.Wrap(err, "failed to decode journal entry", goerr.V("doc", doc.Ref.ID))
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// Close releases the Firestore client
func (x *Journal) Close() error {
	if err := x.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close Firestore client")
	}
	return nil
}
