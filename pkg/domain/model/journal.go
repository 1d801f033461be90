package model

import "time"

// JournalEntry records one externally visible action taken by the bot
type JournalEntry struct {
	CycleID   CycleID   `firestore:"cycle_id" json:"cycle_id"`
	Target    Target    `firestore:"target" json:"target"`
	Version   string    `firestore:"version" json:"version"`
	Commitish string    `firestore:"commitish,omitempty" json:"commitish,omitempty"`
	URL       string    `firestore:"url,omitempty" json:"url,omitempty"`
	Success   bool      `firestore:"success" json:"success"`
	Message   string    `firestore:"message" json:"message"`
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
}
