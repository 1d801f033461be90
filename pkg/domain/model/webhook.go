package model

import "time"

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypeIssues      WebhookEventType = "issues"
	EventTypePullRequest WebhookEventType = "pull_request"
	EventTypeRelease     WebhookEventType = "release"
	EventTypePing        WebhookEventType = "ping"
	EventTypeUnknown     WebhookEventType = "unknown"
)

// WebhookEvent represents a webhook event received from GitHub
type WebhookEvent struct {
	ID         string           // Retrieved from X-GitHub-Delivery header
	Type       WebhookEventType // Retrieved from X-GitHub-Event header
	Action     string           // Event action (e.g., opened, closed)
	Repository string           // Repository full name
	Sender     string           // Sender username
	Title      string           // Issue or pull request title
	Merged     bool             // Pull request was merged
	ReceivedAt time.Time        // Time when the event was received
}

// IsSupportedEvent checks if the event may change what the next cycle does,
// so that a cycle should start without waiting for the refresh interval
func (e *WebhookEvent) IsSupportedEvent() bool {
	switch e.Type {
	case EventTypeIssues:
		return e.Action == "opened" || e.Action == "edited" || e.Action == "reopened"
	case EventTypePullRequest:
		return e.Action == "closed" && e.Merged
	case EventTypeRelease:
		return e.Action == "deleted"
	default:
		return false
	}
}
