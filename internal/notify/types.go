// Package notify holds the vocabulary shared by the page, the background
// worker, and the dispatch server: event sources, payload shape, tag keys,
// and the failure taxonomy.
package notify

import "errors"

// SourceType identifies which slip transition produced a notification.
type SourceType string

const (
	SourceSlipSubmitted SourceType = "permission-submitted"
	SourceSlipApproved  SourceType = "permission-approved"
	SourceSlipRejected  SourceType = "permission-rejected"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourceSlipSubmitted, SourceSlipApproved, SourceSlipRejected:
		return true
	}
	return false
}

// Event is one notification-worthy occurrence. Events are ephemeral; nothing
// here is persisted once delivery has been attempted.
type Event struct {
	Title     string
	Body      string
	Icon      string
	TargetURL string
	ID        string
	Source    SourceType
}

// DedupKey is the collapse key for rendering: two events with the same key
// replace each other on screen.
func (e Event) DedupKey() string {
	return TagKey(e.ID)
}

// NotificationBlock is the display half of an inbound payload.
type NotificationBlock struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// Payload is the wire shape of a push message: a tagged union where at least
// one of the two branches must be present. Dispatch sends data-only payloads;
// the notification block exists for interop with senders that set both.
type Payload struct {
	Notification *NotificationBlock `json:"notification,omitempty"`
	Data         map[string]string  `json:"data,omitempty"`
}

var ErrEmptyPayload = errors.New("notify: payload has neither notification nor data")

func (p Payload) Validate() error {
	if p.Notification == nil && len(p.Data) == 0 {
		return ErrEmptyPayload
	}
	return nil
}

// Title resolves the display title: notification block first, then the data
// map, then the caller's fallback.
func (p Payload) Title(fallback string) string {
	if p.Notification != nil && p.Notification.Title != "" {
		return p.Notification.Title
	}
	if v := p.Data["title"]; v != "" {
		return v
	}
	return fallback
}

// Body resolves the display body with the same precedence as Title.
func (p Payload) Body(fallback string) string {
	if p.Notification != nil && p.Notification.Body != "" {
		return p.Notification.Body
	}
	if v := p.Data["body"]; v != "" {
		return v
	}
	return fallback
}
