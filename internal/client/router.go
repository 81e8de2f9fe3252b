package client

import (
	"sync"

	"github.com/rs/zerolog"

	"permithub/internal/notify"
)

const (
	defaultTitle = "New notification"
	defaultBody  = "You have a new message"
)

// Message is a normalized foreground notification handed to the page.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

type MessageHandler func(Message)

// Router decides whether an incoming push message should be surfaced in the
// page or left to the background worker.
type Router struct {
	visibility Visibility
	log        zerolog.Logger

	mu       sync.Mutex
	handler  MessageHandler
	attached bool
}

func NewRouter(visibility Visibility, log zerolog.Logger) *Router {
	return &Router{visibility: visibility, log: log}
}

// SetupListener attaches the foreground handler once; repeat calls are
// no-ops and report false.
func (r *Router) SetupListener(handler MessageHandler) bool {
	if handler == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attached {
		r.log.Debug().Msg("foreground listener already attached")
		return false
	}
	r.handler = handler
	r.attached = true
	return true
}

// ShouldHandleInPage is the single routing decision: visible pages render
// in-page, hidden pages leave the message to the background worker.
// Visibility is sampled when the message arrives, so a message landing in
// the instant of a tab switch can still go to whichever side the sample saw.
// That window is inherent to sampling and is left as-is rather than papered
// over with double rendering.
func ShouldHandleInPage(visible bool) bool {
	return visible
}

// Receive feeds one inbound payload through validation and the routing
// decision. It reports whether the page handler was invoked.
func (r *Router) Receive(payload notify.Payload) bool {
	if err := payload.Validate(); err != nil {
		r.log.Warn().Err(err).Msg("dropping malformed push payload")
		return false
	}

	r.mu.Lock()
	handler := r.handler
	attached := r.attached
	r.mu.Unlock()
	if !attached {
		return false
	}

	if !ShouldHandleInPage(r.visibility.Visible()) {
		r.log.Debug().Msg("page hidden, leaving message to the background worker")
		return false
	}

	handler(Message{
		Title: payload.Title(defaultTitle),
		Body:  payload.Body(defaultBody),
		Data:  payload.Data,
	})
	return true
}
