package client

import "sync"

// Visibility reports whether the page is in the foreground.
type Visibility interface {
	Visible() bool
}

// PageVisibility is a thread-safe toggle driven by the host's
// visibility-change events. A new page starts visible.
type PageVisibility struct {
	mu     sync.RWMutex
	hidden bool
}

func NewPageVisibility() *PageVisibility {
	return &PageVisibility{}
}

// Set accepts the platform's state strings and ignores anything else.
func (p *PageVisibility) Set(state string) bool {
	if state != "visible" && state != "hidden" {
		return false
	}
	p.mu.Lock()
	p.hidden = state == "hidden"
	p.mu.Unlock()
	return true
}

func (p *PageVisibility) Visible() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.hidden
}
