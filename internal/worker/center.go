package worker

import "sync"

// Center is an in-memory notification center with the platform's tag
// semantics: showing a notification whose tag is already on screen replaces
// the older one in place.
type Center struct {
	mu    sync.Mutex
	order []string
	byTag map[string]Notification
}

func NewCenter() *Center {
	return &Center{byTag: make(map[string]Notification)}
}

// Show displays n, replacing any notification with the same tag.
func (c *Center) Show(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byTag[n.Tag]; !exists {
		c.order = append(c.order, n.Tag)
	}
	c.byTag[n.Tag] = n
}

// Close removes the notification with the given tag, if present.
func (c *Center) Close(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byTag[tag]; !exists {
		return
	}
	delete(c.byTag, tag)
	for i, t := range c.order {
		if t == tag {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Active returns the on-screen notifications in display order.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	active := make([]Notification, 0, len(c.order))
	for _, tag := range c.order {
		active = append(active, c.byTag[tag])
	}
	return active
}

func (c *Center) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byTag)
}
