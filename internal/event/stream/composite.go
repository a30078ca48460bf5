package stream

import "sync"

// Composite owns a set of subscriptions and releases them together.
// A Composite is itself a Subscription.
type Composite struct {
	mu       sync.Mutex
	children []Subscription
	closed   bool
}

// NewComposite creates an empty composite.
func NewComposite() *Composite {
	return &Composite{}
}

// Add takes ownership of sub. If the composite has already been released,
// sub is unsubscribed immediately.
func (c *Composite) Add(sub Subscription) {
	if sub == nil {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	c.compact()
	c.children = append(c.children, sub)
	c.mu.Unlock()
}

// compact drops children that were released on their own. c.mu must be held.
func (c *Composite) compact() {
	open := c.children[:0]
	for _, child := range c.children {
		if !child.Closed() {
			open = append(open, child)
		}
	}
	clear(c.children[len(open):])
	c.children = open
}

// Remove releases ownership of sub without unsubscribing it.
func (c *Composite) Remove(sub Subscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, child := range c.children {
		if child == sub {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return true
		}
	}
	return false
}

// Unsubscribe releases every owned subscription. It is idempotent.
func (c *Composite) Unsubscribe() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	children := c.children
	c.children = nil
	c.mu.Unlock()

	for _, child := range children {
		child.Unsubscribe()
	}
}

// Closed reports whether the composite has been released.
func (c *Composite) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Len returns the number of owned subscriptions that are still open.
func (c *Composite) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.compact()
	return len(c.children)
}
