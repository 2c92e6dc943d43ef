// Package selection holds the one system-wide document selection that
// scopes chat queries.
package selection

import "sync"

// Coordinator owns the selected document id. The zero value has nothing
// selected and is ready to use.
type Coordinator struct {
	mu          sync.RWMutex
	current     string
	subscribers map[int]func(id string)
	nextID      int
}

// New creates an empty coordinator.
func New() *Coordinator {
	return &Coordinator{}
}

// Current returns the selected id, and false when nothing is selected.
func (c *Coordinator) Current() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.current != ""
}

// Select makes id the active selection. An empty id clears it.
func (c *Coordinator) Select(id string) {
	c.set(func(string) (string, bool) { return id, true })
}

// Clear removes any selection.
func (c *Coordinator) Clear() {
	c.Select("")
}

// Release clears the selection only if id is the one selected. It reports
// whether the selection changed.
func (c *Coordinator) Release(id string) bool {
	if id == "" {
		return false
	}
	return c.set(func(cur string) (string, bool) { return "", cur == id })
}

// Subscribe registers fn to be called with the new id (empty when cleared)
// after every change. The returned func unsubscribes.
func (c *Coordinator) Subscribe(fn func(id string)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribers == nil {
		c.subscribers = make(map[int]func(string))
	}
	key := c.nextID
	c.nextID++
	c.subscribers[key] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, key)
	}
}

// set applies next under the lock and notifies subscribers outside it, so a
// subscriber may read the coordinator without deadlocking.
func (c *Coordinator) set(next func(cur string) (string, bool)) bool {
	c.mu.Lock()
	id, ok := next(c.current)
	if !ok || id == c.current {
		c.mu.Unlock()
		return false
	}
	c.current = id
	subs := make([]func(string), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(id)
	}
	return true
}
