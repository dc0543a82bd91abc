// Copyright (c) 2025 BVK Chaitanya

// Package lifetime implements ownership helpers for resources that must be
// released exactly once, like live-feed subscriptions and event listeners.
package lifetime

import "sync"

// Disposable is a resource that can be released. Dispose must be safe to call
// more than once; only the first call has any effect.
type Disposable interface {
	Dispose()
}

// Func adapts a function into a Disposable. Unlike Once, Func does not guard
// against repeated calls.
type Func func()

func (f Func) Dispose() {
	if f != nil {
		f()
	}
}

// Once returns a Disposable that runs f at most once.
func Once(f func()) Disposable {
	var once sync.Once
	return Func(func() { once.Do(f) })
}

// Composite holds a set of disposables that are released together.
//
// Disposables added after the composite is disposed are released immediately.
// Zero value is ready to use.
type Composite struct {
	mu sync.Mutex

	disposed bool

	items []Disposable
}

// NewComposite returns a composite holding the input disposables.
func NewComposite(ds ...Disposable) *Composite {
	c := new(Composite)
	for _, d := range ds {
		c.Add(d)
	}
	return c
}

// Add takes the ownership of d. Nil values are ignored.
func (c *Composite) Add(d Disposable) {
	if d == nil {
		return
	}
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		d.Dispose()
		return
	}
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Len returns number of disposables currently held.
func (c *Composite) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Disposed returns true if Dispose was called.
func (c *Composite) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Dispose releases all held disposables in the order they were added.
func (c *Composite) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	items := c.items
	c.items = nil
	c.mu.Unlock()

	for _, d := range items {
		d.Dispose()
	}
}
