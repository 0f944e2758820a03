// Package dispatch implements the priority-ordered handler chain through
// which every inbound NDEF message flows.
package dispatch

import (
	"sort"
	"sync"

	"easynfc/pkg/ndef"
)

// Outcome is the result of a handler processing a message.
type Outcome int

const (
	// Propagated passes the message on to the next handler in the chain.
	Propagated Outcome = iota
	// Consumed stops the chain.
	Consumed
)

// Handler consumes or propagates an inbound message. Handlers run off the
// caller's goroutine and may block.
type Handler interface {
	HandleMessage(msg *ndef.Message) Outcome
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(*ndef.Message) Outcome

func (f HandlerFunc) HandleMessage(msg *ndef.Message) Outcome { return f(msg) }

// Prioritized lets a handler carry its own chain priority.
type Prioritized interface {
	Priority() int
}

// Chain priorities. Lower values run earlier.
const (
	EmptyPriority    = 0
	HandoverPriority = 5
	DefaultPriority  = 50
)

type bucket struct {
	priority int
	handlers []Handler // insertion order
}

// Chain is a registry of handlers bucketed by priority. Dispatch walks
// buckets in ascending priority order and handlers within a bucket in
// registration order, stopping at the first Consumed.
type Chain struct {
	mu      sync.RWMutex
	buckets []bucket // kept sorted by priority
}

// NewChain returns a chain preloaded with the empty-sentinel handler, which
// silently consumes the designated empty message so it never reaches
// application handlers.
func NewChain() *Chain {
	c := &Chain{}
	c.Register(EmptyPriority, HandlerFunc(handleEmpty))
	return c
}

// Register adds a handler at the given priority.
func (c *Chain) Register(priority int, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := sort.Search(len(c.buckets), func(i int) bool { return c.buckets[i].priority >= priority })
	if i < len(c.buckets) && c.buckets[i].priority == priority {
		c.buckets[i].handlers = append(c.buckets[i].handlers, h)
		return
	}
	c.buckets = append(c.buckets, bucket{})
	copy(c.buckets[i+1:], c.buckets[i:])
	c.buckets[i] = bucket{priority: priority, handlers: []Handler{h}}
}

// RegisterHandler adds a handler at its own priority when it implements
// Prioritized, or at DefaultPriority otherwise.
func (c *Chain) RegisterHandler(h Handler) {
	if p, ok := h.(Prioritized); ok {
		c.Register(p.Priority(), h)
		return
	}
	c.Register(DefaultPriority, h)
}

// Clear removes every registered handler, including the empty-sentinel one.
func (c *Chain) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets = nil
}

// Dispatch runs msg through the chain synchronously. The registry is
// snapshotted at entry, so registrations made while a dispatch is in flight
// apply only to later dispatches.
func (c *Chain) Dispatch(msg *ndef.Message) Outcome {
	c.mu.RLock()
	snapshot := make([]bucket, len(c.buckets))
	copy(snapshot, c.buckets)
	c.mu.RUnlock()

	for _, b := range snapshot {
		for _, h := range b.handlers {
			if h.HandleMessage(msg) == Consumed {
				return Consumed
			}
		}
	}
	return Propagated
}

// Submit dispatches msg on a dedicated worker so handlers may block without
// stalling the caller.
func (c *Chain) Submit(msg *ndef.Message) {
	go c.Dispatch(msg)
}

func handleEmpty(msg *ndef.Message) Outcome {
	if ndef.IsEmpty(msg) {
		return Consumed
	}
	return Propagated
}
