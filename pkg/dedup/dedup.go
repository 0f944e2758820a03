// Package dedup suppresses repeated deliveries of the same message. Proximity
// reads fire several times per physical tap, so the peer keeps a short-lived
// record of recently seen payloads and drops the duplicates.
package dedup

import (
	"sync"
	"time"

	"easynfc/pkg/ndef"
)

// Filter remembers message payloads for a fixed window. Safe for concurrent
// use.
type Filter struct {
	ttl time.Duration
	max int

	mu      sync.Mutex
	entries map[uint64]int64 // payload hash -> unix nano expiry
	nowFn   func() time.Time
}

// NewFilter builds a filter with the given window. maxEntries bounds memory;
// when exceeded, expired entries are swept and, if still over, the filter is
// reset rather than grown.
func NewFilter(ttl time.Duration, maxEntries int) *Filter {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	return &Filter{
		ttl:     ttl,
		max:     maxEntries,
		entries: make(map[uint64]int64),
		nowFn:   time.Now,
	}
}

// Seen records msg and reports whether it was already recorded within the
// window. The first sighting returns false.
func (f *Filter) Seen(msg *ndef.Message) bool {
	b, err := msg.Bytes()
	if err != nil {
		return false
	}
	key := hash(b)
	now := f.nowFn().UnixNano()

	f.mu.Lock()
	defer f.mu.Unlock()
	if exp, ok := f.entries[key]; ok && exp > now {
		f.entries[key] = now + int64(f.ttl)
		return true
	}
	if len(f.entries) >= f.max {
		f.sweep(now)
	}
	f.entries[key] = now + int64(f.ttl)
	return false
}

// Len returns the number of live entries.
func (f *Filter) Len() int {
	now := f.nowFn().UnixNano()
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, exp := range f.entries {
		if exp > now {
			n++
		}
	}
	return n
}

func (f *Filter) sweep(now int64) {
	for k, exp := range f.entries {
		if exp <= now {
			delete(f.entries, k)
		}
	}
	if len(f.entries) >= f.max {
		f.entries = make(map[uint64]int64)
	}
}

// FNV-1a 64.
func hash(b []byte) uint64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(b); i++ {
		h ^= uint64(b[i])
		h *= 1099511628211
	}
	return h
}
