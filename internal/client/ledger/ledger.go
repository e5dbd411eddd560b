// Package ledger remembers which message ids already reached the user so the
// local fallback never shows a second alert for the same message.
package ledger

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCapacity = 2048

// Ledger is a bounded set of seen message ids. The oldest ids are evicted
// first once capacity is reached. Safe for concurrent use.
type Ledger struct {
	seen *lru.Cache[string, struct{}]
}

func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	// only fails for a non-positive size
	cache, _ := lru.New[string, struct{}](capacity)
	return &Ledger{seen: cache}
}

// MarkSeen records messageID. Repeated calls are no-ops.
func (l *Ledger) MarkSeen(messageID string) {
	if messageID == "" {
		return
	}
	l.seen.Add(messageID, struct{}{})
}

// HasSeen reports whether messageID was recorded. It does not refresh
// the id's recency.
func (l *Ledger) HasSeen(messageID string) bool {
	if messageID == "" {
		return false
	}
	return l.seen.Contains(messageID)
}

// Claim marks messageID and reports whether this call was the first to do
// so. The check and the mark happen atomically.
func (l *Ledger) Claim(messageID string) bool {
	if messageID == "" {
		return false
	}
	found, _ := l.seen.ContainsOrAdd(messageID, struct{}{})
	return !found
}

// Release forgets messageID so a later Claim can succeed
func (l *Ledger) Release(messageID string) {
	l.seen.Remove(messageID)
}

func (l *Ledger) Len() int {
	return l.seen.Len()
}
