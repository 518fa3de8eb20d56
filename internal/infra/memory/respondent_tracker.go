package memory

import (
	"context"
	"sync"
	"time"
)

// RespondentTracker stores the last time each respondent answered per link id.
type RespondentTracker struct {
	mu       sync.RWMutex
	lastSeen map[int64]map[string]time.Time
}

func NewRespondentTracker() *RespondentTracker {
	return &RespondentTracker{lastSeen: make(map[int64]map[string]time.Time)}
}

func (t *RespondentTracker) Touch(_ context.Context, configLinkID int64, respondentID string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen, ok := t.lastSeen[configLinkID]
	if !ok {
		seen = make(map[string]time.Time)
		t.lastSeen[configLinkID] = seen
	}
	if prev, ok := seen[respondentID]; !ok || at.After(prev) {
		seen[respondentID] = at
	}
	return nil
}

func (t *RespondentTracker) CountSince(_ context.Context, configLinkID int64, since time.Time) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var n int64
	for _, at := range t.lastSeen[configLinkID] {
		if since.IsZero() || !at.Before(since) {
			n++
		}
	}
	return n, nil
}
