package app

import (
	"sync"

	"devexchange-service/internal/domain"
)

// StatisticsHub fans category statistics out to live subscribers, keyed by link id.
type StatisticsHub struct {
	mu sync.Mutex
	// subscribers maps each channel to whether a broadcast has reached it.
	subscribers map[int64]map[chan domain.CategoryStatistic]bool
}

func NewStatisticsHub() *StatisticsHub {
	return &StatisticsHub{subscribers: make(map[int64]map[chan domain.CategoryStatistic]bool)}
}

// subscribe registers a buffered channel for configLinkID. The cancel func
// removes and closes it and is safe to call more than once.
func (h *StatisticsHub) subscribe(configLinkID int64) (chan domain.CategoryStatistic, func()) {
	ch := make(chan domain.CategoryStatistic, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[configLinkID]
	if !ok {
		subs = make(map[chan domain.CategoryStatistic]bool)
		h.subscribers[configLinkID] = subs
	}
	subs[ch] = false
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[configLinkID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, configLinkID)
		}
	}
	return ch, cancel
}

func (h *StatisticsHub) hasSubscribers(configLinkID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[configLinkID]) > 0
}

// broadcast never blocks: a subscriber with a full buffer loses its oldest frame.
func (h *StatisticsHub) broadcast(configLinkID int64, stat domain.CategoryStatistic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subscribers[configLinkID]
	for ch := range subs {
		offer(ch, stat)
		subs[ch] = true
	}
}

// deliverInitial offers a subscriber its first snapshot. It is dropped when
// the channel was cancelled or a broadcast already reached it.
func (h *StatisticsHub) deliverInitial(configLinkID int64, ch chan domain.CategoryStatistic, stat domain.CategoryStatistic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	broadcasted, ok := h.subscribers[configLinkID][ch]
	if ok && !broadcasted {
		offer(ch, stat)
	}
}

func offer(ch chan domain.CategoryStatistic, stat domain.CategoryStatistic) {
	select {
	case ch <- stat:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- stat
	}
}
