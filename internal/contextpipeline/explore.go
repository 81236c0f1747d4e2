package contextpipeline

import (
	"strconv"
	"sync"
)

// ExploreEvent is one grep/glob/ls/read result fed into a tab's aggregator.
type ExploreEvent struct {
	Tool string
	Line string
}

// ExploreAggregator groups successive exploration events into a single
// rendering block per tab: a new user turn clears prior events for that
// tab, each event is enqueued, and the displayed preview is the most
// recent N lines with older ones summarised as "+K older updates".
type ExploreAggregator struct {
	mu         sync.Mutex
	tabs       map[string][]ExploreEvent
	previewN   int
}

// NewExploreAggregator creates an aggregator that renders previewN most
// recent lines per tab.
func NewExploreAggregator(previewN int) *ExploreAggregator {
	if previewN <= 0 {
		previewN = 10
	}
	return &ExploreAggregator{tabs: make(map[string][]ExploreEvent), previewN: previewN}
}

// ClearTab drops all queued events for tab; called when a new user turn
// begins.
func (a *ExploreAggregator) ClearTab(tab string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tabs, tab)
}

// Enqueue appends an event to tab's queue.
func (a *ExploreAggregator) Enqueue(tab string, ev ExploreEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tabs[tab] = append(a.tabs[tab], ev)
}

// Count returns how many events are queued for tab.
func (a *ExploreAggregator) Count(tab string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tabs[tab])
}

// Preview renders the current block for tab: the most recent previewN lines,
// with any older lines summarised as "+K older updates".
func (a *ExploreAggregator) Preview(tab string) string {
	a.mu.Lock()
	events := append([]ExploreEvent(nil), a.tabs[tab]...)
	a.mu.Unlock()

	if len(events) == 0 {
		return ""
	}

	older := 0
	start := 0
	if len(events) > a.previewN {
		older = len(events) - a.previewN
		start = older
	}

	out := ""
	if older > 0 {
		out += "+" + strconv.Itoa(older) + " older updates\n"
	}
	for _, ev := range events[start:] {
		out += ev.Line + "\n"
	}
	return out
}
