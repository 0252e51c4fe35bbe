package orchestrator

import (
	"fmt"
	"sync"
	"sync/atomic"
)

const defaultProgressBuffer = 64

// ProgressReporter fans progress events into a buffered channel. A slow or
// absent reader never stalls a merge: events that do not fit are counted
// and dropped. Emit after Close is a no-op.
type ProgressReporter struct {
	mu      sync.RWMutex
	ch      chan ProgressEvent
	closed  bool
	dropped atomic.Int64
}

// NewProgressReporter creates a ProgressReporter holding up to size
// undelivered events; size <= 0 means 64.
func NewProgressReporter(size int) *ProgressReporter {
	if size <= 0 {
		size = defaultProgressBuffer
	}
	return &ProgressReporter{
		ch: make(chan ProgressEvent, size),
	}
}

// Emit sends a progress event without blocking.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	if pr.closed {
		return
	}
	select {
	case pr.ch <- event:
	default:
		pr.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (pr *ProgressReporter) Dropped() int64 {
	return pr.dropped.Load()
}

// Subscribe returns the event channel. It is closed by Close.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the event channel. Later calls do nothing.
func (pr *ProgressReporter) Close() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if !pr.closed {
		pr.closed = true
		close(pr.ch)
	}
}

// FormatProgress renders an event as one indented status line, e.g.
// "  ✗ clone source 2 slide 4 failed: bad markup".
func FormatProgress(event ProgressEvent) string {
	subject := formatSubject(event)
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", subject)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", subject)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s complete", subject)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", subject, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", subject)
	}
}

func formatSubject(event ProgressEvent) string {
	switch {
	case event.Source > 0 && event.Slide > 0:
		return fmt.Sprintf("%s source %d slide %d", event.Phase, event.Source, event.Slide)
	case event.Source > 0:
		return fmt.Sprintf("%s source %d", event.Phase, event.Source)
	default:
		return event.Phase.String()
	}
}

// FormatRunHeader is the line that opens a run: "[{id}] merging {n} decks".
// Only the first eight characters of id are shown.
func FormatRunHeader(id string, sources int) string {
	if len(id) > 8 {
		id = id[:8]
	}
	if sources == 1 {
		return fmt.Sprintf("[%s] merging 1 deck", id)
	}
	return fmt.Sprintf("[%s] merging %d decks", id, sources)
}
