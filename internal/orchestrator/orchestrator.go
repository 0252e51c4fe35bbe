package orchestrator

import "context"

// Phase identifies a step of a merge run.
type Phase int

const (
	PhaseOpen      Phase = 0
	PhaseClone     Phase = 1
	PhaseSerialize Phase = 2
)

func (p Phase) String() string {
	names := [...]string{
		"open",
		"clone",
		"serialize",
	}
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// Source is one input deck, fully buffered.
type Source struct {
	Name string // display name (file name or URL), used in logs only
	Data []byte
}

// Result is the output of a successful merge.
type Result struct {
	ID      string // merge run id
	Data    []byte // serialized .pptx
	Slides  int    // slides in the output
	Sources int    // inputs consumed
	Issues  []ReferenceIssue
}

// ProgressEvent is emitted while a merge runs.
type ProgressEvent struct {
	Phase   Phase
	Source  int // 1-based input position, 0 for run-level events
	Slide   int // 1-based slide position within the source, 0 when not slide-specific
	Status  ProgressStatus
	Message string
}

// ProgressStatus is the state of the unit of work an event describes.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// Orchestrator merges decks.
type Orchestrator interface {
	// Merge concatenates the slides of sources, in order, into one deck.
	Merge(ctx context.Context, sources []Source) (*Result, error)

	// Progress returns a channel that emits progress events.
	Progress() <-chan ProgressEvent
}
