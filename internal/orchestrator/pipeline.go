package orchestrator

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// Compile-time interface check.
var _ Orchestrator = (*Pipeline)(nil)

// Pipeline implements Orchestrator. It opens sources through a FanOut,
// merges them with a Merger, checks the result's references and
// serializes it, reporting progress through a ProgressReporter.
//
// Merge may be called concurrently; every call owns its destination.
type Pipeline struct {
	cfg      Config
	fanout   *FanOut
	merger   *Merger
	progress *ProgressReporter
}

// NewPipeline creates a Pipeline wired with a FanOut, a Merger and a
// ProgressReporter.
func NewPipeline(cfg Config) *Pipeline {
	progress := NewProgressReporter(cfg.ProgressBuffer)
	return &Pipeline{
		cfg:      cfg,
		fanout:   NewFanOut(cfg.workers(), progress.Emit),
		merger:   NewMerger(cfg, progress.Emit),
		progress: progress,
	}
}

// Merge opens, merges and serializes sources. It fails with a *MergeError.
func (p *Pipeline) Merge(ctx context.Context, sources []Source) (*Result, error) {
	id := uuid.NewString()
	if len(sources) == 0 {
		return nil, &MergeError{Class: ClassInternal, Err: ErrNoSources}
	}
	p.progress.Emit(ProgressEvent{Phase: PhaseOpen, Status: ProgressWorking, Message: FormatRunHeader(id, len(sources))})

	pkgs, err := p.fanout.Open(ctx, sources)
	if err != nil {
		return nil, p.fail(id, PhaseOpen, err)
	}

	dst, err := p.merger.Merge(pkgs)
	if err != nil {
		return nil, p.fail(id, PhaseClone, err)
	}

	// Check references (log issues, do not block).
	issues, err := CheckReferences(dst)
	if err != nil {
		log.Printf("WARNING: merge %s: reference check error: %v", id, err)
	}
	for _, issue := range issues {
		log.Printf("WARNING: merge %s: %s", id, issue.Description)
	}

	p.progress.Emit(ProgressEvent{Phase: PhaseSerialize, Status: ProgressWorking})
	data, err := dst.Serialize()
	if err != nil {
		return nil, p.fail(id, PhaseSerialize, classify(0, err))
	}
	p.progress.Emit(ProgressEvent{Phase: PhaseSerialize, Status: ProgressComplete})

	slides := len(dst.Slides())
	log.Printf("merge: id=%s sources=%d slides=%d bytes=%d", id, len(sources), slides, len(data))
	if n := p.progress.Dropped(); n > 0 && p.cfg.Verbose {
		log.Printf("WARNING: merge %s: %d progress events dropped so far", id, n)
	}

	return &Result{
		ID:      id,
		Data:    data,
		Slides:  slides,
		Sources: len(sources),
		Issues:  issues,
	}, nil
}

func (p *Pipeline) fail(id string, phase Phase, err error) error {
	me := classify(0, err)
	log.Printf("merge: id=%s phase=%s failed: %v", id, phase, me)
	p.progress.Emit(ProgressEvent{Phase: phase, Source: me.Source, Status: ProgressFailed, Message: me.Summary()})
	return me
}

// Progress returns a channel that emits progress events.
func (p *Pipeline) Progress() <-chan ProgressEvent {
	return p.progress.Subscribe()
}

// Close shuts down the progress reporter. Merges still running after Close
// complete normally but report no further progress.
func (p *Pipeline) Close() {
	p.progress.Close()
}
