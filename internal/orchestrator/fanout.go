package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/deckmerge/internal/opc"
)

// FanOut opens source packages in parallel. Opening is read-only, so the
// only shared state is the results slice, which is indexed by source.
type FanOut struct {
	workers    int
	onProgress func(ProgressEvent)
}

// NewFanOut creates a FanOut running at most workers opens at a time.
// onProgress is called synchronously from each goroutine; it may be nil.
func NewFanOut(workers int, onProgress func(ProgressEvent)) *FanOut {
	if workers < 1 {
		workers = 1
	}
	return &FanOut{
		workers:    workers,
		onProgress: onProgress,
	}
}

// Open parses every source and returns the packages in source order.
//
// A malformed source does not stop the others, so the reported failure is
// always the lowest failing position regardless of scheduling. Cancellation
// of ctx stops sources that have not started yet.
func (f *FanOut) Open(ctx context.Context, sources []Source) ([]*opc.Package, error) {
	pkgs := make([]*opc.Package, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, src := range sources {
		pos := i + 1
		f.emit(ProgressEvent{Phase: PhaseOpen, Source: pos, Status: ProgressPending, Message: src.Name})

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return err
			}
			f.emit(ProgressEvent{Phase: PhaseOpen, Source: pos, Status: ProgressWorking, Message: src.Name})

			pkg, err := opc.Open(src.Data)
			if err != nil {
				errs[i] = err
				f.emit(ProgressEvent{Phase: PhaseOpen, Source: pos, Status: ProgressFailed, Message: err.Error()})
				return nil
			}

			pkgs[i] = pkg
			f.emit(ProgressEvent{Phase: PhaseOpen, Source: pos, Status: ProgressComplete, Message: src.Name})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, classify(0, err)
	}
	for i, err := range errs {
		if err != nil {
			return nil, classify(i+1, err)
		}
	}
	return pkgs, nil
}

// emit sends a progress event if a callback is registered.
func (f *FanOut) emit(ev ProgressEvent) {
	if f.onProgress != nil {
		f.onProgress(ev)
	}
}
