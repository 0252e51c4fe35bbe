package orchestrator

import (
	"fmt"
	"log"

	"github.com/dusk-indust/deckmerge/internal/opc"
	"github.com/dusk-indust/deckmerge/internal/slide"
	"github.com/dusk-indust/deckmerge/internal/template"
)

// Merger concatenates already opened packages into a fresh destination.
// The clone phase mutates one destination sequentially; a Merger may be
// shared, but each Merge call owns its destination.
type Merger struct {
	cfg         Config
	destination DestinationFunc
	onProgress  func(ProgressEvent)
}

// NewMerger creates a Merger that starts every merge from the embedded
// blank template. onProgress may be nil.
func NewMerger(cfg Config, onProgress func(ProgressEvent)) *Merger {
	return &Merger{
		cfg:         cfg,
		destination: template.Open,
		onProgress:  onProgress,
	}
}

// Merge clones every slide of every source, sources in the given order and
// slides in each source's slide order, then elides the default slide if it
// is still empty and other slides exist. Any failure aborts the whole merge
// with a *MergeError naming the responsible source.
func (m *Merger) Merge(sources []*opc.Package) (*opc.Package, error) {
	if len(sources) == 0 {
		return nil, &MergeError{Class: ClassInternal, Err: ErrNoSources}
	}

	dst, err := m.destination()
	if err != nil {
		return nil, classify(0, fmt.Errorf("orchestrator: create destination: %w", err))
	}
	seeded := dst.Slides()
	if len(seeded) != 1 {
		return nil, classify(0, &opc.IntegrityError{Reason: fmt.Sprintf("destination seeded with %d slides, want 1", len(seeded))})
	}
	defaultSlide := seeded[0]

	for i, src := range sources {
		pos := i + 1
		cloner := slide.NewCloner(src, dst)
		for j, s := range src.Slides() {
			part, err := cloner.Clone(s)
			if err != nil {
				m.emit(ProgressEvent{Phase: PhaseClone, Source: pos, Slide: j + 1, Status: ProgressFailed, Message: err.Error()})
				return nil, classify(pos, err)
			}
			if err := dst.AppendSlide(part); err != nil {
				return nil, classify(pos, err)
			}
			if m.cfg.Verbose {
				log.Printf("merge: source=%d slide=%d part=%s", pos, j+1, part.Name())
			}
		}
		m.emit(ProgressEvent{Phase: PhaseClone, Source: pos, Status: ProgressComplete})
	}

	if err := m.elideDefault(dst, defaultSlide); err != nil {
		return nil, classify(0, err)
	}
	return dst, nil
}

// elideDefault removes the seeded slide when it has no shapes, unless it is
// the only slide left.
func (m *Merger) elideDefault(dst *opc.Package, def *opc.Part) error {
	if m.cfg.KeepDefaultSlide || len(dst.Slides()) < 2 {
		return nil
	}
	empty, err := slide.IsEmpty(def)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}
	return dst.RemoveSlide(def.Name())
}

// emit sends a progress event if a callback is registered.
func (m *Merger) emit(ev ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(ev)
	}
}
