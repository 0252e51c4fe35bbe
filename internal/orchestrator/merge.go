package orchestrator

import "github.com/dusk-indust/deckmerge/internal/opc"

// DestinationFunc creates the package a merge writes into. It must hold
// exactly one slide, the default slide, which is elided when it stays
// empty.
type DestinationFunc func() (*opc.Package, error)

// ReferenceIssue is a relationship reference in merged slide markup that
// does not resolve in its slide's relationship set.
type ReferenceIssue struct {
	Slide       int    // 1-based position in the merged deck
	ID          string // the unresolved relationship id
	Description string
}
