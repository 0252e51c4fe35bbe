package orchestrator

import (
	"fmt"

	"github.com/dusk-indust/deckmerge/internal/opc"
	"github.com/dusk-indust/deckmerge/internal/slide"
)

// CheckReferences scans every slide of a merged package for relationship
// references that do not resolve in the slide's own relationship set.
// These come from relationship kinds the merge drops (notes, OLE objects,
// SmartArt data) and are reported, not repaired.
func CheckReferences(pkg *opc.Package) ([]ReferenceIssue, error) {
	var issues []ReferenceIssue
	for i, s := range pkg.Slides() {
		doc, err := s.XML()
		if err != nil {
			return nil, err
		}
		root := doc.Root()
		for _, id := range slide.References(root, slide.Prefixes{}) {
			if s.Rels().Has(id) {
				continue
			}
			issues = append(issues, ReferenceIssue{
				Slide:       i + 1,
				ID:          id,
				Description: fmt.Sprintf("slide %d references relationship %q which was not carried over", i+1, id),
			})
		}
	}
	return issues, nil
}
