// Package inspect describes presentation packages for humans: a JSON-ready
// summary of slides and parts, and a Mermaid diagram of the relationship
// graph.
package inspect

import (
	"fmt"
	"sort"

	"github.com/dusk-indust/deckmerge/internal/opc"
	"github.com/dusk-indust/deckmerge/internal/slide"
)

// DeckSummary is the top-level summary structure.
type DeckSummary struct {
	Slides []SlideSummary `json:"slides"`
	Parts  []PartSummary  `json:"parts"`
	Bytes  int            `json:"bytes"`
}

// SlideSummary describes one slide.
type SlideSummary struct {
	Index         int      `json:"index"`
	Part          string   `json:"part"`
	Name          string   `json:"name,omitempty"`
	Layout        string   `json:"layout,omitempty"`
	LayoutType    string   `json:"layoutType,omitempty"`
	Shapes        int      `json:"shapes"`
	Relationships []string `json:"relationships,omitempty"` // "rId2 image -> /ppt/media/image1.png"
}

// PartSummary describes one part.
type PartSummary struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Digest      string `json:"digest"`
}

// Summarize builds a DeckSummary. Parts are sorted by name.
func Summarize(pkg *opc.Package) (*DeckSummary, error) {
	sum := &DeckSummary{}

	for i, s := range pkg.Slides() {
		doc, err := s.XML()
		if err != nil {
			return nil, err
		}
		root := doc.Root()
		ss := SlideSummary{
			Index:  i + 1,
			Part:   s.Name(),
			Shapes: len(slide.Shapes(slide.ShapeTree(root))),
		}
		if cSld := opc.Child(root, "cSld"); cSld != nil {
			ss.Name = cSld.SelectAttrValue("name", "")
		}
		if layout, ok := pkg.SlideLayout(s); ok {
			ss.LayoutType, ss.Layout = slide.LayoutIdentity(layout)
		}
		for _, rel := range s.Rels().All() {
			ss.Relationships = append(ss.Relationships, fmt.Sprintf("%s %s -> %s", rel.ID, rel.Kind(), rel.Target))
		}
		sum.Slides = append(sum.Slides, ss)
	}

	for _, p := range pkg.Parts() {
		data, err := p.Data()
		if err != nil {
			return nil, fmt.Errorf("inspect: %s: %w", p.Name(), err)
		}
		sum.Parts = append(sum.Parts, PartSummary{
			Name:        p.Name(),
			ContentType: p.ContentType(),
			Size:        len(data),
			Digest:      opc.Digest(data),
		})
		sum.Bytes += len(data)
	}
	sort.Slice(sum.Parts, func(i, j int) bool { return sum.Parts[i].Name < sum.Parts[j].Name })
	return sum, nil
}
