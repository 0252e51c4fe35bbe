// Package slide clones slides between presentation packages.
package slide

import (
	"github.com/beevik/etree"

	"github.com/dusk-indust/deckmerge/internal/opc"
)

// ShapeTree returns the p:cSld/p:spTree element of a slide, layout or
// master root.
func ShapeTree(root *etree.Element) *etree.Element {
	return opc.Child(opc.Child(root, "cSld"), "spTree")
}

// Shapes returns the shape elements of a shape tree: every child except the
// group properties that open it.
func Shapes(tree *etree.Element) []*etree.Element {
	if tree == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range tree.ChildElements() {
		if c.Tag == "nvGrpSpPr" || c.Tag == "grpSpPr" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// IsEmpty reports whether a slide part has no shapes.
func IsEmpty(part *opc.Part) (bool, error) {
	doc, err := part.XML()
	if err != nil {
		return false, err
	}
	return len(Shapes(ShapeTree(doc.Root()))) == 0, nil
}

// newSlideDocument builds an empty slide carrying src's namespace
// declarations, so copied shapes keep every prefix they use.
func newSlideDocument(src *etree.Element) (doc *etree.Document, tree *etree.Element) {
	doc = etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	p := src.Space
	root := doc.CreateElement(opc.Qualify(p, "sld"))
	for _, a := range src.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") || a.Key == "Ignorable" {
			root.CreateAttr(a.FullKey(), a.Value)
		}
	}
	a, ok := opc.PrefixFor(root, opc.NSDrawingML)
	if !ok {
		a = "a"
		root.CreateAttr("xmlns:a", opc.NSDrawingML)
	}
	if _, ok := opc.PrefixFor(root, opc.NSRelationships); !ok {
		if _, strict := opc.PrefixFor(root, opc.NSRelationshipsStrict); !strict {
			root.CreateAttr("xmlns:r", opc.NSRelationships)
		}
	}

	cSld := root.CreateElement(opc.Qualify(p, "cSld"))
	if name := opc.Child(src, "cSld").SelectAttr("name"); name != nil {
		cSld.CreateAttr("name", name.Value)
	}
	tree = cSld.CreateElement(opc.Qualify(p, "spTree"))
	nv := tree.CreateElement(opc.Qualify(p, "nvGrpSpPr"))
	cNvPr := nv.CreateElement(opc.Qualify(p, "cNvPr"))
	cNvPr.CreateAttr("id", "1")
	cNvPr.CreateAttr("name", "")
	nv.CreateElement(opc.Qualify(p, "cNvGrpSpPr"))
	nv.CreateElement(opc.Qualify(p, "nvPr"))
	tree.CreateElement(opc.Qualify(p, "grpSpPr"))

	if ovr := opc.Child(src, "clrMapOvr"); ovr != nil {
		root.AddChild(ovr.Copy())
	} else {
		root.CreateElement(opc.Qualify(p, "clrMapOvr")).CreateElement(opc.Qualify(a, "masterClrMapping"))
	}
	return doc, tree
}
