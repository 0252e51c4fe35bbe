package slide

import (
	"errors"

	"github.com/beevik/etree"

	"github.com/dusk-indust/deckmerge/internal/opc"
	"github.com/dusk-indust/deckmerge/internal/resolver"
)

// layoutRelID is the id of a cloned slide's relationship to its layout.
// It is assigned before any resolved relationship, unless the slide's
// markup keeps a reference under that id.
const layoutRelID = "rId1"

// Cloner copies slides from one source package into one destination
// package. It is not safe for concurrent use.
type Cloner struct {
	src      *opc.Package
	dst      *opc.Package
	resolver *resolver.Resolver

	srcLayouts []*opc.Part
	dstLayouts []*opc.Part
	layouts    map[string]*opc.Part // source layout name -> chosen destination layout
}

// NewCloner creates a Cloner for the src -> dst pair. Parts referenced by
// several slides of src are copied into dst once.
func NewCloner(src, dst *opc.Package) *Cloner {
	return &Cloner{
		src:        src,
		dst:        dst,
		resolver:   resolver.New(src, dst),
		srcLayouts: src.Layouts(),
		dstLayouts: dst.Layouts(),
		layouts:    make(map[string]*opc.Part),
	}
}

// Clone copies srcSlide into the destination and returns the new slide
// part. The new part is not added to the destination's slide list; the
// caller does that once Clone succeeds. On error the destination holds no
// new slide part.
func (c *Cloner) Clone(srcSlide *opc.Part) (_ *opc.Part, err error) {
	srcDoc, err := srcSlide.XML()
	if err != nil {
		return nil, err
	}
	srcRoot := srcDoc.Root()
	srcTree := ShapeTree(srcRoot)
	if srcRoot.Tag != "sld" || srcTree == nil {
		return nil, &opc.FormatError{Part: srcSlide.Name(), Reason: "slide has no shape tree"}
	}

	layout := c.chooseLayout(srcSlide)
	if layout == nil {
		return nil, &opc.IntegrityError{Reason: "destination has no slide layouts"}
	}

	doc, tree := newSlideDocument(srcRoot)
	part, err := c.dst.AddPart(c.dst.NextPartName("/ppt/slides/slide1.xml"), opc.ContentTypeSlide, nil)
	if err != nil {
		return nil, err
	}
	part.SetXML(doc)
	defer func() {
		if err != nil {
			c.dst.RemovePart(part.Name())
		}
	}()

	prefixes := RelPrefixes(srcRoot)
	reserved := droppedRefs(srcSlide, srcRoot, prefixes)

	layoutID := layoutRelID
	if reserved[layoutID] {
		layoutID = part.Rels().NextIDExcept(reserved)
	}
	if err := part.Rels().Add(&opc.Relationship{
		ID:     layoutID,
		Type:   opc.RelTypeSlideLayout,
		Target: layout.Name(),
	}); err != nil {
		return nil, err
	}

	remap := make(map[string]string)
	rewrite := func(el *etree.Element) (*etree.Element, error) {
		cp := el.Copy()
		if err := c.resolveRefs(srcSlide, part, cp, prefixes, remap, reserved); err != nil {
			return nil, err
		}
		Rewrite(cp, prefixes, remap)
		return cp, nil
	}

	if bg := opc.Child(opc.Child(srcRoot, "cSld"), "bg"); bg != nil {
		cp, err := rewrite(bg)
		if err != nil {
			return nil, err
		}
		cSld := opc.Child(doc.Root(), "cSld")
		cSld.InsertChildAt(tree.Index(), cp)
	}

	for _, shape := range Shapes(srcTree) {
		cp, err := rewrite(shape)
		if err != nil {
			return nil, err
		}
		tree.AddChild(cp)
	}
	return part, nil
}

// resolveRefs materializes every relationship el references that remap
// does not cover yet. References to ids the source slide does not define,
// or to kinds the resolver drops, keep their original value.
func (c *Cloner) resolveRefs(srcSlide, dstSlide *opc.Part, el *etree.Element, prefixes Prefixes, remap map[string]string, reserved map[string]bool) error {
	for _, id := range References(el, prefixes) {
		if _, done := remap[id]; done {
			continue
		}
		rel, ok := srcSlide.Rels().Get(id)
		if !ok {
			continue
		}
		newID, ok, err := c.resolver.Resolve(rel, dstSlide, reserved)
		if err != nil {
			var ute *opc.UnresolvableTargetError
			if errors.As(err, &ute) && ute.Owner == "" {
				ute.Owner = srcSlide.Name()
			}
			return err
		}
		if ok {
			remap[id] = newID
		}
	}
	return nil
}

// droppedRefs returns the ids srcSlide's markup references that the clone
// will not carry over: unknown ids and kinds the resolver drops. These keep
// their value in the clone, so no new relationship may take them.
func droppedRefs(srcSlide *opc.Part, root *etree.Element, prefixes Prefixes) map[string]bool {
	reserved := make(map[string]bool)
	for _, id := range References(root, prefixes) {
		rel, ok := srcSlide.Rels().Get(id)
		if !ok || !resolver.Copyable(rel.Kind()) {
			reserved[id] = true
		}
	}
	return reserved
}

func (c *Cloner) chooseLayout(srcSlide *opc.Part) *opc.Part {
	srcLayout, _ := c.src.SlideLayout(srcSlide)
	key := ""
	if srcLayout != nil {
		key = srcLayout.Name()
	}
	if l, ok := c.layouts[key]; ok {
		return l
	}
	l := matchLayout(srcLayout, c.srcLayouts, c.dstLayouts)
	if l != nil {
		c.layouts[key] = l
	}
	return l
}
