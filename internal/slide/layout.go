package slide

import (
	"github.com/dusk-indust/deckmerge/internal/opc"
)

// LayoutIdentity returns a layout's type (ST_SlideLayoutType, "cust" when
// absent) and its display name.
func LayoutIdentity(layout *opc.Part) (typ, name string) {
	doc, err := layout.XML()
	if err != nil {
		return "", ""
	}
	root := doc.Root()
	typ = root.SelectAttrValue("type", "cust")
	if cSld := opc.Child(root, "cSld"); cSld != nil {
		name = cSld.SelectAttrValue("name", "")
	}
	return typ, name
}

// matchLayout picks the destination layout for a slide whose source layout
// is srcLayout (nil when the slide has none). It tries, in order: same type
// and name, same type, same position in the layout list, the "blank"
// layout, the first layout. It returns nil only when dstLayouts is empty.
func matchLayout(srcLayout *opc.Part, srcLayouts, dstLayouts []*opc.Part) *opc.Part {
	if len(dstLayouts) == 0 {
		return nil
	}

	type identity struct{ typ, name string }
	ids := make([]identity, len(dstLayouts))
	for i, l := range dstLayouts {
		ids[i].typ, ids[i].name = LayoutIdentity(l)
	}

	if srcLayout != nil {
		typ, name := LayoutIdentity(srcLayout)
		if typ != "" {
			for i, id := range ids {
				if id.typ == typ && id.name == name {
					return dstLayouts[i]
				}
			}
			// "cust" layouts are only equivalent when their names agree
			if typ != "cust" {
				for i, id := range ids {
					if id.typ == typ {
						return dstLayouts[i]
					}
				}
			}
		}
		for i, l := range srcLayouts {
			if l == srcLayout && i < len(dstLayouts) {
				return dstLayouts[i]
			}
		}
	}

	for i, id := range ids {
		if id.typ == "blank" {
			return dstLayouts[i]
		}
	}
	return dstLayouts[0]
}
