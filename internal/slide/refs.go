package slide

import (
	"github.com/beevik/etree"

	"github.com/dusk-indust/deckmerge/internal/opc"
)

// refAttrs are the local names of relationship-namespace attributes that
// hold relationship ids inside slide markup.
var refAttrs = map[string]bool{
	"id":    true, // a:hlinkClick, c:chart, p:sldId, ...
	"embed": true, // a:blip, p14:media
	"link":  true, // a:blip, a:videoFile, a:audioFile
	"pict":  true, // v:imagedata, p:oleObj
	"dm":    true, // dgm:relIds
	"lo":    true,
	"qs":    true,
	"cs":    true,
}

// Prefixes maps namespace prefixes to whether they are bound to the
// relationship namespace in the current scope.
type Prefixes map[string]bool

// RelPrefixes returns the relationship-namespace prefixes declared on el.
func RelPrefixes(el *etree.Element) Prefixes {
	return Prefixes{}.scope(el)
}

// scope applies el's namespace declarations, copying the set only when el
// changes it.
func (p Prefixes) scope(el *etree.Element) Prefixes {
	out := p
	copied := false
	for _, a := range el.Attr {
		if a.Space != "xmlns" {
			continue
		}
		bound := opc.IsRelationshipNamespace(a.Value)
		if out[a.Key] == bound {
			continue
		}
		if !copied {
			out = make(Prefixes, len(p)+1)
			for k, v := range p {
				out[k] = v
			}
			copied = true
		}
		if bound {
			out[a.Key] = true
		} else {
			delete(out, a.Key)
		}
	}
	return out
}

// walkRefs calls fn for every relationship-id attribute in the subtree.
func walkRefs(el *etree.Element, prefixes Prefixes, fn func(a *etree.Attr)) {
	prefixes = prefixes.scope(el)
	for i := range el.Attr {
		a := &el.Attr[i]
		if a.Space != "" && prefixes[a.Space] && refAttrs[a.Key] {
			fn(a)
		}
	}
	for _, c := range el.ChildElements() {
		walkRefs(c, prefixes, fn)
	}
}

// References returns the distinct relationship ids referenced in the
// subtree rooted at el, in document order.
func References(el *etree.Element, prefixes Prefixes) []string {
	var (
		ids  []string
		seen = make(map[string]bool)
	)
	walkRefs(el, prefixes, func(a *etree.Attr) {
		if !seen[a.Value] {
			seen[a.Value] = true
			ids = append(ids, a.Value)
		}
	})
	return ids
}

// Rewrite replaces every relationship id in the subtree that appears in
// remap and returns the number of attributes changed. Ids missing from
// remap, and all other content, are left untouched.
func Rewrite(el *etree.Element, prefixes Prefixes, remap map[string]string) int {
	n := 0
	walkRefs(el, prefixes, func(a *etree.Attr) {
		if id, ok := remap[a.Value]; ok && id != a.Value {
			a.Value = id
			n++
		}
	})
	return n
}
