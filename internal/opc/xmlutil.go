package opc

import "github.com/beevik/etree"

// Child returns the first child element of el with the given local name,
// ignoring the namespace prefix.
func Child(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// Children returns every child element of el with the given local name.
func Children(el *etree.Element, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// PrefixFor returns the prefix el declares for namespace uri, or "" with
// ok false when it declares none.
func PrefixFor(el *etree.Element, uri string) (prefix string, ok bool) {
	for _, a := range el.Attr {
		if a.Space == "xmlns" && a.Value == uri {
			return a.Key, true
		}
	}
	return "", false
}

// RelationshipAttr returns the value of el's attribute with local name key
// in the relationship namespace, e.g. r:id.
func RelationshipAttr(root, el *etree.Element, key string) string {
	for _, a := range el.Attr {
		if a.Key != key || a.Space == "" || a.Space == "xmlns" {
			continue
		}
		if IsRelationshipNamespace(namespaceOf(root, a.Space)) {
			return a.Value
		}
	}
	return ""
}

// Qualify joins prefix and local name.
func Qualify(prefix, tag string) string {
	if prefix == "" {
		return tag
	}
	return prefix + ":" + tag
}

func namespaceOf(root *etree.Element, prefix string) string {
	for _, a := range root.Attr {
		if a.Space == "xmlns" && a.Key == prefix {
			return a.Value
		}
	}
	return ""
}
