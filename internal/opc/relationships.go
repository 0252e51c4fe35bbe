package opc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Relationship is one typed, identified reference from a part (or from the
// package root) to another part or to an external URI.
type Relationship struct {
	ID   string
	Type string

	// Target is an absolute part name for internal relationships and the
	// verbatim URI for external ones.
	Target   string
	External bool
}

// Kind classifies the relationship's type URI.
func (r *Relationship) Kind() Kind { return KindOf(r.Type) }

// Relationships is the id-unique relationship set of one source part.
// Insertion order is kept so serialized rels parts are stable.
type Relationships struct {
	source string
	byID   map[string]*Relationship
	order  []*Relationship
}

func newRelationships(source string) *Relationships {
	return &Relationships{
		source: source,
		byID:   make(map[string]*Relationship),
	}
}

// Source returns the name of the part owning the set ("/" for the package).
func (rs *Relationships) Source() string { return rs.source }

// Len returns the number of relationships.
func (rs *Relationships) Len() int { return len(rs.order) }

// All returns the relationships in insertion order.
func (rs *Relationships) All() []*Relationship {
	out := make([]*Relationship, len(rs.order))
	copy(out, rs.order)
	return out
}

// Get looks up a relationship by id.
func (rs *Relationships) Get(id string) (*Relationship, bool) {
	rel, ok := rs.byID[id]
	return rel, ok
}

// Has reports whether id is taken.
func (rs *Relationships) Has(id string) bool {
	_, ok := rs.byID[id]
	return ok
}

// Add inserts rel. Callers pick the id; a taken id is an IntegrityError.
func (rs *Relationships) Add(rel *Relationship) error {
	if rel.ID == "" {
		return &IntegrityError{Part: rs.source, Reason: "relationship without id"}
	}
	if rs.Has(rel.ID) {
		return &IntegrityError{Part: rs.source, Reason: fmt.Sprintf("duplicate relationship id %s", rel.ID)}
	}
	rs.byID[rel.ID] = rel
	rs.order = append(rs.order, rel)
	return nil
}

// AddNew inserts a relationship under the next free id and returns it.
func (rs *Relationships) AddNew(relType, target string, external bool) *Relationship {
	rel := &Relationship{ID: rs.NextID(), Type: relType, Target: target, External: external}
	rs.byID[rel.ID] = rel
	rs.order = append(rs.order, rel)
	return rel
}

// NextID returns the lowest "rIdN" (N >= 1) not yet taken.
func (rs *Relationships) NextID() string {
	return rs.NextIDExcept(nil)
}

// NextIDExcept is NextID that also skips the ids in reserved.
func (rs *Relationships) NextIDExcept(reserved map[string]bool) string {
	for n := 1; ; n++ {
		id := "rId" + strconv.Itoa(n)
		if !rs.Has(id) && !reserved[id] {
			return id
		}
	}
}

// Remove deletes the relationship with the given id.
func (rs *Relationships) Remove(id string) bool {
	if _, ok := rs.byID[id]; !ok {
		return false
	}
	delete(rs.byID, id)
	for i, rel := range rs.order {
		if rel.ID == id {
			rs.order = append(rs.order[:i], rs.order[i+1:]...)
			break
		}
	}
	return true
}

// First returns the first relationship of the given kind.
func (rs *Relationships) First(kind Kind) (*Relationship, bool) {
	for _, rel := range rs.order {
		if rel.Kind() == kind {
			return rel, true
		}
	}
	return nil, false
}

// ByType returns every relationship whose type URI ends with the same
// segment as relType.
func (rs *Relationships) ByType(relType string) []*Relationship {
	name := relTypeName(relType)
	var out []*Relationship
	for _, rel := range rs.order {
		if relTypeName(rel.Type) == name {
			out = append(out, rel)
		}
	}
	return out
}

// Targeting returns the internal relationships pointing at part name.
func (rs *Relationships) Targeting(name string) []*Relationship {
	var out []*Relationship
	for _, rel := range rs.order {
		if !rel.External && rel.Target == name {
			out = append(out, rel)
		}
	}
	return out
}

func parseRelationships(source string, data []byte) (*Relationships, error) {
	name := relsName(source)
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &FormatError{Part: name, Reason: "malformed XML", Err: err}
	}
	root := doc.Root()
	if root == nil || root.Tag != "Relationships" {
		return nil, &FormatError{Part: name, Reason: "missing Relationships element"}
	}

	rs := newRelationships(source)
	for _, el := range root.ChildElements() {
		if el.Tag != "Relationship" {
			continue
		}
		rel := &Relationship{
			ID:       el.SelectAttrValue("Id", ""),
			Type:     el.SelectAttrValue("Type", ""),
			Target:   el.SelectAttrValue("Target", ""),
			External: strings.EqualFold(el.SelectAttrValue("TargetMode", ""), "External"),
		}
		if rel.ID == "" {
			return nil, &FormatError{Part: name, Reason: "relationship without Id"}
		}
		if rs.Has(rel.ID) {
			return nil, &FormatError{Part: name, Reason: "duplicate relationship id " + rel.ID}
		}
		if !rel.External {
			rel.Target = resolveTarget(source, rel.Target)
		}
		rs.byID[rel.ID] = rel
		rs.order = append(rs.order, rel)
	}
	return rs, nil
}

func (rs *Relationships) marshal() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", NSPackageRels)

	for _, rel := range rs.order {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", rel.ID)
		el.CreateAttr("Type", rel.Type)
		if rel.External {
			el.CreateAttr("Target", rel.Target)
			el.CreateAttr("TargetMode", "External")
			continue
		}
		el.CreateAttr("Target", relativeTarget(rs.source, rel.Target))
	}
	return doc.WriteToBytes()
}
