// Package resolver materializes relationships from a source package in a
// destination package, copying the parts they target.
package resolver

import (
	"bytes"
	"errors"
	"strings"

	"github.com/dusk-indust/deckmerge/internal/opc"
)

// Copyable reports whether relationships of kind k are carried across a
// merge. Everything else (notes slides, OLE objects, SmartArt data, tags) is
// dropped.
func Copyable(k opc.Kind) bool {
	switch k {
	case opc.KindImage, opc.KindChart, opc.KindMedia, opc.KindHyperlink:
		return true
	default:
		return false
	}
}

// Resolver copies relationships from one source package into one
// destination package. Each source part is copied at most once per
// Resolver, so create one Resolver per source package.
type Resolver struct {
	src    *opc.Package
	dst    *opc.Package
	copied map[string]*opc.Part // source part name -> destination part
}

// New creates a Resolver for the src -> dst pair.
func New(src, dst *opc.Package) *Resolver {
	return &Resolver{
		src:    src,
		dst:    dst,
		copied: make(map[string]*opc.Part),
	}
}

// Resolve ensures owner (a destination part) has a relationship equivalent
// to rel (a source relationship) and returns its id. ok is false when rel's
// kind is not copied; owner is then left unchanged.
//
// The source id is kept when owner does not use it yet, otherwise the
// lowest free id not in reserved is assigned. reserved holds ids that
// owner's markup still uses for references that are not carried over; it
// may be nil. Callers must use the returned id.
func (r *Resolver) Resolve(rel *opc.Relationship, owner *opc.Part, reserved map[string]bool) (id string, ok bool, err error) {
	if !Copyable(rel.Kind()) {
		return "", false, nil
	}

	target := rel.Target
	if !rel.External {
		part, err := r.copyPart(rel.Target)
		if err != nil {
			var ute *opc.UnresolvableTargetError
			if errors.As(err, &ute) && ute.ID == "" {
				ute.ID = rel.ID
			}
			return "", false, err
		}
		target = part.Name()
	}

	id = rel.ID
	if id == "" || owner.Rels().Has(id) || reserved[id] {
		id = owner.Rels().NextIDExcept(reserved)
	}
	if err := owner.Rels().Add(&opc.Relationship{
		ID:       id,
		Type:     rel.Type,
		Target:   target,
		External: rel.External,
	}); err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Copied returns the destination part a source part was copied to.
func (r *Resolver) Copied(srcName string) (*opc.Part, bool) {
	part, ok := r.copied[srcName]
	return part, ok
}

// copyPart copies a source part, and the parts it references, into the
// destination. Relationship ids inside the copy are kept since the copy's
// relationship set starts empty.
func (r *Resolver) copyPart(name string) (*opc.Part, error) {
	if part, ok := r.copied[name]; ok {
		return part, nil
	}
	src, ok := r.src.Part(name)
	if !ok {
		return nil, &opc.UnresolvableTargetError{Target: name}
	}
	data, err := src.Data()
	if err != nil {
		return nil, err
	}

	part, err := r.dst.AddPart(r.dst.NextPartName(name), src.ContentType(), bytes.Clone(data))
	if err != nil {
		return nil, err
	}
	r.copied[name] = part

	for _, sub := range src.Rels().All() {
		if sub.External {
			if err := part.Rels().Add(&opc.Relationship{ID: sub.ID, Type: sub.Type, Target: sub.Target, External: true}); err != nil {
				return nil, err
			}
			continue
		}
		dep, ok := r.src.Part(sub.Target)
		if !ok {
			return nil, &opc.UnresolvableTargetError{Owner: name, ID: sub.ID, Target: sub.Target}
		}
		if isDeckStructure(dep.ContentType()) {
			continue
		}
		copiedDep, err := r.copyPart(sub.Target)
		if err != nil {
			return nil, err
		}
		if err := part.Rels().Add(&opc.Relationship{ID: sub.ID, Type: sub.Type, Target: copiedDep.Name()}); err != nil {
			return nil, err
		}
	}
	return part, nil
}

// isDeckStructure reports presentation-level parts (slides, layouts,
// masters, notes) that a copied resource must never drag along.
func isDeckStructure(contentType string) bool {
	return strings.Contains(contentType, "presentationml")
}
