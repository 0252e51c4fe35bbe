package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// firstSlideID is the lowest id PowerPoint accepts in p:sldIdLst.
const firstSlideID = 256

// Package is an in-memory presentation package: its parts, content-type
// registry, package relationships and ordered slide list.
//
// A Package is not safe for concurrent mutation.
type Package struct {
	parts        map[string]*Part
	names        []string
	types        *ContentTypes
	rels         *Relationships
	presentation *Part
	slides       []string
	counters     map[string]int
}

func newPackage(types *ContentTypes) *Package {
	return &Package{
		parts:    make(map[string]*Part),
		types:    types,
		rels:     newRelationships(rootSource),
		counters: make(map[string]int),
	}
}

// Open reads a presentation package from a fully buffered zip container.
// Every failure is a *FormatError or *UnresolvableTargetError.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &FormatError{Reason: "not a zip container", Err: err}
	}

	var (
		entries  = make(map[string][]byte, len(zr.File))
		order    = make([]string, 0, len(zr.File))
		typesRaw []byte
	)
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		raw, err := readEntry(f)
		if err != nil {
			return nil, &FormatError{Part: partName(f.Name), Reason: "unreadable zip entry", Err: err}
		}
		if f.Name == contentTypesEntry {
			typesRaw = raw
			continue
		}
		name := partName(f.Name)
		if _, dup := entries[name]; dup {
			return nil, &FormatError{Part: name, Reason: "duplicate zip entry"}
		}
		entries[name] = raw
		order = append(order, name)
	}

	if typesRaw == nil {
		return nil, &FormatError{Reason: "missing " + contentTypesEntry}
	}
	if _, ok := entries[rootRelsName]; !ok {
		return nil, &FormatError{Reason: "missing package relationships " + rootRelsName}
	}

	types, err := parseContentTypes(typesRaw)
	if err != nil {
		return nil, err
	}
	pkg := newPackage(types)

	for _, name := range order {
		if _, isRels := relsOwner(name); isRels {
			continue
		}
		ct, ok := types.Lookup(name)
		if !ok {
			return nil, &FormatError{Part: name, Reason: "no content type registered"}
		}
		pkg.insert(newPart(name, ct, entries[name]))
	}

	for _, name := range order {
		owner, isRels := relsOwner(name)
		if !isRels {
			continue
		}
		rs, err := parseRelationships(owner, entries[name])
		if err != nil {
			return nil, err
		}
		if owner == rootSource {
			pkg.rels = rs
			continue
		}
		// rels parts of absent parts carry nothing reachable
		if part, ok := pkg.parts[owner]; ok {
			part.rels = rs
		}
	}

	if err := pkg.checkTargets(func(owner string, rel *Relationship) error {
		return &UnresolvableTargetError{Owner: owner, ID: rel.ID, Target: rel.Target}
	}); err != nil {
		return nil, err
	}

	if err := pkg.loadPresentation(); err != nil {
		return nil, err
	}
	return pkg, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// loadPresentation locates the main presentation part and reads the slide
// list from its p:sldIdLst.
func (p *Package) loadPresentation() error {
	docs := p.rels.ByType(RelTypeOfficeDocument)
	if len(docs) == 0 {
		return &FormatError{Part: rootRelsName, Reason: "no officeDocument relationship"}
	}
	rel := docs[0]
	pres, ok := p.parts[rel.Target]
	if rel.External || !ok {
		return &FormatError{Part: rootRelsName, Reason: "officeDocument relationship does not target a package part"}
	}
	doc, err := pres.XML()
	if err != nil {
		return err
	}
	root := doc.Root()
	if root.Tag != "presentation" {
		return &FormatError{Part: pres.name, Reason: "main part is not a presentation"}
	}
	p.presentation = pres

	for _, sldID := range Children(Child(root, "sldIdLst"), "sldId") {
		id := RelationshipAttr(root, sldID, "id")
		rel, ok := pres.rels.Get(id)
		if !ok || rel.External {
			return &FormatError{Part: pres.name, Reason: fmt.Sprintf("slide list entry references unknown relationship %q", id)}
		}
		p.slides = append(p.slides, rel.Target)
	}
	return nil
}

func (p *Package) insert(part *Part) {
	p.parts[part.name] = part
	p.names = append(p.names, part.name)
}

// Part looks up a part by name.
func (p *Package) Part(name string) (*Part, bool) {
	part, ok := p.parts[name]
	return part, ok
}

// Parts returns every part in insertion order.
func (p *Package) Parts() []*Part {
	out := make([]*Part, 0, len(p.names))
	for _, name := range p.names {
		out = append(out, p.parts[name])
	}
	return out
}

// Rels returns the package-level relationships.
func (p *Package) Rels() *Relationships { return p.rels }

// ContentTypes returns the content-type registry.
func (p *Package) ContentTypes() *ContentTypes { return p.types }

// Presentation returns the main presentation part.
func (p *Package) Presentation() *Part { return p.presentation }

// AddPart creates a part. The name must be absolute and unused; pick it with
// NextPartName.
func (p *Package) AddPart(name, contentType string, data []byte) (*Part, error) {
	if !strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return nil, &IntegrityError{Part: name, Reason: "part names must be absolute file paths"}
	}
	if p.taken(name) {
		return nil, &NameCollisionError{Name: name}
	}
	if contentType == "" {
		return nil, &IntegrityError{Part: name, Reason: "empty content type"}
	}
	part := newPart(name, contentType, data)
	p.types.register(name, contentType)
	p.insert(part)
	return part, nil
}

// RemovePart deletes a part together with its relationships and content
// type override. Relationships pointing at it from other parts are left to
// the caller.
func (p *Package) RemovePart(name string) {
	if _, ok := p.parts[name]; !ok {
		return
	}
	delete(p.parts, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
	p.types.RemoveOverride(name)
}

// NextPartName derives an unused name from like by keeping its directory,
// stem and extension and appending a counter scoped to that stem:
// "/ppt/media/image7.png" yields "/ppt/media/image1.png", then
// "/ppt/media/image2.png", skipping names already present.
func (p *Package) NextPartName(like string) string {
	dir, base := path.Split(like)
	ext := path.Ext(base)
	stem := strings.TrimRight(strings.TrimSuffix(base, ext), "0123456789")
	key := dir + stem + ext
	for {
		p.counters[key]++
		name := dir + stem + strconv.Itoa(p.counters[key]) + ext
		if !p.taken(name) {
			return name
		}
	}
}

// taken compares case-insensitively: OPC part names are equivalent up to
// ASCII case.
func (p *Package) taken(name string) bool {
	if _, ok := p.parts[name]; ok {
		return true
	}
	for n := range p.parts {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Slides returns the slide parts in presentation order.
func (p *Package) Slides() []*Part {
	out := make([]*Part, 0, len(p.slides))
	for _, name := range p.slides {
		out = append(out, p.parts[name])
	}
	return out
}

// AppendSlide adds an existing slide part to the end of the slide list.
func (p *Package) AppendSlide(slide *Part) error {
	if p.presentation == nil {
		return &IntegrityError{Reason: "package has no presentation part"}
	}
	if got, ok := p.parts[slide.name]; !ok || got != slide {
		return &IntegrityError{Part: slide.name, Reason: "slide does not belong to this package"}
	}
	for _, name := range p.slides {
		if name == slide.name {
			return &IntegrityError{Part: slide.name, Reason: "slide already listed"}
		}
	}
	if len(p.presentation.rels.Targeting(slide.name)) == 0 {
		p.presentation.rels.AddNew(RelTypeSlide, slide.name, false)
	}
	p.slides = append(p.slides, slide.name)
	return nil
}

// RemoveSlide drops a slide from the slide list, removes the presentation's
// relationship to it and deletes the part.
func (p *Package) RemoveSlide(name string) error {
	idx := -1
	for i, n := range p.slides {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &IntegrityError{Part: name, Reason: "slide not listed"}
	}
	p.slides = append(p.slides[:idx], p.slides[idx+1:]...)
	for _, rel := range p.presentation.rels.Targeting(name) {
		p.presentation.rels.Remove(rel.ID)
	}
	p.RemovePart(name)
	return nil
}

// SlideLayout returns the layout a slide references.
func (p *Package) SlideLayout(slide *Part) (*Part, bool) {
	rel, ok := slide.rels.First(KindSlideLayout)
	if !ok || rel.External {
		return nil, false
	}
	layout, ok := p.parts[rel.Target]
	return layout, ok
}

// Layouts returns the slide layouts: first in slide-master order
// (p:sldMasterIdLst, then each master's p:sldLayoutIdLst), then any
// remaining layout parts in package order.
func (p *Package) Layouts() []*Part {
	var (
		out  []*Part
		seen = make(map[string]bool)
	)
	add := func(part *Part) {
		if part != nil && !seen[part.name] {
			seen[part.name] = true
			out = append(out, part)
		}
	}

	for _, master := range p.masters() {
		doc, err := master.XML()
		if err != nil {
			continue
		}
		root := doc.Root()
		for _, el := range Children(Child(root, "sldLayoutIdLst"), "sldLayoutId") {
			if rel, ok := master.rels.Get(RelationshipAttr(root, el, "id")); ok && !rel.External {
				add(p.parts[rel.Target])
			}
		}
	}
	for _, name := range p.names {
		if part := p.parts[name]; part.contentType == ContentTypeSlideLayout {
			add(part)
		}
	}
	return out
}

func (p *Package) masters() []*Part {
	if p.presentation == nil {
		return nil
	}
	var out []*Part
	doc, err := p.presentation.XML()
	if err != nil {
		return nil
	}
	root := doc.Root()
	for _, el := range Children(Child(root, "sldMasterIdLst"), "sldMasterId") {
		if rel, ok := p.presentation.rels.Get(RelationshipAttr(root, el, "id")); ok && !rel.External {
			if part, ok := p.parts[rel.Target]; ok {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks the invariants serialization depends on.
func (p *Package) Validate() error {
	if p.presentation == nil {
		return &IntegrityError{Reason: "package has no presentation part"}
	}
	for _, name := range p.names {
		if _, ok := p.types.Lookup(name); !ok {
			return &IntegrityError{Part: name, Reason: "no content type registered"}
		}
	}
	for _, name := range p.slides {
		if _, ok := p.parts[name]; !ok {
			return &IntegrityError{Part: name, Reason: "slide list references a missing part"}
		}
	}
	return p.checkTargets(func(owner string, rel *Relationship) error {
		return &IntegrityError{Part: owner, Reason: fmt.Sprintf("relationship %s dangles to %s", rel.ID, rel.Target)}
	})
}

func (p *Package) checkTargets(fail func(owner string, rel *Relationship) error) error {
	check := func(rs *Relationships) error {
		for _, rel := range rs.order {
			if rel.External {
				continue
			}
			if _, ok := p.parts[rel.Target]; !ok {
				return fail(rs.source, rel)
			}
		}
		return nil
	}
	if err := check(p.rels); err != nil {
		return err
	}
	for _, name := range p.names {
		if err := check(p.parts[name].rels); err != nil {
			return err
		}
	}
	return nil
}

// Serialize validates the package and returns it as a zip container.
func (p *Package) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write validates the package and writes it to w as a zip container.
func (p *Package) Write(w io.Writer) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := p.syncSlideList(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	types, err := p.types.marshal()
	if err != nil {
		return fmt.Errorf("opc: marshal content types: %w", err)
	}
	if err := writeEntry(zw, contentTypesEntry, types); err != nil {
		return err
	}
	if err := writeRels(zw, p.rels); err != nil {
		return err
	}
	for _, name := range p.names {
		part := p.parts[name]
		data, err := part.Data()
		if err != nil {
			return fmt.Errorf("opc: serialize %s: %w", name, err)
		}
		if err := writeEntry(zw, entryName(name), data); err != nil {
			return err
		}
		if err := writeRels(zw, part.rels); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeRels(zw *zip.Writer, rs *Relationships) error {
	if rs.Len() == 0 {
		return nil
	}
	data, err := rs.marshal()
	if err != nil {
		return fmt.Errorf("opc: marshal %s: %w", relsName(rs.source), err)
	}
	return writeEntry(zw, entryName(relsName(rs.source)), data)
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("opc: create zip entry %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("opc: write zip entry %s: %w", name, err)
	}
	return nil
}

// presentationSuccessors are the p:presentation children that follow
// p:sldIdLst in schema order.
var presentationSuccessors = map[string]bool{
	"sldSz": true, "notesSz": true, "smartTags": true, "embeddedFontLst": true,
	"custShowLst": true, "photoAlbum": true, "custDataLst": true, "kinsoku": true,
	"defaultTextStyle": true, "modifyVerifier": true, "extLst": true,
}

// syncSlideList rewrites p:sldIdLst from the slide list.
func (p *Package) syncSlideList() error {
	doc, err := p.presentation.XML()
	if err != nil {
		return err
	}
	root := doc.Root()

	relPrefix, ok := PrefixFor(root, NSRelationships)
	if !ok {
		relPrefix = "r"
		root.CreateAttr("xmlns:r", NSRelationships)
	}

	list := Child(root, "sldIdLst")
	if list == nil {
		list = etree.NewElement(Qualify(root.Space, "sldIdLst"))
		idx := len(root.Child)
		for _, c := range root.ChildElements() {
			if presentationSuccessors[c.Tag] {
				idx = c.Index()
				break
			}
		}
		root.InsertChildAt(idx, list)
	}
	for _, c := range list.ChildElements() {
		list.RemoveChild(c)
	}

	for i, name := range p.slides {
		var rid string
		if rels := p.presentation.rels.Targeting(name); len(rels) > 0 {
			rid = rels[0].ID
		} else {
			rid = p.presentation.rels.AddNew(RelTypeSlide, name, false).ID
		}
		el := list.CreateElement(Qualify(root.Space, "sldId"))
		el.CreateAttr("id", strconv.Itoa(firstSlideID+i))
		el.CreateAttr(Qualify(relPrefix, "id"), rid)
	}
	if len(p.slides) == 0 {
		root.RemoveChild(list)
	}
	return nil
}
