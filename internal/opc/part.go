package opc

import (
	"github.com/beevik/etree"
)

// Part is one named constituent of a Package. Markup parts are parsed on
// first access to XML and re-serialized from the parsed document.
type Part struct {
	name        string
	contentType string
	data        []byte
	doc         *etree.Document
	rels        *Relationships
}

func newPart(name, contentType string, data []byte) *Part {
	return &Part{
		name:        name,
		contentType: contentType,
		data:        data,
		rels:        newRelationships(name),
	}
}

// Name returns the absolute part name.
func (p *Part) Name() string { return p.name }

// ContentType returns the registered content type.
func (p *Part) ContentType() string { return p.contentType }

// Rels returns the part's outgoing relationships.
func (p *Part) Rels() *Relationships { return p.rels }

// IsXML reports whether the part holds markup.
func (p *Part) IsXML() bool { return isXMLContentType(p.contentType) }

// Data returns the part's payload. The returned slice must not be modified.
func (p *Part) Data() ([]byte, error) {
	if p.doc != nil {
		return p.doc.WriteToBytes()
	}
	return p.data, nil
}

// XML parses the payload on first use and returns the document. Changes made
// to the returned document are part of the serialized package.
func (p *Part) XML() (*etree.Document, error) {
	if p.doc != nil {
		return p.doc, nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(p.data); err != nil {
		return nil, &FormatError{Part: p.name, Reason: "malformed XML", Err: err}
	}
	if doc.Root() == nil {
		return nil, &FormatError{Part: p.name, Reason: "no root element"}
	}
	p.doc = doc
	p.data = nil
	return doc, nil
}

// SetXML replaces the payload with doc.
func (p *Part) SetXML(doc *etree.Document) {
	p.doc = doc
	p.data = nil
}
