package opc

import "strings"

// XML namespaces used by presentation packages.
const (
	NSContentTypes        = "http://schemas.openxmlformats.org/package/2006/content-types"
	NSPackageRels         = "http://schemas.openxmlformats.org/package/2006/relationships"
	NSRelationships       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSRelationshipsStrict = "http://purl.oclc.org/ooxml/officeDocument/relationships"
	NSPresentationML      = "http://schemas.openxmlformats.org/presentationml/2006/main"
	NSDrawingML           = "http://schemas.openxmlformats.org/drawingml/2006/main"
)

// Relationship types the package model creates itself.
const (
	RelTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	RelTypeSlideLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	RelTypeSlideMaster    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	RelTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelTypeChart          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/chart"
	RelTypeHyperlink      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	RelTypeMedia          = "http://schemas.microsoft.com/office/2007/relationships/media"
	RelTypeNotesSlide     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
)

// Content types.
const (
	ContentTypeRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	ContentTypeXML           = "application/xml"
	ContentTypePresentation  = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ContentTypeSlide         = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ContentTypeSlideLayout   = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"

	// ContentTypeDeck is the MIME type of a whole .pptx file.
	ContentTypeDeck = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Kind is the closed classification of relationship types the merge engine
// distinguishes.
type Kind int

const (
	KindOther Kind = iota
	KindImage
	KindChart
	KindMedia
	KindHyperlink
	KindSlideLayout
)

func (k Kind) String() string {
	names := [...]string{"other", "image", "chart", "media", "hyperlink", "slide-layout"}
	if int(k) < len(names) {
		return names[k]
	}
	return "unknown"
}

// KindOf classifies a relationship type URI by its last path segment, which
// is shared between the transitional, strict and Microsoft namespaces.
func KindOf(relType string) Kind {
	switch relTypeName(relType) {
	case "image":
		return KindImage
	case "chart":
		return KindChart
	case "media", "video", "audio":
		return KindMedia
	case "hyperlink":
		return KindHyperlink
	case "slideLayout":
		return KindSlideLayout
	default:
		return KindOther
	}
}

func relTypeName(relType string) string {
	return relType[strings.LastIndex(relType, "/")+1:]
}

// IsRelationshipNamespace reports whether uri is the namespace that carries
// relationship-id attributes (r:id, r:embed, ...).
func IsRelationshipNamespace(uri string) bool {
	return uri == NSRelationships || uri == NSRelationshipsStrict
}

func isXMLContentType(ct string) bool {
	return strings.HasSuffix(ct, "+xml") || ct == ContentTypeXML || ct == "text/xml"
}
