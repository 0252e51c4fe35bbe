package opc

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// ContentTypes is the package's content-type registry: defaults keyed by
// lower-case file extension and overrides keyed by part name.
type ContentTypes struct {
	defaults  map[string]string
	overrides map[string]string
}

// NewContentTypes returns a registry with the two defaults every package
// needs.
func NewContentTypes() *ContentTypes {
	return &ContentTypes{
		defaults: map[string]string{
			"rels": ContentTypeRelationships,
			"xml":  ContentTypeXML,
		},
		overrides: make(map[string]string),
	}
}

func parseContentTypes(data []byte) (*ContentTypes, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &FormatError{Part: "/" + contentTypesEntry, Reason: "malformed XML", Err: err}
	}
	root := doc.Root()
	if root == nil || root.Tag != "Types" {
		return nil, &FormatError{Part: "/" + contentTypesEntry, Reason: "missing Types element"}
	}

	ct := &ContentTypes{
		defaults:  make(map[string]string),
		overrides: make(map[string]string),
	}
	for _, el := range root.ChildElements() {
		switch el.Tag {
		case "Default":
			ext := strings.ToLower(el.SelectAttrValue("Extension", ""))
			if ext != "" {
				ct.defaults[ext] = el.SelectAttrValue("ContentType", "")
			}
		case "Override":
			name := el.SelectAttrValue("PartName", "")
			if name != "" {
				ct.overrides[partName(name)] = el.SelectAttrValue("ContentType", "")
			}
		}
	}
	return ct, nil
}

// Lookup returns the content type of a part: its override if registered,
// otherwise the default for its extension.
func (c *ContentTypes) Lookup(name string) (string, bool) {
	if ct, ok := c.overrides[name]; ok {
		return ct, true
	}
	for n, ct := range c.overrides {
		if strings.EqualFold(n, name) {
			return ct, true
		}
	}
	ct, ok := c.defaults[extension(name)]
	return ct, ok
}

// Default returns the default content type registered for ext.
func (c *ContentTypes) Default(ext string) (string, bool) {
	ct, ok := c.defaults[strings.ToLower(ext)]
	return ct, ok
}

// SetDefault registers ct for every part with the given extension.
func (c *ContentTypes) SetDefault(ext, ct string) {
	c.defaults[strings.ToLower(ext)] = ct
}

// SetOverride registers ct for one part.
func (c *ContentTypes) SetOverride(name, ct string) {
	c.overrides[name] = ct
}

// RemoveOverride drops the override for name, if any.
func (c *ContentTypes) RemoveOverride(name string) {
	delete(c.overrides, name)
}

// register records ct for a new part, preferring an existing or new
// extension default for binary payloads and an override for markup.
func (c *ContentTypes) register(name, ct string) {
	ext := extension(name)
	def, ok := c.defaults[ext]
	switch {
	case ok && def == ct:
		c.RemoveOverride(name)
	case !ok && ext != "" && !isXMLContentType(ct):
		c.SetDefault(ext, ct)
	default:
		c.SetOverride(name, ct)
	}
}

func (c *ContentTypes) marshal() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("Types")
	root.CreateAttr("xmlns", NSContentTypes)

	exts := make([]string, 0, len(c.defaults))
	for ext := range c.defaults {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		el := root.CreateElement("Default")
		el.CreateAttr("Extension", ext)
		el.CreateAttr("ContentType", c.defaults[ext])
	}

	names := make([]string, 0, len(c.overrides))
	for name := range c.overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		el := root.CreateElement("Override")
		el.CreateAttr("PartName", name)
		el.CreateAttr("ContentType", c.overrides[name])
	}

	return doc.WriteToBytes()
}
