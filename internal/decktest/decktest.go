// Package decktest builds small presentation packages for tests. Decks share
// the slide master, layouts and theme of the blank template and carry only
// the slides, media and charts they are asked for.
package decktest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/deckmerge/internal/template"
)

// PNG is a 1x1 transparent PNG.
var PNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// Layout files of the blank template by layout type.
var layoutFiles = map[string]string{
	"title": "slideLayout1.xml",
	"obj":   "slideLayout2.xml",
	"blank": "slideLayout3.xml",
}

// Slide describes one slide of a test deck. Empty RelIDs are assigned
// rId2, rId3, ... skipping explicit ones.
type Slide struct {
	// Layout is "title", "obj" or "blank". Defaults to "obj".
	Layout      string
	LayoutRelID string

	Name       string
	Title      string
	Background string // srgbClr value, e.g. "FF0000"

	Images []Image
	Links  []Link
	Charts []Chart

	// Notes adds a notes slide relationship.
	Notes bool

	// Embedding adds an OLE object shape referencing this relationship id.
	Embedding string
}

// Image is a picture shape with its media part.
type Image struct {
	RelID string
	// Part names the media part. Slides naming the same part share it.
	Part string
	Data []byte
}

// Link is a text shape whose run carries an external hyperlink.
type Link struct {
	RelID string
	URL   string
	Text  string
}

// Chart is a graphic frame referencing a chart part.
type Chart struct {
	RelID string
	Title string
}

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsC = "http://schemas.openxmlformats.org/drawingml/2006/chart"

	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"

	ctSlide     = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctChart     = "application/vnd.openxmlformats-officedocument.drawingml.chart+xml"
	ctNotes     = "application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"
	ctOLEObject = "application/vnd.openxmlformats-officedocument.oleObject"

	header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

// MustBuild is Build for tests.
func MustBuild(t testing.TB, slides ...Slide) []byte {
	t.Helper()
	data, err := Build(slides...)
	require.NoError(t, err)
	return data
}

// Build returns a presentation package holding the given slides.
func Build(slides ...Slide) ([]byte, error) {
	b := &builder{
		files:     make(map[string][]byte),
		overrides: make(map[string]string),
	}
	if err := b.copyTemplate(); err != nil {
		return nil, err
	}
	for i, s := range slides {
		if err := b.addSlide(i+1, s); err != nil {
			return nil, err
		}
	}
	b.presentation(len(slides))
	return b.zip()
}

type builder struct {
	files     map[string][]byte
	overrides map[string]string
	charts    int
	notes     int
	embeds    int
}

func (b *builder) copyTemplate() error {
	const root = "blank"
	return fs.WalkDir(template.BlankFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := p[len(root)+1:]
		switch {
		case strings.HasPrefix(name, "ppt/slides/"),
			name == "ppt/presentation.xml",
			name == "ppt/_rels/presentation.xml.rels",
			name == "[Content_Types].xml":
			return nil
		}
		data, err := template.BlankFS.ReadFile(p)
		if err != nil {
			return err
		}
		b.files[name] = data
		return nil
	})
}

func (b *builder) addSlide(n int, s Slide) error {
	layout := s.Layout
	if layout == "" {
		layout = "obj"
	}
	layoutFile, ok := layoutFiles[layout]
	if !ok {
		return fmt.Errorf("decktest: unknown layout %q", layout)
	}

	ids := newIDs(s)
	rels := &relsWriter{}
	rels.add(ids.layout, "slideLayout", "../slideLayouts/"+layoutFile, false)

	var shapes strings.Builder
	shapeID := 2
	if s.Title != "" {
		fmt.Fprintf(&shapes, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Title %d"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`,
			shapeID, shapeID-1, esc(s.Title))
		shapeID++
	}
	for i, img := range s.Images {
		rid := ids.next(img.RelID)
		part := img.Part
		if part == "" {
			part = fmt.Sprintf("ppt/media/image%d_%d.png", n, i+1)
		}
		part = strings.TrimPrefix(part, "/")
		data := img.Data
		if data == nil {
			data = PNG
		}
		b.files[part] = data
		rels.add(rid, "image", "../"+strings.TrimPrefix(part, "ppt/"), false)
		fmt.Fprintf(&shapes, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr><p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr/></p:pic>`,
			shapeID, shapeID-1, rid)
		shapeID++
	}
	for _, link := range s.Links {
		rid := ids.next(link.RelID)
		rels.add(rid, "hyperlink", link.URL, true)
		text := link.Text
		if text == "" {
			text = link.URL
		}
		fmt.Fprintf(&shapes, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:rPr lang="en-US"><a:hlinkClick r:id="%s"/></a:rPr><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`,
			shapeID, shapeID-1, rid, esc(text))
		shapeID++
	}
	for _, chart := range s.Charts {
		rid := ids.next(chart.RelID)
		b.charts++
		part := fmt.Sprintf("ppt/charts/chart%d.xml", b.charts)
		b.files[part] = []byte(header + fmt.Sprintf(`<c:chartSpace xmlns:c="%s" xmlns:a="%s" xmlns:r="%s"><c:chart><c:title><c:tx><c:rich><a:bodyPr/><a:p><a:r><a:t>%s</a:t></a:r></a:p></c:rich></c:tx></c:title><c:plotArea><c:layout/></c:plotArea></c:chart></c:chartSpace>`,
			nsC, nsA, nsR, esc(chart.Title)))
		b.overrides["/"+part] = ctChart
		rels.add(rid, "chart", "../"+strings.TrimPrefix(part, "ppt/"), false)
		fmt.Fprintf(&shapes, `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="Chart %d"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr><p:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/></p:xfrm><a:graphic><a:graphicData uri="%s"><c:chart xmlns:c="%s" r:id="%s"/></a:graphicData></a:graphic></p:graphicFrame>`,
			shapeID, shapeID-1, nsC, nsC, rid)
		shapeID++
	}
	if s.Embedding != "" {
		b.embeds++
		part := fmt.Sprintf("ppt/embeddings/oleObject%d.bin", b.embeds)
		b.files[part] = []byte("ole")
		b.overrides["/"+part] = ctOLEObject
		rels.add(s.Embedding, "oleObject", "../"+strings.TrimPrefix(part, "ppt/"), false)
		fmt.Fprintf(&shapes, `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="Object %d"/><p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr><p:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/></p:xfrm><a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/presentationml/2006/ole"><p:oleObj r:id="%s" progId="Package"/></a:graphicData></a:graphic></p:graphicFrame>`,
			shapeID, shapeID-1, s.Embedding)
		shapeID++
	}
	if s.Notes {
		rid := ids.next("")
		b.notes++
		part := fmt.Sprintf("ppt/notesSlides/notesSlide%d.xml", b.notes)
		b.files[part] = []byte(header + fmt.Sprintf(`<p:notes xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld></p:notes>`, nsA, nsR, nsP))
		b.overrides["/"+part] = ctNotes
		rels.add(rid, "notesSlide", "../"+strings.TrimPrefix(part, "ppt/"), false)
	}

	var doc strings.Builder
	doc.WriteString(header)
	fmt.Fprintf(&doc, `<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">`, nsA, nsR, nsP)
	if s.Name != "" {
		fmt.Fprintf(&doc, `<p:cSld name="%s">`, esc(s.Name))
	} else {
		doc.WriteString(`<p:cSld>`)
	}
	if s.Background != "" {
		fmt.Fprintf(&doc, `<p:bg><p:bgPr><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>`, esc(s.Background))
	}
	doc.WriteString(`<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	doc.WriteString(shapes.String())
	doc.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)

	name := fmt.Sprintf("ppt/slides/slide%d.xml", n)
	b.files[name] = []byte(doc.String())
	b.files[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n)] = rels.bytes()
	b.overrides["/"+name] = ctSlide
	return nil
}

func (b *builder) presentation(slides int) {
	rels := &relsWriter{}
	rels.add("rId1", "slideMaster", "slideMasters/slideMaster1.xml", false)
	rels.add("rId2", "theme", "theme/theme1.xml", false)
	rels.add("rId3", "presProps", "presProps.xml", false)

	var list strings.Builder
	if slides > 0 {
		list.WriteString(`<p:sldIdLst>`)
		for i := 1; i <= slides; i++ {
			rid := "rId" + strconv.Itoa(i+3)
			rels.add(rid, "slide", fmt.Sprintf("slides/slide%d.xml", i), false)
			fmt.Fprintf(&list, `<p:sldId id="%d" r:id="%s"/>`, 255+i, rid)
		}
		list.WriteString(`</p:sldIdLst>`)
	}

	b.files["ppt/presentation.xml"] = []byte(header + fmt.Sprintf(
		`<p:presentation xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>%s<p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`,
		nsA, nsR, nsP, list.String()))
	b.files["ppt/_rels/presentation.xml.rels"] = rels.bytes()

	b.overrides["/ppt/presentation.xml"] = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	b.overrides["/ppt/slideMasters/slideMaster1.xml"] = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	for _, f := range layoutFiles {
		b.overrides["/ppt/slideLayouts/"+f] = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	}
	b.overrides["/ppt/theme/theme1.xml"] = "application/vnd.openxmlformats-officedocument.theme+xml"
	b.overrides["/ppt/presProps.xml"] = "application/vnd.openxmlformats-officedocument.presentationml.presProps+xml"
}

func (b *builder) zip() ([]byte, error) {
	var types strings.Builder
	types.WriteString(header)
	types.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	types.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	types.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	types.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	types.WriteString(`<Default Extension="jpeg" ContentType="image/jpeg"/>`)
	for _, name := range sortedKeys(b.overrides) {
		fmt.Fprintf(&types, `<Override PartName="%s" ContentType="%s"/>`, name, b.overrides[name])
	}
	types.WriteString(`</Types>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) error {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	if err := write("[Content_Types].xml", []byte(types.String())); err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(b.files) {
		if err := write(name, b.files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ids hands out relationship ids for one slide.
type ids struct {
	layout string
	used   map[string]bool
	n      int
}

func newIDs(s Slide) *ids {
	layout := s.LayoutRelID
	if layout == "" {
		layout = "rId1"
	}
	used := map[string]bool{layout: true}
	for _, img := range s.Images {
		used[img.RelID] = true
	}
	for _, l := range s.Links {
		used[l.RelID] = true
	}
	for _, c := range s.Charts {
		used[c.RelID] = true
	}
	used[s.Embedding] = true
	return &ids{layout: layout, used: used, n: 1}
}

func (g *ids) next(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for {
		g.n++
		id := "rId" + strconv.Itoa(g.n)
		if !g.used[id] {
			g.used[id] = true
			return id
		}
	}
}

type relsWriter struct {
	b strings.Builder
}

func (w *relsWriter) add(id, typ, target string, external bool) {
	if w.b.Len() == 0 {
		w.b.WriteString(header)
		w.b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	}
	mode := ""
	if external {
		mode = ` TargetMode="External"`
	}
	fmt.Fprintf(&w.b, `<Relationship Id="%s" Type="%s" Target="%s"%s/>`, id, relBase+typ, esc(target), mode)
}

func (w *relsWriter) bytes() []byte {
	return []byte(w.b.String() + `</Relationships>`)
}

func esc(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
