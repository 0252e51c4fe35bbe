package opc_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/deckmerge/internal/decktest"
	"github.com/dusk-indust/deckmerge/internal/opc"
)

// zipOf builds a zip container from name/content pairs.
func zipOf(t *testing.T, entries ...string) []byte {
	t.Helper()
	require.Zero(t, len(entries)%2)
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := 0; i < len(entries); i += 2 {
		w, err := zw.Create(entries[i])
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[i+1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const (
	minimalTypes = `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/></Types>`
	minimalRels  = `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/></Relationships>`
	minimalPres  = `<?xml version="1.0"?><p:presentation xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`
)

func TestOpen_Fixture(t *testing.T) {
	data := decktest.MustBuild(t,
		decktest.Slide{Title: "One", Images: []decktest.Image{{}}},
		decktest.Slide{Title: "Two", Layout: "blank"},
	)

	pkg, err := opc.Open(data)
	require.NoError(t, err)

	require.NotNil(t, pkg.Presentation())
	assert.Equal(t, "/ppt/presentation.xml", pkg.Presentation().Name())

	slides := pkg.Slides()
	require.Len(t, slides, 2)
	assert.Equal(t, "/ppt/slides/slide1.xml", slides[0].Name())
	assert.Equal(t, "/ppt/slides/slide2.xml", slides[1].Name())
	assert.Equal(t, opc.ContentTypeSlide, slides[0].ContentType())

	layout, ok := pkg.SlideLayout(slides[1])
	require.True(t, ok)
	assert.Equal(t, "/ppt/slideLayouts/slideLayout3.xml", layout.Name())

	img, ok := slides[0].Rels().First(opc.KindImage)
	require.True(t, ok)
	assert.Equal(t, "/ppt/media/image1_1.png", img.Target)
	media, ok := pkg.Part(img.Target)
	require.True(t, ok)
	assert.Equal(t, "image/png", media.ContentType())
	assert.False(t, media.IsXML())

	layouts := pkg.Layouts()
	require.Len(t, layouts, 3)
	assert.Equal(t, "/ppt/slideLayouts/slideLayout1.xml", layouts[0].Name())
}

func TestOpen_ZeroSlides(t *testing.T) {
	pkg, err := opc.Open(decktest.MustBuild(t))
	require.NoError(t, err)
	assert.Empty(t, pkg.Slides())
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		data func(t *testing.T) []byte
	}{
		{
			name: "not a zip",
			data: func(*testing.T) []byte { return []byte("definitely not a zip") },
		},
		{
			name: "empty input",
			data: func(*testing.T) []byte { return nil },
		},
		{
			name: "missing content types",
			data: func(t *testing.T) []byte {
				return zipOf(t, "_rels/.rels", minimalRels, "ppt/presentation.xml", minimalPres)
			},
		},
		{
			name: "missing package relationships",
			data: func(t *testing.T) []byte {
				return zipOf(t, "[Content_Types].xml", minimalTypes, "ppt/presentation.xml", minimalPres)
			},
		},
		{
			name: "part without content type",
			data: func(t *testing.T) []byte {
				return zipOf(t, "[Content_Types].xml", minimalTypes, "_rels/.rels", minimalRels,
					"ppt/presentation.xml", minimalPres, "ppt/media/blob.bin", "xx")
			},
		},
		{
			name: "dangling officeDocument",
			data: func(t *testing.T) []byte {
				return zipOf(t, "[Content_Types].xml", minimalTypes, "_rels/.rels", minimalRels)
			},
		},
		{
			name: "external officeDocument",
			data: func(t *testing.T) []byte {
				rels := `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="https://example.com/presentation.xml" TargetMode="External"/></Relationships>`
				return zipOf(t, "[Content_Types].xml", minimalTypes, "_rels/.rels", rels)
			},
		},
		{
			name: "malformed presentation",
			data: func(t *testing.T) []byte {
				return zipOf(t, "[Content_Types].xml", minimalTypes, "_rels/.rels", minimalRels,
					"ppt/presentation.xml", "<p:presentation")
			},
		},
		{
			name: "main part is not a presentation",
			data: func(t *testing.T) []byte {
				return zipOf(t, "[Content_Types].xml", minimalTypes, "_rels/.rels", minimalRels,
					"ppt/presentation.xml", `<w:document xmlns:w="urn:w"/>`)
			},
		},
		{
			name: "duplicate relationship id",
			data: func(t *testing.T) []byte {
				rels := `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/><Relationship Id="rId1" Type="x" Target="docProps/app.xml"/></Relationships>`
				return zipOf(t, "[Content_Types].xml", minimalTypes, "_rels/.rels", rels, "ppt/presentation.xml", minimalPres)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, err := opc.Open(tt.data(t))
			require.Error(t, err)
			assert.Nil(t, pkg)
			assert.ErrorIs(t, err, opc.ErrFormat)
			assert.NotErrorIs(t, err, opc.ErrInternal)
		})
	}
}

func TestOpen_UnresolvableTarget(t *testing.T) {
	slideRels := `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/missing.png"/></Relationships>`
	types := `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/></Types>`
	data := zipOf(t,
		"[Content_Types].xml", types,
		"_rels/.rels", minimalRels,
		"ppt/presentation.xml", minimalPres,
		"ppt/slides/slide1.xml", `<p:sld xmlns:p="urn:p"/>`,
		"ppt/slides/_rels/slide1.xml.rels", slideRels,
	)

	_, err := opc.Open(data)
	var ute *opc.UnresolvableTargetError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "/ppt/slides/slide1.xml", ute.Owner)
	assert.Equal(t, "rId2", ute.ID)
	assert.Equal(t, "/ppt/media/missing.png", ute.Target)
	assert.ErrorIs(t, err, opc.ErrFormat)
}

func TestOpen_IgnoresOrphanRels(t *testing.T) {
	orphan := `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="x" Target="nowhere.xml"/></Relationships>`
	data := zipOf(t,
		"[Content_Types].xml", minimalTypes,
		"_rels/.rels", minimalRels,
		"ppt/presentation.xml", minimalPres,
		"ppt/slides/_rels/slide9.xml.rels", orphan,
	)
	pkg, err := opc.Open(data)
	require.NoError(t, err)
	assert.Empty(t, pkg.Slides())
}

func TestAddPart(t *testing.T) {
	pkg, err := opc.Open(decktest.MustBuild(t, decktest.Slide{}))
	require.NoError(t, err)

	name := pkg.NextPartName("/ppt/media/image7.png")
	assert.Equal(t, "/ppt/media/image1.png", name)

	part, err := pkg.AddPart(name, "image/png", decktest.PNG)
	require.NoError(t, err)
	assert.Equal(t, name, part.Name())
	ct, ok := pkg.ContentTypes().Lookup(name)
	require.True(t, ok)
	assert.Equal(t, "image/png", ct)

	assert.Equal(t, "/ppt/media/image2.png", pkg.NextPartName("/ppt/media/image1.png"))

	_, err = pkg.AddPart(name, "image/png", nil)
	var nce *opc.NameCollisionError
	require.ErrorAs(t, err, &nce)
	assert.ErrorIs(t, err, opc.ErrInternal)

	_, err = pkg.AddPart("/PPT/MEDIA/IMAGE1.PNG", "image/png", nil)
	assert.ErrorAs(t, err, &nce)

	_, err = pkg.AddPart("ppt/media/relative.png", "image/png", nil)
	assert.ErrorIs(t, err, opc.ErrInternal)

	_, err = pkg.AddPart("/ppt/media/untyped.bin", "", nil)
	assert.ErrorIs(t, err, opc.ErrInternal)
}

func TestNextPartName_SkipsExisting(t *testing.T) {
	pkg, err := opc.Open(decktest.MustBuild(t, decktest.Slide{}, decktest.Slide{}))
	require.NoError(t, err)

	assert.Equal(t, "/ppt/slides/slide3.xml", pkg.NextPartName("/ppt/slides/slide1.xml"))
	assert.Equal(t, "/ppt/slides/slide4.xml", pkg.NextPartName("/ppt/slides/slide1.xml"))
}

func TestSerialize_RoundTrip(t *testing.T) {
	data := decktest.MustBuild(t,
		decktest.Slide{Title: "Intro", Images: []decktest.Image{{RelID: "rId2"}}},
		decktest.Slide{Links: []decktest.Link{{URL: "https://example.com/a?b=c&d=e"}}},
	)
	pkg, err := opc.Open(data)
	require.NoError(t, err)

	out, err := pkg.Serialize()
	require.NoError(t, err)

	again, err := opc.Open(out)
	require.NoError(t, err)
	require.Len(t, again.Slides(), 2)

	for i, s := range pkg.Slides() {
		want, err := s.Data()
		require.NoError(t, err)
		got, err := again.Slides()[i].Data()
		require.NoError(t, err)
		assert.Equal(t, opc.Digest(want), opc.Digest(got), s.Name())
	}

	link, ok := again.Slides()[1].Rels().First(opc.KindHyperlink)
	require.True(t, ok)
	assert.True(t, link.External)
	assert.Equal(t, "https://example.com/a?b=c&d=e", link.Target)
}

func TestAppendAndRemoveSlide(t *testing.T) {
	pkg, err := opc.Open(decktest.MustBuild(t, decktest.Slide{Title: "keep"}))
	require.NoError(t, err)

	src := pkg.Slides()[0]
	data, err := src.Data()
	require.NoError(t, err)

	added, err := pkg.AddPart(pkg.NextPartName(src.Name()), opc.ContentTypeSlide, bytes.Clone(data))
	require.NoError(t, err)
	layout, ok := pkg.SlideLayout(src)
	require.True(t, ok)
	require.NoError(t, added.Rels().Add(&opc.Relationship{ID: "rId1", Type: opc.RelTypeSlideLayout, Target: layout.Name()}))

	require.NoError(t, pkg.AppendSlide(added))
	require.Len(t, pkg.Slides(), 2)
	assert.ErrorIs(t, pkg.AppendSlide(added), opc.ErrInternal)

	require.NoError(t, pkg.RemoveSlide(src.Name()))
	require.Len(t, pkg.Slides(), 1)
	_, ok = pkg.Part(src.Name())
	assert.False(t, ok)
	assert.Empty(t, pkg.Presentation().Rels().Targeting(src.Name()))

	out, err := pkg.Serialize()
	require.NoError(t, err)
	again, err := opc.Open(out)
	require.NoError(t, err)
	require.Len(t, again.Slides(), 1)
	assert.Equal(t, added.Name(), again.Slides()[0].Name())
}

func TestValidate_DanglingRelationship(t *testing.T) {
	pkg, err := opc.Open(decktest.MustBuild(t, decktest.Slide{}))
	require.NoError(t, err)

	s := pkg.Slides()[0]
	s.Rels().AddNew(opc.RelTypeImage, "/ppt/media/nothing.png", false)

	err = pkg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, opc.ErrInternal)

	_, err = pkg.Serialize()
	assert.ErrorIs(t, err, opc.ErrInternal)
}

func TestSerialize_AllSlidesRemoved(t *testing.T) {
	pkg, err := opc.Open(decktest.MustBuild(t, decktest.Slide{}))
	require.NoError(t, err)
	require.NoError(t, pkg.RemoveSlide(pkg.Slides()[0].Name()))

	out, err := pkg.Serialize()
	require.NoError(t, err)
	again, err := opc.Open(out)
	require.NoError(t, err)
	assert.Empty(t, again.Slides())
}

func TestDigest(t *testing.T) {
	a := opc.Digest([]byte("slide"))
	assert.Len(t, a, 16)
	assert.Equal(t, a, opc.Digest([]byte("slide")))
	assert.NotEqual(t, a, opc.Digest([]byte("slides")))
}
