//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/deckmerge/internal/acquire"
	"github.com/dusk-indust/deckmerge/internal/config"
	"github.com/dusk-indust/deckmerge/internal/decktest"
	"github.com/dusk-indust/deckmerge/internal/httpapi"
	"github.com/dusk-indust/deckmerge/internal/inspect"
	"github.com/dusk-indust/deckmerge/internal/opc"
	"github.com/dusk-indust/deckmerge/internal/orchestrator"
)

// fixtureDecks writes three decks that between them use every layout, a
// shared image part, hyperlinks, a chart, notes and an embedded object.
func fixtureDecks(t *testing.T, dir string) []string {
	t.Helper()

	shared := decktest.Image{Part: "ppt/media/logo.png"}
	decks := map[string][]decktest.Slide{
		"intro.pptx": {
			{Layout: "title", Title: "Quarterly review", Images: []decktest.Image{shared}},
			{Title: "Agenda", Links: []decktest.Link{{URL: "https://example.com/agenda?a=1&b=2", Text: "agenda"}}},
		},
		"numbers.pptx": {
			{Title: "Revenue", Images: []decktest.Image{shared}, Charts: []decktest.Chart{{Title: "revenue"}}, Notes: true},
			{Layout: "blank", Name: "Appendix", Images: []decktest.Image{shared, {}}},
		},
		"closing.pptx": {
			{Title: "Questions", Background: "FFFFFF", Embedding: "rId9"},
		},
	}

	var paths []string
	for _, name := range []string{"intro.pptx", "numbers.pptx", "closing.pptx"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, decktest.MustBuild(t, decks[name]...), 0o644))
		paths = append(paths, path)
	}
	return paths
}

// runMerge fetches, merges and stores the fixture decks, returning the
// stored output.
func runMerge(t *testing.T) ([]byte, *orchestrator.Result) {
	t.Helper()
	dir := t.TempDir()
	paths := fixtureDecks(t, dir)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := config.Config{AllowLocal: true}.WithDefaults()
	sources, err := acquire.NewFetcher(acquire.PolicyFromConfig(cfg)).Fetch(ctx, paths)
	require.NoError(t, err)

	pipeline := orchestrator.NewPipeline(orchestrator.Config{Workers: cfg.Workers})
	progressCh := pipeline.Progress()
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for range progressCh {
		}
	}()

	res, err := pipeline.Merge(ctx, sources)
	require.NoError(t, err)
	pipeline.Close()
	<-drainDone

	out := filepath.Join(dir, "merged.pptx")
	require.NoError(t, acquire.Store(ctx, out, res.Data))
	data, err := acquire.Load(ctx, out)
	require.NoError(t, err)
	return data, res
}

func TestPipeline_E2E_Merge(t *testing.T) {
	data, res := runMerge(t)

	pkg, err := opc.Open(data)
	require.NoError(t, err)
	require.NoError(t, pkg.Validate())

	sum, err := inspect.Summarize(pkg)
	require.NoError(t, err)
	require.Len(t, sum.Slides, 5)

	assert.Equal(t, "Title Slide", sum.Slides[0].Layout)
	assert.Equal(t, "Title and Content", sum.Slides[1].Layout)
	assert.Equal(t, "Blank", sum.Slides[3].Layout)
	assert.Equal(t, "Appendix", sum.Slides[3].Name)

	// Each source's logo is copied once however many of its slides use it.
	var media int
	for _, part := range sum.Parts {
		if filepath.Dir(part.Name) == "/ppt/media" {
			media++
		}
	}
	assert.Equal(t, 3, media)

	// The embedded object is not carried over and is reported.
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 5, res.Issues[0].Slide)
	assert.Equal(t, "rId9", res.Issues[0].ID)
}

func TestPipeline_E2E_Deterministic(t *testing.T) {
	first, _ := runMerge(t)
	second, _ := runMerge(t)
	assert.Equal(t, opc.Digest(first), opc.Digest(second))
}

func TestPipeline_E2E_HTTP(t *testing.T) {
	dir := t.TempDir()
	paths := fixtureDecks(t, dir)

	pipeline := orchestrator.NewPipeline(orchestrator.Config{})
	defer pipeline.Close()
	srv := httptest.NewServer(httpapi.NewServer(config.Config{}, pipeline, nil).Handler())
	defer srv.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		fw, err := mw.CreateFormFile("files", filepath.Base(path))
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/merge", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	pkg, err := opc.Open(data)
	require.NoError(t, err)
	assert.Len(t, pkg.Slides(), 5)
}
