package mcptools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/deckmerge/internal/acquire"
	"github.com/dusk-indust/deckmerge/internal/decktest"
	"github.com/dusk-indust/deckmerge/internal/opc"
	"github.com/dusk-indust/deckmerge/internal/orchestrator"
)

// newService wires a MergeService to a real pipeline and a local-only
// fetcher.
func newService(t *testing.T) *MergeService {
	t.Helper()
	p := orchestrator.NewPipeline(orchestrator.Config{Workers: 2})
	t.Cleanup(p.Close)
	fetcher := acquire.NewFetcher(acquire.Policy{AllowLocal: true, MinSources: 2, MaxSources: 5, MaxSourceBytes: 1 << 20})
	return NewMergeService(p, fetcher)
}

// setupServerClient wires an MCP server and client together using in-memory
// transports and returns the connected client session.
func setupServerClient(t *testing.T) *mcp.ClientSession {
	t.Helper()

	server := NewMCPServer(newService(t))
	st, ct := mcp.NewInMemoryTransports()

	ctx := context.Background()
	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})
	return session
}

// writeDeck writes a fixture deck into dir and returns its path.
func writeDeck(t *testing.T, dir, name string, slides ...decktest.Slide) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, decktest.MustBuild(t, slides...), 0o644))
	return path
}

func TestMCPListTools(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)
	assert.Equal(t, []string{"graph_deck", "inspect_deck", "merge_decks"}, names)
}

func TestMCPMergeDecks(t *testing.T) {
	session := setupServerClient(t)
	dir := t.TempDir()

	a := writeDeck(t, dir, "a.pptx", decktest.Slide{Title: "a"})
	b := writeDeck(t, dir, "b.pptx", decktest.Slide{Title: "b"}, decktest.Slide{Title: "c"})
	out := filepath.Join(dir, "merged.pptx")

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "merge_decks",
		Arguments: MergeDecksInput{Inputs: []string{a, b}, Output: out},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.NotNil(t, result.StructuredContent)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var output MergeDecksOutput
	require.NoError(t, json.Unmarshal(raw, &output))

	assert.Equal(t, "completed", output.Status)
	assert.Equal(t, 3, output.Slides)
	assert.Equal(t, out, output.Output)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	pkg, err := opc.Open(data)
	require.NoError(t, err)
	assert.Len(t, pkg.Slides(), 3)
}

func TestMCPInspectDeck(t *testing.T) {
	session := setupServerClient(t)
	path := writeDeck(t, t.TempDir(), "deck.pptx", decktest.Slide{Title: "x", Layout: "title"})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "inspect_deck",
		Arguments: InspectDeckInput{Path: path},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var output struct {
		Slides []struct {
			Layout string `json:"layout"`
		} `json:"slides"`
	}
	require.NoError(t, json.Unmarshal(raw, &output))
	require.Len(t, output.Slides, 1)
	assert.Equal(t, "Title Slide", output.Slides[0].Layout)
}

func TestMCPCallUnknownTool(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "nonexistent_tool",
		Arguments: map[string]any{},
	})

	// The MCP SDK may return an error at the protocol level or set IsError on
	// the result. Accept either behavior.
	if err != nil {
		return
	}
	require.NotNil(t, result)
	assert.True(t, result.IsError, "calling an unknown tool should set IsError")
}
