package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMCPServer creates an MCP server with the deck tools registered:
// merge_decks, inspect_deck and graph_deck.
func NewMCPServer(svc *MergeService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "deckmerge",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "merge_decks",
		Description: "Merge two or more .pptx decks into one, keeping slide order, and write the result. Returns the number of slides written.",
	}, svc.MergeDecks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inspect_deck",
		Description: "Summarize a .pptx deck: its slides with layouts, shape counts and relationships, and every part with content type, size and digest.",
	}, svc.InspectDeck)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "graph_deck",
		Description: "Render the relationship graph of a .pptx deck as a Mermaid diagram.",
	}, svc.GraphDeck)

	return server
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunMCPServerHTTP serves the MCP server over streamable HTTP until ctx is
// cancelled.
func RunMCPServerHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
