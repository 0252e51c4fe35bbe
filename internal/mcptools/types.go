package mcptools

// --- MCP Tool Types for the server mode (-serve-mcp) ---
// These tools let an agent merge and inspect decks through structured calls
// instead of shelling out to the CLI.

// MergeDecksInput is the input for the merge_decks MCP tool.
type MergeDecksInput struct {
	Inputs []string `json:"inputs" jsonschema:"paths or URLs of the .pptx files to merge, in order"`
	Output string   `json:"output" jsonschema:"path or storage URL to write the merged .pptx to"`
}

// MergeDecksOutput is the result of the merge_decks MCP tool.
type MergeDecksOutput struct {
	Output  string   `json:"output"`
	Slides  int      `json:"slides"`
	Status  string   `json:"status"` // "completed" or "failed"
	Message string   `json:"message,omitempty"`
	Issues  []string `json:"issues,omitempty"`
}

// InspectDeckInput is the input for the inspect_deck MCP tool.
type InspectDeckInput struct {
	Path string `json:"path" jsonschema:"path or URL of the .pptx file to inspect"`
}

// GraphDeckOutput is the result of the graph_deck MCP tool.
type GraphDeckOutput struct {
	Mermaid string `json:"mermaid"`
}
