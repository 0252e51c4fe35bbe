package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// deckmergeMCPEntry is the MCP server configuration for the deckmerge binary.
var deckmergeMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "deckmerge",
  "args": ["--serve-mcp"]
}`)

// runInit registers the deckmerge MCP server in the project's .mcp.json and
// writes a starter deckmerge.yml when none exists.
func runInit(projectRoot string, force bool) error {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	if err := mergeMCPConfig(filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}
	if err := writeStarterConfig(filepath.Join(abs, "deckmerge.yml"), force); err != nil {
		return err
	}

	fmt.Println("\nSetup complete. The deckmerge MCP server is ready.")
	return nil
}

const starterConfig = `# deckmerge service settings
addr: ":5001"
workers: 4
minSources: 2
maxSources: 20
maxSourceBytes: 52428800
# allowedHosts:
#   - decks.example.com
allowLocal: false
outputName: merged.pptx
`

func writeStarterConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("  skipped deckmerge.yml (exists, use --force to overwrite)\n")
			return nil
		}
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("  created deckmerge.yml\n")
	return nil
}

// mergeMCPConfig creates or merges the deckmerge entry into .mcp.json.
func mergeMCPConfig(mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["deckmerge"]; exists && !force {
		fmt.Printf("  skipped .mcp.json deckmerge entry (exists, use --force to overwrite)\n")
		return nil
	}

	cfg.MCPServers["deckmerge"] = deckmergeMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Printf("  %s .mcp.json with deckmerge MCP server\n", action)
	return nil
}
