package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/deckmerge/internal/acquire"
	"github.com/dusk-indust/deckmerge/internal/config"
	"github.com/dusk-indust/deckmerge/internal/mcptools"
	"github.com/dusk-indust/deckmerge/internal/orchestrator"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Output    string
	ConfigDir string
	Workers   int
	KeepFirst bool
	Verbose   bool
	ServeMCP  bool
	MCPAddr   string
	Force     bool
	Version   bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage:
  deckmerge -o merged.pptx a.pptx b.pptx [more.pptx ...]
  deckmerge inspect deck.pptx
  deckmerge graph deck.pptx
  deckmerge serve
  deckmerge init
  deckmerge -serve-mcp [-mcp-addr :8090]`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("deckmerge", flag.ContinueOnError)
	fs.StringVar(&flags.Output, "o", "", "path or storage URL for the merged deck")
	fs.StringVar(&flags.ConfigDir, "config", ".", "directory containing deckmerge.yml")
	fs.IntVar(&flags.Workers, "workers", 0, "sources opened concurrently (default from config)")
	fs.BoolVar(&flags.KeepFirst, "keep-default-slide", false, "keep the blank slide the output deck starts with")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server")
	fs.StringVar(&flags.MCPAddr, "mcp-addr", "", "serve MCP over streamable HTTP on this address instead of stdio")
	fs.BoolVar(&flags.Force, "force", false, "overwrite existing entries (init)")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.Workers > 0 {
		cfg.Workers = flags.Workers
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	*cfg = cfg.WithDefaults()

	if flags.ServeMCP {
		return runMCP(ctx, *cfg, flags.MCPAddr)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return fmt.Errorf("no input decks")
	}

	switch rest[0] {
	case "inspect":
		return runInspect(ctx, rest[1:])
	case "graph":
		return runGraph(ctx, rest[1:])
	case "serve":
		return runServe(ctx, *cfg)
	case "init":
		return runInit(".", flags.Force)
	}
	return runMerge(ctx, *cfg, flags, rest)
}

func newPipeline(cfg config.Config, keepFirst bool) *orchestrator.Pipeline {
	return orchestrator.NewPipeline(orchestrator.Config{
		Workers:          cfg.Workers,
		KeepDefaultSlide: keepFirst,
		Verbose:          cfg.Verbose,
	})
}

func runMCP(ctx context.Context, cfg config.Config, addr string) error {
	p := newPipeline(cfg, false)
	defer p.Close()

	policy := acquire.PolicyFromConfig(cfg)
	if addr != "" {
		server := mcptools.NewMCPServer(mcptools.NewMergeService(p, acquire.NewFetcher(policy)))
		return mcptools.RunMCPServerHTTP(ctx, server, addr)
	}

	// A stdio client runs as the operator, so its paths are operator-side files.
	policy.AllowLocal = true
	server := mcptools.NewMCPServer(mcptools.NewMergeService(p, acquire.NewFetcher(policy)))
	return mcptools.RunMCPServerStdio(ctx, server)
}
