package mcptools

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/deckmerge/internal/inspect"
	"github.com/dusk-indust/deckmerge/internal/opc"
	"github.com/dusk-indust/deckmerge/internal/orchestrator"
)

// Merger runs a merge. *orchestrator.Pipeline implements it.
type Merger interface {
	Merge(ctx context.Context, sources []orchestrator.Source) (*orchestrator.Result, error)
}

// Fetcher reads and writes every deck a tool call names, applying the
// acquisition policy. *acquire.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, locations []string) ([]orchestrator.Source, error)
	FetchOne(ctx context.Context, location string) ([]byte, error)
	CheckOutput(location string) error
	Store(ctx context.Context, location string, data []byte) error
}

// MergeService handles MCP tool calls. It wraps a Merger for merges; all
// file and network access goes through the Fetcher.
type MergeService struct {
	merger  Merger
	fetcher Fetcher
}

// NewMergeService creates a MergeService.
func NewMergeService(merger Merger, fetcher Fetcher) *MergeService {
	return &MergeService{
		merger:  merger,
		fetcher: fetcher,
	}
}

// MergeDecks merges the input decks in order and writes the result.
func (s *MergeService) MergeDecks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MergeDecksInput,
) (*mcp.CallToolResult, MergeDecksOutput, error) {
	if input.Output == "" {
		return nil, MergeDecksOutput{Status: "failed", Message: "output is required"}, errors.New("output is required")
	}
	if err := s.fetcher.CheckOutput(input.Output); err != nil {
		return nil, MergeDecksOutput{
			Output:  input.Output,
			Status:  "failed",
			Message: err.Error(),
		}, nil
	}

	sources, err := s.fetcher.Fetch(ctx, input.Inputs)
	if err != nil {
		return nil, MergeDecksOutput{
			Output:  input.Output,
			Status:  "failed",
			Message: err.Error(),
		}, nil
	}

	res, err := s.merger.Merge(ctx, sources)
	if err != nil {
		msg := err.Error()
		var me *orchestrator.MergeError
		if errors.As(err, &me) {
			msg = me.Summary()
		}
		return nil, MergeDecksOutput{
			Output:  input.Output,
			Status:  "failed",
			Message: msg,
		}, nil
	}

	if err := s.fetcher.Store(ctx, input.Output, res.Data); err != nil {
		return nil, MergeDecksOutput{
			Output:  input.Output,
			Status:  "failed",
			Message: err.Error(),
		}, nil
	}
	log.Printf("mcptools: merge=%s output=%s slides=%d", res.ID, input.Output, res.Slides)

	out := MergeDecksOutput{
		Output: input.Output,
		Slides: res.Slides,
		Status: "completed",
	}
	for _, issue := range res.Issues {
		out.Issues = append(out.Issues, issue.Description)
	}
	return nil, out, nil
}

// InspectDeck summarizes a single deck.
func (s *MergeService) InspectDeck(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input InspectDeckInput,
) (*mcp.CallToolResult, inspect.DeckSummary, error) {
	pkg, err := s.open(ctx, input.Path)
	if err != nil {
		return nil, inspect.DeckSummary{}, err
	}
	sum, err := inspect.Summarize(pkg)
	if err != nil {
		return nil, inspect.DeckSummary{}, fmt.Errorf("inspect %s: %w", input.Path, err)
	}
	return nil, *sum, nil
}

// GraphDeck renders a deck's relationship graph as Mermaid.
func (s *MergeService) GraphDeck(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input InspectDeckInput,
) (*mcp.CallToolResult, GraphDeckOutput, error) {
	pkg, err := s.open(ctx, input.Path)
	if err != nil {
		return nil, GraphDeckOutput{}, err
	}
	return nil, GraphDeckOutput{Mermaid: inspect.Mermaid(pkg)}, nil
}

func (s *MergeService) open(ctx context.Context, location string) (*opc.Package, error) {
	if location == "" {
		return nil, errors.New("path is required")
	}
	data, err := s.fetcher.FetchOne(ctx, location)
	if err != nil {
		return nil, err
	}
	pkg, err := opc.Open(data)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	return pkg, nil
}
