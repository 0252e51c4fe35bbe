package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dusk-indust/deckmerge/internal/acquire"
	"github.com/dusk-indust/deckmerge/internal/inspect"
	"github.com/dusk-indust/deckmerge/internal/opc"
)

func openDeck(ctx context.Context, args []string, cmd string) (*opc.Package, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("usage: deckmerge %s <deck.pptx>", cmd)
	}
	data, err := acquire.Load(ctx, args[0])
	if err != nil {
		return nil, err
	}
	pkg, err := opc.Open(data)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", args[0], err)
	}
	return pkg, nil
}

func runInspect(ctx context.Context, args []string) error {
	pkg, err := openDeck(ctx, args, "inspect")
	if err != nil {
		return err
	}

	sum, err := inspect.Summarize(pkg)
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}

	out, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}

func runGraph(ctx context.Context, args []string) error {
	pkg, err := openDeck(ctx, args, "graph")
	if err != nil {
		return err
	}
	fmt.Print(inspect.Mermaid(pkg))
	return nil
}
