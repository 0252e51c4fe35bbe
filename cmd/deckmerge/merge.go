package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dusk-indust/deckmerge/internal/acquire"
	"github.com/dusk-indust/deckmerge/internal/config"
	"github.com/dusk-indust/deckmerge/internal/orchestrator"
)

func runMerge(ctx context.Context, cfg config.Config, flags cliFlags, inputs []string) error {
	if flags.Output == "" {
		return fmt.Errorf("usage: deckmerge -o <output.pptx> <input.pptx>...")
	}

	// Operator-supplied paths are trusted; remote hosts still follow config.
	policy := acquire.PolicyFromConfig(cfg)
	policy.AllowLocal = true

	sources, err := acquire.NewFetcher(policy).Fetch(ctx, inputs)
	if err != nil {
		return err
	}

	p := newPipeline(cfg, flags.KeepFirst)
	var wg sync.WaitGroup
	if cfg.Verbose {
		events := p.Progress()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range events {
				fmt.Fprintln(os.Stderr, orchestrator.FormatProgress(event))
			}
		}()
	}

	res, err := p.Merge(ctx, sources)
	p.Close()
	wg.Wait()
	if err != nil {
		var me *orchestrator.MergeError
		if errors.As(err, &me) && !cfg.Verbose {
			return errors.New(me.Summary())
		}
		return err
	}

	if err := acquire.Store(ctx, flags.Output, res.Data); err != nil {
		return err
	}

	fmt.Printf("Merged %d decks into %s (%d slides)\n", res.Sources, flags.Output, res.Slides)
	for _, issue := range res.Issues {
		fmt.Fprintf(os.Stderr, "  warning: %s\n", issue.Description)
	}
	return nil
}
