package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dusk-indust/deckmerge/internal/acquire"
	"github.com/dusk-indust/deckmerge/internal/config"
	"github.com/dusk-indust/deckmerge/internal/httpapi"
)

func runServe(ctx context.Context, cfg config.Config) error {
	p := newPipeline(cfg, false)
	defer p.Close()

	var fetcher httpapi.Fetcher
	if cfg.AllowLocal || len(cfg.AllowedHosts) > 0 {
		fetcher = acquire.NewFetcher(acquire.PolicyFromConfig(cfg))
	}

	srv := httpapi.NewServer(cfg, p, fetcher)
	if err := srv.Start(ctx, cfg.Addr); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	log.Printf("serve: listening addr=%s", cfg.Addr)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
