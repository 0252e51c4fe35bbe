package acquire

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/deckmerge/internal/orchestrator"
)

// Fetcher downloads source decks through an afs.Service, enforcing a Policy.
type Fetcher struct {
	policy Policy
	fs     afs.Service
}

// NewFetcher creates a Fetcher backed by the default afs service.
func NewFetcher(policy Policy) *Fetcher {
	return &Fetcher{policy: policy, fs: afs.New()}
}

// Fetch validates and downloads every location, preserving order. Policy
// violations are reported before any download starts.
func (f *Fetcher) Fetch(ctx context.Context, locations []string) ([]orchestrator.Source, error) {
	if err := f.policy.CheckCount(len(locations)); err != nil {
		return nil, err
	}
	urls := make([]string, len(locations))
	for i, loc := range locations {
		u, err := f.check(loc)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i+1, err)
		}
		urls[i] = u
	}

	sources := make([]orchestrator.Source, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	if f.policy.Workers > 0 {
		g.SetLimit(f.policy.Workers)
	}
	for i, u := range urls {
		g.Go(func() error {
			data, err := f.download(gctx, u)
			if err != nil {
				return fmt.Errorf("source %d: %w", i+1, err)
			}
			sources[i] = orchestrator.Source{Name: baseName(locations[i]), Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

// FetchOne validates and downloads a single deck, with the same location,
// name and size rules as Fetch but no count bounds.
func (f *Fetcher) FetchOne(ctx context.Context, location string) ([]byte, error) {
	u, err := f.check(location)
	if err != nil {
		return nil, err
	}
	return f.download(ctx, u)
}

// CheckOutput reports whether the policy admits location as an output.
func (f *Fetcher) CheckOutput(location string) error {
	return f.policy.CheckOutput(location)
}

// Store writes data to location once the policy admits it as an output.
func (f *Fetcher) Store(ctx context.Context, location string, data []byte) error {
	if err := f.CheckOutput(location); err != nil {
		return err
	}
	return Store(ctx, location, data)
}

// check validates one input location and returns its normalized URL.
func (f *Fetcher) check(location string) (string, error) {
	if err := f.policy.CheckLocation(location); err != nil {
		return "", err
	}
	if err := f.policy.CheckName(baseName(location)); err != nil {
		return "", err
	}
	return normalize(location)
}

func (f *Fetcher) download(ctx context.Context, u string) ([]byte, error) {
	// Reject by stat when the backend can report a size up front.
	if obj, err := f.fs.Object(ctx, u); err == nil {
		if err := f.policy.CheckSize(obj.Size()); err != nil {
			return nil, err
		}
	}
	data, err := f.fs.DownloadWithURL(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", u, err)
	}
	if err := f.policy.CheckSize(int64(len(data))); err != nil {
		return nil, err
	}
	log.Printf("acquire: url=%s bytes=%d", u, len(data))
	return data, nil
}

// Store writes data to a local path or storage URL.
func Store(ctx context.Context, location string, data []byte) error {
	u, err := normalize(location)
	if err != nil {
		return err
	}
	fs := afs.New()
	if err := fs.Upload(ctx, u, 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store %s: %w", location, err)
	}
	return nil
}

// Load reads a single local path or storage URL without policy checks. It
// is meant for operator-supplied inputs such as CLI arguments.
func Load(ctx context.Context, location string) ([]byte, error) {
	u, err := normalize(location)
	if err != nil {
		return nil, err
	}
	data, err := afs.New().DownloadWithURL(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}
	return data, nil
}

// normalize turns relative file paths into absolute ones; URLs pass through.
func normalize(location string) (string, error) {
	if strings.Contains(location, "://") {
		return location, nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", err
	}
	return abs, nil
}

func baseName(location string) string {
	if u, err := url.Parse(location); err == nil && u.Scheme != "" && u.Path != "" {
		return path.Base(u.Path)
	}
	return filepath.Base(location)
}
