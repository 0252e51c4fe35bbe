// Package acquire fetches source decks for a merge. It owns every policy the
// merge engine deliberately ignores: how many inputs are accepted, where they
// may come from and how large they may be.
package acquire

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dusk-indust/deckmerge/internal/config"
)

var (
	// ErrNotAllowed is returned for locations outside the allow-list.
	ErrNotAllowed = errors.New("acquire: location not allowed")

	// ErrTooLarge is returned for sources above the size ceiling.
	ErrTooLarge = errors.New("acquire: source exceeds size limit")

	// ErrSourceCount is returned when too few or too many sources are given.
	ErrSourceCount = errors.New("acquire: unsupported number of sources")

	// ErrNotPresentation is returned for names without a .pptx extension.
	ErrNotPresentation = errors.New("acquire: not a .pptx file")
)

// Policy is the explicit acquisition configuration.
type Policy struct {
	// AllowedHosts lists hosts remote sources may be fetched from. A host
	// also admits its subdomains. Empty admits no remote source.
	AllowedHosts []string

	// AllowLocal admits file paths and file:// URLs.
	AllowLocal bool

	MaxSourceBytes int64
	MinSources     int
	MaxSources     int

	// Workers bounds concurrent downloads.
	Workers int
}

// PolicyFromConfig builds a Policy from service configuration.
func PolicyFromConfig(cfg config.Config) Policy {
	cfg = cfg.WithDefaults()
	return Policy{
		AllowedHosts:   cfg.AllowedHosts,
		AllowLocal:     cfg.AllowLocal,
		MaxSourceBytes: cfg.MaxSourceBytes,
		MinSources:     cfg.MinSources,
		MaxSources:     cfg.MaxSources,
		Workers:        cfg.Workers,
	}
}

// CheckCount validates the number of sources.
func (p Policy) CheckCount(n int) error {
	if p.MinSources > 0 && n < p.MinSources {
		return fmt.Errorf("%w: got %d, need at least %d", ErrSourceCount, n, p.MinSources)
	}
	if p.MaxSources > 0 && n > p.MaxSources {
		return fmt.Errorf("%w: got %d, at most %d accepted", ErrSourceCount, n, p.MaxSources)
	}
	return nil
}

// CheckName validates a source's file name.
func (p Policy) CheckName(name string) error {
	if !strings.HasSuffix(strings.ToLower(name), ".pptx") {
		return fmt.Errorf("%w: %s", ErrNotPresentation, name)
	}
	return nil
}

// CheckSize validates a source's size in bytes.
func (p Policy) CheckSize(n int64) error {
	if p.MaxSourceBytes > 0 && n > p.MaxSourceBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, n, p.MaxSourceBytes)
	}
	return nil
}

// CheckLocation validates where a source comes from.
func (p Policy) CheckLocation(location string) error {
	u, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotAllowed, location, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "", "file":
		if !p.AllowLocal {
			return fmt.Errorf("%w: local files are disabled", ErrNotAllowed)
		}
		return nil
	case "http", "https":
		if p.hostAllowed(u.Hostname()) {
			return nil
		}
		return fmt.Errorf("%w: host %q", ErrNotAllowed, u.Hostname())
	default:
		return fmt.Errorf("%w: scheme %q", ErrNotAllowed, u.Scheme)
	}
}

// CheckOutput validates where a merged deck may be written: a local .pptx
// path, and only when local files are admitted.
func (p Policy) CheckOutput(location string) error {
	if err := p.CheckName(baseName(location)); err != nil {
		return err
	}
	u, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotAllowed, location, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "", "file":
		if !p.AllowLocal {
			return fmt.Errorf("%w: local files are disabled", ErrNotAllowed)
		}
		return nil
	default:
		return fmt.Errorf("%w: output must be a local path, got scheme %q", ErrNotAllowed, u.Scheme)
	}
}

func (p Policy) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, allowed := range p.AllowedHosts {
		allowed = strings.ToLower(strings.TrimPrefix(allowed, "."))
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
