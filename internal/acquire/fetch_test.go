package acquire

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/deckmerge/internal/decktest"
	"github.com/dusk-indust/deckmerge/internal/opc"
)

func localPolicy() Policy {
	return Policy{AllowLocal: true, MinSources: 2, MaxSources: 4, MaxSourceBytes: 1 << 20, Workers: 2}
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFetch_PreservesOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"c.pptx", "a.pptx", "b.pptx"} {
		paths = append(paths, writeFile(t, dir, name, decktest.MustBuild(t, decktest.Slide{Title: name})))
	}

	sources, err := NewFetcher(localPolicy()).Fetch(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, "c.pptx", sources[0].Name)
	assert.Equal(t, "a.pptx", sources[1].Name)
	assert.Equal(t, "b.pptx", sources[2].Name)
	for _, src := range sources {
		_, err := opc.Open(src.Data)
		assert.NoError(t, err, src.Name)
	}
}

func TestFetch_PolicyViolations(t *testing.T) {
	dir := t.TempDir()
	deck := writeFile(t, dir, "a.pptx", []byte("x"))
	text := writeFile(t, dir, "notes.txt", []byte("x"))

	tests := []struct {
		name      string
		policy    Policy
		locations []string
		want      error
		message   string
	}{
		{name: "too few", policy: localPolicy(), locations: []string{deck}, want: ErrSourceCount},
		{name: "too many", policy: localPolicy(), locations: []string{deck, deck, deck, deck, deck}, want: ErrSourceCount},
		{name: "local disabled", policy: Policy{}, locations: []string{deck, deck}, want: ErrNotAllowed, message: "source 1: "},
		{name: "remote host", policy: localPolicy(), locations: []string{deck, "https://other.org/b.pptx"}, want: ErrNotAllowed, message: "source 2: "},
		{name: "wrong extension", policy: localPolicy(), locations: []string{deck, text}, want: ErrNotPresentation, message: "source 2: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFetcher(tt.policy).Fetch(context.Background(), tt.locations)
			require.ErrorIs(t, err, tt.want)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestFetch_TooLarge(t *testing.T) {
	dir := t.TempDir()
	small := writeFile(t, dir, "a.pptx", []byte("ok"))
	big := writeFile(t, dir, "b.pptx", make([]byte, 64))

	p := localPolicy()
	p.MaxSourceBytes = 32
	_, err := NewFetcher(p).Fetch(context.Background(), []string{small, big})
	require.ErrorIs(t, err, ErrTooLarge)
	assert.Contains(t, err.Error(), "source 2: ")
}

func TestFetch_Missing(t *testing.T) {
	dir := t.TempDir()
	deck := writeFile(t, dir, "a.pptx", []byte("x"))

	_, err := NewFetcher(localPolicy()).Fetch(context.Background(), []string{deck, filepath.Join(dir, "missing.pptx")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source 2: ")
}

func TestStoreLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pptx")
	data := decktest.MustBuild(t, decktest.Slide{Title: "stored"})

	require.NoError(t, Store(context.Background(), path, data))

	got, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
}

func TestFetchOne(t *testing.T) {
	dir := t.TempDir()
	data := decktest.MustBuild(t, decktest.Slide{Title: "one"})
	deck := writeFile(t, dir, "one.pptx", data)

	got, err := NewFetcher(localPolicy()).FetchOne(context.Background(), deck)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestFetchOne_PolicyViolations(t *testing.T) {
	dir := t.TempDir()
	deck := writeFile(t, dir, "a.pptx", []byte("x"))
	text := writeFile(t, dir, "notes.txt", []byte("x"))
	big := writeFile(t, dir, "big.pptx", make([]byte, 64))

	small := localPolicy()
	small.MaxSourceBytes = 16

	tests := []struct {
		name     string
		policy   Policy
		location string
		want     error
	}{
		{name: "local disabled", policy: Policy{}, location: deck, want: ErrNotAllowed},
		{name: "remote host", policy: localPolicy(), location: "https://evil.example/a.pptx", want: ErrNotAllowed},
		{name: "storage scheme", policy: localPolicy(), location: "s3://bucket/a.pptx", want: ErrNotAllowed},
		{name: "wrong extension", policy: localPolicy(), location: text, want: ErrNotPresentation},
		{name: "too large", policy: small, location: big, want: ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFetcher(tt.policy).FetchOne(context.Background(), tt.location)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFetcher_Store(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pptx")
	data := []byte("deck")

	require.NoError(t, NewFetcher(localPolicy()).Store(context.Background(), path, data))
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	blocked := filepath.Join(t.TempDir(), "blocked.pptx")
	err = NewFetcher(Policy{}).Store(context.Background(), blocked, data)
	require.ErrorIs(t, err, ErrNotAllowed)
	_, statErr := os.Stat(blocked)
	assert.True(t, os.IsNotExist(statErr))

	err = NewFetcher(localPolicy()).Store(context.Background(), "s3://bucket/out.pptx", data)
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "a.pptx", baseName("/tmp/x/a.pptx"))
	assert.Equal(t, "b.pptx", baseName("https://example.com/decks/b.pptx?v=1"))
	assert.Equal(t, "c.pptx", baseName("file:///tmp/c.pptx"))
}
