// Package template embeds the blank deck every merge starts from: one slide
// master with "Title Slide", "Title and Content" and "Blank" layouts, one
// theme, and a single empty slide on the Blank layout.
package template

import (
	"archive/zip"
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/dusk-indust/deckmerge/internal/opc"
)

// BlankFS contains the unzipped blank deck rooted at "blank".
//
//go:embed all:blank
var BlankFS embed.FS

const root = "blank"

// Bytes returns the blank deck as a zip container.
func Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	err := fs.WalkDir(BlankFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := BlankFS.ReadFile(p)
		if err != nil {
			return err
		}
		rel := p[len(root)+1:]
		w, err := zw.Create(rel)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("template: zip %s: %w", path.Clean(root), err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("template: zip: %w", err)
	}
	return buf.Bytes(), nil
}

// Open returns a fresh package holding the blank deck.
func Open() (*opc.Package, error) {
	data, err := Bytes()
	if err != nil {
		return nil, err
	}
	pkg, err := opc.Open(data)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	return pkg, nil
}
