package opc

import (
	"path"
	"strings"
)

// Zip entry names of the two package-level files.
const (
	contentTypesEntry = "[Content_Types].xml"
	rootRelsName      = "/_rels/.rels"
	rootSource        = "/"
)

// partName converts a zip entry name to an absolute part name.
func partName(entry string) string {
	return "/" + strings.TrimPrefix(entry, "/")
}

// entryName converts a part name to its zip entry name.
func entryName(name string) string {
	return strings.TrimPrefix(name, "/")
}

// relsName returns the name of the rels part holding source's relationships.
func relsName(source string) string {
	if source == rootSource {
		return rootRelsName
	}
	dir, base := path.Split(source)
	return dir + "_rels/" + base + ".rels"
}

// relsOwner is the inverse of relsName. ok is false when name is not a rels
// part.
func relsOwner(name string) (owner string, ok bool) {
	if name == rootRelsName {
		return rootSource, true
	}
	dir, base := path.Split(name)
	if !strings.HasSuffix(base, ".rels") || path.Base(dir) != "_rels" {
		return "", false
	}
	return path.Join(path.Dir(path.Clean(dir)), strings.TrimSuffix(base, ".rels")), true
}

// resolveTarget turns a relationship Target attribute into an absolute part
// name relative to the source part's directory.
func resolveTarget(source, target string) string {
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}
	if strings.HasPrefix(target, "/") {
		return path.Clean(target)
	}
	return path.Join(path.Dir(source), target)
}

// relativeTarget is the inverse of resolveTarget.
func relativeTarget(source, target string) string {
	from := splitPath(path.Dir(source))
	to := splitPath(target)

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}

	segs := make([]string, 0, len(from)-common+len(to)-common)
	for range from[common:] {
		segs = append(segs, "..")
	}
	segs = append(segs, to[common:]...)
	return strings.Join(segs, "/")
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}
