package inspect

import (
	"fmt"
	"path"
	"strings"

	"github.com/dusk-indust/deckmerge/internal/opc"
)

// Mermaid produces a Mermaid graph TD diagram of a package's relationship
// graph. Parts are grouped by directory; every internal relationship
// becomes an arrow and external targets are drawn as rounded nodes.
func Mermaid(pkg *opc.Package) string {
	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(name string) string {
		if id, ok := nodeIDs[name]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[name] = id
		return id
	}

	groups := make(map[string][]string)
	var dirs []string
	for _, p := range pkg.Parts() {
		dir := path.Dir(p.Name())
		if _, ok := groups[dir]; !ok {
			dirs = append(dirs, dir)
		}
		groups[dir] = append(groups[dir], p.Name())
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, dir := range dirs {
		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%.40s\"]\n", getID(dir+"_cluster"), dir))
		for _, name := range groups[dir] {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(name), path.Base(name)))
		}
		sb.WriteString("  end\n")
	}

	edges := func(rs *opc.Relationships) {
		src := getID(rs.Source())
		for _, rel := range rs.All() {
			if rel.External {
				id := getID("external:" + rel.Target)
				sb.WriteString(fmt.Sprintf("  %s -.->|%s| %s(\"%.40s\")\n", src, rel.Kind(), id, rel.Target))
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s -->|%s| %s\n", src, rel.Kind(), getID(rel.Target)))
		}
	}

	sb.WriteString(fmt.Sprintf("  %s((\"package\"))\n", getID(pkg.Rels().Source())))
	edges(pkg.Rels())
	for _, p := range pkg.Parts() {
		edges(p.Rels())
	}
	return sb.String()
}
