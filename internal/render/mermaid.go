package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/olehluchkiv/goimplements/internal/registry"
	"github.com/olehluchkiv/goimplements/internal/resolver"
)

const (
	interfaceStyle = "classDef interfaceStyle fill:#2374ab,stroke:#1a5a8a,color:#fff,stroke-width:2px,font-weight:bold"
	classStyle     = "classDef implStyle fill:#4a9c6d,stroke:#357a50,color:#fff,stroke-width:2px"
)

// diagram accumulates nodes and edges in first-seen order.
type diagram struct {
	nodes     []string
	isIface   map[string]bool
	seenNode  map[string]bool
	edges     []string
	seenEdges map[string]bool
}

func newDiagram() *diagram {
	return &diagram{
		isIface:   make(map[string]bool),
		seenNode:  make(map[string]bool),
		seenEdges: make(map[string]bool),
	}
}

func (g *diagram) node(name string, iface bool) {
	if !g.seenNode[name] {
		g.seenNode[name] = true
		g.nodes = append(g.nodes, name)
	}
	if iface {
		g.isIface[name] = true
	}
}

func (g *diagram) edge(line string) {
	if g.seenEdges[line] {
		return
	}
	g.seenEdges[line] = true
	g.edges = append(g.edges, line)
}

// writeMermaid draws subject, its ancestor classes, and every interface in m
// as a Mermaid classDiagram. Edges come from the registry; without one only
// subject --|> interface edges are drawn.
func writeMermaid(w io.Writer, subject string, m *resolver.Interfaces, reg Lookup) error {
	g := newDiagram()
	inResult := func(name string) bool {
		_, ok := m.Get(name)
		return ok
	}

	subj, known := lookup(reg, subject)
	g.node(subject, known && subj.IsInterface())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		g.node(pair.Key, true)
	}

	if !known {
		for pair := m.Oldest(); pair != nil; pair = pair.Next() {
			g.edge(fmt.Sprintf("%s --|> %s", NodeID(subject), NodeID(pair.Key)))
		}
	} else {
		// Walk the parent chain, stopping at the first unknown or repeated class.
		visited := make(map[string]bool)
		for d, ok := subj, true; ok && !visited[d.Name]; {
			visited[d.Name] = true
			g.node(d.Name, d.IsInterface())
			for _, iface := range d.Interfaces {
				if inResult(iface) {
					g.edge(fmt.Sprintf("%s --|> %s", NodeID(d.Name), NodeID(iface)))
				}
			}
			if d.Kind != registry.KindClass || d.Parent == "" {
				break
			}
			g.node(d.Parent, false)
			g.edge(fmt.Sprintf("%s <|-- %s", NodeID(d.Parent), NodeID(d.Name)))
			d, ok = lookup(reg, d.Parent)
		}
		for pair := m.Oldest(); pair != nil; pair = pair.Next() {
			d, ok := lookup(reg, pair.Key)
			if !ok {
				continue
			}
			for _, ext := range d.Interfaces {
				if inResult(ext) {
					g.edge(fmt.Sprintf("%s --|> %s", NodeID(pair.Key), NodeID(ext)))
				}
			}
		}
	}

	var b strings.Builder
	b.WriteString("classDiagram\n")
	b.WriteString("    direction LR\n")
	b.WriteString("    " + interfaceStyle + "\n")
	b.WriteString("    " + classStyle + "\n")
	for _, n := range g.nodes {
		id := NodeID(n)
		fmt.Fprintf(&b, "    class %s[\"%s\"]\n", id, escapeLabel(n))
		if g.isIface[n] {
			fmt.Fprintf(&b, "    <<interface>> %s\n", id)
		}
	}
	for _, e := range g.edges {
		b.WriteString("    " + e + "\n")
	}
	for _, n := range g.nodes {
		style := "implStyle"
		if g.isIface[n] {
			style = "interfaceStyle"
		}
		fmt.Fprintf(&b, "    cssClass \"%s\" %s\n", NodeID(n), style)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func lookup(reg Lookup, name string) (registry.Descriptor, bool) {
	if reg == nil {
		return registry.Descriptor{}, false
	}
	return reg.Lookup(name)
}

// idReplacer escapes "_" itself so that distinct names never share an ID.
var idReplacer = strings.NewReplacer("_", "__", "/", "_s", ".", "_d", "-", "_h", "\\", "_b")

// NodeID turns a class or interface name into a Mermaid node identifier.
func NodeID(name string) string {
	return idReplacer.Replace(name)
}

// escapeLabel keeps quotes from ending a node label early.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
