package reporting

import (
	"fmt"
	"strings"

	"github.com/codewithboateng/jclgraph/internal/graph"
)

var classDefs = []string{
	"classDef program fill:#f9f,stroke:#333,stroke-width:2px;",
	"classDef file fill:#ccf,stroke:#333,stroke-width:1px,stroke-dasharray: 5 5;",
	"classDef report fill:#efe,stroke:#333,stroke-width:1px;",
}

// FlowLink maps a flow id to the href of its page. Nil disables click
// links.
type FlowLink func(flowID string) string

// Mermaid renders the dependency graph as Mermaid flowchart text: one
// subgraph per job holding the nodes it introduced, then every edge.
func Mermaid(g *graph.Graph, link FlowLink) string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	for _, c := range classDefs {
		fmt.Fprintf(&b, "    %s\n", c)
	}
	placed := map[string]bool{}
	for _, sg := range g.Subgraphs {
		fmt.Fprintf(&b, "    subgraph %s[%s]\n", sg.ID, quote(sg.Filename))
		for _, id := range sg.Nodes {
			if n, ok := g.Node(id); ok {
				writeNode(&b, "        ", n)
				placed[id] = true
			}
		}
		b.WriteString("    end\n")
	}
	for _, n := range g.Nodes {
		if !placed[n.ID] {
			writeNode(&b, "    ", n)
		}
	}
	for _, e := range g.Edges {
		writeEdge(&b, e)
	}
	if link != nil {
		for _, n := range g.Nodes {
			if n.FlowRef == "" {
				continue
			}
			if _, ok := g.Flow(n.FlowRef); !ok {
				continue
			}
			fmt.Fprintf(&b, "    click %s href %s %s\n", n.ID, quote(link(n.FlowRef)), quote("Internal flow of "+n.Program))
		}
	}
	return b.String()
}

// FlowMermaid renders one internal flow: the program entry and its
// PERFORM targets.
func FlowMermaid(f graph.Flow) string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	fmt.Fprintf(&b, "    %s\n", classDefs[0])
	for _, n := range f.Nodes {
		if n.ID == f.Entry {
			fmt.Fprintf(&b, "    %s([%s]):::program\n", n.ID, quote(n.Label))
			continue
		}
		fmt.Fprintf(&b, "    %s[%s]\n", n.ID, quote(n.Label))
	}
	for _, e := range f.Edges {
		writeEdge(&b, e)
	}
	return b.String()
}

func writeNode(b *strings.Builder, indent string, n graph.Node) {
	label := quote(strings.ReplaceAll(n.Label, "\n", "<br/>"))
	switch n.Class {
	case graph.ClassReport:
		fmt.Fprintf(b, "%s%s(%s):::report\n", indent, n.ID, label)
	case graph.ClassFile:
		fmt.Fprintf(b, "%s%s[(%s)]:::file\n", indent, n.ID, label)
	default:
		fmt.Fprintf(b, "%s%s[%s]:::program\n", indent, n.ID, label)
	}
}

func writeEdge(b *strings.Builder, e graph.Edge) {
	if e.Label == "" {
		fmt.Fprintf(b, "    %s --> %s\n", e.From, e.To)
		return
	}
	fmt.Fprintf(b, "    %s -->|%s| %s\n", e.From, quote(e.Label), e.To)
}

// quote makes text safe inside a Mermaid string literal.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "#quot;") + `"`
}
