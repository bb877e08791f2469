// Package graph turns resolved jobs and program metadata into an abstract
// dependency graph. Renderers consume the model; nothing here knows about
// diagram syntax.
package graph

type NodeKind string

const (
	KindProgram   NodeKind = "program"
	KindResource  NodeKind = "resource"
	KindProcedure NodeKind = "procedure" // internal-flow node for a PERFORM target
)

type StyleClass string

const (
	ClassProgram StyleClass = "program"
	ClassFile    StyleClass = "file"
	ClassReport  StyleClass = "report"
)

type Node struct {
	ID    string     `json:"id" msgpack:"id"`
	Kind  NodeKind   `json:"kind" msgpack:"kind"`
	Label string     `json:"label" msgpack:"label"`
	Class StyleClass `json:"class" msgpack:"class"`

	Step         string `json:"step,omitempty" msgpack:"step,omitempty"`
	Program      string `json:"program,omitempty" msgpack:"program,omitempty"`
	Resource     string `json:"resource,omitempty" msgpack:"resource,omitempty"`
	Metadata     bool   `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
	Dependencies int    `json:"dependencies,omitempty" msgpack:"dependencies,omitempty"`
	FlowRef      string `json:"flow_ref,omitempty" msgpack:"flow_ref,omitempty"`
}

type Edge struct {
	From  string `json:"from" msgpack:"from"`
	To    string `json:"to" msgpack:"to"`
	Label string `json:"label" msgpack:"label"`
}

// Subgraph groups the nodes first introduced by one job.
type Subgraph struct {
	ID       string   `json:"id" msgpack:"id"`
	Label    string   `json:"label" msgpack:"label"`
	Filename string   `json:"filename" msgpack:"filename"`
	Nodes    []string `json:"nodes" msgpack:"nodes"`
}

// Flow is the internal-procedure diagram of one program.
type Flow struct {
	ID      string   `json:"id" msgpack:"id"`
	Program string   `json:"program" msgpack:"program"`
	Entry   string   `json:"entry" msgpack:"entry"`
	Steps   []string `json:"steps" msgpack:"steps"`
	Nodes   []Node   `json:"nodes" msgpack:"nodes"`
	Edges   []Edge   `json:"edges" msgpack:"edges"`
}

type Graph struct {
	Subgraphs  []Subgraph  `json:"subgraphs" msgpack:"subgraphs"`
	Nodes      []Node      `json:"nodes" msgpack:"nodes"`
	Edges      []Edge      `json:"edges" msgpack:"edges"`
	Flows      []Flow      `json:"flows,omitempty" msgpack:"flows,omitempty"`
	Collisions []Collision `json:"collisions,omitempty" msgpack:"collisions,omitempty"`

	index map[string]int
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	if g.index == nil || len(g.index) != len(g.Nodes) {
		g.index = make(map[string]int, len(g.Nodes))
		for i, n := range g.Nodes {
			g.index[n.ID] = i
		}
	}
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Flow returns the internal flow with the given id.
func (g *Graph) Flow(id string) (Flow, bool) {
	for _, f := range g.Flows {
		if f.ID == id {
			return f, true
		}
	}
	return Flow{}, false
}

// EdgesOf returns the edges touching id, in graph order.
func (g *Graph) EdgesOf(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == id || e.To == id {
			out = append(out, e)
		}
	}
	return out
}
