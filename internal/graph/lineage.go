package graph

import "sort"

// LineageEdge is an edge restated by names instead of ids, so that two
// graphs built from different inputs can be compared.
type LineageEdge struct {
	Resource  string `json:"resource" msgpack:"resource"`
	Step      string `json:"step" msgpack:"step"`
	Program   string `json:"program" msgpack:"program"`
	Role      string `json:"role" msgpack:"role"`
	Direction string `json:"direction" msgpack:"direction"` // IN|OUT, seen from the program
}

func (e LineageEdge) Key() string {
	return e.Direction + "|" + e.Resource + "|" + e.Step + "|" + e.Program + "|" + e.Role
}

// Lineage lists the resource edges of the graph sorted by resource, then
// step, program, role and direction.
func (g *Graph) Lineage() []LineageEdge {
	out := make([]LineageEdge, 0, len(g.Edges))
	for _, e := range g.Edges {
		from, ok1 := g.Node(e.From)
		to, ok2 := g.Node(e.To)
		if !ok1 || !ok2 {
			continue
		}
		switch {
		case from.Kind == KindResource && to.Kind == KindProgram:
			out = append(out, LineageEdge{Resource: from.Resource, Step: to.Step, Program: to.Program, Role: e.Label, Direction: "IN"})
		case from.Kind == KindProgram && to.Kind == KindResource:
			out = append(out, LineageEdge{Resource: to.Resource, Step: from.Step, Program: from.Program, Role: e.Label, Direction: "OUT"})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Resource != b.Resource {
			return a.Resource < b.Resource
		}
		return a.Key() < b.Key()
	})
	return out
}
