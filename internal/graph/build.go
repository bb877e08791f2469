package graph

import (
	"fmt"
	"strings"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

// MetadataSource is the read-only program metadata lookup used during
// synthesis. All returns one record per program id in input order.
type MetadataSource interface {
	Lookup(programID string) (ir.Program, bool)
	All() []ir.Program
}

func jobKey(filename string) string          { return "job:" + filename }
func programKey(step, program string) string { return "program:" + step + "|" + program }
func resourceKey(name string) string         { return "resource:" + name }
func flowKey(program string) string          { return "flow:" + program }
func performKey(program, perf string) string { return "perform:" + program + "|" + perf }
func flowEntryKey(program string) string     { return "entry:" + program }

// ResourceClass classifies a dataset name for styling. Matching is exact:
// "daily.report" is a file.
func ResourceClass(name string) StyleClass {
	if strings.Contains(name, "REPORT") || strings.Contains(name, "SYSOUT") {
		return ClassReport
	}
	return ClassFile
}

// IsInput reports whether a DD name marks a consumed dataset. Names are
// case-preserving, so "inx" is not an input.
func IsInput(role string) bool {
	return strings.HasPrefix(role, "IN")
}

type builder struct {
	g     *Graph
	reg   *Registry
	meta  MetadataSource
	edges map[Edge]bool
}

// Build synthesizes the dependency graph. meta may be nil. The result is a
// pure function of the inputs and their order.
func Build(jobs []ir.Job, meta MetadataSource) *Graph {
	b := &builder{g: &Graph{}, reg: NewRegistry(), meta: meta, edges: map[Edge]bool{}}

	for _, job := range jobs {
		sgID, _ := b.reg.ID(jobKey(job.Filename), job.Filename)
		sg := Subgraph{ID: sgID, Label: job.Name, Filename: job.Filename}
		for _, st := range job.Steps {
			pid, created := b.programNode(st)
			if created {
				sg.Nodes = append(sg.Nodes, pid)
			}
			for _, r := range st.Resources {
				rid, created := b.resourceNode(r.Name)
				if created {
					sg.Nodes = append(sg.Nodes, rid)
				}
				e := Edge{From: pid, To: rid, Label: r.Role}
				if IsInput(r.Role) {
					e = Edge{From: rid, To: pid, Label: r.Role}
				}
				b.addEdge(e)
			}
		}
		b.g.Subgraphs = append(b.g.Subgraphs, sg)
	}

	if meta != nil {
		seen := map[string]bool{}
		for _, p := range meta.All() {
			if len(p.Performs) == 0 || seen[p.ProgramID] {
				continue
			}
			seen[p.ProgramID] = true
			b.g.Flows = append(b.g.Flows, b.flow(p))
		}
	}

	b.g.Collisions = b.reg.Collisions()
	return b.g
}

func (b *builder) programNode(st ir.Step) (string, bool) {
	id, created := b.reg.ID(programKey(st.Name, st.Program), st.Name+"_"+st.Program)
	if !created {
		return id, false
	}
	n := Node{ID: id, Kind: KindProgram, Class: ClassProgram, Step: st.Name, Program: st.Program}
	label := []string{st.Name, st.Program}
	if b.meta != nil {
		if p, ok := b.meta.Lookup(st.Program); ok {
			n.Metadata = true
			n.Dependencies = p.DependencyCount()
			label = append(label, fmt.Sprintf("Copybooks: %d", n.Dependencies))
			if len(p.Performs) > 0 {
				n.FlowRef, _ = b.reg.ID(flowKey(p.ProgramID), "flow_"+p.ProgramID)
				label = append(label, "Flow: "+n.FlowRef)
			}
		}
	}
	n.Label = strings.Join(label, "\n")
	b.g.Nodes = append(b.g.Nodes, n)
	return id, true
}

func (b *builder) resourceNode(name string) (string, bool) {
	id, created := b.reg.ID(resourceKey(name), name)
	if created {
		b.g.Nodes = append(b.g.Nodes, Node{
			ID: id, Kind: KindResource, Label: name, Class: ResourceClass(name), Resource: name,
		})
	}
	return id, created
}

func (b *builder) addEdge(e Edge) {
	if b.edges[e] {
		return
	}
	b.edges[e] = true
	b.g.Edges = append(b.g.Edges, e)
}

// flow builds the internal-procedure diagram: the program as entry and one
// node and one edge per PERFORM target, in listed order.
func (b *builder) flow(p ir.Program) Flow {
	fid, _ := b.reg.ID(flowKey(p.ProgramID), "flow_"+p.ProgramID)
	entry, _ := b.reg.ID(flowEntryKey(p.ProgramID), p.ProgramID+"_entry")
	f := Flow{
		ID:      fid,
		Program: p.ProgramID,
		Entry:   entry,
		Nodes:   []Node{{ID: entry, Kind: KindProgram, Class: ClassProgram, Label: p.ProgramID, Program: p.ProgramID}},
	}
	for _, perf := range p.Performs {
		id, created := b.reg.ID(performKey(p.ProgramID, perf), p.ProgramID+"_"+perf)
		if !created {
			continue
		}
		f.Steps = append(f.Steps, id)
		f.Nodes = append(f.Nodes, Node{ID: id, Kind: KindProcedure, Class: ClassProgram, Label: perf, Program: p.ProgramID})
		f.Edges = append(f.Edges, Edge{From: entry, To: id, Label: "PERFORM"})
	}
	return f
}
