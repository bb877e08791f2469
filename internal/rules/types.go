package rules

import (
	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
)

// Finding types.
const (
	TypeLineage = "LINEAGE"
	TypeQuality = "QUALITY"
)

// Rule represents a single analysis check executed over a Job.
type Rule struct {
	ID       string
	Summary  string
	Type     string
	Severity string
	// Eval inspects the job within the run and returns findings.
	Eval func(job *ir.Job, env *Env) []ir.Finding
}

// Env carries run-wide facts a rule may need beyond its own job.
type Env struct {
	Run  *ir.Run
	Meta graph.MetadataSource // nil when no program metadata was loaded

	producers map[string]bool // upper-cased resource names written by any step
}

func newEnv(run *ir.Run, meta graph.MetadataSource) *Env {
	e := &Env{Run: run, Meta: meta, producers: map[string]bool{}}
	for _, job := range run.Jobs {
		for _, st := range job.Steps {
			for _, r := range st.Resources {
				if !graph.IsInput(r.Role) {
					e.producers[normDataset(r.Name)] = true
				}
			}
		}
	}
	return e
}

// Produced reports whether any step of the run writes the resource.
func (e *Env) Produced(name string) bool { return e.producers[normDataset(name)] }

// HasMetadata reports whether a non-empty metadata source is attached.
func (e *Env) HasMetadata() bool {
	return e.Meta != nil && len(e.Meta.All()) > 0
}
