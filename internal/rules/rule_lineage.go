package rules

import (
	"strings"

	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
)

func ruleNeverProduced() Rule {
	return Rule{
		ID:       "DATASET-NEVER-PRODUCED",
		Summary:  "A dataset is read but no analyzed step writes it; it comes from outside the analyzed job set.",
		Type:     TypeLineage,
		Severity: "LOW",
		Eval:     evalNeverProduced,
	}
}

func evalNeverProduced(job *ir.Job, env *Env) []ir.Finding {
	var out []ir.Finding
	for _, st := range job.Steps {
		for _, r := range st.Resources {
			if !graph.IsInput(r.Role) || env.Produced(r.Name) || strings.HasPrefix(r.Name, "&&") {
				continue
			}
			out = append(out, ir.Finding{
				RuleID:   "DATASET-NEVER-PRODUCED",
				Type:     TypeLineage,
				Severity: "LOW",
				Job:      job.Name,
				Step:     st.Name,
				Message:  "Input dataset is not written by any analyzed step; its producer is external to this run.",
				Evidence: r.Role + "=" + r.Name,
			})
		}
	}
	return out
}

func ruleNoMetadata() Rule {
	return Rule{
		ID:       "PROGRAM-NO-METADATA",
		Summary:  "A step runs a program with no extracted metadata.",
		Type:     TypeLineage,
		Severity: "LOW",
		Eval:     evalNoMetadata,
	}
}

// evalNoMetadata reports each program once per job. It stays silent when
// no metadata was loaded at all.
func evalNoMetadata(job *ir.Job, env *Env) []ir.Finding {
	if !env.HasMetadata() {
		return nil
	}
	var out []ir.Finding
	seen := map[string]bool{}
	for _, st := range job.Steps {
		pgm := strings.ToUpper(st.Program)
		if seen[pgm] {
			continue
		}
		seen[pgm] = true
		if _, ok := env.Meta.Lookup(st.Program); ok {
			continue
		}
		out = append(out, ir.Finding{
			RuleID:   "PROGRAM-NO-METADATA",
			Type:     TypeLineage,
			Severity: "LOW",
			Job:      job.Name,
			Step:     st.Name,
			Message:  "No program metadata for this program; it is shown without dependency count or internal flow.",
			Evidence: "PGM=" + st.Program,
		})
	}
	return out
}

// Builtins returns the built-in checks.
func Builtins() []Rule {
	return []Rule{
		ruleSymbolUnresolved(),
		ruleDuplicateDataset(),
		ruleNeverProduced(),
		ruleNoMetadata(),
		ruleGDGRollOff(),
		ruleTempUnwritten(),
	}
}
