package rules

import (
	"strings"

	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
)

func ruleTempUnwritten() Rule {
	return Rule{
		ID:       "DD-TEMP-DATASET-UNWRITTEN",
		Summary:  "Temporary dataset (&&) is read before any earlier step of the job writes it.",
		Type:     TypeLineage,
		Severity: "MEDIUM",
		Eval:     evalTempUnwritten,
	}
}

// Temporary datasets live for one job, so only earlier steps of the same
// job can produce them.
func evalTempUnwritten(job *ir.Job, _ *Env) []ir.Finding {
	var out []ir.Finding
	written := map[string]bool{}
	for _, st := range job.Steps {
		var outputs []string
		for _, r := range st.Resources {
			ds := normDataset(r.Name)
			if !strings.HasPrefix(ds, "&&") {
				continue
			}
			if !graph.IsInput(r.Role) {
				outputs = append(outputs, ds)
				continue
			}
			if written[ds] {
				continue
			}
			out = append(out, ir.Finding{
				RuleID:   "DD-TEMP-DATASET-UNWRITTEN",
				Type:     TypeLineage,
				Severity: "MEDIUM",
				Job:      job.Name,
				Step:     st.Name,
				Message:  "Temporary dataset is read but no earlier step of this job writes it.",
				Evidence: r.Role + "=" + r.Name,
			})
		}
		for _, ds := range outputs {
			written[ds] = true
		}
	}
	return out
}
