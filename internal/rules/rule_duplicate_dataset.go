package rules

import (
	"strings"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

func ruleDuplicateDataset() Rule {
	return Rule{
		ID:       "DD-DUPLICATE-DATASET",
		Summary:  "Multiple DDs reference the same dataset within a step; consider consolidation.",
		Type:     TypeQuality,
		Severity: "LOW",
		Eval:     evalDuplicateDataset,
	}
}

func evalDuplicateDataset(job *ir.Job, _ *Env) []ir.Finding {
	var out []ir.Finding
	for _, st := range job.Steps {
		dsCounts := make(map[string]int)
		var order []string
		for _, r := range st.Resources {
			ds := normDataset(r.Name)
			if ds == "" {
				continue
			}
			if dsCounts[ds] == 0 {
				order = append(order, ds)
			}
			dsCounts[ds]++
		}

		// Evidence for datasets used more than once in this step
		var ev []string
		for _, ds := range order {
			if dsCounts[ds] > 1 {
				ev = append(ev, ds)
			}
		}
		if len(ev) > 0 {
			out = append(out, ir.Finding{
				RuleID:   "DD-DUPLICATE-DATASET",
				Type:     TypeQuality,
				Severity: "LOW",
				Job:      job.Name,
				Step:     st.Name,
				Message:  "Same dataset referenced multiple times within the step; verify necessity to avoid serialization or confusion.",
				Evidence: strings.Join(ev, ", "),
			})
		}
	}
	return out
}
