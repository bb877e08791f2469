package rules

import (
	"regexp"
	"strings"

	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
)

// BASE(-1), BASE(0), BASE(+1)
var gdgRe = regexp.MustCompile(`^(.+)\(([+-]?\d+)\)\s*$`)

func ruleGDGRollOff() Rule {
	return Rule{
		ID:       "GDG-ROLLOFF-RISK",
		Summary:  "Job reads a prior generation of a GDG and writes a new one; verify roll-off logic.",
		Type:     TypeLineage,
		Severity: "MEDIUM",
		Eval:     evalGDGRollOff,
	}
}

func gdgGeneration(name string) (base, gen string, ok bool) {
	m := gdgRe.FindStringSubmatch(normDataset(name))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// evalGDGRollOff reports each GDG base once per job when the job consumes
// generation (0) or (-1) and produces (+1) or (0).
func evalGDGRollOff(job *ir.Job, _ *Env) []ir.Finding {
	reads := map[string][]string{}
	writes := map[string][]string{}
	seen := map[string]bool{}
	var order []string
	for _, st := range job.Steps {
		for _, r := range st.Resources {
			base, gen, ok := gdgGeneration(r.Name)
			if !ok {
				continue
			}
			if !seen[base] {
				seen[base] = true
				order = append(order, base)
			}
			ev := st.Name + "." + r.Role + "=" + r.Name
			switch {
			case graph.IsInput(r.Role) && (gen == "0" || gen == "-1"):
				reads[base] = append(reads[base], ev)
			case !graph.IsInput(r.Role) && (gen == "+1" || gen == "0"):
				writes[base] = append(writes[base], ev)
			}
		}
	}

	var out []ir.Finding
	for _, base := range order {
		if len(reads[base]) == 0 || len(writes[base]) == 0 {
			continue
		}
		out = append(out, ir.Finding{
			RuleID:   "GDG-ROLLOFF-RISK",
			Type:     TypeLineage,
			Severity: "MEDIUM",
			Job:      job.Name,
			Message:  "Reads and writes generations of the same GDG in one job; validate roll-off windows and restart behavior.",
			Evidence: "reads: " + strings.Join(reads[base], ", ") + " | writes: " + strings.Join(writes[base], ", "),
		})
	}
	return out
}
