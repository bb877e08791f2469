package rules

import (
	"strings"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

func ruleSymbolUnresolved() Rule {
	return Rule{
		ID:       "SYMBOL-UNRESOLVED",
		Summary:  "A dataset or program name still carries a symbolic parameter after expansion.",
		Type:     TypeLineage,
		Severity: "MEDIUM",
		Eval:     evalSymbolUnresolved,
	}
}

func evalSymbolUnresolved(job *ir.Job, _ *Env) []ir.Finding {
	var out []ir.Finding
	for _, st := range job.Steps {
		var ev []string
		if hasSymbol(st.Program) {
			ev = append(ev, "PGM="+st.Program)
		}
		for _, r := range st.Resources {
			if hasSymbol(r.Name) {
				ev = append(ev, r.Role+"="+r.Name)
			}
		}
		if len(ev) == 0 {
			continue
		}
		out = append(out, ir.Finding{
			RuleID:   "SYMBOL-UNRESOLVED",
			Type:     TypeLineage,
			Severity: "MEDIUM",
			Job:      job.Name,
			Step:     st.Name,
			Message:  "Symbolic parameter has no value at this call site; lineage through this name is incomplete.",
			Evidence: strings.Join(ev, ", "),
			Metadata: map[string]any{"proc": st.Proc, "line": st.Line},
		})
	}
	return out
}

// hasSymbol reports a single '&' followed by a name character. "&&TEMP"
// temporary dataset names do not count.
func hasSymbol(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '&' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '&' {
			i++
			continue
		}
		if i+1 < len(s) && isNameChar(s[i+1]) {
			return true
		}
	}
	return false
}

func isNameChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' ||
		c == '@' || c == '#' || c == '$' || c == '_'
}
