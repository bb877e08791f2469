package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
)

type DiffReport struct {
	BaseID  string        `json:"base_id"`
	HeadID  string        `json:"head_id"`
	Summary DiffSummary   `json:"summary"`
	New     []diffFinding `json:"new"`
	Removed []diffFinding `json:"removed"`
	Changed []diffChanged `json:"changed"`
	Lineage LineageDiff   `json:"lineage"`
}

type DiffSummary struct {
	NewCount     int `json:"new"`
	RemovedCount int `json:"removed"`
	ChangedCount int `json:"changed"`
	EdgesAdded   int `json:"edges_added"`
	EdgesRemoved int `json:"edges_removed"`
}

// LineageDiff lists resource edges present in only one of two graphs.
type LineageDiff struct {
	Added   []graph.LineageEdge `json:"added"`
	Removed []graph.LineageEdge `json:"removed"`
}

type diffFinding struct {
	RuleID   string `json:"rule_id"`
	Job      string `json:"job"`
	Step     string `json:"step,omitempty"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`
}

type diffChanged struct {
	Key     string      `json:"key"`
	Base    diffFinding `json:"base"`
	Head    diffFinding `json:"head"`
	Changed []string    `json:"fields_changed"`
}

// Diff compares the findings and the lineage of two analyses.
func Diff(baseID, headID string, base, head Bundle) DiffReport {
	// index findings
	bm := map[string]ir.Finding{}
	hm := map[string]ir.Finding{}
	if base.Run != nil {
		for _, f := range base.Run.Findings {
			bm[keyOf(f)] = f
		}
	}
	if head.Run != nil {
		for _, f := range head.Run.Findings {
			hm[keyOf(f)] = f
		}
	}

	added := []diffFinding{}
	removed := []diffFinding{}
	changed := []diffChanged{}

	// additions & changes
	for k, hf := range hm {
		if bf, ok := bm[k]; !ok {
			added = append(added, asDiff(hf))
		} else {
			var fields []string
			if norm(bf.Severity) != norm(hf.Severity) {
				fields = append(fields, "severity")
			}
			if strings.TrimSpace(bf.Message) != strings.TrimSpace(hf.Message) {
				fields = append(fields, "message")
			}
			if len(fields) > 0 {
				changed = append(changed, diffChanged{
					Key:     k,
					Base:    asDiff(bf),
					Head:    asDiff(hf),
					Changed: fields,
				})
			}
		}
	}
	// removals
	for k, bf := range bm {
		if _, ok := hm[k]; !ok {
			removed = append(removed, asDiff(bf))
		}
	}

	// stable sort
	sort.Slice(added, func(i, j int) bool { return diffKey(added[i]) < diffKey(added[j]) })
	sort.Slice(removed, func(i, j int) bool { return diffKey(removed[i]) < diffKey(removed[j]) })
	sort.Slice(changed, func(i, j int) bool { return changed[i].Key < changed[j].Key })

	lin := DiffLineage(base.Graph, head.Graph)
	return DiffReport{
		BaseID: baseID, HeadID: headID,
		Summary: DiffSummary{
			NewCount:     len(added),
			RemovedCount: len(removed),
			ChangedCount: len(changed),
			EdgesAdded:   len(lin.Added),
			EdgesRemoved: len(lin.Removed),
		},
		New:     added,
		Removed: removed,
		Changed: changed,
		Lineage: lin,
	}
}

// DiffLineage compares resource edges by name. Either graph may be nil.
func DiffLineage(base, head *graph.Graph) LineageDiff {
	var bl, hl []graph.LineageEdge
	if base != nil {
		bl = base.Lineage()
	}
	if head != nil {
		hl = head.Lineage()
	}
	bs := make(map[string]bool, len(bl))
	for _, e := range bl {
		bs[e.Key()] = true
	}
	hs := make(map[string]bool, len(hl))
	for _, e := range hl {
		hs[e.Key()] = true
	}
	d := LineageDiff{Added: []graph.LineageEdge{}, Removed: []graph.LineageEdge{}}
	for _, e := range hl {
		if !bs[e.Key()] {
			d.Added = append(d.Added, e)
		}
	}
	for _, e := range bl {
		if !hs[e.Key()] {
			d.Removed = append(d.Removed, e)
		}
	}
	return d
}

func WriteDiffJSON(baseID, headID, outDir string, base, head Bundle) (string, error) {
	path := filepath.Join(outDir, "diff_"+baseID+"__"+headID+".json")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(Diff(baseID, headID, base, head), "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}

func keyOf(f ir.Finding) string {
	sb := strings.Builder{}
	sb.WriteString(norm(f.RuleID))
	sb.WriteByte('|')
	sb.WriteString(norm(f.Job))
	sb.WriteByte('|')
	sb.WriteString(norm(f.Step))
	sb.WriteByte('|')
	// evidence drives logical identity for many rules
	sb.WriteString(norm(f.Evidence))
	return sb.String()
}

func diffKey(f diffFinding) string {
	return f.RuleID + "|" + f.Job + "|" + f.Step + "|" + f.Message
}

func asDiff(f ir.Finding) diffFinding {
	return diffFinding{
		RuleID:   f.RuleID,
		Job:      f.Job,
		Step:     f.Step,
		Severity: f.Severity,
		Message:  f.Message,
	}
}

func norm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
