package rules

import (
	"fmt"
	"hash/crc32"
	"sort"
	"strings"

	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
)

// Registry holds the checks of one analysis. It is not safe for concurrent
// registration.
type Registry struct {
	rules    []Rule
	index    map[string]int // UPPER(ruleID) -> index
	settings Settings
}

func NewRegistry(s Settings) *Registry {
	if s.Disabled == nil {
		s.Disabled = map[string]bool{}
	}
	if s.SeverityThreshold == "" {
		s.SeverityThreshold = "LOW"
	}
	return &Registry{index: map[string]int{}, settings: s}
}

// Default returns a registry holding the built-in checks.
func Default(s Settings) *Registry {
	r := NewRegistry(s)
	for _, b := range Builtins() {
		_ = r.Register(b)
	}
	return r
}

// Register adds a rule. Rule ids are unique, ignoring case.
func (r *Registry) Register(rule Rule) error {
	key := strings.ToUpper(strings.TrimSpace(rule.ID))
	if key == "" || rule.Eval == nil {
		return fmt.Errorf("rule %q: id and eval are required", rule.ID)
	}
	if _, dup := r.index[key]; dup {
		return fmt.Errorf("rule %q already registered", rule.ID)
	}
	r.rules = append(r.rules, rule)
	r.index[key] = len(r.rules) - 1
	return nil
}

// List returns the enabled rules sorted by id.
func (r *Registry) List() []Rule {
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if r.settings.disabled(rule.ID) {
			continue
		}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a rule by ID if registered.
func (r *Registry) Get(id string) (Rule, bool) {
	idx, ok := r.index[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return Rule{}, false
	}
	return r.rules[idx], true
}

func (r *Registry) Settings() Settings { return r.settings }

// Evaluate runs every enabled rule over every job. Findings below the
// severity threshold are dropped. Finding ids are stable across runs over
// the same input and unique within the run.
func (r *Registry) Evaluate(run *ir.Run, meta graph.MetadataSource) []ir.Finding {
	var all []ir.Finding
	rs := r.List()
	env := newEnv(run, meta)

	seen := make(map[string]struct{}) // finding IDs seen in this run
	seq := 0

	put := func(id string) bool {
		if _, ok := seen[id]; ok {
			return false
		}
		seen[id] = struct{}{}
		return true
	}

	for i := range run.Jobs {
		job := &run.Jobs[i]
		for _, rule := range rs {
			fs := rule.Eval(job, env)
			kept := fs[:0]
			for k := range fs {
				f := fs[k]
				if f.Job == "" {
					f.Job = job.Name
				}
				if f.RuleID == "" {
					f.RuleID = rule.ID
				}
				if f.Severity == "" {
					f.Severity = rule.Severity
				}
				if f.Type == "" {
					f.Type = rule.Type
				}
				if !r.settings.severityOK(f.Severity) {
					continue
				}
				if f.ID == "" {
					f.ID = makeID(rule.ID, job.Name, f.Step, f.Evidence, k)
				}
				// Guarantee unique ID within the run
				if !put(f.ID) {
					for {
						seq++
						candidate := fmt.Sprintf("%s-%06d", rule.ID, seq)
						if put(candidate) {
							f.ID = candidate
							break
						}
					}
				}
				kept = append(kept, f)
			}
			all = append(all, kept...)
		}
	}

	// Stable order for reproducible outputs
	sort.SliceStable(all, func(i, j int) bool {
		ri, rj := severityRank(all[i].Severity), severityRank(all[j].Severity)
		if ri == rj {
			return all[i].ID < all[j].ID
		}
		return ri > rj
	})
	return all
}

func makeID(ruleID, job, step, evidence string, idx int) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d", ruleID, job, step, evidence, idx)
	sum := crc32.ChecksumIEEE([]byte(data))
	return fmt.Sprintf("%s-%08x", ruleID, sum)
}

func normDataset(name string) string { return strings.ToUpper(strings.TrimSpace(name)) }
