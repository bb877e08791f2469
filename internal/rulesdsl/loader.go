// Package rulesdsl loads user check packs written in YAML and turns them
// into rules.
package rulesdsl

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codewithboateng/jclgraph/internal/ir"
	"github.com/codewithboateng/jclgraph/internal/rules"
)

type dslPack struct {
	Rules []dslRule `yaml:"rules"`
}

type dslRule struct {
	ID       string `yaml:"id"`
	Summary  string `yaml:"summary"`
	Type     string `yaml:"type"`     // LINEAGE|QUALITY
	Severity string `yaml:"severity"` // LOW|MEDIUM|HIGH
	Message  string `yaml:"message"`

	Where struct {
		Program  string `yaml:"program"`  // regex (case-insensitive)
		Role     string `yaml:"role"`     // regex on DD name (optional)
		Resource string `yaml:"resource"` // regex on dataset name (optional)
	} `yaml:"where"`
}

type compiled struct {
	rule       dslRule
	reProgram  *regexp.Regexp
	reRole     *regexp.Regexp
	reResource *regexp.Regexp
}

// Load reads a pack file and compiles its rules.
func Load(path string) ([]rules.Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules pack: %w", err)
	}
	return Parse(b)
}

// Parse compiles the rules of a pack document.
func Parse(b []byte) ([]rules.Rule, error) {
	var pack dslPack
	if err := yaml.Unmarshal(b, &pack); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	out := make([]rules.Rule, 0, len(pack.Rules))
	for _, r := range pack.Rules {
		cr, err := compile(r)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.ID, err)
		}
		out = append(out, cr.toRule())
	}
	return out, nil
}

// LoadAndRegister adds every rule of the pack at path to reg.
func LoadAndRegister(reg *rules.Registry, path string) (int, error) {
	rs, err := Load(path)
	if err != nil {
		return 0, err
	}
	var n int
	for _, r := range rs {
		if err := reg.Register(r); err != nil {
			return n, fmt.Errorf("%s: %w", path, err)
		}
		n++
	}
	return n, nil
}

func compile(r dslRule) (*compiled, error) {
	if r.ID == "" || r.Type == "" || r.Severity == "" || r.Message == "" {
		return nil, fmt.Errorf("missing required fields (id/type/severity/message)")
	}
	c := &compiled{rule: r}
	var err error
	if c.reProgram, err = optionalRegex(r.Where.Program); err != nil {
		return nil, fmt.Errorf("program regex: %w", err)
	}
	if c.reRole, err = optionalRegex(r.Where.Role); err != nil {
		return nil, fmt.Errorf("role regex: %w", err)
	}
	if c.reResource, err = optionalRegex(r.Where.Resource); err != nil {
		return nil, fmt.Errorf("resource regex: %w", err)
	}
	return c, nil
}

func optionalRegex(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	return regexp.Compile("(?i)" + expr)
}

func (c compiled) toRule() rules.Rule {
	typ := strings.ToUpper(c.rule.Type)
	sev := strings.ToUpper(c.rule.Severity)
	return rules.Rule{
		ID:       c.rule.ID,
		Summary:  c.rule.Summary,
		Type:     typ,
		Severity: sev,
		Eval: func(job *ir.Job, _ *rules.Env) []ir.Finding {
			var out []ir.Finding
			for _, st := range job.Steps {
				// program match
				if c.reProgram != nil && !c.reProgram.MatchString(st.Program) {
					continue
				}
				// role and resource must hold for the same DD
				var hit *ir.Resource
				if c.reRole != nil || c.reResource != nil {
					for k := range st.Resources {
						r := &st.Resources[k]
						if c.reRole != nil && !c.reRole.MatchString(r.Role) {
							continue
						}
						if c.reResource != nil && !c.reResource.MatchString(r.Name) {
							continue
						}
						hit = r
						break
					}
					if hit == nil {
						continue
					}
				}
				out = append(out, ir.Finding{
					RuleID:   c.rule.ID,
					Type:     typ,
					Severity: sev,
					Job:      job.Name,
					Step:     st.Name,
					Message:  c.rule.Message,
					Evidence: evidenceFor(st, hit),
				})
			}
			return out
		},
	}
}

func evidenceFor(st ir.Step, hit *ir.Resource) string {
	parts := []string{"PGM=" + st.Program}
	if hit != nil {
		parts = append(parts, "DD="+hit.Role, "DSN="+hit.Name)
	}
	return strings.Join(parts, " | ")
}
