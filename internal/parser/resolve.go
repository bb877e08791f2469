package parser

import (
	"fmt"
	"strings"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

// Resolve is the second pass: it walks the records outside template bodies
// and produces the executed step sequence. Calls to a template in lib are
// expanded in place; any other EXEC is a direct program invocation that owns
// the DD records up to the next EXEC.
func Resolve(lines []Line, consumed map[int]bool, lib Library) ([]ir.Step, []ir.Diagnostic) {
	active := make([]Line, 0, len(lines))
	for _, ln := range lines {
		if !consumed[ln.Index] {
			active = append(active, ln)
		}
	}

	var (
		steps []ir.Step
		diags []ir.Diagnostic
	)
	for i := 0; i < len(active); i++ {
		ln := active[i]
		if ln.Kind == KindDD && len(steps) == 0 {
			diags = append(diags, ir.Diagnostic{
				Line: ln.Index, Code: ir.DiagOrphanDD, Severity: "INFO",
				Message: fmt.Sprintf("DD %s precedes any EXEC; ignored", ln.Label),
			})
			continue
		}
		if ln.Kind != KindExec {
			continue
		}

		var dds []Line
		j := i + 1
		for ; j < len(active) && active[j].Kind != KindExec; j++ {
			if active[j].Kind == KindDD {
				dds = append(dds, active[j])
			}
		}
		i = j - 1

		call := parseExec(ln.Operands)
		label := stepLabel(ln.Label, len(steps)+1)

		if tpl, ok := lib.Lookup(call.Target); ok {
			expanded, d := expand(label, tpl, call.Params, ln.Index)
			diags = append(diags, d...)
			diags = append(diags, applyOverrides(expanded, dds)...)
			for _, st := range expanded {
				st.Ordinal = len(steps) + 1
				steps = append(steps, st)
			}
			continue
		}

		st := ir.Step{Name: label, Program: call.Target, Line: ln.Index, Ordinal: len(steps) + 1}
		for _, dd := range dds {
			diags = append(diags, appendDD(&st, dd)...)
		}
		steps = append(steps, st)
	}
	return steps, diags
}

// expand instantiates tpl at a call site. Call parameters win over the
// template's PROC defaults.
func expand(call string, tpl *Template, params Params, line int) ([]ir.Step, []ir.Diagnostic) {
	values := tpl.Defaults.With(params)
	var diags []ir.Diagnostic
	report := func(names []string, where string) {
		for _, n := range names {
			diags = append(diags, ir.Diagnostic{
				Line: line, Code: ir.DiagUnresolvedSymbol, Severity: "WARN",
				Message: fmt.Sprintf("%s: no value for %s in call to %s (%s)", call, n, tpl.Name, where),
			})
		}
	}

	out := make([]ir.Step, 0, len(tpl.Steps))
	for _, ts := range tpl.Steps {
		pgm, un := Substitute(ts.Program, values)
		report(un, "PGM")
		st := ir.Step{
			Name:    call + "." + ts.Name,
			Program: pgm,
			Proc:    tpl.Name,
			Line:    line,
		}
		for _, r := range ts.Resources {
			name, un := Substitute(r.Name, values)
			report(un, ts.Name+"."+r.Role)
			st.Resources = append(st.Resources, ir.Resource{Role: r.Role, Name: name})
		}
		out = append(out, st)
	}
	return out, diags
}

// applyOverrides merges the DD records that follow a template call into the
// expanded steps. "PSTEP.DDNAME" targets the named template step; an
// unqualified name targets the first one. A matching DD name replaces the
// template's dataset, any other is added.
func applyOverrides(steps []ir.Step, dds []Line) []ir.Diagnostic {
	if len(steps) == 0 {
		return nil
	}
	var diags []ir.Diagnostic
	target := &steps[0]
	lastRole := ""
	for _, dd := range dds {
		role := dd.Label
		if pstep, r, ok := strings.Cut(dd.Label, "."); ok {
			role = r
			target = nil
			for k := range steps {
				if _, name, _ := strings.Cut(steps[k].Name, "."); name == pstep {
					target = &steps[k]
					break
				}
			}
			if target == nil {
				diags = append(diags, ir.Diagnostic{
					Line: dd.Index, Code: ir.DiagOrphanDD, Severity: "INFO",
					Message: fmt.Sprintf("override DD %s names no step of the called procedure; ignored", dd.Label),
				})
				target = &steps[0]
				continue
			}
		}
		dsn, ok := ddDataset(dd.Operands)
		if role == "" {
			role = lastRole
			if role == "" {
				if ok {
					diags = append(diags, unnamedDD(dd, target.Name))
				}
				continue
			}
		}
		lastRole = role
		if !ok {
			continue
		}
		replaced := false
		if dd.Label != "" {
			for k := range target.Resources {
				if target.Resources[k].Role == role {
					target.Resources[k] = ir.Resource{Role: target.Resources[k].Role, Name: dsn}
					replaced = true
					break
				}
			}
		}
		if !replaced {
			target.Resources = append(target.Resources, ir.Resource{Role: role, Name: dsn})
		}
	}
	return diags
}
