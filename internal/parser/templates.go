package parser

import (
	"fmt"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

// Template is a captured PROC ... PEND body. Resource names keep their
// symbolic references until a call site expands the template.
type Template struct {
	Name     string
	Line     int
	Defaults Params
	Steps    []ir.Step
}

// Library maps template names to templates.
type Library map[string]*Template

// Lookup finds a template by its exact name.
func (l Library) Lookup(name string) (*Template, bool) {
	t, ok := l[name]
	return t, ok
}

// Merge returns a new library holding l overlaid by over.
func (l Library) Merge(over Library) Library {
	out := make(Library, len(l)+len(over))
	for k, v := range l {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// CollectTemplates is the first pass over a unit. It returns the templates
// defined in it and the source line indices that belong to template bodies.
//
// Templates do not nest: a PROC opened while another is open replaces it.
// A template still open at end of input is kept as if closed there.
func CollectTemplates(lines []Line) (Library, map[int]bool, []ir.Diagnostic) {
	lib := Library{}
	consumed := map[int]bool{}
	var diags []ir.Diagnostic
	var open *Template

	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		switch {
		case ln.Kind == KindProcStart:
			if open != nil {
				diags = append(diags, ir.Diagnostic{
					Line: ln.Index, Code: ir.DiagNestedProc, Severity: "WARN",
					Message: fmt.Sprintf("PROC %s opened inside PROC %s; %s is discarded", ln.Label, open.Name, open.Name),
				})
			}
			open = &Template{Name: ln.Label, Line: ln.Index, Defaults: parseParams(ln.Operands)}
			consumed[ln.Index] = true

		case open == nil:
			continue

		case ln.Kind == KindProcEnd:
			consumed[ln.Index] = true
			lib[open.Name] = open
			open = nil

		case ln.Kind == KindExec:
			consumed[ln.Index] = true
			call := parseExec(ln.Operands)
			step := ir.Step{Name: stepLabel(ln.Label, len(open.Steps)+1), Program: call.Target, Line: ln.Index}
			j := i + 1
			for ; j < len(lines); j++ {
				next := lines[j]
				if next.Kind == KindExec || next.Kind == KindProcEnd || next.Kind == KindProcStart {
					break
				}
				consumed[next.Index] = true
				if next.Kind == KindDD {
					diags = append(diags, appendDD(&step, next)...)
				}
			}
			i = j - 1
			step.Ordinal = len(open.Steps) + 1
			open.Steps = append(open.Steps, step)

		default:
			consumed[ln.Index] = true
		}
	}

	if open != nil {
		diags = append(diags, ir.Diagnostic{
			Line: open.Line, Code: ir.DiagUnterminatedProc, Severity: "WARN",
			Message: fmt.Sprintf("PROC %s has no PEND; closed at end of input", open.Name),
		})
		lib[open.Name] = open
	}
	return lib, consumed, diags
}

// appendDD adds the dataset of a DD record to step. An unlabeled DD
// concatenates onto the previous DD name; with none before it, it is dropped.
func appendDD(step *ir.Step, ln Line) []ir.Diagnostic {
	dsn, ok := ddDataset(ln.Operands)
	if !ok {
		return nil
	}
	role := ln.Label
	if role == "" {
		if len(step.Resources) == 0 {
			return []ir.Diagnostic{unnamedDD(ln, step.Name)}
		}
		role = step.Resources[len(step.Resources)-1].Role
	}
	step.Resources = append(step.Resources, ir.Resource{Role: role, Name: dsn})
	return nil
}

func unnamedDD(ln Line, step string) ir.Diagnostic {
	return ir.Diagnostic{
		Line: ln.Index, Code: ir.DiagOrphanDD, Severity: "INFO",
		Message: fmt.Sprintf("unnamed DD in step %s has no DD name to concatenate onto; ignored", step),
	}
}

func stepLabel(label string, ordinal int) string {
	if label != "" {
		return label
	}
	return fmt.Sprintf("STEP%d", ordinal)
}
