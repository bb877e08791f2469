package parser

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/codewithboateng/jclgraph/internal/ir"
	"github.com/codewithboateng/jclgraph/internal/shared"
)

// DefaultExtensions are the JCL and PROCLIB member suffixes scanned when
// Options.Extensions is empty.
var DefaultExtensions = []string{".jcl", ".txt", ".prc", ".proc"}

type Options struct {
	Extensions []string
	ProcLibs   []string
	Workers    int
	Logger     *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// ParseText runs both passes over one unit. Templates defined in the unit
// shadow same-named templates from lib for this unit only.
func ParseText(filename, text string, lib Library) (ir.Job, []ir.Diagnostic) {
	lines := Classify(text)
	local, consumed, diags := CollectTemplates(lines)
	steps, rdiags := Resolve(lines, consumed, lib.Merge(local))
	diags = append(diags, rdiags...)
	for i := range diags {
		diags[i].File = filename
	}
	base := filepath.Base(filename)
	return ir.Job{
		Name:     strings.TrimSuffix(base, filepath.Ext(base)),
		Filename: filename,
		Steps:    steps,
	}, diags
}

// Parse reads every JCL unit under the source paths and resolves its steps.
// Units are parsed concurrently; jobs come back in path order. Unreadable
// units and missing paths become diagnostics, never errors. Units that
// resolve to no steps (for example pure procedure members) are skipped.
func Parse(ctx context.Context, sources []string, opts Options) (ir.Run, []ir.Diagnostic) {
	log := opts.logger()
	var run ir.Run
	run.IRVersion = ir.Version
	run.Source = strings.Join(sources, ",")
	run.Context.ProcLibs = opts.ProcLibs

	lib, diags := LoadLibrary(opts.ProcLibs, opts.Extensions)

	type unit struct{ path, name string }
	var units []unit
	for _, src := range sources {
		files, err := listFiles(src, opts.Extensions)
		if err != nil {
			diags = append(diags, ir.Diagnostic{
				File: src, Code: ir.DiagUnreadable, Severity: "WARN",
				Message: fmt.Sprintf("source path unavailable: %v", err),
			})
			continue
		}
		for _, f := range files {
			units = append(units, unit{path: f, name: relName(src, f)})
		}
	}

	type result struct {
		job   ir.Job
		diags []ir.Diagnostic
	}
	results := make([]result, len(units))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(workers, len(units))))
	for i, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, latin1, err := shared.ReadText(u.path)
			if err != nil {
				results[i].diags = []ir.Diagnostic{{
					File: u.name, Code: ir.DiagUnreadable, Severity: "WARN",
					Message: fmt.Sprintf("cannot read unit: %v", err),
				}}
				return nil
			}
			job, d := ParseText(u.name, text, lib)
			if latin1 {
				d = append([]ir.Diagnostic{{
					File: u.name, Code: ir.DiagEncoding, Severity: "INFO",
					Message: "not valid UTF-8; decoded as ISO-8859-1",
				}}, d...)
			}
			results[i] = result{job: job, diags: d}
			log.Debug("jcl unit parsed", "file", u.name, "steps", len(job.Steps), "diagnostics", len(d))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		diags = append(diags, ir.Diagnostic{
			Code: ir.DiagUnreadable, Severity: "WARN",
			Message: fmt.Sprintf("parse interrupted: %v", err),
		})
	}

	for _, r := range results {
		diags = append(diags, r.diags...)
		if len(r.job.Steps) > 0 {
			run.Jobs = append(run.Jobs, r.job)
		}
	}
	if len(run.Jobs) == 0 {
		diags = append(diags, ir.Diagnostic{
			Code: ir.DiagNoSources, Severity: "WARN",
			Message: "no JCL-like files found or no steps resolved",
		})
	}
	return run, diags
}

// LoadLibrary collects templates from procedure library directories. An
// unnamed PROC statement takes the member name.
func LoadLibrary(dirs, exts []string) (Library, []ir.Diagnostic) {
	lib := Library{}
	var diags []ir.Diagnostic
	for _, dir := range dirs {
		files, err := listFiles(dir, exts)
		if err != nil {
			diags = append(diags, ir.Diagnostic{
				File: dir, Code: ir.DiagUnreadable, Severity: "WARN",
				Message: fmt.Sprintf("procedure library unavailable: %v", err),
			})
			continue
		}
		for _, f := range files {
			text, _, err := shared.ReadText(f)
			if err != nil {
				diags = append(diags, ir.Diagnostic{
					File: f, Code: ir.DiagUnreadable, Severity: "WARN",
					Message: fmt.Sprintf("cannot read member: %v", err),
				})
				continue
			}
			member := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
			templates, _, d := CollectTemplates(Classify(text))
			for i := range d {
				d[i].File = relName(dir, f)
			}
			diags = append(diags, d...)
			for key, t := range templates {
				if key == "" {
					t.Name = strings.ToUpper(member)
					key = t.Name
				}
				lib[key] = t
			}
		}
	}
	return lib, diags
}

func listFiles(root string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return shared.ListFiles(root, exts)
}

func relName(root, p string) string { return shared.RelName(root, p) }
