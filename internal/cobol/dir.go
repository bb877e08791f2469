package cobol

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/codewithboateng/jclgraph/internal/cache"
	"github.com/codewithboateng/jclgraph/internal/ir"
	"github.com/codewithboateng/jclgraph/internal/shared"
)

// Bump when Extract changes what it returns for the same input.
const cacheNamespace = "cobol/extract/v1"

type Options struct {
	Extensions []string
	Workers    int
	Cache      *cache.Disk // nil disables caching
	Logger     *slog.Logger
}

// ExtractDir extracts metadata from every source unit under dirs, in
// sorted path order per directory. Missing directories and unreadable
// files become diagnostics.
func ExtractDir(ctx context.Context, dirs []string, opts Options) ([]ir.Program, []ir.Diagnostic) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	var diags []ir.Diagnostic
	type unit struct{ path, name string }
	var units []unit
	for _, dir := range dirs {
		files, err := shared.ListFiles(dir, exts)
		if err != nil {
			diags = append(diags, ir.Diagnostic{
				File: dir, Code: ir.DiagUnreadable, Severity: "WARN",
				Message: fmt.Sprintf("program source path unavailable: %v", err),
			})
			continue
		}
		for _, f := range files {
			units = append(units, unit{path: f, name: shared.RelName(dir, f)})
		}
	}

	type result struct {
		prog  ir.Program
		ok    bool
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
			res := &results[i]
			b, err := os.ReadFile(u.path)
			if err != nil {
				res.diags = append(res.diags, ir.Diagnostic{
					File: u.name, Code: ir.DiagUnreadable, Severity: "WARN",
					Message: fmt.Sprintf("cannot read program source: %v", err),
				})
				return nil
			}

			key := cache.Key(cacheNamespace, b)
			var prog ir.Program
			hit, err := opts.Cache.Get(key, &prog)
			if err != nil {
				log.Warn("metadata cache read failed", "file", u.name, "error", err)
			}
			if !hit {
				text, latin1, err := shared.DecodeText(b)
				if err != nil {
					res.diags = append(res.diags, ir.Diagnostic{
						File: u.name, Code: ir.DiagUnreadable, Severity: "WARN",
						Message: fmt.Sprintf("cannot decode program source: %v", err),
					})
					return nil
				}
				if latin1 {
					res.diags = append(res.diags, ir.Diagnostic{
						File: u.name, Code: ir.DiagEncoding, Severity: "INFO",
						Message: "not valid UTF-8; decoded as ISO-8859-1",
					})
				}
				prog = Extract(u.name, text)
				if err := opts.Cache.Put(key, prog); err != nil {
					log.Warn("metadata cache write failed", "file", u.name, "error", err)
				}
			}
			prog.Filename = u.name

			if prog.Status != ir.StatusOK {
				res.diags = append(res.diags, ir.Diagnostic{
					File: u.name, Code: ir.DiagMetadata, Severity: "WARN",
					Message: "program metadata status " + prog.Status,
				})
			}
			res.prog, res.ok = prog, true
			log.Debug("program source extracted", "file", u.name, "program", prog.ProgramID, "cached", hit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		diags = append(diags, ir.Diagnostic{
			Code: ir.DiagUnreadable, Severity: "WARN",
			Message: fmt.Sprintf("extraction interrupted: %v", err),
		})
	}

	var progs []ir.Program
	for _, r := range results {
		diags = append(diags, r.diags...)
		if r.ok {
			progs = append(progs, r.prog)
		}
	}
	return progs, diags
}
