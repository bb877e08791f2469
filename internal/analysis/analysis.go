// Package analysis runs the whole pipeline over one set of sources:
// JCL resolution, program metadata, graph synthesis and checks.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/codewithboateng/jclgraph/internal/cache"
	"github.com/codewithboateng/jclgraph/internal/cobol"
	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
	"github.com/codewithboateng/jclgraph/internal/parser"
	"github.com/codewithboateng/jclgraph/internal/rules"
	"github.com/codewithboateng/jclgraph/internal/rulesdsl"
)

type Options struct {
	Sources       []string
	ProcLibs      []string
	ProgramDirs   []string
	MetadataFiles []string
	Extensions    []string // JCL suffixes; empty uses parser.DefaultExtensions
	Workers       int
	Cache         *cache.Disk
	Rules         *rules.Registry // nil runs the built-in checks at LOW
	Waivers       []ir.Waiver     // findings matching an active waiver are dropped
	Logger        *slog.Logger

	// Fixed run identity, used by tests. Zero values are generated.
	RunID string
	Now   func() time.Time
}

type Result struct {
	Run   ir.Run
	Graph *graph.Graph
	Store *cobol.Store
}

// NewRegistry builds the check registry from settings and optional YAML
// check packs. A pack that fails to load is an error.
func NewRegistry(threshold string, disabled, packs []string) (*rules.Registry, error) {
	reg := rules.Default(rules.NewSettings(threshold, disabled))
	for _, p := range packs {
		if _, err := rulesdsl.LoadAndRegister(reg, p); err != nil {
			return nil, fmt.Errorf("check pack %s: %w", p, err)
		}
	}
	return reg, nil
}

// Analyze never fails over bad input: unreadable sources, unresolved
// symbols and id collisions are reported in Run.Diagnostics. The only
// error is cancellation of ctx.
func Analyze(ctx context.Context, opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	reg := opts.Rules
	if reg == nil {
		reg = rules.Default(rules.NewSettings("LOW", nil))
	}

	run, diags := parser.Parse(ctx, opts.Sources, parser.Options{
		Extensions: opts.Extensions,
		ProcLibs:   opts.ProcLibs,
		Workers:    opts.Workers,
		Logger:     log,
	})
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	run.ID = opts.RunID
	if run.ID == "" {
		run.ID = "run-" + uuid.NewString()
	}
	run.StartedAt = now().UTC()

	programs, pdiags := loadPrograms(ctx, opts, log)
	diags = append(diags, pdiags...)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	store := cobol.NewStore(programs)
	run.Programs = store.All()
	run.Context.ProgramSources = append(append([]string{}, opts.ProgramDirs...), opts.MetadataFiles...)

	g := graph.Build(run.Jobs, store)
	for _, c := range g.Collisions {
		diags = append(diags, ir.Diagnostic{
			Code: ir.DiagIDCollision, Severity: "INFO",
			Message: fmt.Sprintf("id %q already held by %s; %s renamed to %q", c.Base, c.Holder, c.Key, c.Assigned),
		})
	}

	settings := reg.Settings()
	run.Context.RuleSeverityThreshold = settings.SeverityThreshold
	for id := range settings.Disabled {
		run.Context.DisabledRules = append(run.Context.DisabledRules, id)
	}
	sort.Strings(run.Context.DisabledRules)

	run.Findings, run.Context.WaivedFindings = rules.ApplyWaivers(reg.Evaluate(&run, store), opts.Waivers, run.StartedAt)
	run.Diagnostics = diags

	log.Info("analysis finished",
		"run", run.ID,
		"jobs", len(run.Jobs),
		"programs", store.Len(),
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"findings", len(run.Findings),
		"waived", run.Context.WaivedFindings,
		"diagnostics", len(run.Diagnostics),
	)
	return Result{Run: run, Graph: g, Store: store}, nil
}

// loadPrograms extracts metadata from program directories, then appends
// pre-extracted metadata files. Later records win on duplicate ids.
func loadPrograms(ctx context.Context, opts Options, log *slog.Logger) ([]ir.Program, []ir.Diagnostic) {
	var (
		programs []ir.Program
		diags    []ir.Diagnostic
	)
	if len(opts.ProgramDirs) > 0 {
		programs, diags = cobol.ExtractDir(ctx, opts.ProgramDirs, cobol.Options{
			Workers: opts.Workers,
			Cache:   opts.Cache,
			Logger:  log,
		})
	}
	for _, path := range opts.MetadataFiles {
		ps, err := cobol.LoadMetadataJSON(path)
		if err != nil {
			code := ir.DiagMetadata
			if errors.Is(err, fs.ErrNotExist) {
				code = ir.DiagUnreadable
			}
			diags = append(diags, ir.Diagnostic{
				File: path, Code: code, Severity: "WARN",
				Message: fmt.Sprintf("metadata not loaded: %v", err),
			})
			continue
		}
		programs = append(programs, ps...)
	}
	return programs, diags
}
