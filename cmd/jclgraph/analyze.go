package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/jclgraph/internal/analysis"
	"github.com/codewithboateng/jclgraph/internal/cache"
	"github.com/codewithboateng/jclgraph/internal/reporting"
	"github.com/codewithboateng/jclgraph/internal/shared"
	"github.com/codewithboateng/jclgraph/internal/storage"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Resolve JCL sources, build the dependency graph and store the run",
	Long: `Analyze resolves every JCL unit under the source paths, expands procedure
calls, extracts COBOL program metadata, evaluates checks, stores the run in
the database and writes the requested reports.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringSlice("path", nil, "JCL source directory or file (repeatable)")
	f.StringSlice("proclib", nil, "procedure library directory (repeatable)")
	f.StringSlice("programs", nil, "COBOL source directory (repeatable)")
	f.String("metadata", "", "pre-extracted program metadata JSON")
	f.String("out", "", "output directory for reports")
	f.StringSlice("format", nil, "report formats: json,graph,html,mermaid,msgpack,programs")
	f.String("severity", "", "minimum finding severity (LOW|MEDIUM|HIGH)")
	f.StringSlice("rules-pack", nil, "YAML check pack (repeatable)")
	f.Int("workers", 0, "parallel file workers (0 = GOMAXPROCS)")
	f.Bool("no-cache", false, "do not use the program metadata cache")
	f.Bool("no-db", false, "do not store the run")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, logger, closeLog, err := setup(cmd, "analyze")
	if err != nil {
		return err
	}
	defer closeLog()

	f := cmd.Flags()
	if f.Changed("path") {
		cfg.Analysis.Sources, _ = f.GetStringSlice("path")
	}
	if f.Changed("proclib") {
		cfg.Analysis.ProcLibs, _ = f.GetStringSlice("proclib")
	}
	if f.Changed("programs") {
		cfg.Analysis.Programs, _ = f.GetStringSlice("programs")
	}
	if f.Changed("metadata") {
		cfg.Analysis.Metadata, _ = f.GetString("metadata")
	}
	if f.Changed("out") {
		cfg.Reporting.OutDir, _ = f.GetString("out")
	}
	if f.Changed("format") {
		cfg.Reporting.Formats, _ = f.GetStringSlice("format")
	}
	if f.Changed("severity") {
		cfg.Rules.SeverityThreshold, _ = f.GetString("severity")
	}
	if f.Changed("rules-pack") {
		cfg.Rules.Packs, _ = f.GetStringSlice("rules-pack")
	}
	if f.Changed("workers") {
		cfg.Analysis.Workers, _ = f.GetInt("workers")
	}
	if noCache, _ := f.GetBool("no-cache"); noCache {
		cfg.Cache.Disabled = true
	}
	noDB, _ := f.GetBool("no-db")

	if len(cfg.Analysis.Sources) == 0 {
		return fmt.Errorf("analyze: --path (or analysis.sources in config) is required")
	}

	reg, err := analysis.NewRegistry(cfg.Rules.SeverityThreshold, cfg.Rules.Disabled, cfg.Rules.Packs)
	if err != nil {
		return err
	}

	var metaFiles []string
	if cfg.Analysis.Metadata != "" {
		metaFiles = []string{cfg.Analysis.Metadata}
	}
	opts := analysis.Options{
		Sources:       cfg.Analysis.Sources,
		ProcLibs:      cfg.Analysis.ProcLibs,
		ProgramDirs:   cfg.Analysis.Programs,
		MetadataFiles: metaFiles,
		Extensions:    cfg.Analysis.Extensions,
		Workers:       cfg.Analysis.Workers,
		Rules:         reg,
		Logger:        logger,
	}
	if !cfg.Cache.Disabled && len(cfg.Analysis.Programs) > 0 {
		if opts.Cache, err = openCache(cfg); err != nil {
			logger.Warn("metadata cache disabled", "err", err)
		}
	}

	var db *storage.DB
	if !noDB {
		if db, err = openDB(cfg); err != nil {
			return err
		}
		defer db.Close()
		if opts.Waivers, err = db.ListWaivers(true); err != nil {
			return fmt.Errorf("load waivers: %w", err)
		}
	}

	res, err := analysis.Analyze(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	run := res.Run

	dbPath := "-"
	if db != nil {
		if err := db.SaveRun(&run, res.Graph); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		dbPath = filepath.Clean(cfg.Database.DSN)
	}

	paths, err := reporting.WriteAll(run.ID, cfg.Reporting.OutDir,
		reporting.Bundle{Run: &run, Graph: res.Graph},
		cfg.Reporting.Formats,
		reporting.HTMLOptions{TemplatesDir: cfg.Reporting.TemplatesDir})
	if err != nil {
		return err
	}

	logger.Info("analyze complete",
		"run", run.ID,
		"jobs", len(run.Jobs),
		"findings", len(run.Findings),
		"reports", len(paths),
		"db", dbPath,
	)

	w := cmd.OutOrStdout()
	okColor.Fprintln(w, "Analyze OK")
	printKV(w, "Run", run.ID)
	printKV(w, "Jobs", len(run.Jobs))
	printKV(w, "Programs", res.Store.Len())
	printKV(w, "Nodes", len(res.Graph.Nodes))
	printKV(w, "Edges", len(res.Graph.Edges))
	printKV(w, "Findings", len(run.Findings))
	if run.Context.WaivedFindings > 0 {
		printKV(w, "Waived", run.Context.WaivedFindings)
	}
	if n := len(run.Diagnostics); n > 0 {
		printKV(w, "Diagnostics", warnColor.Sprint(n))
	} else {
		printKV(w, "Diagnostics", 0)
	}
	printKV(w, "DB", dbPath)
	for _, p := range paths {
		printKV(w, "Report", p)
	}
	return nil
}

func openCache(cfg shared.Config) (*cache.Disk, error) {
	dir := cfg.Cache.Dir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "jclgraph")
	}
	return cache.Open(dir)
}
