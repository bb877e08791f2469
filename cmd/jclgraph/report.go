package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/jclgraph/internal/reporting"
	"github.com/codewithboateng/jclgraph/internal/storage"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write reports for a stored run",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	f := reportCmd.Flags()
	f.String("run", "", "run id (default: latest)")
	f.String("out", "", "output directory")
	f.StringSlice("format", nil, "report formats: json,graph,html,mermaid,msgpack,programs")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, _, closeLog, err := setup(cmd, "")
	if err != nil {
		return err
	}
	defer closeLog()

	f := cmd.Flags()
	if f.Changed("out") {
		cfg.Reporting.OutDir, _ = f.GetString("out")
	}
	if f.Changed("format") {
		cfg.Reporting.Formats, _ = f.GetStringSlice("format")
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	id, _ := f.GetString("run")
	b, err := loadBundle(db, id)
	if err != nil {
		return err
	}

	paths, err := reporting.WriteAll(b.Run.ID, cfg.Reporting.OutDir, b, cfg.Reporting.Formats,
		reporting.HTMLOptions{TemplatesDir: cfg.Reporting.TemplatesDir})
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	okColor.Fprintln(w, "Report OK")
	printKV(w, "Run", b.Run.ID)
	for _, p := range paths {
		printKV(w, "Report", p)
	}
	return nil
}

// loadBundle reads a stored run and its graph. An empty id means the
// latest run.
func loadBundle(db *storage.DB, id string) (reporting.Bundle, error) {
	id, err := resolveRunID(db, id)
	if err != nil {
		return reporting.Bundle{}, err
	}
	run, err := db.LoadRun(id)
	if err != nil {
		return reporting.Bundle{}, fmt.Errorf("load run %s: %w", id, err)
	}
	g, err := db.LoadGraph(id)
	if err != nil {
		return reporting.Bundle{}, fmt.Errorf("load graph %s: %w", id, err)
	}
	return reporting.Bundle{Run: &run, Graph: g}, nil
}
