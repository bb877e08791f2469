package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/jclgraph/internal/reporting"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare findings and lineage of two stored runs",
	Args:  cobra.NoArgs,
	RunE:  runDiff,
}

func init() {
	f := diffCmd.Flags()
	f.String("base", "", "base run id")
	f.String("head", "", "head run id (default: latest)")
	f.String("out", "", "output directory")
}

func runDiff(cmd *cobra.Command, _ []string) error {
	cfg, _, closeLog, err := setup(cmd, "")
	if err != nil {
		return err
	}
	defer closeLog()

	f := cmd.Flags()
	if f.Changed("out") {
		cfg.Reporting.OutDir, _ = f.GetString("out")
	}
	baseID, _ := f.GetString("base")
	headID, _ := f.GetString("head")
	if baseID == "" {
		return fmt.Errorf("diff: --base is required")
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	base, err := loadBundle(db, baseID)
	if err != nil {
		return err
	}
	head, err := loadBundle(db, headID)
	if err != nil {
		return err
	}
	headID = head.Run.ID

	path, err := reporting.WriteDiffJSON(baseID, headID, cfg.Reporting.OutDir, base, head)
	if err != nil {
		return fmt.Errorf("write diff: %w", err)
	}
	s := reporting.Diff(baseID, headID, base, head).Summary

	w := cmd.OutOrStdout()
	okColor.Fprintln(w, "Diff OK")
	printKV(w, "Base", baseID)
	printKV(w, "Head", headID)
	printKV(w, "New", s.NewCount)
	printKV(w, "Removed", s.RemovedCount)
	printKV(w, "Changed", s.ChangedCount)
	printKV(w, "Edges +", s.EdgesAdded)
	printKV(w, "Edges -", s.EdgesRemoved)
	printKV(w, "Report", path)
	return nil
}
