package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/jclgraph/internal/query"
	"github.com/codewithboateng/jclgraph/internal/reporting"
)

var queryCmd = &cobra.Command{
	Use:   "query <jq-expression>",
	Short: "Evaluate a jq expression over a stored run",
	Long: `Query evaluates a jq expression against {"run": ..., "graph": ...} of a
stored run, or of a msgpack bundle written by "report --format msgpack".

Examples:
  jclgraph query '.graph.edges[] | select(.label == "INFL")'
  jclgraph query --file reports/run-1.mp '[.run.findings[].rule_id] | unique'`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.String("run", "", "run id (default: latest)")
	f.String("file", "", "msgpack bundle to query instead of the database")
	f.Bool("compact", false, "one result per line")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, _, closeLog, err := setup(cmd, "")
	if err != nil {
		return err
	}
	defer closeLog()

	f := cmd.Flags()
	file, _ := f.GetString("file")
	runID, _ := f.GetString("run")
	compact, _ := f.GetBool("compact")

	var b reporting.Bundle
	if file != "" {
		if b, err = reporting.ReadMsgpack(file); err != nil {
			return err
		}
	} else {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if b, err = loadBundle(db, runID); err != nil {
			return err
		}
	}

	doc, err := query.Document(b)
	if err != nil {
		return err
	}
	results, err := query.Eval(cmd.Context(), args[0], doc)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, r := range results {
		var out []byte
		if compact {
			out, err = json.Marshal(r)
		} else {
			out, err = json.MarshalIndent(r, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Fprintln(w, string(out))
	}
	return nil
}
