package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codewithboateng/jclgraph/internal/shared"
	"github.com/codewithboateng/jclgraph/internal/storage"
)

// Set at build time via -ldflags.
var (
	Version   = "0.3.0-dev"
	GitCommit = ""
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	keyColor  = color.New(color.FgCyan)
)

var rootCmd = &cobra.Command{
	Use:   "jclgraph",
	Short: "Static dependency analysis for JCL job streams and COBOL programs",
	Long: `jclgraph resolves JCL job streams, including procedure calls and symbolic
parameters, extracts COBOL program metadata and renders the resulting
job / program / dataset dependency graph.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = Version

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to YAML or TOML config (optional)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and installs the logger. Flag values win over
// the config, which already folds in environment overrides. The returned
// closer releases the session log file, if any.
func setup(cmd *cobra.Command, logName string) (shared.Config, *slog.Logger, func(), error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := shared.LoadConfig(path)
	if err != nil {
		return cfg, nil, nil, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.DSN = db
	}
	switch mode, _ := cmd.Flags().GetString("color"); mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}

	closer := func() {}
	var extra []io.Writer
	if logName != "" && cfg.Logging.FileDir != "" {
		if err := os.MkdirAll(cfg.Logging.FileDir, 0o755); err != nil {
			return cfg, nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		name := fmt.Sprintf("%s-%s.log", logName, time.Now().UTC().Format("20060102-150405"))
		f, err := os.Create(filepath.Join(cfg.Logging.FileDir, name))
		if err != nil {
			return cfg, nil, nil, fmt.Errorf("create log file: %w", err)
		}
		extra = append(extra, f)
		closer = func() { _ = f.Close() }
	}
	logger := shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level, extra...)
	return cfg, logger, closer, nil
}

func openDB(cfg shared.Config) (*storage.DB, error) {
	db, err := storage.OpenSQLite(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.CreateSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db schema: %w", err)
	}
	return db, nil
}

// resolveRunID returns id, or the latest stored run when id is empty.
func resolveRunID(db *storage.DB, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	latest, err := db.LatestRunID()
	if err != nil {
		return "", fmt.Errorf("no run given and no stored runs: %w", err)
	}
	return latest, nil
}

func printKV(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "  %s %v\n", keyColor.Sprintf("%-12s", key+":"), value)
}
