package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/jclgraph/internal/storage"
)

const unoscJob = `//UNOSCJOB JOB (1),'TEST'
//UNOSC   PROC
//S1      EXEC PGM=CMPINIT
//INFL    DD DSN=&RLE..DATA,DISP=SHR
//        PEND
//STEP02  EXEC UNOSC, RLE=MIDLANE
`

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCLI_AnalyzeReportQueryDiff(t *testing.T) {
	color.NoColor = true
	t.Setenv("JCLGRAPH_LOG_LEVEL", "error")

	tmp := t.TempDir()
	jcl := filepath.Join(tmp, "jcl")
	require.NoError(t, os.MkdirAll(jcl, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(jcl, "unosc.jcl"), []byte(unoscJob), 0o644))
	dbPath := filepath.Join(tmp, "runs.db")
	out := filepath.Join(tmp, "reports")

	got := execute(t, "", "analyze", "--db", dbPath, "--path", jcl, "--out", out,
		"--format", "json,graph,mermaid,msgpack", "--no-cache")
	assert.Contains(t, got, "Analyze OK")
	assert.Contains(t, got, "Findings:")

	db, err := storage.OpenSQLite(dbPath)
	require.NoError(t, err)
	runID, err := db.LatestRunID()
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.True(t, strings.HasPrefix(runID, "run-"))
	assert.FileExists(t, filepath.Join(out, runID+".graph.json"))
	assert.FileExists(t, filepath.Join(out, runID+".mmd"))

	got = execute(t, "", "report", "--db", dbPath, "--out", filepath.Join(tmp, "again"), "--format", "html")
	assert.Contains(t, got, "Report OK")
	assert.FileExists(t, filepath.Join(tmp, "again", runID+".html"))

	got = execute(t, "", "query", "--db", dbPath, "--compact", ".run.jobs[0].steps[0].resources[0].resource_name")
	assert.Equal(t, "\"MIDLANE.DATA\"\n", got)

	got = execute(t, "", "query", "--file", filepath.Join(out, runID+".mp"), "--compact", "[.graph.edges[].label]")
	assert.Equal(t, "[\"INFL\"]\n", got)

	got = execute(t, "", "diff", "--db", dbPath, "--base", runID, "--out", filepath.Join(tmp, "diff"))
	assert.Contains(t, got, "Diff OK")
	assert.FileExists(t, filepath.Join(tmp, "diff", "diff_"+runID+"__"+runID+".json"))

	got = execute(t, "s3cret\n", "user", "add", "ana", "--db", dbPath, "--role", "admin")
	assert.Contains(t, got, "User created")

	got = execute(t, "", "version")
	assert.Contains(t, got, Version)
}
