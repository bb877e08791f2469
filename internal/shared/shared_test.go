package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "./jclgraph.db", cfg.Database.DSN)
	assert.Equal(t, []string{"json", "html", "mermaid"}, cfg.Reporting.Formats)
	assert.Equal(t, "LOW", cfg.Rules.SeverityThreshold)
	assert.Equal(t, 12*time.Hour, cfg.SessionDuration())
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "jclgraph.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  dsn: /var/lib/jclgraph.db
analysis:
  sources: [jcl, more]
  proclibs: [procs]
  workers: 3
rules:
  severity_threshold: MEDIUM
  disabled: [PROGRAM-NO-METADATA]
api:
  session_ttl: 30m
`), 0o644))
	t.Setenv("JCLGRAPH_WORKERS", "7")
	t.Setenv("JCLGRAPH_OUT_DIR", "/tmp/out")

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/jclgraph.db", cfg.Database.DSN)
	assert.Equal(t, []string{"jcl", "more"}, cfg.Analysis.Sources)
	assert.Equal(t, []string{"procs"}, cfg.Analysis.ProcLibs)
	assert.Equal(t, 7, cfg.Analysis.Workers)
	assert.Equal(t, "/tmp/out", cfg.Reporting.OutDir)
	assert.Equal(t, "MEDIUM", cfg.Rules.SeverityThreshold)
	assert.Equal(t, []string{"PROGRAM-NO-METADATA"}, cfg.Rules.Disabled)
	assert.Equal(t, 30*time.Minute, cfg.SessionDuration())
	assert.Equal(t, "json", cfg.Logging.Format, "unset keys keep defaults")
}

func TestLoadConfig_TOML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "jclgraph.toml")
	require.NoError(t, os.WriteFile(p, []byte(`
[analysis]
programs = ["cobol"]
metadata = "meta.json"

[cache]
disabled = true

[logging]
format = "text"
`), 0o644))
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"cobol"}, cfg.Analysis.Programs)
	assert.Equal(t, "meta.json", cfg.Analysis.Metadata)
	assert.True(t, cfg.Cache.Disabled)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadConfig_Invalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("analysis: [unclosed"), 0o644))
	_, err := LoadConfig(p)
	assert.ErrorContains(t, err, "parse yaml config")
}

func TestDecodeText(t *testing.T) {
	s, latin1, err := DecodeText([]byte("//A JOB\n"))
	require.NoError(t, err)
	assert.False(t, latin1)
	assert.Equal(t, "//A JOB\n", s)

	s, latin1, err = DecodeText([]byte("caf\xe9"))
	require.NoError(t, err)
	assert.True(t, latin1)
	assert.Equal(t, "café", s)
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JCL", "a.jcl", "sub/c.prc", "notes.md"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	files, err := ListFiles(dir, []string{".jcl", ".prc"})
	require.NoError(t, err)
	var rel []string
	for _, f := range files {
		rel = append(rel, RelName(dir, f))
	}
	assert.Equal(t, []string{"a.jcl", "b.JCL", "sub/c.prc"}, rel)

	single := filepath.Join(dir, "notes.md")
	files, err = ListFiles(single, []string{".jcl"})
	require.NoError(t, err)
	assert.Equal(t, []string{single}, files)
	assert.Equal(t, "notes.md", RelName(single, single))

	_, err = ListFiles(filepath.Join(dir, "missing"), nil)
	assert.Error(t, err)
}
