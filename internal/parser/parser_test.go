package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestParse_DirectoryWithProcLibrary(t *testing.T) {
	root := t.TempDir()
	jcl := filepath.Join(root, "jcl")
	procs := filepath.Join(root, "proclib")
	writeFiles(t, jcl, map[string]string{
		"b.jcl":          "//B JOB\n//S1 EXEC LOADER,ENV=PROD\n",
		"a.jcl":          "//A JOB\n//S1 EXEC PGM=FOO\n//OUTFL DD DSN=Z1.DATA\n",
		"notes.md":       "//S1 EXEC PGM=IGNORED\n",
		"only-procs.prc": "//P PROC\n//X EXEC PGM=Y\n// PEND\n",
	})
	writeFiles(t, procs, map[string]string{
		"loader.prc": "//        PROC ENV=TEST\n//L1 EXEC PGM=LOADPGM\n//INFL DD DSN=&ENV..Z1.DATA\n//        PEND\n",
	})

	run, diags := Parse(context.Background(), []string{jcl}, Options{ProcLibs: []string{procs}, Workers: 2})
	assert.Equal(t, ir.Version, run.IRVersion)
	require.Len(t, run.Jobs, 2)
	assert.Equal(t, "a.jcl", run.Jobs[0].Filename)
	assert.Equal(t, "b.jcl", run.Jobs[1].Filename)

	st := run.Jobs[1].Steps[0]
	assert.Equal(t, "S1.L1", st.Name)
	assert.Equal(t, "LOADPGM", st.Program)
	assert.Equal(t, "LOADER", st.Proc)
	assert.Equal(t, "PROD.Z1.DATA", st.Resources[0].Name)
	assert.False(t, hasDiag(diags, ir.DiagNoSources))
}

func TestParse_MissingSourceIsDiagnostic(t *testing.T) {
	run, diags := Parse(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, Options{})
	assert.Empty(t, run.Jobs)
	assert.True(t, hasDiag(diags, ir.DiagUnreadable))
	assert.True(t, hasDiag(diags, ir.DiagNoSources))
}

func TestParse_Latin1Fallback(t *testing.T) {
	dir := t.TempDir()
	content := []byte("//CAF\xe9 JOB (1),'CAF\xe9'\n//S1 EXEC PGM=FOO\n//INFL DD DSN=X.Y\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "l1.jcl"), content, 0o644))

	run, diags := Parse(context.Background(), []string{dir}, Options{})
	require.Len(t, run.Jobs, 1)
	assert.Equal(t, "FOO", run.Jobs[0].Steps[0].Program)
	assert.True(t, hasDiag(diags, ir.DiagEncoding))
}

func TestParse_OrderStableAcrossWorkerCounts(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{}
	for _, n := range []string{"j1", "j2", "j3", "j4", "j5", "j6"} {
		files[n+".jcl"] = "//" + n + " JOB\n//S1 EXEC PGM=" + n + "\n"
	}
	writeFiles(t, dir, files)

	one, _ := Parse(context.Background(), []string{dir}, Options{Workers: 1})
	many, _ := Parse(context.Background(), []string{dir}, Options{Workers: 8})
	assert.Equal(t, one.Jobs, many.Jobs)
}

// Arbitrary content must never panic either pass.
func FuzzParseText(f *testing.F) {
	seeds := []string{
		unoscJob,
		"//A JOB\n//S EXEC PGM=IEFBR14\n",
		"//P PROC\n//S EXEC PGM=X\n//D DD DSN=&&T&A..&\n",
		"garbage-but-should-not-panic\n",
		"//X EXEC P,K='\n//Y DD DSN=(,,\n",
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, data string) {
		_, _ = ParseText("fuzz.jcl", data, nil)
	})
}
