package cobol

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/jclgraph/internal/cache"
	"github.com/codewithboateng/jclgraph/internal/ir"
)

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestExtractDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.cbl"), []byte(cmpinit))
	writeFile(t, filepath.Join(dir, "a.COB"), []byte("PROGRAM-ID. FIRST.\n PERFORM X.\n"))
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), []byte(" MOVE A TO B.\n"))
	writeFile(t, filepath.Join(dir, "skip.jcl"), []byte("PROGRAM-ID. NOPE.\n"))
	writeFile(t, filepath.Join(dir, "latin.cbl"), []byte("PROGRAM-ID. LATIN.\n* caf\xe9\n"))

	c, err := cache.Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	for _, workers := range []int{1, 4} {
		progs, diags := ExtractDir(context.Background(), []string{dir, filepath.Join(dir, "missing")}, Options{Workers: workers, Cache: c})

		var names, ids []string
		for _, p := range progs {
			names = append(names, p.Filename)
			ids = append(ids, p.ProgramID)
		}
		assert.Equal(t, []string{"a.COB", "b.cbl", "latin.cbl", "sub/c.txt"}, names)
		assert.Equal(t, []string{"FIRST", "CMPINIT", "LATIN", ir.UnknownProgramID}, ids)

		codes := map[string]int{}
		for _, d := range diags {
			codes[d.Code]++
		}
		assert.Equal(t, 1, codes[ir.DiagUnreadable])
		assert.Equal(t, 1, codes[ir.DiagMetadata])
	}

	entries, err := filepath.Glob(filepath.Join(c.Dir(), "*", "*.mp"))
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestExtractDir_CacheHitKeepsCallerFilename(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "one.cbl"), []byte(cmpinit))
	writeFile(t, filepath.Join(dir, "two.cbl"), []byte(cmpinit))
	c, err := cache.Open(t.TempDir())
	require.NoError(t, err)

	progs, _ := ExtractDir(context.Background(), []string{dir}, Options{Workers: 1, Cache: c})
	require.Len(t, progs, 2)
	assert.Equal(t, "one.cbl", progs[0].Filename)
	assert.Equal(t, "two.cbl", progs[1].Filename)
	assert.Equal(t, progs[0].Performs, progs[1].Performs)
}
