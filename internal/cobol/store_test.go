package cobol

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

func TestStore_LookupAndOrder(t *testing.T) {
	s := NewStore([]ir.Program{
		{ProgramID: "B", Copybooks: []string{"C1"}},
		{ProgramID: "A"},
		{ProgramID: "b", Copybooks: []string{"C1", "C2"}},
		{ProgramID: ir.UnknownProgramID, Filename: "legacy/orphan.cbl"},
		{ProgramID: ir.UnknownProgramID},
	})

	require.Equal(t, 3, s.Len())
	ids := []string{}
	for _, p := range s.All() {
		ids = append(ids, p.ProgramID)
	}
	assert.Equal(t, []string{"b", "A", "ORPHAN"}, ids)

	p, ok := s.Lookup("B")
	require.True(t, ok)
	assert.Equal(t, 2, p.DependencyCount())

	_, ok = s.Lookup("orphan")
	assert.True(t, ok)
	_, ok = s.Lookup("MISSING")
	assert.False(t, ok)

	var nilStore *Store
	_, ok = nilStore.Lookup("A")
	assert.False(t, ok)
	assert.Empty(t, nilStore.All())
}

func TestDecodeMetadata(t *testing.T) {
	doc := `[
	  {"filename": "a.cbl", "program_id": "CMPINIT", "copybooks": ["X"], "calls": [], "performs": ["P1"], "status": "OK"},
	  {"program_id": "BARE"}
	]`
	progs, err := DecodeMetadata(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, progs, 2)
	assert.Equal(t, []string{"P1"}, progs[0].Performs)
	assert.Equal(t, []string{}, progs[1].Copybooks)
	assert.Equal(t, ir.StatusOK, progs[1].Status)
}

func TestDecodeMetadata_Invalid(t *testing.T) {
	testCases := map[string]string{
		"not json":        `{`,
		"object":          `{"program_id": "X"}`,
		"missing id":      `[{"copybooks": []}]`,
		"empty id":        `[{"program_id": ""}]`,
		"wrong item type": `[{"program_id": "X", "performs": [1]}]`,
	}
	for name, doc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeMetadata(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestMetadataJSON_WriteThenLoad(t *testing.T) {
	in := []ir.Program{Extract("cmpinit.cbl", cmpinit)}
	var buf bytes.Buffer
	require.NoError(t, WriteMetadataJSON(&buf, in))

	path := filepath.Join(t.TempDir(), "cobol_metadata.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	out, err := LoadMetadataJSON(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = LoadMetadataJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
