package rulesdsl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/jclgraph/internal/ir"
	"github.com/codewithboateng/jclgraph/internal/rules"
)

const pack = `
rules:
  - id: SORT-WRITES-REPORT
    summary: Sort step writing a report dataset
    type: quality
    severity: medium
    message: Sort output lands in a report dataset.
    where:
      program: "^SORT$"
      role: "^SORTOUT$"
      resource: "REPORT"
  - id: ANY-IDCAMS
    type: LINEAGE
    severity: LOW
    message: IDCAMS step.
    where:
      program: "idcams"
`

func run() *ir.Run {
	return &ir.Run{Jobs: []ir.Job{{Name: "j", Steps: []ir.Step{
		{Name: "S1", Program: "SORT", Resources: []ir.Resource{
			{Role: "SORTIN", Name: "DAILY.REPORT"},
			{Role: "SORTOUT", Name: "DAILY.REPORT.SORTED"},
		}},
		{Name: "S2", Program: "SORT", Resources: []ir.Resource{
			{Role: "SORTOUT", Name: "PLAIN.DATA"},
		}},
		{Name: "S3", Program: "IDCAMS"},
	}}}}
}

func TestLoadAndRegister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(pack), 0o644))

	reg := rules.NewRegistry(rules.NewSettings("LOW", nil))
	n, err := LoadAndRegister(reg, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	fs := reg.Evaluate(run(), nil)
	require.Len(t, fs, 2)
	assert.Equal(t, "SORT-WRITES-REPORT", fs[0].RuleID)
	assert.Equal(t, "S1", fs[0].Step)
	assert.Equal(t, "MEDIUM", fs[0].Severity)
	assert.Equal(t, "QUALITY", fs[0].Type)
	assert.Equal(t, "PGM=SORT | DD=SORTOUT | DSN=DAILY.REPORT.SORTED", fs[0].Evidence)
	assert.Equal(t, "ANY-IDCAMS", fs[1].RuleID)
	assert.Equal(t, "PGM=IDCAMS", fs[1].Evidence)

	_, err = LoadAndRegister(reg, path)
	assert.Error(t, err, "ids are unique within a registry")
}

func TestParse_Errors(t *testing.T) {
	testCases := map[string]string{
		"bad yaml":      "rules: [",
		"missing field": "rules:\n  - id: X\n    type: LINEAGE\n",
		"bad regex":     "rules:\n  - id: X\n    type: LINEAGE\n    severity: LOW\n    message: m\n    where:\n      role: \"(\"\n",
	}
	for name, doc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
