package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitOperands(t *testing.T) {
	assert.Equal(t, []string{"PGM=SORT", "PARM='A, B'", "REGION=0M"},
		splitOperands("PGM=SORT,PARM='A, B',REGION=0M  trailing comment"))
	assert.Equal(t, []string{"DSN=A.B(+1)", "DISP=(NEW,CATLG,DELETE)"},
		splitOperands("DSN=A.B(+1),DISP=(NEW,CATLG,DELETE)"))
	assert.Equal(t, []string{"UNOSC", "RLE=MIDLANE"}, splitOperands("UNOSC, RLE=MIDLANE"))
	assert.Empty(t, splitOperands(""))
}

func TestParseExec(t *testing.T) {
	c := parseExec("PGM=FOO,PARM='X'")
	assert.Equal(t, "FOO", c.Target)
	assert.True(t, c.Program)
	assert.Equal(t, "X", c.Params["PARM"])

	c = parseExec("PROC=UNOSC,RLE=MIDLANE")
	assert.Equal(t, "UNOSC", c.Target)
	assert.False(t, c.Program)
	assert.Equal(t, Params{"RLE": "MIDLANE"}, c.Params)

	c = parseExec("UNOSC, rle='MID''LANE'")
	assert.Equal(t, "UNOSC", c.Target)
	assert.Equal(t, "MID'LANE", c.Params["RLE"])

	assert.Equal(t, "UNKNOWN", parseExec("").Target)
}

func TestDDDataset(t *testing.T) {
	dsn, ok := ddDataset("DSN=Z1.DATA,DISP=SHR")
	assert.True(t, ok)
	assert.Equal(t, "Z1.DATA", dsn)

	dsn, ok = ddDataset("DISP=OLD,DSNAME=&HLQ..IN")
	assert.True(t, ok)
	assert.Equal(t, "&HLQ..IN", dsn)

	_, ok = ddDataset("SYSOUT=*")
	assert.False(t, ok)
	_, ok = ddDataset("*")
	assert.False(t, ok)
}
