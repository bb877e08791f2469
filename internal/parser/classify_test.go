package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_KindsAndComments(t *testing.T) {
	text := "//PAYROLL JOB (1),'X'\r\n" +
		"//* a comment line\n" +
		"   \n" +
		"//UNOSC   PROC RLE=DEF\n" +
		"//S1      EXEC PGM=CMPINIT\n" +
		"//INFL    DD DSN=&RLE..DATA,DISP=SHR\n" +
		"//        PEND\n" +
		"//STEP02  exec UNOSC, RLE=MIDLANE\n" +
		"/*\n"

	lines := Classify(text)
	require.Len(t, lines, 7)

	want := []struct {
		idx   int
		kind  Kind
		label string
		ops   string
	}{
		{1, KindOther, "", ""},
		{4, KindProcStart, "UNOSC", "RLE=DEF"},
		{5, KindExec, "S1", "PGM=CMPINIT"},
		{6, KindDD, "INFL", "DSN=&RLE..DATA,DISP=SHR"},
		{7, KindProcEnd, "", ""},
		{8, KindExec, "STEP02", "UNOSC, RLE=MIDLANE"},
		{9, KindOther, "", ""},
	}
	for i, w := range want {
		assert.Equal(t, w.idx, lines[i].Index, "line %d index", i)
		assert.Equal(t, w.kind, lines[i].Kind, "line %d kind", i)
		assert.Equal(t, w.label, lines[i].Label, "line %d label", i)
		assert.Equal(t, w.ops, lines[i].Operands, "line %d operands", i)
	}
}

func TestClassify_KeywordNotPrefix(t *testing.T) {
	lines := Classify("//X PROCEDURE\n//Y EXECUTE PGM=A\n//Z DDNAME=1\n")
	require.Len(t, lines, 3)
	for _, ln := range lines {
		assert.Equal(t, KindOther, ln.Kind, ln.Text)
	}
}

func TestClassify_ContinuationJoinsOperands(t *testing.T) {
	lines := Classify("//S1 EXEC PGM=FOO\n//INFL DD DISP=SHR,\n//        DSN=A.B\n//        DD DSN=A.C\n")
	require.Len(t, lines, 3)
	assert.Equal(t, KindDD, lines[1].Kind)
	assert.Equal(t, "DISP=SHR,DSN=A.B", lines[1].Operands)
	assert.Equal(t, KindDD, lines[2].Kind)
	assert.Equal(t, "", lines[2].Label)
}

func TestClassify_MalformedIsOther(t *testing.T) {
	for _, s := range []string{"garbage", "//", "//S1", "/* end", "EXEC PGM=X"} {
		lines := Classify(s)
		require.Len(t, lines, 1, s)
		assert.Equal(t, KindOther, lines[0].Kind, s)
	}
}
