package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/jclgraph/internal/graph"
	"github.com/codewithboateng/jclgraph/internal/ir"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.CreateSchema())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testRun(id string, started time.Time) (*ir.Run, *graph.Graph) {
	run := &ir.Run{
		ID: id, StartedAt: started, Source: "jcl", IRVersion: ir.Version,
		Jobs: []ir.Job{{Name: "unosc", Filename: "unosc.jcl", Steps: []ir.Step{
			{Name: "STEP02.S1", Program: "CMPINIT", Resources: []ir.Resource{
				{Role: "INFL", Name: "MIDLANE.DATA"},
				{Role: "OUTFL", Name: "OUT.DATA"},
			}},
		}}},
		Findings: []ir.Finding{
			{ID: "A-1", RuleID: "A", Job: "unosc", Severity: "LOW", Type: "LINEAGE", Message: "low"},
			{ID: "B-1", RuleID: "B", Job: "unosc", Severity: "MEDIUM", Type: "LINEAGE", Message: "medium"},
		},
	}
	return run, graph.Build(run.Jobs, nil)
}

func TestSaveAndLoadRun(t *testing.T) {
	db := openTestDB(t)
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	run, g := testRun("r1", t0)
	require.NoError(t, db.SaveRun(run, g))
	require.NoError(t, db.SaveRun(run, g), "saving again replaces")

	got, err := db.LoadRun("r1")
	require.NoError(t, err)
	assert.Equal(t, run.Jobs, got.Jobs)
	assert.True(t, t0.Equal(got.StartedAt))

	gg, err := db.LoadGraph("r1")
	require.NoError(t, err)
	assert.Equal(t, g.Edges, gg.Edges)

	_, err = db.LoadRun("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.LoadGraph("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := db.HasRun("r1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.HasRun("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListRunsAndLatest(t *testing.T) {
	db := openTestDB(t)
	_, err := db.LatestRunID()
	assert.ErrorIs(t, err, ErrNotFound)

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "new", "mid"} {
		run, g := testRun(id, t0.Add(time.Duration([]int{0, 2, 1}[i])*time.Hour))
		require.NoError(t, db.SaveRun(run, g))
	}

	rows, err := db.ListRuns(10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "new", rows[0].ID)
	assert.Equal(t, "mid", rows[1].ID)
	assert.Equal(t, 1, rows[0].Jobs)
	assert.Equal(t, 3, rows[0].Nodes)
	assert.Equal(t, 2, rows[0].Edges)
	assert.Equal(t, 2, rows[0].Findings)

	rows, err = db.ListRuns(1, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mid", rows[0].ID)

	latest, err := db.LatestRunID()
	require.NoError(t, err)
	assert.Equal(t, "new", latest)
}

func TestListFindingsAndLineage(t *testing.T) {
	db := openTestDB(t)
	run, g := testRun("r1", time.Now())
	require.NoError(t, db.SaveRun(run, g))

	fs, err := db.ListFindings("r1", "low")
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, "B", fs[0].RuleID)

	fs, err = db.ListFindings("r1", "MEDIUM")
	require.NoError(t, err)
	require.Len(t, fs, 1)

	lin, err := db.Lineage("r1", "midlane.data")
	require.NoError(t, err)
	assert.Equal(t, []graph.LineageEdge{
		{Resource: "MIDLANE.DATA", Step: "STEP02.S1", Program: "CMPINIT", Role: "INFL", Direction: "IN"},
	}, lin)

	lin, err = db.Lineage("r1", "")
	require.NoError(t, err)
	assert.Len(t, lin, 2)

	lin, err = db.Lineage("other", "")
	require.NoError(t, err)
	assert.Empty(t, lin)
}

func TestUsersSessionsAudit(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateUser("ana", "hash", "admin")
	require.NoError(t, err)
	_, err = db.CreateUser("ana", "hash", "admin")
	assert.Error(t, err, "usernames are unique")

	u, ph, err := db.GetUserByUsername("ana")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "hash", ph)
	_, _, err = db.GetUserByUsername("nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.CreateSession(id, "tok", time.Now().Add(time.Hour)))
	require.NoError(t, db.CreateSession(id, "stale", time.Now().Add(-time.Hour)))
	su, err := db.GetSession("tok")
	require.NoError(t, err)
	assert.Equal(t, "ana", su.Username)
	_, err = db.GetSession("stale")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.DeleteSession("tok"))
	assert.ErrorIs(t, db.DeleteSession("tok"), ErrNotFound)

	require.NoError(t, db.LogAudit("ana", "GET", "/api/runs", map[string]any{"status": 200}))
	entries, err := db.ListAudit(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/api/runs", entries[0].Resource)
	assert.EqualValues(t, 200, entries[0].Meta["status"])
}

func TestWaivers(t *testing.T) {
	db := openTestDB(t)
	future := time.Now().Add(time.Hour).UTC()

	id1, err := db.CreateWaiver(ir.Waiver{RuleID: "GDG-ROLLOFF-RISK", Job: "daily", Reason: "known", ExpiresAt: future, CreatedBy: "ana"})
	require.NoError(t, err)
	_, err = db.CreateWaiver(ir.Waiver{RuleID: "X", Reason: "old", ExpiresAt: time.Now().Add(-time.Hour), CreatedBy: "ana"})
	require.NoError(t, err)

	all, err := db.ListWaivers(false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "X", all[0].RuleID, "newest first")

	active, err := db.ListWaivers(true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	w := active[0]
	assert.Equal(t, id1, w.ID)
	assert.Equal(t, "daily", w.Job)
	assert.Empty(t, w.Step)
	assert.True(t, w.ExpiresAt.Equal(future))
	assert.False(t, w.CreatedAt.IsZero())
	assert.Nil(t, w.RevokedAt)

	require.NoError(t, db.RevokeWaiver(id1))
	assert.ErrorIs(t, db.RevokeWaiver(id1), ErrNotFound)
	active, err = db.ListWaivers(true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err = db.ListWaivers(false)
	require.NoError(t, err)
	require.NotNil(t, all[1].RevokedAt)
}
