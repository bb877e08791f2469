package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/codewithboateng/jclgraph/internal/ir"
)

func (db *DB) CreateWaiver(w ir.Waiver) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := db.conn.Exec(`
INSERT INTO waivers(rule_id, job, step, pattern_sub, reason, expires_at, created_by, created_at)
VALUES(?,?,?,?,?,?,?,?)`,
		w.RuleID, nz(w.Job), nz(w.Step), nz(w.PatternSub), w.Reason,
		w.ExpiresAt.UTC().Format(time.RFC3339Nano), w.CreatedBy, now)
	if err != nil {
		return 0, fmt.Errorf("insert waiver: %w", err)
	}
	return res.LastInsertId()
}

// RevokeWaiver marks an active waiver revoked. Unknown or already revoked
// ids return ErrNotFound.
func (db *DB) RevokeWaiver(id int64) error {
	return execOne(db.conn, `UPDATE waivers SET revoked_at=? WHERE id=? AND revoked_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339Nano), id)
}

// ListWaivers returns waivers newest first; activeOnly drops revoked and
// expired ones.
func (db *DB) ListWaivers(activeOnly bool) ([]ir.Waiver, error) {
	q := `
SELECT id, rule_id, COALESCE(job,''), COALESCE(step,''), COALESCE(pattern_sub,''),
       reason, expires_at, created_by, created_at, revoked_at
FROM waivers`
	args := []any{}
	if activeOnly {
		q += ` WHERE (revoked_at IS NULL) AND (expires_at > ?)`
		args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	}
	q += ` ORDER BY id DESC`
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.Waiver
	for rows.Next() {
		var (
			w           ir.Waiver
			exp, ca, ra sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.RuleID, &w.Job, &w.Step, &w.PatternSub, &w.Reason, &exp, &w.CreatedBy, &ca, &ra); err != nil {
			return nil, err
		}
		w.ExpiresAt = parseTime(exp)
		w.CreatedAt = parseTime(ca)
		if ra.Valid {
			t := parseTime(ra)
			w.RevokedAt = &t
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s.String)
	return t
}

func nz(s string) any {
	if s == "" {
		return nil
	}
	return s
}
