// Package sqlite implements ports.Journal on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bft-labs/dropship/internal/domain"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Journal records runs and their outcome records as they happen.
// Rows are only ever inserted, except for the closing totals of a run.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Confirmations append concurrently; a single connection serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000")
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = NORMAL")

	j := &Journal{db: db}
	if err := j.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = j.db.ExecContext(ctx, string(b))
	return err
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// BeginRun inserts the run header.
func (j *Journal) BeginRun(ctx context.Context, run domain.RunInfo) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs(id, started_at, deadline, max_duration_ms, chunk_size, total_chunks, total_recipients)
		 VALUES(?,?,?,?,?,?,?)`,
		run.ID, formatTime(run.StartedAt), formatTime(run.Deadline), run.MaxDuration.Milliseconds(),
		run.ChunkSize, run.TotalChunks, run.TotalRecipients,
	)
	return err
}

// Append inserts one outcome record. A second record for the same chunk is rejected.
func (j *Journal) Append(ctx context.Context, runID string, rec domain.OutcomeRecord) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO outcomes(run_id, chunk_index, status, skip_reason, reject_reason, error, signature, issued_at, recorded_at, recipients)
		 VALUES(?,?,?,?,?,?,?,?,?,?)`,
		runID, rec.ChunkIndex, string(rec.Status),
		nullStr(string(rec.SkipReason)), nullStr(string(rec.RejectReason)), nullStr(rec.Error), nullStr(rec.Signature),
		nullTime(rec.IssuedAt), formatTime(rec.RecordedAt), joinAddresses(rec.Recipients),
	)
	return err
}

// FinishRun stores the end state and recipient totals of a run.
func (j *Journal) FinishRun(ctx context.Context, runID string, endState string, summary domain.Summary) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, end_state = ?, succeeded = ?, failed = ?, skipped = ? WHERE id = ?`,
		formatTime(time.Now()), endState, len(summary.Succeeded), len(summary.Failed), len(summary.Skipped), runID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// RunRow is a journaled run as listed by Runs.
type RunRow struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	EndState        string
	TotalRecipients int
	Succeeded       int
	Failed          int
	Skipped         int
}

// Runs returns the most recent runs first, at most limit.
func (j *Journal) Runs(ctx context.Context, limit int) ([]RunRow, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, ''), COALESCE(end_state, ''), total_recipients,
		        COALESCE(succeeded, 0), COALESCE(failed, 0), COALESCE(skipped, 0)
		   FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.EndState, &r.TotalRecipients,
			&r.Succeeded, &r.Failed, &r.Skipped); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Outcomes returns the records of a run in chunk order.
func (j *Journal) Outcomes(ctx context.Context, runID string) ([]domain.OutcomeRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT chunk_index, status, COALESCE(skip_reason, ''), COALESCE(reject_reason, ''), COALESCE(error, ''),
		        COALESCE(signature, ''), COALESCE(issued_at, ''), recorded_at, recipients
		   FROM outcomes WHERE run_id = ? ORDER BY chunk_index`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OutcomeRecord
	for rows.Next() {
		var rec domain.OutcomeRecord
		var status, skip, reject, issued, recorded, recipients string
		if err := rows.Scan(&rec.ChunkIndex, &status, &skip, &reject, &rec.Error,
			&rec.Signature, &issued, &recorded, &recipients); err != nil {
			return nil, err
		}
		rec.Status = domain.Status(status)
		rec.SkipReason = domain.SkipReason(skip)
		rec.RejectReason = domain.RejectReason(reject)
		rec.IssuedAt = parseTime(issued)
		rec.RecordedAt = parseTime(recorded)
		if rec.Recipients, err = splitAddresses(recipients); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", rec.ChunkIndex, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// timeLayout is fixed width so stored timestamps order correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func joinAddresses(addrs []domain.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

func splitAddresses(s string) ([]domain.Address, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]domain.Address, len(parts))
	for i, p := range parts {
		a, err := domain.ParseAddress(p)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}
