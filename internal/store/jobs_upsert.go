package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobtrawl/internal/jobrecord"
)

// Sink adapts a *DB into the jobrecord.Sink interface Run.Add pushes
// admitted records through, implementing the "incremental flush" /
// at-least-once visibility guarantee from §4.7: every admitted record is
// written before Add returns, so a crash mid-run never loses what was
// already persisted.
type Sink struct {
	DB *DB
}

// InsertRawJob mirrors the teacher's InsertJobIgnore: an INSERT OR IGNORE
// against the url unique index, followed by SELECT changes() to learn
// whether this call actually inserted a row (SQLite drivers don't reliably
// report rows-affected for OR IGNORE any other way).
func (s Sink) InsertRawJob(ctx context.Context, r jobrecord.Record) (isNew bool, err error) {
	id := uuid.NewString()
	lastUpdated := r.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = time.Now().UTC()
	}

	tx, err := s.DB.Pool.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("insert job: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO jobs
  (id, title, company, location, source, url, description, date, salary, sponsorship, department, last_updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		id, r.Title, r.Company, r.Location, string(r.Source), r.URL, r.Description,
		r.Date, r.Salary, r.Sponsorship, r.Department, lastUpdated.Format(time.RFC3339),
	); err != nil {
		return false, fmt.Errorf("insert job: %w", err)
	}

	var changes int
	if err := tx.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); err != nil {
		return false, fmt.Errorf("insert job: changes: %w", err)
	}
	isNew = changes > 0

	if isNew {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO applications(job_id, status, updated_at)
VALUES(?, ?, ?);`, id, string(StatusNew), lastUpdated.Format(time.RFC3339)); err != nil {
			return false, fmt.Errorf("insert application: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("insert job: commit: %w", err)
	}

	return isNew, nil
}
