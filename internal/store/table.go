package store

import (
	"context"
	"database/sql"
	"fmt"
)

// JobRow is the persisted shape of a jobrecord.Record, plus the opaque id
// assigned on insert.
type JobRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Salary      string `json:"salary"`
	Sponsorship string `json:"sponsorship"`
	Department  string `json:"department"`
	LastUpdated string `json:"lastUpdated"`
}

// Migrate creates the jobs/applications schema if missing and adds any
// columns a prior schema version lacks, following the teacher's idempotent
// "check pragma_table_info, ALTER TABLE ADD COLUMN" pattern rather than a
// migration-file runner: this module has exactly two tables.
func (d *DB) Migrate() error {
	db := d.Pool

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL,
  url TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  date TEXT NOT NULL DEFAULT '',
  salary TEXT NOT NULL DEFAULT '',
  last_updated TEXT NOT NULL
);`); err != nil {
		return fmt.Errorf("migrate jobs: %w", err)
	}

	if _, err := db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_url ON jobs(url);
`); err != nil {
		return fmt.Errorf("migrate jobs url index: %w", err)
	}

	if err := addColumnIfMissing(db, "jobs", "sponsorship", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	if err := addColumnIfMissing(db, "jobs", "department", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS applications (
  job_id TEXT PRIMARY KEY REFERENCES jobs(id),
  status TEXT NOT NULL DEFAULT 'NEW',
  applied_at TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL
);`); err != nil {
		return fmt.Errorf("migrate applications: %w", err)
	}

	for _, col := range []struct{ name, decl string }{
		{"notes", "TEXT NOT NULL DEFAULT ''"},
		{"hiring_manager", "TEXT NOT NULL DEFAULT ''"},
		{"resume_pdf_path", "TEXT NOT NULL DEFAULT ''"},
		{"cover_letter_pdf_path", "TEXT NOT NULL DEFAULT ''"},
		{"applied_date", "TEXT NOT NULL DEFAULT ''"},
		{"ats_score", "REAL NOT NULL DEFAULT 0"},
	} {
		if err := addColumnIfMissing(db, "applications", col.name, col.decl); err != nil {
			return err
		}
	}

	return nil
}

// addColumnIfMissing adds column to table with the given SQL type/default
// clause unless pragma_table_info already reports it present.
func addColumnIfMissing(db *sql.DB, table, column, decl string) error {
	var one int
	err := db.QueryRow(fmt.Sprintf(`
SELECT 1 FROM pragma_table_info('%s') WHERE name = ? LIMIT 1;`, table), column).Scan(&one)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check column %s.%s: %w", table, column, err)
	}
	if _, err := db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s;`, table, column, decl)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

// ApplicationStatus enumerates the workflow states a stored job can move
// through (§9 supplemented feature: persistence tracks application status
// alongside the raw discovered record).
type ApplicationStatus string

const (
	StatusNew          ApplicationStatus = "NEW"
	StatusApplied      ApplicationStatus = "APPLIED"
	StatusInterview    ApplicationStatus = "INTERVIEW"
	StatusOffer        ApplicationStatus = "OFFER"
	StatusRejected     ApplicationStatus = "REJECTED"
	StatusManualNeeded ApplicationStatus = "MANUAL_NEEDED"
	StatusSkipped      ApplicationStatus = "SKIPPED"
)

// SetApplicationStatus upserts the application row for jobID, matching the
// teacher's company_domains.go upsert-on-conflict pattern.
func SetApplicationStatus(ctx context.Context, db *sql.DB, jobID string, status ApplicationStatus, updatedAt string) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO applications(job_id, status, updated_at)
VALUES(?,?,?)
ON CONFLICT(job_id) DO UPDATE SET
  status = excluded.status,
  updated_at = excluded.updated_at;
`, jobID, string(status), updatedAt)
	return err
}

// ListJobsOpts whitelists the sortable columns for ListJobs, preventing a
// caller-supplied sort key from being spliced into SQL (teacher's
// table.go does the same for its score/date/company/title columns).
type ListJobsOpts struct {
	Sort  string // title | company | date | last_updated
	Order string // asc | desc
	Limit int
}

var sortColumns = map[string]string{
	"title":        "title",
	"company":      "company",
	"date":         "date",
	"last_updated": "last_updated",
}

// ListJobs returns stored jobs ordered per opts, for the CLI's reporting
// surface and for tests asserting on what a run persisted.
func ListJobs(ctx context.Context, db *sql.DB, opts ListJobsOpts) ([]JobRow, error) {
	sortCol, ok := sortColumns[opts.Sort]
	if !ok {
		sortCol = "last_updated"
	}
	order := "DESC"
	if opts.Order == "asc" {
		order = "ASC"
	}
	limit := opts.Limit
	if limit <= 0 || limit > 5000 {
		limit = 500
	}

	query := fmt.Sprintf(`
SELECT id, title, company, location, source, url, description, date, salary, sponsorship, department, last_updated
FROM jobs
ORDER BY %s %s
LIMIT ?;
`, sortCol, order)

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JobRow
	for rows.Next() {
		var j JobRow
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &j.Source, &j.URL,
			&j.Description, &j.Date, &j.Salary, &j.Sponsorship, &j.Department, &j.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
