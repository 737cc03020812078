package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jobtrawl/internal/jobrecord"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSinkInsertRawJobDedupesOnURL(t *testing.T) {
	db := openTestDB(t)
	sink := Sink{DB: db}
	ctx := context.Background()

	rec := jobrecord.Record{
		Title:       "Software Engineer",
		Company:     "Acme",
		URL:         "https://example.com/jobs/1",
		Source:      jobrecord.SourceGreenhouse,
		LastUpdated: time.Now().UTC(),
	}

	isNew, err := sink.InsertRawJob(ctx, rec)
	if err != nil {
		t.Fatalf("InsertRawJob: %v", err)
	}
	if !isNew {
		t.Fatal("first insert should report isNew=true")
	}

	isNew, err = sink.InsertRawJob(ctx, rec)
	if err != nil {
		t.Fatalf("InsertRawJob (dup): %v", err)
	}
	if isNew {
		t.Fatal("second insert of the same URL should report isNew=false")
	}

	rows, err := ListJobs(ctx, db.Pool, ListJobsOpts{})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].Company != "Acme" {
		t.Errorf("Company = %q, want Acme", rows[0].Company)
	}
}

func TestSinkInsertRawJobSeedsApplicationRow(t *testing.T) {
	db := openTestDB(t)
	sink := Sink{DB: db}
	ctx := context.Background()

	rec := jobrecord.Record{
		Title:       "Data Engineer",
		Company:     "Beta",
		URL:         "https://example.com/jobs/2",
		Source:      jobrecord.SourceLever,
		LastUpdated: time.Now().UTC(),
	}
	if _, err := sink.InsertRawJob(ctx, rec); err != nil {
		t.Fatalf("InsertRawJob: %v", err)
	}

	rows, err := ListJobs(ctx, db.Pool, ListJobsOpts{})
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListJobs: rows=%v err=%v", rows, err)
	}

	var status string
	err = db.Pool.QueryRowContext(ctx, `SELECT status FROM applications WHERE job_id = ?`, rows[0].ID).Scan(&status)
	if err != nil {
		t.Fatalf("query applications: %v", err)
	}
	if status != string(StatusNew) {
		t.Errorf("status = %q, want %q", status, StatusNew)
	}
}
