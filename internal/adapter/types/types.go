// Package types defines the contract every source adapter implements
// (§4.4), generalizing the teacher's scrape/types.Fetcher interface from a
// domain.JobLead-shaped scraper to one that pushes jobrecord.Record values
// through a shared Run.
package types

import (
	"context"

	"jobtrawl/internal/jobrecord"
)

// Result carries what an adapter learned during Fetch beyond the records
// it already pushed through Run.Add: how many it attempted, and an
// optional Finalize hook for adapters that need to release resources
// (a browser tab, an IMAP connection) after the orchestrator has moved on.
type Result struct {
	Source    jobrecord.Source
	Attempted int
	Accepted  int
	Finalize  func(context.Context) error
}

// Fetcher is implemented by every source adapter. Fetch is expected to
// call run.Add for each candidate record it discovers rather than
// returning them in bulk, so an admission-time rejection (seniority,
// role, location, freshness, or dedup) is visible to the orchestrator's
// per-source accounting without a second pass over the results.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, run *jobrecord.Run) (Result, error)
}
