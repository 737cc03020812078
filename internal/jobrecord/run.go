package jobrecord

import (
	"context"
	"sync"
	"time"
)

// Sink is the persistence handle an admitted record is pushed to
// immediately (§4.7's incremental flush). InsertRawJob reports whether the
// insert was new (false on a URL collision).
type Sink interface {
	InsertRawJob(ctx context.Context, r Record) (isNew bool, err error)
}

// Filters bundles the reject/accept gates the admission path applies ahead
// of the dedup bookkeeping proper. A record failing any of these never
// touches seen_urls or seen_signatures (§3 invariants: "No two accepted
// records share...", scoped to *accepted* records only).
type Filters struct {
	// IsSenior rejects on the seniority block list. Checked first and in
	// isolation from role/location/freshness so that §4.3's ordering note
	// — "seniority rejection before any dedup accounting" — is honored
	// exactly: a record can fail every other filter and still never have
	// polluted seen_urls, but seniority rejection in particular is what
	// the source is explicit about protecting.
	IsSenior func(title string) bool
	// AcceptRole applies the always-match/user-role allowlist once
	// seniority has already passed.
	AcceptRole func(title string) (ok bool, reason string)
	// AcceptLocation applies the US-location filter.
	AcceptLocation func(location string) bool
	// AcceptFreshness applies the run's cutoff (with per-source overrides).
	AcceptFreshness func(src Source, rawDate string) bool
}

// Run holds the dedup indices and output list for a single discovery run
// (§9 Design Notes: "Express them as fields of a Run object created fresh
// per run_discovery call; never at module scope").
type Run struct {
	mu       sync.Mutex
	seenURLs map[string]struct{}
	seenSigs map[string]struct{}
	records  []Record
	counts   map[Source]int

	Filters Filters
	Sink    Sink
	Now     func() time.Time
}

// RejectReason enumerates why Add declined a record, for logging.
type RejectReason string

const (
	RejectNone        RejectReason = ""
	RejectSeniority   RejectReason = "seniority"
	RejectRole        RejectReason = "no_role_match"
	RejectLocation    RejectReason = "location"
	RejectFreshness   RejectReason = "freshness"
	RejectDuplicate   RejectReason = "duplicate_url"
	RejectDuplicateSg RejectReason = "duplicate_signature"
)

// NewRun constructs an isolated Run. now defaults to time.Now if nil.
func NewRun(f Filters, sink Sink, now func() time.Time) *Run {
	if now == nil {
		now = time.Now
	}
	return &Run{
		seenURLs: make(map[string]struct{}),
		seenSigs: make(map[string]struct{}),
		counts:   make(map[Source]int),
		Filters:  f,
		Sink:     sink,
		Now:      now,
	}
}

// Add is the single choke point every adapter pushes candidate records
// through (§4.3). The check order is fixed:
//
//  1. Seniority rejection on title.
//  2. Role acceptance (always-match ∪ user roles).
//  3. US-location acceptance.
//  4. Freshness cutoff.
//  5. Normalize URL; reject on seen_urls collision.
//  6. Compute signature; reject on seen_signatures collision. Only once
//     both checks pass are the URL and signature inserted.
//  7. Default missing optional fields; stamp LastUpdated.
//  8. Append to the in-memory list; increment the per-source counter.
//  9. If a sink is configured, push the record immediately.
//
// Add does not suspend internally (the sink write is synchronous), so a
// single mutex is sufficient even under parallel adapter goroutines
// (§5 Shared mutable state).
func (r *Run) Add(ctx context.Context, rec Record) (accepted bool, reason RejectReason) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Filters.IsSenior != nil && r.Filters.IsSenior(rec.Title) {
		return false, RejectSeniority
	}
	if r.Filters.AcceptRole != nil {
		if ok, _ := r.Filters.AcceptRole(rec.Title); !ok {
			return false, RejectRole
		}
	}
	if r.Filters.AcceptLocation != nil && !r.Filters.AcceptLocation(rec.Location) {
		return false, RejectLocation
	}
	if r.Filters.AcceptFreshness != nil && !r.Filters.AcceptFreshness(rec.Source, rec.Date) {
		return false, RejectFreshness
	}

	normURL := NormalizedURL(rec.URL)
	if normURL != "" {
		if _, seen := r.seenURLs[normURL]; seen {
			return false, RejectDuplicate
		}
	}

	sig := Signature(rec.Company, rec.Title)
	if _, seen := r.seenSigs[sig]; seen {
		return false, RejectDuplicateSg
	}

	if normURL != "" {
		r.seenURLs[normURL] = struct{}{}
	}
	r.seenSigs[sig] = struct{}{}

	rec.ApplyDefaults(r.Now())
	r.records = append(r.records, rec)
	r.counts[rec.Source]++

	if r.Sink != nil {
		_, _ = r.Sink.InsertRawJob(ctx, rec)
	}

	return true, RejectNone
}

// Records returns a snapshot of every record admitted so far.
func (r *Run) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Counts returns a snapshot of the per-source admitted counters, for the
// orchestrator's end-of-run breakdown (§4.6).
func (r *Run) Counts() map[Source]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Source]int, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}
