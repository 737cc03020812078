// Package jobrecord defines the canonical job posting shape and the
// two-level dedup admission path every source adapter pushes through.
package jobrecord

import (
	"net/url"
	"strings"
	"time"
)

// Source enumerates the fixed set of adapter names a Record may carry.
type Source string

const (
	SourceGreenhouse     Source = "greenhouse"
	SourceLever          Source = "lever"
	SourceAshby          Source = "ashby"
	SourceWorkable       Source = "workable"
	SourceSmartRecruiter Source = "smartrecruiters"
	SourceBambooHR       Source = "bamboohr"
	SourceWorkday        Source = "workday"
	SourceAdzuna         Source = "adzuna"
	SourceRemoteOK       Source = "remoteok"
	SourceJSearch        Source = "jsearch"
	SourceCuratedJSON    Source = "curated_json"
	SourceCuratedMD      Source = "curated_markdown"
	SourceLinkedInGuest  Source = "linkedin_guest"
	SourceLinkedInAuth   Source = "linkedin_auth"
	SourceJobright       Source = "jobright"
	SourceSimplify       Source = "simplify"
	SourceSimplifyFeed   Source = "simplify_feed"
	SourceEmail          Source = "email"
)

// KnownSources is used by invariant tests (§8 property 5): every accepted
// record's Source must be a member of this set.
var KnownSources = map[Source]bool{
	SourceGreenhouse:     true,
	SourceLever:          true,
	SourceAshby:          true,
	SourceWorkable:       true,
	SourceSmartRecruiter: true,
	SourceBambooHR:       true,
	SourceWorkday:        true,
	SourceAdzuna:         true,
	SourceRemoteOK:       true,
	SourceJSearch:        true,
	SourceCuratedJSON:    true,
	SourceCuratedMD:      true,
	SourceLinkedInGuest:  true,
	SourceLinkedInAuth:   true,
	SourceJobright:       true,
	SourceSimplify:       true,
	SourceSimplifyFeed:   true,
	SourceEmail:          true,
}

// githubFeedSources is the set of curated community-repo sources whose
// unparseable dates are rejected rather than accepted. The per-source
// minimum-window override itself is applied by filters.Freshness.CutoffFor,
// which also widens simplify_feed's window; simplify_feed is not in this set.
var githubFeedSources = map[Source]bool{
	SourceCuratedJSON: true,
	SourceCuratedMD:   true,
}

// IsGitHubFeedSource reports whether src is one of the curated
// community-repo feeds (curated_json, curated_markdown) whose unparseable
// dates fail the freshness gate.
func IsGitHubFeedSource(src Source) bool { return githubFeedSources[src] }

// Sponsorship values extracted from free text (§4.2).
const (
	SponsorshipLikely = "Likely"
	SponsorshipNo     = "No"
	SponsorshipUnset  = ""
)

// Record is the canonical shape emitted by every adapter (§3).
type Record struct {
	Title        string
	Company      string
	Location     string
	Source       Source
	URL          string
	Description  string
	Date         string // original posting date, as seen; may be unparseable
	Salary       string
	Sponsorship  string
	Department   string
	LastUpdated  time.Time
}

const maxDescriptionLen = 2000

// ApplyDefaults fills in the optional-field fallbacks the persistence
// schema's DEFAULT '' convention expects, and stamps LastUpdated. This is
// step 4 of the admission sequence in §4.3.
func (r *Record) ApplyDefaults(now time.Time) {
	if strings.TrimSpace(r.Company) == "" {
		r.Company = "Unknown"
	}
	if len(r.Description) > maxDescriptionLen {
		r.Description = r.Description[:maxDescriptionLen]
	}
	r.LastUpdated = now
}

// NormalizedURL strips the query string and any trailing slash, per §3's
// dedup-index definition. Empty input normalizes to empty (never a dedup
// key on its own, per the admission rule that empty URLs are never
// checked against seen_urls).
func NormalizedURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimSuffix(raw, "/")
	}
	u.RawQuery = ""
	u.Fragment = ""
	s := u.String()
	return strings.TrimSuffix(s, "/")
}

// Signature is the secondary dedup key: lower(company) + "::" + lower(title).
func Signature(company, title string) string {
	return strings.ToLower(strings.TrimSpace(company)) + "::" + strings.ToLower(strings.TrimSpace(title))
}
