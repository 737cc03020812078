package filters

import (
	"testing"
	"time"

	"jobtrawl/internal/jobrecord"
)

func TestParseDate(t *testing.T) {
	now := time.Date(2026, time.July, 31, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  string
		want time.Time
		ok   bool
	}{
		{"today", "today", now, true},
		{"just posted", "Just Posted", now, true},
		{"zero days", "0d", now, true},
		{"relative days", "3d", now.Add(-3 * 24 * time.Hour), true},
		{"relative hours", "6h", now.Add(-6 * time.Hour), true},
		{"month day rolls back year", "Aug 15", time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC), true},
		{"month day this year", "Jul 1", time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), true},
		{"iso date", "2026-07-29", time.Date(2026, time.July, 29, 0, 0, 0, 0, time.UTC), true},
		{"rfc3339", "2026-07-29T10:00:00Z", time.Date(2026, time.July, 29, 10, 0, 0, 0, time.UTC), true},
		{"epoch seconds", "1753700400", time.Unix(1753700400, 0), true},
		{"epoch millis", "1753700400000", time.UnixMilli(1753700400000), true},
		{"garbage", "not a date at all", time.Time{}, false},
		{"empty", "", time.Time{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseDate(tc.raw, now)
			if ok != tc.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestFreshnessAccept(t *testing.T) {
	now := time.Date(2026, time.July, 31, 12, 0, 0, 0, time.UTC)
	f := NewFreshness(now, 24)

	if !f.Accept(jobrecord.SourceGreenhouse, "today") {
		t.Error("today should pass a 24h cutoff")
	}
	if f.Accept(jobrecord.SourceGreenhouse, "3d") {
		t.Error("3 days old should fail a 24h cutoff")
	}

	// github feeds get a widened floor even under a tight hours_back.
	if !f.Accept(jobrecord.SourceCuratedMD, "2d") {
		t.Error("curated markdown feed should honor the 2-day floor")
	}
	if !f.Accept(jobrecord.SourceCuratedJSON, "6d") {
		t.Error("curated json feed should honor the 7-day floor")
	}
	if f.Accept(jobrecord.SourceCuratedJSON, "8d") {
		t.Error("curated json feed older than 7 days should still reject")
	}

	// unparseable dates: rejected for github feeds, accepted otherwise.
	if f.Accept(jobrecord.SourceCuratedJSON, "") {
		t.Error("github feed source with unparseable date should reject")
	}
	if !f.Accept(jobrecord.SourceGreenhouse, "") {
		t.Error("non-github source with unparseable date should accept")
	}
}

func TestNewFreshnessClampsHoursBack(t *testing.T) {
	now := time.Now()
	f := NewFreshness(now, 0)
	if f.Cutoff.After(now.Add(-59 * time.Minute)) {
		t.Error("hours_back=0 should clamp to at least 1 hour")
	}
}
