package filters

import (
	"strings"

	"jobtrawl/internal/jobrecord"
)

var noSponsorMarkers = []string{
	"no h1b", "no visa", "does not sponsor", "not sponsor",
	"unable to sponsor", "cannot sponsor", "citizen only", "us citizen",
	"clearance required",
}

var likelySponsorMarkers = []string{
	"h1b sponsor", "visa sponsor", "sponsorship available", "will sponsor",
	"open to sponsor", "sponsors h1b",
}

// ExtractSponsorship scans free text (title + description, typically) for
// the sponsorship markers in §4.2, preferring an explicit "no" signal over
// a "likely" one if both somehow appear.
func ExtractSponsorship(text string) string {
	low := strings.ToLower(text)

	for _, m := range noSponsorMarkers {
		if strings.Contains(low, m) {
			return jobrecord.SponsorshipNo
		}
	}
	for _, m := range likelySponsorMarkers {
		if strings.Contains(low, m) {
			return jobrecord.SponsorshipLikely
		}
	}
	return jobrecord.SponsorshipUnset
}
