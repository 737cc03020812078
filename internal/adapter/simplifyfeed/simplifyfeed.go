// Package simplifyfeed discovers postings from a fixed set of
// community-maintained "new grad roles" GitHub repos whose README tables
// are mirrored as a flat JSON array, fetched concurrently (§4.4's "8
// curated repos fetched in parallel"). Its role acceptance is broader than
// curatedjson's, and its rejection list adds "intern" and "summer" to
// curatedjson's seniority tokens: this feed is meant to surface the full breadth of entry-level engineering/data/ML/infra/mobile
// postings rather than a single company's board.
package simplifyfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"jobtrawl/internal/filters"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

type Feed struct {
	URL   string
	Label string
}

type Config struct {
	Feeds []Feed
	// MinCutoffDays floors the freshness window this feed will accept,
	// independent of the run's configured hours_back, matching §4.2's
	// per-source minimum-window override for GitHub-mirrored feeds.
	MinCutoffDays int
}

type Scraper struct {
	cfg Config
	hc  *httpclient.Client
}

func New(cfg Config, hc *httpclient.Client) *Scraper {
	if cfg.MinCutoffDays <= 0 {
		cfg.MinCutoffDays = 7
	}
	return &Scraper{cfg: cfg, hc: hc}
}

func (s *Scraper) Name() string { return "simplify_feed" }

// acceptTokens is deliberately broad: any title containing one of these
// substrings is in scope, covering engineering, data, analytics, ML/AI,
// infra, mobile and security roles rather than just "software engineer".
var acceptTokens = []string{
	"engineer", "developer", "programmer", "data", "analyst", "analytics",
	"machine learning", "ml ", "ai ", "artificial intelligence", "infrastructure",
	"platform", "devops", "sre", "reliability", "mobile", "ios", "android",
	"security", "cloud", "qa", "quality assurance", "test",
}

var rejectTokens = []string{
	"senior", "staff", "principal", "director", "manager", "lead", "intern", "summer",
}

type position struct {
	Title       string          `json:"title"`
	RoleAlt     string          `json:"role"`
	Company     string          `json:"company_name"`
	CompanyAlt  string          `json:"company"`
	Locations   json.RawMessage `json:"locations"`
	URL         string          `json:"url"`
	ApplyURL    string          `json:"application_link"`
	DatePosted  string          `json:"date_posted"`
	Sponsorship string          `json:"sponsorship"`
}

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceSimplifyFeed}

	type feedResult struct {
		recs []jobrecord.Record
		err  error
		feed Feed
	}
	resultsCh := make(chan feedResult, len(s.cfg.Feeds))

	var wg sync.WaitGroup
	for _, feed := range s.cfg.Feeds {
		wg.Add(1)
		go func(feed Feed) {
			defer wg.Done()
			recs, err := s.fetchFeed(ctx, feed)
			resultsCh <- feedResult{recs: recs, err: err, feed: feed}
		}(feed)
	}
	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	for fr := range resultsCh {
		if fr.err != nil {
			log.Printf("[simplify_feed] feed=%q err=%v", fr.feed.Label, fr.err)
			continue
		}
		for _, rec := range fr.recs {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[simplify_feed] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}
	return res, nil
}

func (s *Scraper) fetchFeed(ctx context.Context, feed Feed) ([]jobrecord.Record, error) {
	r, err := s.hc.Get(ctx, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("simplifyfeed get: %w", err)
	}
	defer r.Body.Close()
	if r.StatusCode >= 400 {
		return nil, fmt.Errorf("simplifyfeed status %d", r.StatusCode)
	}

	var positions []position
	if err := json.NewDecoder(r.Body).Decode(&positions); err != nil {
		return nil, fmt.Errorf("simplifyfeed decode: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.MinCutoffDays)

	out := make([]jobrecord.Record, 0, len(positions))
	for _, p := range positions {
		title := strings.TrimSpace(firstNonEmpty(p.Title, p.RoleAlt))
		if title == "" || !acceptable(title) {
			continue
		}

		jobURL := strings.TrimSpace(firstNonEmpty(p.URL, p.ApplyURL))
		if jobURL == "" {
			continue
		}

		if !withinCutoff(p.DatePosted, cutoff) {
			continue
		}

		company := firstNonEmpty(p.Company, p.CompanyAlt, "Unknown")
		loc := joinLocations(p.Locations)

		sponsorship := ""
		spLow := strings.ToLower(p.Sponsorship)
		switch {
		case strings.Contains(spLow, "yes") || strings.Contains(spLow, "true"):
			sponsorship = jobrecord.SponsorshipLikely
		case strings.Contains(spLow, "no") || strings.Contains(spLow, "false"):
			sponsorship = jobrecord.SponsorshipNo
		default:
			sponsorship = filters.ExtractSponsorship(title)
		}

		out = append(out, jobrecord.Record{
			Company:     company,
			Title:       title,
			Location:    loc,
			URL:         jobURL,
			Date:        p.DatePosted,
			Sponsorship: sponsorship,
			Source:      jobrecord.SourceSimplifyFeed,
		})
	}
	return out, nil
}

func acceptable(title string) bool {
	low := strings.ToLower(title)
	for _, tok := range rejectTokens {
		if strings.Contains(low, tok) {
			return false
		}
	}
	for _, tok := range acceptTokens {
		if strings.Contains(low, tok) {
			return true
		}
	}
	return false
}

// withinCutoff parses a handful of common feed date shapes and rejects
// only when a date is present and resolves stale; an unparseable or empty
// date is let through since this feed leans permissive (§4.2).
func withinCutoff(raw string, cutoff time.Time) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true
	}
	layouts := []string{"2006-01-02", "2006-01-02T15:04:05Z", time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return !t.Before(cutoff)
		}
	}
	return true
}

func joinLocations(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "United States"
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) > 3 {
			arr = arr[:3]
		}
		joined := strings.Join(arr, " | ")
		if joined == "" {
			return "United States"
		}
		return joined
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return "United States"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
