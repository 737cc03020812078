// Package curatedjson discovers postings from community-maintained GitHub
// repos that publish a JSON array of new-grad positions (SimplifyJobs and
// its mirrors), grounded on the original implementation's
// fetch_simplify_github/fetch_simplify_api multi-repo fetcher.
package curatedjson

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/filters"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

type Feed struct {
	URL   string
	Label string
}

type Config struct {
	Feeds []Feed
}

type Scraper struct {
	cfg Config
	hc  *httpclient.Client
}

func New(cfg Config, hc *httpclient.Client) *Scraper {
	return &Scraper{cfg: cfg, hc: hc}
}

func (s *Scraper) Name() string { return "curated_json" }

// position mirrors the positions.json schema shared by SimplifyJobs and its
// speedyapply mirror: applicationLinks may arrive as either an array or a
// bare string, and datePosted as either an epoch number or an ISO string.
type position struct {
	Title           string          `json:"role"`
	TitleAlt        string          `json:"title"`
	Company         string          `json:"companyName"`
	CompanyAlt      string          `json:"company"`
	Locations       json.RawMessage `json:"locations"`
	Location        json.RawMessage `json:"location"`
	ApplicationLink json.RawMessage `json:"applicationLinks"`
	URL             string          `json:"url"`
	ApplyURL        string          `json:"apply_url"`
	DatePosted      json.RawMessage `json:"datePosted"`
	Sponsorship     string          `json:"sponsorship"`
}

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceCuratedJSON}

	for _, feed := range s.cfg.Feeds {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		recs, err := s.fetchFeed(ctx, feed)
		if err != nil {
			log.Printf("[curated_json] feed=%q err=%v", feed.Label, err)
			continue
		}
		for _, rec := range recs {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[curated_json] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}
	return res, nil
}

func (s *Scraper) fetchFeed(ctx context.Context, feed Feed) ([]jobrecord.Record, error) {
	r, err := s.hc.Get(ctx, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("curatedjson get: %w", err)
	}
	defer r.Body.Close()
	if r.StatusCode >= 400 {
		return nil, fmt.Errorf("curatedjson status %d", r.StatusCode)
	}

	var positions []position
	if err := json.NewDecoder(r.Body).Decode(&positions); err != nil {
		return nil, fmt.Errorf("curatedjson decode: %w", err)
	}

	out := make([]jobrecord.Record, 0, len(positions))
	for _, p := range positions {
		title := strings.TrimSpace(firstNonEmpty(p.Title, p.TitleAlt))
		if title == "" {
			continue
		}
		low := strings.ToLower(title)
		if strings.Contains(low, "senior") || strings.Contains(low, "staff ") ||
			strings.Contains(low, "principal") || strings.Contains(low, "director") ||
			strings.Contains(low, "manager") || strings.Contains(low, "lead ") {
			continue
		}

		jobURL := extractURL(p)
		if jobURL == "" {
			continue
		}

		company := firstNonEmpty(p.Company, p.CompanyAlt, "Unknown")
		loc := joinLocations(firstNonEmptyRaw(p.Locations, p.Location))
		date := extractDate(p.DatePosted)

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
			Date:        date,
			Sponsorship: sponsorship,
			Source:      jobrecord.SourceCuratedJSON,
		})
	}
	return out, nil
}

func extractURL(p position) string {
	var arr []string
	if len(p.ApplicationLink) > 0 {
		if err := json.Unmarshal(p.ApplicationLink, &arr); err == nil && len(arr) > 0 {
			return strings.TrimSpace(arr[0])
		}
		var s string
		if err := json.Unmarshal(p.ApplicationLink, &s); err == nil && s != "" {
			return strings.TrimSpace(s)
		}
	}
	return firstNonEmpty(p.URL, p.ApplyURL)
}

func firstNonEmptyRaw(vals ...json.RawMessage) json.RawMessage {
	for _, v := range vals {
		if len(v) > 0 {
			return v
		}
	}
	return nil
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

func extractDate(raw json.RawMessage) string {
	if len(raw) == 0 {
		return time.Now().UTC().Format("2006-01-02")
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		ts := n
		if n > 1e10 {
			ts = n / 1000
		}
		return time.Unix(int64(ts), 0).UTC().Format("2006-01-02")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		s = strings.ReplaceAll(s, "Z", "+00:00")
		if t, err := time.Parse("2006-01-02T15:04:05Z07:00", s); err == nil {
			return t.UTC().Format("2006-01-02")
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			if n > 1_000_000_000_000 {
				return time.UnixMilli(n).UTC().Format("2006-01-02")
			}
			return time.Unix(n, 0).UTC().Format("2006-01-02")
		}
		return s
	}
	return time.Now().UTC().Format("2006-01-02")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
