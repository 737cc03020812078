// Package greenhouse discovers postings from each configured company's
// Greenhouse job board via the public JSON API (§4.4), adapted from the
// teacher's HTML-scrape approach (scrape/greenhouse/greenhouse.go) onto
// the shared Run admission pipeline and a Link-header pagination loop
// instead of a bulk domain.JobLead slice.
package greenhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/filters"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

type Company struct {
	Slug string // boards-api.greenhouse.io/v1/boards/<slug>/jobs
	Name string
}

type Config struct {
	Companies []Company
}

type Scraper struct {
	cfg Config
	hc  *httpclient.Client
}

func New(cfg Config, hc *httpclient.Client) *Scraper {
	return &Scraper{cfg: cfg, hc: hc}
}

func (s *Scraper) Name() string { return "greenhouse" }

// boardResponse mirrors the relevant fields of GET
// /v1/boards/{slug}/jobs?content=true.
type boardResponse struct {
	Jobs []boardJob `json:"jobs"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}

type boardJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	Content     string `json:"content"`
	UpdatedAt   string `json:"updated_at"`
	// FirstPublishedAt/posted_at isn't part of the stock public schema on
	// every board; when absent we fall back to updated_at for freshness
	// rather than dropping the record (§4.2 treats an unparseable date as
	// accept-unless-github-feed, but greenhouse is never a github feed).
	FirstPublishedAt string `json:"first_published"`
	Departments      []struct {
		Name string `json:"name"`
	} `json:"departments"`
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Metadata []struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	} `json:"metadata"`
}

const maxPages = 20

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceGreenhouse}
	for _, co := range s.cfg.Companies {
		recs, err := s.fetchCompany(ctx, co)
		if err != nil {
			log.Printf("[greenhouse] company=%q err=%v", co.Name, err)
			continue
		}
		for _, rec := range recs {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[greenhouse] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}
	return res, nil
}

// fetchCompany paginates GET /v1/boards/{slug}/jobs?content=true via the
// Link: rel="next" response header, capped at maxPages (§4.1).
func (s *Scraper) fetchCompany(ctx context.Context, co Company) ([]jobrecord.Record, error) {
	nextURL := fmt.Sprintf("https://boards-api.greenhouse.io/v1/boards/%s/jobs?content=true", co.Slug)

	var out []jobrecord.Record
	for page := 0; page < maxPages && nextURL != ""; page++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, nextURL, nil)
		if err != nil {
			return out, err
		}
		res, err := s.hc.Do(req)
		if err != nil {
			return out, fmt.Errorf("greenhouse get board: %w", err)
		}
		if res.StatusCode >= 400 {
			res.Body.Close()
			return out, fmt.Errorf("greenhouse board status %d", res.StatusCode)
		}

		var body boardResponse
		err = json.NewDecoder(res.Body).Decode(&body)
		res.Body.Close()
		if err != nil {
			return out, fmt.Errorf("greenhouse decode: %w", err)
		}

		for _, j := range body.Jobs {
			out = append(out, toRecord(co, j))
		}

		nextURL = nextLink(res.Header.Get("Link"))
	}
	return out, nil
}

func toRecord(co Company, j boardJob) jobrecord.Record {
	date := j.FirstPublishedAt
	if date == "" {
		date = j.UpdatedAt
	}

	department := ""
	if len(j.Departments) > 0 {
		department = j.Departments[0].Name
	}

	salary := extractSalary(j.Metadata)

	desc := stripHTML(j.Content)
	if len(desc) > 2000 {
		desc = desc[:2000]
	}

	return jobrecord.Record{
		Company:     co.Name,
		Title:       strings.TrimSpace(j.Title),
		Location:    j.Location.Name,
		URL:         j.AbsoluteURL,
		Date:        date,
		Description: desc,
		Department:  department,
		Salary:      salary,
		Sponsorship: filters.ExtractSponsorship(j.Title + " " + desc),
		Source:      jobrecord.SourceGreenhouse,
	}
}

// extractSalary scans metadata[] for the first entry whose name mentions
// salary/compensation/pay, per §4.4.
func extractSalary(meta []struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}) string {
	for _, m := range meta {
		low := strings.ToLower(m.Name)
		if strings.Contains(low, "salary") || strings.Contains(low, "compensation") || strings.Contains(low, "pay") {
			switch v := m.Value.(type) {
			case string:
				return v
			case float64:
				return strconv.FormatFloat(v, 'f', -1, 64)
			case nil:
				return ""
			default:
				b, _ := json.Marshal(v)
				return string(b)
			}
		}
	}
	return ""
}

// nextLink parses an RFC 5988 Link header for the rel="next" target.
func nextLink(header string) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start < 0 || end < 0 || end <= start {
			continue
		}
		return part[start+1 : end]
	}
	return ""
}

var htmlTagRe = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n")

// stripHTML does a best-effort plaintext reduction of Greenhouse's rich
// content field without pulling in a full HTML parser for a single field.
func stripHTML(s string) string {
	s = htmlTagRe.Replace(s)
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
