// Package jsearch discovers postings from the JSearch API on RapidAPI.
// The adapter is opt-in: it skips entirely when RAPIDAPI_KEY is absent
// (§4.4, §6 environment variables).
package jsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

const apiHost = "jsearch.p.rapidapi.com"

// apiBase is overridden in tests to point at an httptest server.
var apiBase = "https://" + apiHost

type Config struct {
	RapidAPIKey string
	Queries     []string
}

type Scraper struct {
	cfg Config
	hc  *httpclient.Client
}

func New(cfg Config, hc *httpclient.Client) *Scraper {
	return &Scraper{cfg: cfg, hc: hc}
}

func (s *Scraper) Name() string { return "jsearch" }

func (s *Scraper) Enabled() bool { return strings.TrimSpace(s.cfg.RapidAPIKey) != "" }

type searchResponse struct {
	Data []job `json:"data"`
}

type job struct {
	Title        string  `json:"job_title"`
	EmployerName string  `json:"employer_name"`
	City         string  `json:"job_city"`
	State        string  `json:"job_state"`
	Country      string  `json:"job_country"`
	ApplyLink    string  `json:"job_apply_link"`
	PostedAt     string  `json:"job_posted_at_datetime_utc"`
	Description  string  `json:"job_description"`
	MinSalary    float64 `json:"job_min_salary"`
	MaxSalary    float64 `json:"job_max_salary"`
}

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceJSearch}
	if !s.Enabled() {
		return res, nil
	}

	queries := s.cfg.Queries
	if len(queries) == 0 {
		queries = []string{"software engineer new grad in usa"}
	}

	for _, q := range queries {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		recs, err := s.fetchQuery(ctx, q)
		if err != nil {
			log.Printf("[jsearch] query=%q err=%v", q, err)
			continue
		}
		for _, rec := range recs {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[jsearch] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}
	return res, nil
}

func (s *Scraper) fetchQuery(ctx context.Context, query string) ([]jobrecord.Record, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", "1")
	q.Set("num_pages", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-RapidAPI-Key", s.cfg.RapidAPIKey)
	req.Header.Set("X-RapidAPI-Host", apiHost)

	r, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jsearch get: %w", err)
	}
	defer r.Body.Close()
	if r.StatusCode >= 400 {
		return nil, fmt.Errorf("jsearch status %d", r.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("jsearch decode: %w", err)
	}

	out := make([]jobrecord.Record, 0, len(body.Data))
	for _, j := range body.Data {
		title := strings.TrimSpace(j.Title)
		if title == "" || j.ApplyLink == "" {
			continue
		}
		loc := strings.TrimSpace(strings.Join(nonEmpty(j.City, j.State, j.Country), ", "))
		salary := ""
		if j.MinSalary > 0 || j.MaxSalary > 0 {
			salary = fmt.Sprintf("$%.0f - $%.0f", j.MinSalary, j.MaxSalary)
		}

		out = append(out, jobrecord.Record{
			Company:     j.EmployerName,
			Title:       title,
			Location:    loc,
			URL:         j.ApplyLink,
			Date:        j.PostedAt,
			Description: j.Description,
			Salary:      salary,
			Source:      jobrecord.SourceJSearch,
		})
	}
	return out, nil
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
