// Package adzuna discovers postings from the Adzuna job search API. The
// adapter is opt-in: it skips entirely, rather than failing the run, when
// ADZUNA_APP_ID/ADZUNA_APP_KEY are absent — the same "missing credential
// disables the adapter" posture the teacher uses for its browser adapters'
// keyring lookups (secrets/password.go).
package adzuna

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

type Config struct {
	AppID    string
	AppKey   string
	Keywords []string
}

// apiBase is overridden in tests to point at an httptest server.
var apiBase = "https://api.adzuna.com"

type Scraper struct {
	cfg Config
	hc  *httpclient.Client
}

func New(cfg Config, hc *httpclient.Client) *Scraper {
	return &Scraper{cfg: cfg, hc: hc}
}

func (s *Scraper) Name() string { return "adzuna" }

// Enabled reports whether both credentials needed to call the API are set.
func (s *Scraper) Enabled() bool {
	return strings.TrimSpace(s.cfg.AppID) != "" && strings.TrimSpace(s.cfg.AppKey) != ""
}

type searchResponse struct {
	Results []result `json:"results"`
}

type result struct {
	Title   string `json:"title"`
	Company struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	RedirectURL string  `json:"redirect_url"`
	Created     string  `json:"created"`
	Description string  `json:"description"`
	SalaryMin   float64 `json:"salary_min"`
	SalaryMax   float64 `json:"salary_max"`
}

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceAdzuna}
	if !s.Enabled() {
		return res, nil
	}

	keywords := s.cfg.Keywords
	if len(keywords) == 0 {
		keywords = []string{"software engineer"}
	}

	for _, kw := range keywords {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		recs, err := s.fetchKeyword(ctx, kw)
		if err != nil {
			log.Printf("[adzuna] keyword=%q err=%v", kw, err)
			continue
		}
		for _, rec := range recs {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[adzuna] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}
	return res, nil
}

func (s *Scraper) fetchKeyword(ctx context.Context, keyword string) ([]jobrecord.Record, error) {
	q := url.Values{}
	q.Set("app_id", s.cfg.AppID)
	q.Set("app_key", s.cfg.AppKey)
	q.Set("what", keyword)
	q.Set("content-type", "application/json")

	apiURL := apiBase + "/v1/api/jobs/us/search/1?" + q.Encode()

	r, err := s.hc.Get(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("adzuna get: %w", err)
	}
	defer r.Body.Close()
	if r.StatusCode >= 400 {
		return nil, fmt.Errorf("adzuna status %d", r.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("adzuna decode: %w", err)
	}

	out := make([]jobrecord.Record, 0, len(body.Results))
	for _, j := range body.Results {
		title := strings.TrimSpace(j.Title)
		if title == "" || j.RedirectURL == "" {
			continue
		}
		salary := ""
		if j.SalaryMin > 0 || j.SalaryMax > 0 {
			salary = fmt.Sprintf("$%.0f - $%.0f", j.SalaryMin, j.SalaryMax)
		}

		out = append(out, jobrecord.Record{
			Company:     j.Company.DisplayName,
			Title:       title,
			Location:    j.Location.DisplayName,
			URL:         j.RedirectURL,
			Date:        j.Created,
			Description: j.Description,
			Salary:      salary,
			Source:      jobrecord.SourceAdzuna,
		})
	}
	return out, nil
}
