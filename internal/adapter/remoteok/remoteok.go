// Package remoteok discovers postings from RemoteOK's public JSON feed.
// The feed's first array element is site metadata rather than a posting
// and must be skipped (§4.4).
package remoteok

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

// apiBase is overridden in tests to point at an httptest server.
var apiBase = "https://remoteok.com"

type Scraper struct {
	hc *httpclient.Client
}

func New(hc *httpclient.Client) *Scraper {
	return &Scraper{hc: hc}
}

func (s *Scraper) Name() string { return "remoteok" }

type posting struct {
	Position  string   `json:"position"`
	Company   string   `json:"company"`
	Location  string   `json:"location"`
	URL       string   `json:"url"`
	Date      string   `json:"date"`
	Salary    string   `json:"salary"`
	Tags      []string `json:"tags"`
	SalaryMin float64  `json:"salary_min"`
	SalaryMax float64  `json:"salary_max"`
}

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceRemoteOK}

	r, err := s.hc.Get(ctx, apiBase+"/api")
	if err != nil {
		return res, fmt.Errorf("remoteok get: %w", err)
	}
	defer r.Body.Close()
	if r.StatusCode >= 400 {
		return res, fmt.Errorf("remoteok status %d", r.StatusCode)
	}

	var postings []posting
	if err := json.NewDecoder(r.Body).Decode(&postings); err != nil {
		return res, fmt.Errorf("remoteok decode: %w", err)
	}
	if len(postings) > 0 {
		postings = postings[1:] // first element is feed metadata, not a job
	}

	for _, j := range postings {
		title := strings.TrimSpace(j.Position)
		if title == "" || j.URL == "" {
			continue
		}
		salary := j.Salary
		if salary == "" && (j.SalaryMin > 0 || j.SalaryMax > 0) {
			salary = fmt.Sprintf("$%.0f - $%.0f", j.SalaryMin, j.SalaryMax)
		}
		loc := j.Location
		if loc == "" {
			loc = "Remote"
		}

		rec := jobrecord.Record{
			Company:  j.Company,
			Title:    title,
			Location: loc,
			URL:      j.URL,
			Date:     j.Date,
			Salary:   salary,
			Source:   jobrecord.SourceRemoteOK,
		}

		res.Attempted++
		accepted, reason := run.Add(ctx, rec)
		if accepted {
			res.Accepted++
		} else if reason != jobrecord.RejectNone {
			log.Printf("[remoteok] rejected title=%q reason=%s", rec.Title, reason)
		}
	}
	return res, nil
}
