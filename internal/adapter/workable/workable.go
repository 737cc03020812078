// Package workable discovers postings from Workable's public widget API,
// following the same worker-pool-over-companies shape the teacher uses for
// Lever and SmartRecruiters.
package workable

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

type Company struct {
	Account string // apply.workable.com/api/v1/widget/accounts/<account>
	Name    string
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

func (s *Scraper) Name() string { return "workable" }

type widgetResponse struct {
	Jobs []workableJob `json:"jobs"`
}

type workableJob struct {
	Title     string `json:"title"`
	Shortcode string `json:"shortcode"`
	URL       string `json:"url"`
	Location  struct {
		City        string `json:"city"`
		Region      string `json:"region"`
		CountryCode string `json:"country_code"`
	} `json:"location"`
	Department  string `json:"department"`
	PublishedOn string `json:"published_on"`
}

const workers = 8

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	companies := s.cfg.Companies
	recordsCh := make(chan []jobrecord.Record, len(companies))
	workCh := make(chan Company)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for co := range workCh {
				cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
				recs, err := s.fetchCompany(cctx, co)
				cancel()
				if err != nil {
					log.Printf("[workable] company=%q account=%q err=%v", co.Name, co.Account, err)
					continue
				}
				if len(recs) > 0 {
					recordsCh <- recs
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, co := range companies {
			select {
			case <-ctx.Done():
				return
			case workCh <- co:
			}
		}
	}()

	wg.Wait()
	close(recordsCh)

	res := types.Result{Source: jobrecord.SourceWorkable}
	for batch := range recordsCh {
		for _, rec := range batch {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[workable] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}
	return res, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company) ([]jobrecord.Record, error) {
	apiURL := fmt.Sprintf("https://apply.workable.com/api/v1/widget/accounts/%s", co.Account)

	res, err := s.hc.Get(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("workable get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("workable status %d", res.StatusCode)
	}

	var body widgetResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("workable decode: %w", err)
	}

	out := make([]jobrecord.Record, 0, len(body.Jobs))
	for _, j := range body.Jobs {
		title := strings.TrimSpace(j.Title)
		jobURL := j.URL
		if jobURL == "" && j.Shortcode != "" {
			jobURL = fmt.Sprintf("https://apply.workable.com/%s/j/%s/", co.Account, j.Shortcode)
		}
		if title == "" || jobURL == "" {
			continue
		}
		loc := strings.TrimSpace(strings.Join(nonEmpty(j.Location.City, j.Location.Region, j.Location.CountryCode), ", "))

		out = append(out, jobrecord.Record{
			Company:    co.Name,
			Title:      title,
			Location:   loc,
			Department: j.Department,
			URL:        jobURL,
			Date:       j.PublishedOn,
			Source:     jobrecord.SourceWorkable,
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
