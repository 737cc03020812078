// Package bamboohr discovers postings from BambooHR's public careers list
// endpoint, following the same worker-pool-over-companies shape the
// teacher uses for Lever and SmartRecruiters.
package bamboohr

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
	Subdomain string // <subdomain>.bamboohr.com/careers/list
	Name      string
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

func (s *Scraper) Name() string { return "bamboohr" }

type careersListResponse struct {
	Result []bambooJob `json:"result"`
}

type bambooJob struct {
	ID           string `json:"id"`
	JobOpeningID string `json:"jobOpeningId"`
	Title        string `json:"jobOpeningName"`
	Location     struct {
		City  string `json:"city"`
		State string `json:"state"`
	} `json:"location"`
	Department string `json:"departmentLabel"`
	PostedDate string `json:"postedDate"`
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
					log.Printf("[bamboohr] company=%q subdomain=%q err=%v", co.Name, co.Subdomain, err)
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

	res := types.Result{Source: jobrecord.SourceBambooHR}
	for batch := range recordsCh {
		for _, rec := range batch {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[bamboohr] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}
	return res, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company) ([]jobrecord.Record, error) {
	apiURL := fmt.Sprintf("https://%s.bamboohr.com/careers/list", co.Subdomain)

	res, err := s.hc.Get(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("bamboohr get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("bamboohr status %d", res.StatusCode)
	}

	var body careersListResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("bamboohr decode: %w", err)
	}

	out := make([]jobrecord.Record, 0, len(body.Result))
	for _, j := range body.Result {
		title := strings.TrimSpace(j.Title)
		id := firstNonEmpty(j.ID, j.JobOpeningID)
		if title == "" || id == "" {
			continue
		}
		jobURL := fmt.Sprintf("https://%s.bamboohr.com/careers/%s", co.Subdomain, id)
		loc := strings.TrimSpace(strings.Join(nonEmpty(j.Location.City, j.Location.State), ", "))

		out = append(out, jobrecord.Record{
			Company:    co.Name,
			Title:      title,
			Location:   loc,
			Department: j.Department,
			URL:        jobURL,
			Date:       j.PostedDate,
			Source:     jobrecord.SourceBambooHR,
		})
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
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
