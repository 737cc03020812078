// Package ashby discovers postings from Ashby's public job-board API,
// following the same worker-pool-over-companies shape the teacher uses
// for Lever and SmartRecruiters (scrape/lever, scrape/smartrecruiters):
// Ashby has no teacher precedent, so this adapter generalizes that shared
// pattern onto Ashby's JSON schema instead of inventing a new one.
package ashby

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
	OrgName string // api.ashbyhq.com/posting-api/job-board/<orgName>
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

func (s *Scraper) Name() string { return "ashby" }

type jobBoardResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

type ashbyJob struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	LocationName    string `json:"location"`
	JobURL          string `json:"jobUrl"`
	PublishedAt     string `json:"publishedAt"`
	Department      string `json:"department"`
	DescriptionHTML string `json:"descriptionHtml"`
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
					log.Printf("[ashby] company=%q org=%q err=%v", co.Name, co.OrgName, err)
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

	res := types.Result{Source: jobrecord.SourceAshby}
	for batch := range recordsCh {
		for _, rec := range batch {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[ashby] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}
	return res, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company) ([]jobrecord.Record, error) {
	apiURL := fmt.Sprintf("https://api.ashbyhq.com/posting-api/job-board/%s", co.OrgName)

	res, err := s.hc.Get(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("ashby get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("ashby status %d", res.StatusCode)
	}

	var body jobBoardResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ashby decode: %w", err)
	}

	out := make([]jobrecord.Record, 0, len(body.Jobs))
	for _, j := range body.Jobs {
		title := strings.TrimSpace(j.Title)
		if title == "" || j.JobURL == "" {
			continue
		}
		out = append(out, jobrecord.Record{
			Company:     co.Name,
			Title:       title,
			Location:    j.LocationName,
			Department:  j.Department,
			URL:         j.JobURL,
			Date:        j.PublishedAt,
			Description: j.DescriptionHTML,
			Source:      jobrecord.SourceAshby,
		})
	}
	return out, nil
}
