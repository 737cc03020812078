// Package lever discovers postings from Lever's public JSON postings API,
// adapted from the teacher's worker-pool scraper (scrape/lever/lever.go):
// a bounded pool of goroutines fetch each configured company concurrently,
// rate-limited per host, with an HTML hydration fallback for postings
// missing a location: the posting page fills in the location (and the
// title, if that is empty too).
package lever

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/filters"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

type Company struct {
	Slug string // api.lever.co/v0/postings/<slug>
	Name string
}

type Config struct {
	Companies []Company
}

type Scraper struct {
	cfg     Config
	hc      *httpclient.Client
	limiter *httpclient.HostLimiter
}

func New(cfg Config, hc *httpclient.Client, limiter *httpclient.HostLimiter) *Scraper {
	return &Scraper{cfg: cfg, hc: hc, limiter: limiter}
}

func (s *Scraper) Name() string { return "lever" }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"`
	Categories struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
	Description string `json:"description"`
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
				cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
				recs, err := s.fetchCompany(cctx, co)
				cancel()
				if err != nil {
					log.Printf("[lever] company=%q slug=%q err=%v", co.Name, co.Slug, err)
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

	res := types.Result{Source: jobrecord.SourceLever}
	for batch := range recordsCh {
		for _, rec := range batch {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[lever] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}
	return res, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company) ([]jobrecord.Record, error) {
	apiURL := fmt.Sprintf("https://api.lever.co/v0/postings/%s?mode=json", co.Slug)

	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, apiURL); err != nil {
			return nil, err
		}
	}
	res, err := s.hc.Get(ctx, apiURL)
	if err != nil {
		return nil, fmt.Errorf("lever get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("lever status %d", res.StatusCode)
	}

	var postings []leverPosting
	if err := json.NewDecoder(res.Body).Decode(&postings); err != nil {
		return nil, fmt.Errorf("lever decode: %w", err)
	}

	out := make([]jobrecord.Record, 0, len(postings))
	for _, p := range postings {
		if p.ID == "" || p.HostedURL == "" || strings.TrimSpace(p.Text) == "" {
			continue
		}
		date := time.Now().UTC().Format(time.RFC3339)
		if p.CreatedAt > 0 {
			date = time.UnixMilli(p.CreatedAt).UTC().Format(time.RFC3339)
		}
		out = append(out, jobrecord.Record{
			Company:     co.Name,
			Title:       strings.TrimSpace(p.Text),
			Location:    p.Categories.Location,
			Department:  p.Categories.Team,
			URL:         p.HostedURL,
			Date:        date,
			Description: p.Description,
			Sponsorship: filters.ExtractSponsorship(p.Text + " " + p.Description),
			Source:      jobrecord.SourceLever,
		})
	}

	for i := range out {
		if out[i].Location == "" {
			_ = s.hydrateJob(ctx, &out[i])
		}
	}

	return out, nil
}

func (s *Scraper) hydrateJob(ctx context.Context, j *jobrecord.Record) error {
	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, j.URL); err != nil {
			return err
		}
	}
	res, err := s.hc.Get(ctx, j.URL)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return fmt.Errorf("job page status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return err
	}

	if j.Title == "" {
		if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
			j.Title = t
		}
	}

	candidates := []string{
		"[itemprop='jobLocation']",
		"[data-qa='location']",
		".location",
		".posting-categories .location",
		".posting-categories li",
	}
	for _, sel := range candidates {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			j.Location = t
			break
		}
	}

	return nil
}
