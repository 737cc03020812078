// Package smartrecruiters discovers postings from SmartRecruiters' public
// postings API, adapted from the teacher's paginated worker-pool scraper
// (scrape/smartrecruiters/smartrecruiters.go).
package smartrecruiters

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

type Company struct {
	Slug string
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

func (s *Scraper) Name() string { return "smartrecruiters" }

type postingsResponse struct {
	Content    []posting `json:"content"`
	TotalFound int       `json:"totalFound"`
}

type posting struct {
	ID           string    `json:"id"`
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	ReleasedDate time.Time `json:"releasedDate"`
	Ref          string    `json:"ref"`
	Location     struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
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
				cctx, cancel := context.WithTimeout(ctx, 20*time.Second)
				recs, err := s.fetchCompany(cctx, co)
				cancel()
				if err != nil {
					log.Printf("[smartrecruiters] company=%q slug=%q err=%v", co.Name, co.Slug, err)
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

	res := types.Result{Source: jobrecord.SourceSmartRecruiter}
	for batch := range recordsCh {
		for _, rec := range batch {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[smartrecruiters] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}
	return res, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company) ([]jobrecord.Record, error) {
	slug := strings.TrimSpace(co.Slug)
	if slug == "" {
		return nil, fmt.Errorf("empty slug")
	}

	base := fmt.Sprintf("https://api.smartrecruiters.com/v1/companies/%s/postings", url.PathEscape(slug))
	limit, offset := 100, 0
	var out []jobrecord.Record

	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		u := fmt.Sprintf("%s?limit=%d&offset=%d", base, limit, offset)
		if s.limiter != nil {
			if err := s.limiter.WaitURL(ctx, u); err != nil {
				return out, err
			}
		}

		res, err := s.hc.Get(ctx, u)
		if err != nil {
			return out, fmt.Errorf("smartrecruiters get: %w", err)
		}
		if res.StatusCode >= 400 {
			res.Body.Close()
			return out, fmt.Errorf("smartrecruiters status %d", res.StatusCode)
		}

		var pr postingsResponse
		err = json.NewDecoder(res.Body).Decode(&pr)
		res.Body.Close()
		if err != nil {
			return out, fmt.Errorf("smartrecruiters decode: %w", err)
		}

		if len(pr.Content) == 0 {
			break
		}

		for _, p := range pr.Content {
			title := strings.TrimSpace(p.Name)
			id := strings.TrimSpace(firstNonEmpty(p.ID, p.UUID, p.Ref))
			if title == "" || id == "" {
				continue
			}
			jobURL := fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", slug, id)
			loc := strings.TrimSpace(strings.Join(nonEmpty(p.Location.City, p.Location.Region, p.Location.Country), ", "))

			date := ""
			if !p.ReleasedDate.IsZero() {
				date = p.ReleasedDate.UTC().Format(time.RFC3339)
			}

			out = append(out, jobrecord.Record{
				Company:  co.Name,
				Title:    title,
				Location: loc,
				URL:      jobURL,
				Date:     date,
				Source:   jobrecord.SourceSmartRecruiter,
			})
		}

		offset += limit
		if pr.TotalFound > 0 && offset >= pr.TotalFound {
			break
		}
		if offset > 5000 {
			break
		}
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
