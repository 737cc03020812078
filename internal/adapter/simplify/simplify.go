// Package simplify discovers postings from simplify.jobs by driving its
// search UI through the shared headful browser profile and intercepting the
// site's internal search-API responses rather than scraping the rendered
// DOM directly (§4.4). Simplify is login-gated, so the adapter reuses the
// same poll-for-login pattern as linkedinauth before running its query
// matrix.
package simplify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"

	"jobtrawl/internal/adapter/linkedinguest"
	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/browser"
	"jobtrawl/internal/filters"
	"jobtrawl/internal/jobrecord"
)

var postLoginFragments = []string{"/jobs", "/dashboard"}

const loginTimeout = 120 * time.Second

type Scraper struct {
	profile *browser.Profile
}

func New(profile *browser.Profile) *Scraper {
	return &Scraper{profile: profile}
}

func (s *Scraper) Name() string { return "simplify" }

// hitDocument mirrors the subset of fields simplify's internal search
// response carries per result (results[].hits[].document), named per
// §4.4's wire shape.
type hitDocument struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company_name"`
	Location string `json:"location"`
	PostedAt string `json:"date_posted"`
}

type searchResponse struct {
	Results []struct {
		Hits []struct {
			Document hitDocument `json:"document"`
		} `json:"hits"`
	} `json:"results"`
}

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceSimplify}

	page, err := s.profile.Page(ctx)
	if err != nil {
		return res, fmt.Errorf("simplify: open page: %w", err)
	}
	res.Finalize = func(context.Context) error { return page.Close() }

	if !s.ensureLoggedIn(ctx, page) {
		log.Printf("[simplify] login not detected within %s, aborting adapter", loginTimeout)
		return res, nil
	}

	var mu sync.Mutex
	var docs []hitDocument
	router := page.HijackRequests()
	defer router.Stop()

	router.MustAdd("*simplify.jobs/api/*search*", func(h *rod.Hijack) {
		h.MustLoadResponse()
		body := h.Response.Body()

		var parsed searchResponse
		if err := json.Unmarshal([]byte(body), &parsed); err == nil {
			mu.Lock()
			for _, r := range parsed.Results {
				for _, hit := range r.Hits {
					docs = append(docs, hit.Document)
				}
			}
			mu.Unlock()
		}
	})
	go router.Run()

	seenURLs := make(map[string]bool)

	for _, kw := range linkedinguest.RoleKeywords {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		mu.Lock()
		docs = nil
		mu.Unlock()

		q := url.Values{}
		q.Set("query", kw)
		searchURL := "https://simplify.jobs/jobs?" + q.Encode()
		if err := page.Context(ctx).Navigate(searchURL); err != nil {
			log.Printf("[simplify] navigate keyword=%q err=%v", kw, err)
			continue
		}
		_ = page.Timeout(15 * time.Second).WaitLoad()
		time.Sleep(5 * time.Second) // let the search-API XHR fire and the listener capture it

		for i := 0; i < 8; i++ {
			_, _ = page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
			page.WaitIdle(300 * time.Millisecond)
		}
		time.Sleep(2 * time.Second)

		mu.Lock()
		captured := make([]hitDocument, len(docs))
		copy(captured, docs)
		mu.Unlock()

		for _, d := range captured {
			if d.ID == "" || d.Title == "" {
				continue
			}
			jobURL := "https://simplify.jobs/p/" + d.ID
			normURL := jobrecord.NormalizedURL(jobURL)
			if seenURLs[normURL] {
				continue
			}
			seenURLs[normURL] = true

			rec := jobrecord.Record{
				Title:       strings.TrimSpace(d.Title),
				Company:     strings.TrimSpace(d.Company),
				Location:    strings.TrimSpace(d.Location),
				Date:        d.PostedAt,
				URL:         jobURL,
				Sponsorship: filters.ExtractSponsorship(d.Title),
				Source:      jobrecord.SourceSimplify,
			}
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[simplify] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}

	return res, nil
}

func (s *Scraper) ensureLoggedIn(ctx context.Context, page *rod.Page) bool {
	if err := page.Context(ctx).Navigate("https://simplify.jobs/jobs"); err != nil {
		log.Printf("[simplify] navigate jobs: %v", err)
	}
	_ = page.WaitLoad()

	info, err := page.Info()
	if err == nil {
		low := strings.ToLower(info.URL)
		for _, frag := range postLoginFragments {
			if strings.Contains(low, frag) && !strings.Contains(low, "login") {
				return true
			}
		}
	}

	if err := page.Context(ctx).Navigate("https://simplify.jobs/auth/login"); err != nil {
		log.Printf("[simplify] navigate login: %v", err)
		return false
	}
	return browser.LoginWait(ctx, page, postLoginFragments, loginTimeout)
}
