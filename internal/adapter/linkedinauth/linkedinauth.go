// Package linkedinauth discovers postings from LinkedIn's authenticated job
// search, driven headfully through the shared persistent browser profile
// (§4.5). It waits for an interactive human login the first time a run
// needs it, then iterates the same entry-level query matrix as the guest
// adapter (linkedinguest.RoleKeywords) over a small set of start offsets,
// scrolling the results list to trigger lazy load (§4.4).
package linkedinauth

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"jobtrawl/internal/adapter/linkedinguest"
	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/browser"
	"jobtrawl/internal/filters"
	"jobtrawl/internal/jobrecord"
)

var postLoginFragments = []string{"/feed", "/mynetwork"}
var authWallFragments = []string{"/checkpoint/", "/authwall"}

const loginTimeout = 120 * time.Second

var startOffsets = []int{0, 25, 50, 75, 100}

type Scraper struct {
	profile *browser.Profile
}

func New(profile *browser.Profile) *Scraper {
	return &Scraper{profile: profile}
}

func (s *Scraper) Name() string { return "linkedin_auth" }

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceLinkedInAuth}

	page, err := s.profile.Page(ctx)
	if err != nil {
		return res, fmt.Errorf("linkedin_auth: open page: %w", err)
	}
	res.Finalize = func(context.Context) error { return page.Close() }

	if !s.ensureLoggedIn(ctx, page) {
		log.Printf("[linkedin_auth] login not detected within %s, aborting adapter", loginTimeout)
		return res, nil
	}

	seenURLs := make(map[string]bool)
	consecutiveEmpty := 0

queryLoop:
	for _, kw := range linkedinguest.RoleKeywords {
		select {
		case <-ctx.Done():
			break queryLoop
		default:
		}

		foundThisQuery := 0
		for _, start := range startOffsets {
			cards, hardStop := s.fetchQuery(ctx, page, kw, start)
			if hardStop {
				log.Printf("[linkedin_auth] login form detected mid-run, stopping adapter")
				break queryLoop
			}

			for _, c := range cards {
				normURL := jobrecord.NormalizedURL(c.url)
				if normURL == "" || seenURLs[normURL] {
					continue
				}
				seenURLs[normURL] = true
				foundThisQuery++

				rec := jobrecord.Record{
					Title:       c.title,
					Location:    c.location,
					Date:        c.date,
					URL:         c.url,
					Sponsorship: filters.ExtractSponsorship(c.title),
					Source:      jobrecord.SourceLinkedInAuth,
				}
				res.Attempted++
				accepted, reason := run.Add(ctx, rec)
				if accepted {
					res.Accepted++
				} else if reason != jobrecord.RejectNone {
					log.Printf("[linkedin_auth] rejected title=%q reason=%s", rec.Title, reason)
				}
			}
		}

		if foundThisQuery == 0 {
			consecutiveEmpty++
			if consecutiveEmpty >= 4 {
				log.Printf("[linkedin_auth] 4 consecutive empty queries, ending phase")
				break
			}
		} else {
			consecutiveEmpty = 0
		}
	}

	return res, nil
}

// ensureLoggedIn navigates to the feed and checks for a post-login URL; if
// not already authenticated it sends the user to the login page and polls
// for up to 120s (§4.5).
func (s *Scraper) ensureLoggedIn(ctx context.Context, page *rod.Page) bool {
	if err := page.Context(ctx).Navigate("https://www.linkedin.com/feed/"); err != nil {
		log.Printf("[linkedin_auth] navigate feed: %v", err)
	}
	_ = page.WaitLoad()

	info, err := page.Info()
	if err == nil {
		low := strings.ToLower(info.URL)
		for _, frag := range postLoginFragments {
			if strings.Contains(low, frag) {
				return true
			}
		}
	}

	if err := page.Context(ctx).Navigate("https://www.linkedin.com/login"); err != nil {
		log.Printf("[linkedin_auth] navigate login: %v", err)
		return false
	}
	return browser.LoginWait(ctx, page, postLoginFragments, loginTimeout)
}

type cardResult struct {
	title    string
	location string
	date     string
	url      string
}

// fetchQuery navigates to one search URL, scrolls to load lazily-rendered
// results, and extracts cards from li[data-occludable-job-id] (§4.4).
// hardStop reports whether a login form reappeared mid-run.
func (s *Scraper) fetchQuery(ctx context.Context, page *rod.Page, keyword string, start int) (cards []cardResult, hardStop bool) {
	q := url.Values{}
	q.Set("keywords", keyword)
	q.Set("location", "United States")
	q.Set("f_E", "1,2")
	q.Set("start", fmt.Sprint(start))
	searchURL := "https://www.linkedin.com/jobs/search/?" + q.Encode()

	if err := page.Context(ctx).Navigate(searchURL); err != nil {
		log.Printf("[linkedin_auth] navigate search: %v", err)
		return nil, false
	}
	_ = page.Timeout(20 * time.Second).WaitLoad()

	info, _ := page.Info()
	if info != nil {
		low := strings.ToLower(info.URL)
		for _, frag := range authWallFragments {
			if strings.Contains(low, frag) {
				return nil, false // skip-this-URL, continue per §4.5
			}
		}
	}
	if loginFormPresent(page) {
		return nil, true
	}

	for i := 0; i < 8; i++ {
		_, _ = page.Eval(`() => { const c = document.querySelector(".jobs-search-results-list"); if (c) c.scrollBy(0, 600); }`)
		page.WaitIdle(300 * time.Millisecond)
	}

	elements, err := page.Elements("li[data-occludable-job-id]")
	if err != nil {
		return nil, false
	}

	for _, el := range elements {
		c := extractCard(el)
		if c.title != "" && c.url != "" {
			cards = append(cards, c)
		}
	}
	return cards, false
}

func extractCard(el *rod.Element) cardResult {
	var c cardResult
	if a, err := el.Element("a[href*='/jobs/view/']"); err == nil && a != nil {
		if href, err := a.Attribute("href"); err == nil && href != nil {
			c.url = strings.SplitN(*href, "?", 2)[0]
		}
		if txt, err := a.Text(); err == nil {
			c.title = strings.TrimSpace(txt)
		}
	}
	if t, err := el.Element("time[datetime]"); err == nil && t != nil {
		if dt, err := t.Attribute("datetime"); err == nil && dt != nil {
			c.date = *dt
		}
	}
	return c
}

func loginFormPresent(page *rod.Page) bool {
	el, err := page.Timeout(500 * time.Millisecond).Element("form.login__form, #organic-div input[name=session_password]")
	return err == nil && el != nil
}
