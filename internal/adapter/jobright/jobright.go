// Package jobright discovers postings from jobright.ai's search UI through
// the shared headful browser profile. It is disabled by default (§4.4: "opt
// in, off unless explicitly enabled") since the site carries no public API
// and every listing must be scraped out of the rendered DOM via a single
// page.evaluate call per query.
package jobright

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"jobtrawl/internal/adapter/linkedinguest"
	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/browser"
	"jobtrawl/internal/filters"
	"jobtrawl/internal/jobrecord"
)

type Config struct {
	Enabled bool
}

type Scraper struct {
	cfg     Config
	profile *browser.Profile
}

func New(cfg Config, profile *browser.Profile) *Scraper {
	return &Scraper{cfg: cfg, profile: profile}
}

func (s *Scraper) Name() string { return "jobright" }

var metadataLinePattern = regexp.MustCompile(`(?i)^\s*(\$|applicants?|posted|ago|remote|hybrid|onsite|full.?time|part.?time)`)
var timestampPattern = regexp.MustCompile(`(?i)\b(\d+\s*(hour|day|week|month)s?\s*ago|just now)\b`)

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceJobright}
	if !s.cfg.Enabled {
		log.Printf("[jobright] adapter disabled, skipping")
		return res, nil
	}

	page, err := s.profile.Page(ctx)
	if err != nil {
		return res, fmt.Errorf("jobright: open page: %w", err)
	}
	res.Finalize = func(context.Context) error { return page.Close() }

	seenURLs := make(map[string]bool)

	for _, kw := range linkedinguest.RoleKeywords {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		cards, err := s.fetchQuery(ctx, page, kw)
		if err != nil {
			log.Printf("[jobright] keyword=%q err=%v", kw, err)
			continue
		}

		for _, c := range cards {
			normURL := jobrecord.NormalizedURL(c.url)
			if normURL == "" || seenURLs[normURL] {
				continue
			}
			seenURLs[normURL] = true

			rec := jobrecord.Record{
				Title:       c.title,
				Company:     c.company,
				Location:    c.location,
				Date:        c.date,
				Salary:      c.salary,
				URL:         c.url,
				Sponsorship: filters.ExtractSponsorship(c.title),
				Source:      jobrecord.SourceJobright,
			}
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[jobright] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}

	return res, nil
}

type jobCard struct {
	url      string
	title    string
	company  string
	location string
	date     string
	salary   string
	innerText string
}

func (s *Scraper) fetchQuery(ctx context.Context, page *rod.Page, keyword string) ([]jobCard, error) {
	q := url.Values{}
	q.Set("q", keyword)
	searchURL := "https://jobright.ai/jobs/search?" + q.Encode()

	if err := page.Context(ctx).Navigate(searchURL); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	_ = page.Timeout(20 * time.Second).WaitLoad()
	page.WaitIdle(2 * time.Second)

	// Single evaluate call pulls every anchor card's raw fields in one
	// round trip rather than walking rod.Element handles one at a time.
	res, err := page.Eval(`() => {
		const out = [];
		document.querySelectorAll("a[href*='/jobs/info/']").forEach(a => {
			out.push({
				href: a.href,
				title: (a.querySelector("h2,h3") || {}).innerText || "",
				company: (a.querySelector("[class*=company]") || {}).innerText || "",
				location: (a.querySelector("[class*=location]") || {}).innerText || "",
				date: (a.querySelector("[class*=date],time") || {}).innerText || "",
				salary: (a.querySelector("[class*=salary]") || {}).innerText || "",
				innerText: a.innerText || "",
			});
		});
		return out;
	}`)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	var raw []struct {
		Href      string `json:"href"`
		Title     string `json:"title"`
		Company   string `json:"company"`
		Location  string `json:"location"`
		Date      string `json:"date"`
		Salary    string `json:"salary"`
		InnerText string `json:"innerText"`
	}
	if err := res.Value.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal cards: %w", err)
	}

	var out []jobCard
	for _, r := range raw {
		c := jobCard{
			url:      r.Href,
			title:    strings.TrimSpace(r.Title),
			company:  strings.TrimSpace(r.Company),
			location: strings.TrimSpace(r.Location),
			date:     strings.TrimSpace(r.Date),
			salary:   strings.TrimSpace(r.Salary),
		}
		if c.title == "" || timestampPattern.MatchString(c.title) {
			c.title = titleFromInnerText(r.InnerText)
		}
		if c.title != "" && c.url != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// titleFromInnerText scans a card's flattened text for the first line that
// doesn't look like a timestamp, URL, or metadata chip, since jobright's
// markup sometimes omits a dedicated title element (§4.4).
func titleFromInnerText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 5 {
			continue
		}
		if strings.HasPrefix(line, "http") {
			continue
		}
		if metadataLinePattern.MatchString(line) || timestampPattern.MatchString(line) {
			continue
		}
		return line
	}
	return ""
}
