// Package linkedinguest discovers postings via LinkedIn's unauthenticated
// "guest" job search API (§4.4), which returns an HTML fragment rather
// than JSON. Card extraction is grounded on the retrieval pack's
// anatolykoptev/go_job LinkedIn adapter, which walks the response with
// golang.org/x/net/html rather than goquery; this module keeps that same
// tree-walking approach as the "other fallback path" §4.4 calls out
// ("two fallback paths for card matching... keep both") alongside a
// goquery-based selector pass.
package linkedinguest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/filters"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

const guestAPI = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"

// RoleKeywords is the ~28-entry entry-level role-keyword matrix every
// browser-driven LinkedIn adapter iterates over (§4.4).
var RoleKeywords = []string{
	"software engineer new grad", "software engineer entry level",
	"software developer entry level", "junior software engineer",
	"associate software engineer", "swe new grad", "sde i",
	"backend engineer new grad", "frontend engineer new grad",
	"full stack engineer entry level", "mobile engineer entry level",
	"data engineer entry level", "data scientist entry level",
	"data analyst entry level", "machine learning engineer entry level",
	"ml engineer new grad", "qa engineer entry level",
	"test engineer entry level", "devops engineer entry level",
	"site reliability engineer entry level", "security engineer entry level",
	"platform engineer entry level", "infrastructure engineer entry level",
	"cloud engineer entry level", "business analyst entry level",
	"product analyst entry level", "quantitative analyst entry level",
	"ios engineer entry level", "android engineer entry level",
}

type Config struct {
	HoursBack float64
}

type Scraper struct {
	cfg Config
	hc  *httpclient.Client
}

func New(cfg Config, hc *httpclient.Client) *Scraper {
	return &Scraper{cfg: cfg, hc: hc}
}

func (s *Scraper) Name() string { return "linkedin_guest" }

const (
	pageStep = 25
	maxStart = 200
)

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceLinkedInGuest}
	seenURLs := make(map[string]bool)
	timeFilter := timeRangeFilter(s.cfg.HoursBack)

	for _, kw := range RoleKeywords {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		for start := 0; start < maxStart; start += pageStep {
			cards, err := s.fetchPage(ctx, kw, timeFilter, start)
			if err != nil {
				log.Printf("[linkedin_guest] keyword=%q start=%d err=%v", kw, start, err)
				break
			}
			if len(cards) == 0 {
				break
			}

			newOnPage := 0
			for _, c := range cards {
				normURL := jobrecord.NormalizedURL(c.URL)
				if normURL == "" || seenURLs[normURL] {
					continue
				}
				seenURLs[normURL] = true
				newOnPage++

				rec := jobrecord.Record{
					Title:       c.Title,
					Company:     c.Company,
					Location:    c.Location,
					URL:         c.URL,
					Date:        c.Date,
					Sponsorship: filters.ExtractSponsorship(c.Title),
					Source:      jobrecord.SourceLinkedInGuest,
				}
				res.Attempted++
				accepted, reason := run.Add(ctx, rec)
				if accepted {
					res.Accepted++
				} else if reason != jobrecord.RejectNone {
					log.Printf("[linkedin_guest] rejected title=%q reason=%s", rec.Title, reason)
				}
			}
			if newOnPage == 0 {
				break
			}
		}
	}
	return res, nil
}

// timeRangeFilter encodes hours_back into LinkedIn's f_TPR seconds-from-now
// buckets, rounding up to the nearest bucket the source offers (§4.4).
func timeRangeFilter(hoursBack float64) string {
	secs := hoursBack * 3600
	switch {
	case secs <= 3600:
		return "r3600"
	case secs <= 21600:
		return "r21600"
	case secs <= 86400:
		return "r86400"
	case secs <= 259200:
		return "r259200"
	default:
		return "r604800"
	}
}

func (s *Scraper) fetchPage(ctx context.Context, keyword, timeFilter string, start int) ([]card, error) {
	q := url.Values{}
	q.Set("keywords", keyword)
	q.Set("location", "United States")
	q.Set("f_E", "1,2")
	q.Set("f_TPR", timeFilter)
	q.Set("sortBy", "DD")
	q.Set("start", strconv.Itoa(start))

	reqURL := guestAPI + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linkedin_guest get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("linkedin_guest status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("linkedin_guest read: %w", err)
	}

	if cards := parseWithGoquery(bytes.NewReader(body)); len(cards) > 0 {
		return cards, nil
	}

	// Fallback path: LinkedIn's guest endpoint occasionally serves a DOM
	// shape the goquery selector pass above misses (A/B server-side
	// rollout, §9 Open Questions). Re-parse with a raw html.Node walk.
	return parseWithHTMLTree(string(body)), nil
}

type card struct {
	Title    string
	Company  string
	Location string
	URL      string
	Date     string
}

func parseWithGoquery(body io.Reader) []card {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil
	}

	var out []card
	sel := doc.Find("li, div.base-card")
	sel.Each(func(_ int, li *goquery.Selection) {
		link := li.Find("a.base-card__full-link")
		href, _ := link.Attr("href")
		href = strings.SplitN(href, "?", 2)[0]
		title := strings.TrimSpace(li.Find("h3.base-search-card__title").First().Text())
		if href == "" || title == "" {
			return
		}
		company := strings.TrimSpace(li.Find("h4.base-search-card__subtitle").First().Text())
		loc := strings.TrimSpace(li.Find("span.job-search-card__location").First().Text())
		date, _ := li.Find("time[datetime]").First().Attr("datetime")

		out = append(out, card{
			Title:    title,
			Company:  company,
			Location: loc,
			URL:      href,
			Date:     date,
		})
	})
	return out
}

// parseWithHTMLTree is the secondary card-matching fallback (§9 Open
// Questions: "keep both"), grounded on the pack's go_job LinkedIn adapter,
// which walks golang.org/x/net/html nodes directly instead of relying on
// goquery's CSS selector engine.
func parseWithHTMLTree(body string) []card {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var out []card
	for _, li := range findElements(doc, "li") {
		c := cardFromNode(li)
		if c.Title != "" && c.URL != "" {
			out = append(out, c)
		}
	}
	return out
}

func cardFromNode(li *html.Node) card {
	var c card
	if link := findByClass(li, "base-card__full-link"); link != nil {
		if href := getAttr(link, "href"); href != "" {
			c.URL = strings.SplitN(href, "?", 2)[0]
		}
	}
	if n := findByClass(li, "base-search-card__title"); n != nil {
		c.Title = strings.TrimSpace(textContent(n))
	}
	if n := findByClass(li, "base-search-card__subtitle"); n != nil {
		c.Company = strings.TrimSpace(textContent(n))
	}
	if n := findByClass(li, "job-search-card__location"); n != nil {
		c.Location = strings.TrimSpace(textContent(n))
	}
	if n := findByClass(li, "job-search-card__listdate"); n != nil {
		if dt := getAttr(n, "datetime"); dt != "" {
			c.Date = dt
		} else {
			c.Date = strings.TrimSpace(textContent(n))
		}
	}
	return c
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, className string) bool {
	return strings.Contains(getAttr(n, "class"), className)
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func findByClass(n *html.Node, className string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, className) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, className); found != nil {
			return found
		}
	}
	return nil
}

func findElements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && n.Data == tag {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, findElements(c, tag)...)
	}
	return out
}
