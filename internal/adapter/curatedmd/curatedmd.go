// Package curatedmd discovers postings from community-maintained GitHub
// repos whose README renders a pipe-delimited Markdown table of new-grad
// postings (§4.4), grounded on the original implementation's
// fetch_simplify_markdown table scanner and sharing the GitHub-feed
// freshness override (§4.2) with curatedjson.
package curatedmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/filters"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

type Feed struct {
	URL   string
	Label string
}

type Config struct {
	Feeds []Feed
}

type Scraper struct {
	cfg Config
	hc  *httpclient.Client
}

func New(cfg Config, hc *httpclient.Client) *Scraper {
	return &Scraper{cfg: cfg, hc: hc}
}

func (s *Scraper) Name() string { return "curated_markdown" }

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceCuratedMD}

	for _, feed := range s.cfg.Feeds {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		recs, err := s.fetchFeed(ctx, feed)
		if err != nil {
			log.Printf("[curated_markdown] feed=%q err=%v", feed.Label, err)
			continue
		}
		for _, rec := range recs {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[curated_markdown] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
	}
	return res, nil
}

func (s *Scraper) fetchFeed(ctx context.Context, feed Feed) ([]jobrecord.Record, error) {
	r, err := s.hc.Get(ctx, feed.URL)
	if err != nil {
		return nil, fmt.Errorf("curatedmd get: %w", err)
	}
	defer r.Body.Close()
	if r.StatusCode >= 400 {
		return nil, fmt.Errorf("curatedmd status %d", r.StatusCode)
	}

	body := make([]byte, 0, 1<<20)
	buf := make([]byte, 32*1024)
	for {
		n, rerr := r.Body.Read(buf)
		if n > 0 {
			body = append(body, buf[:n]...)
		}
		if rerr != nil {
			break
		}
	}

	return parseMarkdownTable(string(body)), nil
}

// parseMarkdownTable turns every pipe-delimited Markdown table row with at
// least 3 cells into a record, skipping separator, header and closed rows.
func parseMarkdownTable(md string) []jobrecord.Record {
	var out []jobrecord.Record

	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := splitRow(line)
		if len(cells) < 3 {
			continue
		}
		if isSeparatorRow(cells) {
			continue
		}
		if isHeaderRow(cells) {
			continue
		}
		if isClosed(line) {
			continue
		}

		rec, ok := recordFromCells(cells)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func splitRow(line string) []string {
	line = strings.Trim(line, "|")
	raw := strings.Split(line, "|")
	cells := make([]string, 0, len(raw))
	for _, c := range raw {
		cells = append(cells, strings.TrimSpace(c))
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		trimmed := strings.Trim(c, "- :")
		if trimmed != "" {
			return false
		}
	}
	return true
}

func isHeaderRow(cells []string) bool {
	joined := strings.ToLower(strings.Join(cells, " "))
	return strings.Contains(joined, "company") && strings.Contains(joined, "role")
}

var closedMarkers = []string{"🔒", "[closed]", "closed", "filled"}

func isClosed(line string) bool {
	low := strings.ToLower(line)
	for _, m := range closedMarkers {
		if strings.Contains(low, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// recordFromCells takes the company from the first cell and the title from
// the second, the location from the first later cell that is neither a
// date nor a link, the URL from the first link found in any cell, and the
// date from whichever cell matches a month-name or Nd/Nh pattern (§4.4).
func recordFromCells(cells []string) (jobrecord.Record, bool) {
	if len(cells) < 3 {
		return jobrecord.Record{}, false
	}

	company := cleanCell(cells[0])
	title := cleanCell(cells[1])
	if title == "" {
		return jobrecord.Record{}, false
	}

	location := ""
	date := ""
	url := firstLink(cells)

	for _, c := range cells[2:] {
		clean := cleanCell(c)
		if clean == "" {
			continue
		}
		if date == "" && looksLikeDate(clean) {
			date = clean
			continue
		}
		if location == "" && !looksLikeDate(clean) && !strings.HasPrefix(clean, "http") {
			location = clean
		}
	}

	if url == "" {
		return jobrecord.Record{}, false
	}

	return jobrecord.Record{
		Company:     firstNonEmpty(company, "Unknown"),
		Title:       title,
		Location:    location,
		URL:         url,
		Date:        date,
		Sponsorship: filters.ExtractSponsorship(title),
		Source:      jobrecord.SourceCuratedMD,
	}, true
}

func firstLink(cells []string) string {
	for _, c := range cells {
		if u := extractFirstHref(c); u != "" {
			return u
		}
	}
	return ""
}

// extractFirstHref pulls a URL out of either Markdown link syntax
// ([text](url)) or raw HTML anchor syntax (<a href="url">), whichever the
// feed's table cell uses.
func extractFirstHref(cell string) string {
	if idx := strings.Index(cell, "]("); idx >= 0 {
		rest := cell[idx+2:]
		if end := strings.Index(rest, ")"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if idx := strings.Index(strings.ToLower(cell), "href="); idx >= 0 {
		rest := cell[idx+5:]
		rest = strings.TrimPrefix(rest, `"`)
		rest = strings.TrimPrefix(rest, `'`)
		for _, q := range []byte{'"', '\''} {
			if end := strings.IndexByte(rest, q); end >= 0 {
				return strings.TrimSpace(rest[:end])
			}
		}
	}
	if strings.HasPrefix(cell, "http://") || strings.HasPrefix(cell, "https://") {
		return strings.TrimSpace(cell)
	}
	return ""
}

func cleanCell(c string) string {
	c = strings.ReplaceAll(c, "**", "")
	c = strings.TrimSpace(c)
	if c == "↳" {
		return ""
	}
	return c
}

var monthPrefixes = []string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

func looksLikeDate(s string) bool {
	low := strings.ToLower(s)
	for _, m := range monthPrefixes {
		if strings.HasPrefix(low, m) {
			return true
		}
	}
	if len(low) >= 2 {
		last := low[len(low)-1]
		if last == 'd' || last == 'h' {
			numPart := low[:len(low)-1]
			allDigits := numPart != ""
			for _, r := range numPart {
				if r < '0' || r > '9' {
					allDigits = false
					break
				}
			}
			if allDigits {
				return true
			}
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
