// Package emailfeed discovers postings forwarded into a monitored mailbox
// (job-alert digests, recruiter outreach) by polling unseen IMAP messages
// and extracting job links from each one (§4.4). It is adapted from the
// teacher's dashboard email-poller: the IMAP plumbing and the
// LinkedIn-job-alert card parser are kept verbatim in internal/scrape/email,
// but the per-message handling here drops that poller's lead-scoring and
// company-domain/favicon enrichment (out of scope — ranking is explicitly
// not a goal of this feed) in favor of pushing bare jobrecord.Record values
// straight through the shared Run.
package emailfeed

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"

	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/filters"
	"jobtrawl/internal/jobrecord"
	email_scrape "jobtrawl/internal/scrape/email"
)

type Config struct {
	Enabled          bool
	IMAPHost         string
	IMAPPort         int
	Username         string
	AppPassword      string
	Mailbox          string
	SearchSubjectAny []string
	MaxMessages      int
}

type Scraper struct {
	cfg Config
}

func New(cfg Config) *Scraper {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 30
	}
	return &Scraper{cfg: cfg}
}

func (s *Scraper) Name() string { return "email" }

func (s *Scraper) Fetch(ctx context.Context, run *jobrecord.Run) (types.Result, error) {
	res := types.Result{Source: jobrecord.SourceEmail}
	if !s.cfg.Enabled {
		log.Printf("[email] adapter disabled, skipping")
		return res, nil
	}
	if s.cfg.IMAPHost == "" || s.cfg.Username == "" || s.cfg.AppPassword == "" {
		return res, fmt.Errorf("email: imap_host, username and app_password are required when enabled")
	}

	addr := s.cfg.IMAPHost
	if s.cfg.IMAPPort != 0 && !strings.Contains(addr, ":") {
		addr = fmt.Sprintf("%s:%d", addr, s.cfg.IMAPPort)
	} else if !strings.Contains(addr, ":") {
		addr += ":993"
	}

	dialCtx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, ServerName: strings.SplitN(s.cfg.IMAPHost, ":", 2)[0]}
	c, err := email_scrape.DialAndLoginIMAP(dialCtx, addr, s.cfg.Username, s.cfg.AppPassword, tlsCfg)
	if err != nil {
		return res, fmt.Errorf("email: %w", err)
	}
	defer email_scrape.LogoutAndClose(c)

	if _, err := c.Select(s.cfg.Mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return res, fmt.Errorf("email: select %q: %w", s.cfg.Mailbox, err)
	}

	msgs, err := email_scrape.FetchUnseen(dialCtx, c, s.cfg.MaxMessages)
	if err != nil {
		return res, fmt.Errorf("email: fetch unseen: %w", err)
	}

	processed := make([]imap.UID, 0, len(msgs))
	for _, m := range msgs {
		_, bodyText, htmlBody, subj := email_scrape.ParseRFC822(m.RawMessage, m.Subject)
		subj = email_scrape.DecodeRFC2047(subj)

		if len(s.cfg.SearchSubjectAny) > 0 && !containsAnyFold(subj, s.cfg.SearchSubjectAny) {
			processed = append(processed, m.UID)
			continue
		}

		for _, rec := range s.recordsFromMessage(m.From, subj, m.Date, bodyText, htmlBody) {
			res.Attempted++
			accepted, reason := run.Add(ctx, rec)
			if accepted {
				res.Accepted++
			} else if reason != jobrecord.RejectNone {
				log.Printf("[email] rejected title=%q reason=%s", rec.Title, reason)
			}
		}
		processed = append(processed, m.UID)
	}

	if len(processed) > 0 {
		if err := email_scrape.MarkSeen(c, processed); err != nil {
			log.Printf("[email] mark seen: %v", err)
		}
	}

	return res, nil
}

func (s *Scraper) recordsFromMessage(from, subj string, date time.Time, bodyText, htmlBody string) []jobrecord.Record {
	if email_scrape.LooksLikeLinkedInJobAlert(subj, bodyText) {
		jobs, err := email_scrape.ParseLinkedInJobAlertHTML(htmlBody)
		if err == nil && len(jobs) > 0 {
			out := make([]jobrecord.Record, 0, len(jobs))
			for _, j := range jobs {
				out = append(out, jobrecord.Record{
					Title:       j.Title,
					Company:     j.Company,
					Location:    j.Location,
					Salary:      j.Salary,
					URL:         j.URL,
					Date:        date.Format(time.RFC3339),
					Sponsorship: filters.ExtractSponsorship(j.Title),
					Source:      jobrecord.SourceEmail,
				})
			}
			return out
		}
	}

	return s.recordsFromGenericLinks(subj, from, date, bodyText)
}

// recordsFromGenericLinks handles any other forwarded alert or recruiter
// email by extracting links and treating each one's anchor text as a
// candidate title, skipping anything that plainly isn't a job posting URL.
func (s *Scraper) recordsFromGenericLinks(subj, from string, date time.Time, bodyText string) []jobrecord.Record {
	urls, contexts := email_scrape.ExtractLinksFromBody(bodyText)
	if len(urls) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []jobrecord.Record
	for _, u := range urls {
		if !looksLikeJobURL(u) || seen[u] {
			continue
		}
		seen[u] = true

		title := strings.TrimSpace(contexts[u])
		if title == "" {
			title = subj
		}
		if title == "" {
			continue
		}

		out = append(out, jobrecord.Record{
			Title:       title,
			Company:     companyFromSender(from),
			URL:         u,
			Date:        date.Format(time.RFC3339),
			Sponsorship: filters.ExtractSponsorship(title),
			Source:      jobrecord.SourceEmail,
		})
	}
	return out
}

var jobURLMarkers = []string{
	"/jobs/", "/job/", "/careers/", "/career/", "/apply", "greenhouse.io",
	"lever.co", "ashbyhq.com", "workable.com", "smartrecruiters.com",
	"myworkdayjobs.com", "simplify.jobs",
}

func looksLikeJobURL(u string) bool {
	low := strings.ToLower(u)
	for _, marker := range jobURLMarkers {
		if strings.Contains(low, marker) {
			return true
		}
	}
	return false
}

func companyFromSender(from string) string {
	at := strings.Index(from, "@")
	if at < 0 {
		return ""
	}
	host := from[at+1:]
	host = strings.TrimSuffix(host, ">")
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}
	name := parts[len(parts)-2]
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func containsAnyFold(s string, needles []string) bool {
	low := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(low, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
