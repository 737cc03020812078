package simplifyfeed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
)

func acceptAllFilters() jobrecord.Filters {
	return jobrecord.Filters{
		IsSenior:        func(string) bool { return false },
		AcceptRole:      func(string) (bool, string) { return true, "" },
		AcceptLocation:  func(string) bool { return true },
		AcceptFreshness: func(jobrecord.Source, string) bool { return true },
	}
}

func TestFetchFeedAcceptsBroadRoleSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Dates are today's so the 7-day minimum window keeps both rows.
		today := time.Now().UTC().Format("2006-01-02")
		w.Write([]byte(fmt.Sprintf(`[
			{"title":"Data Analyst","company_name":"Acme","url":"https://example.com/1","date_posted":%q},
			{"title":"Mobile Engineer, iOS","company_name":"Acme","url":"https://example.com/2","date_posted":%q}
		]`, today, today)))
	}))
	defer srv.Close()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s := New(Config{Feeds: []Feed{{URL: srv.URL, Label: "test"}}}, httpclient.New("jobtrawl-test/1.0"))

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Accepted != 2 {
		t.Fatalf("Accepted = %d, want 2", res.Accepted)
	}
}

func TestFetchFeedRejectsSeniorAndIntern(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Fresh dates, so only the title screen can drop these rows.
		today := time.Now().UTC().Format("2006-01-02")
		w.Write([]byte(fmt.Sprintf(`[
			{"title":"Senior Data Engineer","company_name":"Acme","url":"https://example.com/1","date_posted":%q},
			{"title":"Summer Intern, Engineering","company_name":"Acme","url":"https://example.com/2","date_posted":%q}
		]`, today, today)))
	}))
	defer srv.Close()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s := New(Config{Feeds: []Feed{{URL: srv.URL, Label: "test"}}}, httpclient.New("jobtrawl-test/1.0"))

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Attempted != 0 {
		t.Fatalf("Attempted = %d, want 0 (both titles should be screened before dedup accounting)", res.Attempted)
	}
}

func TestWithinCutoffRejectsStaleDates(t *testing.T) {
	s := New(Config{MinCutoffDays: 7}, httpclient.New("jobtrawl-test/1.0"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"title":"Backend Engineer","company_name":"Acme","url":"https://example.com/1","date_posted":"2020-01-01"}]`))
	}))
	defer srv.Close()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s.cfg.Feeds = []Feed{{URL: srv.URL, Label: "test"}}

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Attempted != 0 {
		t.Fatalf("Attempted = %d, want 0 (stale date should be filtered before dedup accounting)", res.Attempted)
	}
}
