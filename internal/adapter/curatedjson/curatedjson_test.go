package curatedjson

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

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

func TestFetchFeedExtractsApplicationLinksArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"role":"Software Engineer, New Grad","companyName":"Acme","locations":["United States"],"applicationLinks":["https://simplify.jobs/p/1"],"datePosted":1700000000}
		]`))
	}))
	defer srv.Close()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s := New(Config{Feeds: []Feed{{URL: srv.URL, Label: "test"}}}, httpclient.New("jobtrawl-test/1.0"))

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Accepted != 1 {
		t.Fatalf("Accepted = %d, want 1", res.Accepted)
	}
}

func TestFetchFeedRejectsSeniorTitles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"role":"Senior Software Engineer","companyName":"Acme","applicationLinks":["https://simplify.jobs/p/1"],"datePosted":1700000000},
			{"role":"Staff Engineer","companyName":"Acme","applicationLinks":["https://simplify.jobs/p/2"],"datePosted":1700000000}
		]`))
	}))
	defer srv.Close()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s := New(Config{Feeds: []Feed{{URL: srv.URL, Label: "test"}}}, httpclient.New("jobtrawl-test/1.0"))

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Attempted != 0 {
		t.Fatalf("Attempted = %d, want 0 (senior/staff titles filtered before admission)", res.Attempted)
	}
}

func TestFetchFeedFallsBackToStringApplicationLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"title":"Backend Engineer","company":"Acme","applicationLinks":"https://simplify.jobs/p/1","datePosted":"2024-01-01T00:00:00Z"}
		]`))
	}))
	defer srv.Close()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s := New(Config{Feeds: []Feed{{URL: srv.URL, Label: "test"}}}, httpclient.New("jobtrawl-test/1.0"))

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Accepted != 1 {
		t.Fatalf("Accepted = %d, want 1", res.Accepted)
	}
}
