package remoteok

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

func TestFetchSkipsFirstMetadataElement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"legal": "this is the feed metadata element"},
			{"position": "Backend Engineer", "company": "Acme", "location": "Remote", "url": "https://remoteok.com/remote-jobs/1", "date": "2024-01-01T00:00:00+00:00"}
		]`))
	}))
	defer srv.Close()

	orig := apiBase
	apiBase = srv.URL
	defer func() { apiBase = orig }()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s := New(httpclient.New("jobtrawl-test/1.0"))

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Attempted != 1 {
		t.Fatalf("Attempted = %d, want 1 (metadata element must be skipped)", res.Attempted)
	}
	if res.Accepted != 1 {
		t.Fatalf("Accepted = %d, want 1", res.Accepted)
	}
}

func TestFetchSkipsRecordsMissingURLOrTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"legal": "metadata"},
			{"position": "", "company": "Acme", "url": "https://remoteok.com/remote-jobs/1"},
			{"position": "Engineer", "company": "Acme", "url": ""}
		]`))
	}))
	defer srv.Close()

	orig := apiBase
	apiBase = srv.URL
	defer func() { apiBase = orig }()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s := New(httpclient.New("jobtrawl-test/1.0"))

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Attempted != 0 {
		t.Fatalf("Attempted = %d, want 0", res.Attempted)
	}
}
