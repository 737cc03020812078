package jsearch

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

func TestFetchSkipsWhenKeyAbsent(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	orig := apiBase
	apiBase = srv.URL
	defer func() { apiBase = orig }()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s := New(Config{}, httpclient.New("jobtrawl-test/1.0"))

	if s.Enabled() {
		t.Fatal("Enabled() = true with no RapidAPI key, want false")
	}
	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if called {
		t.Fatal("adapter made an HTTP call despite missing RAPIDAPI_KEY")
	}
	if res.Attempted != 0 {
		t.Fatalf("Attempted = %d, want 0", res.Attempted)
	}
}

func TestFetchSendsRapidAPIHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-RapidAPI-Key") != "rk1" {
			t.Errorf("X-RapidAPI-Key header = %q, want rk1", r.Header.Get("X-RapidAPI-Key"))
		}
		if r.Header.Get("X-RapidAPI-Host") != apiHost {
			t.Errorf("X-RapidAPI-Host header = %q, want %q", r.Header.Get("X-RapidAPI-Host"), apiHost)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"job_title":"New Grad Software Engineer","employer_name":"Acme","job_city":"Austin","job_state":"TX","job_apply_link":"https://jsearch.example/j/1","job_posted_at_datetime_utc":"2024-01-01T00:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	orig := apiBase
	apiBase = srv.URL
	defer func() { apiBase = orig }()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s := New(Config{RapidAPIKey: "rk1"}, httpclient.New("jobtrawl-test/1.0"))

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Accepted != 1 {
		t.Fatalf("Accepted = %d, want 1", res.Accepted)
	}
}
