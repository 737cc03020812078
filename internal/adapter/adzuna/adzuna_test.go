package adzuna

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

func TestFetchSkipsWhenCredentialsAbsent(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	orig := apiBase
	apiBase = srv.URL
	defer func() { apiBase = orig }()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s := New(Config{}, httpclient.New("jobtrawl-test/1.0"))

	if s.Enabled() {
		t.Fatal("Enabled() = true with no credentials, want false")
	}

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if called {
		t.Fatal("adapter made an HTTP call despite missing credentials")
	}
	if res.Attempted != 0 {
		t.Fatalf("Attempted = %d, want 0", res.Attempted)
	}
}

func TestFetchWithCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("app_id") != "id1" || q.Get("app_key") != "key1" {
			t.Errorf("missing expected app_id/app_key query params: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"title":"Software Engineer","company":{"display_name":"Acme"},"location":{"display_name":"Austin, TX"},"redirect_url":"https://adzuna.com/j/1","created":"2024-01-01T00:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	orig := apiBase
	apiBase = srv.URL
	defer func() { apiBase = orig }()

	run := jobrecord.NewRun(acceptAllFilters(), nil, nil)
	s := New(Config{AppID: "id1", AppKey: "key1", Keywords: []string{"software engineer"}}, httpclient.New("jobtrawl-test/1.0"))

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if res.Accepted != 1 {
		t.Fatalf("Accepted = %d, want 1", res.Accepted)
	}
}
