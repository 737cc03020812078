package curatedmd

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

const sampleTable = `
| Company | Role | Location | Date | Link |
| --- | --- | --- | --- | --- |
| Acme | Software Engineer, New Grad | Remote in USA | Jan 15 | [Apply](https://acme.example.com/jobs/1) |
| Beta | Senior Software Engineer | New York, NY | 2d | [Apply](https://beta.example.com/jobs/2) |
| Gamma | Data Analyst | San Francisco, CA | 45d | 🔒 [Apply](https://gamma.example.com/jobs/3) |
`

func TestParseMarkdownTableExtractsRows(t *testing.T) {
	recs := parseMarkdownTable(sampleTable)
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2 (closed row dropped)", len(recs))
	}
	if recs[0].Company != "Acme" || recs[0].URL != "https://acme.example.com/jobs/1" {
		t.Errorf("recs[0] = %+v", recs[0])
	}
	if recs[0].Date != "Jan 15" {
		t.Errorf("recs[0].Date = %q, want %q", recs[0].Date, "Jan 15")
	}
}

func TestFetchFeedAppliesGitHubCutoffOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleTable))
	}))
	defer srv.Close()

	f := acceptAllFilters()
	rejected := map[string]bool{}
	f.AcceptFreshness = func(src jobrecord.Source, raw string) bool {
		// The source tag is what selects the 2-day markdown minimum window
		// in the real freshness filter.
		if src != jobrecord.SourceCuratedMD {
			t.Errorf("AcceptFreshness source = %q, want %q", src, jobrecord.SourceCuratedMD)
		}
		// Simulate the real freshness filter: only "45d" fails a tight cutoff.
		if raw == "45d" {
			rejected[raw] = true
			return false
		}
		return true
	}

	run := jobrecord.NewRun(f, nil, nil)
	s := New(Config{Feeds: []Feed{{URL: srv.URL, Label: "test"}}}, httpclient.New("jobtrawl-test/1.0"))

	res, err := s.Fetch(context.Background(), run)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	// The 45d Gamma row carries 🔒 and is dropped at parse time, so only
	// Acme and Beta reach Add; both pass, since this test's seniority
	// filter flags no title.
	if res.Accepted != 2 {
		t.Fatalf("Accepted = %d, want 2", res.Accepted)
	}
}

func TestIsClosedDetectsMarkers(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"| Acme | SWE | NY | Jan 1 | 🔒 link |", true},
		{"| Acme | SWE | NY | Jan 1 | [closed] |", true},
		{"| Acme | SWE | NY | Jan 1 | link |", false},
	}
	for _, c := range cases {
		if got := isClosed(c.line); got != c.want {
			t.Errorf("isClosed(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}
