package emailfeed

import (
	"testing"
	"time"
)

func TestLooksLikeJobURL(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://boards.greenhouse.io/acme/jobs/123", true},
		{"https://jobs.lever.co/acme/abc", true},
		{"https://acme.com/careers/swe", true},
		{"https://acme.com/about", false},
		{"https://unsubscribe.example.com/x", false},
	}
	for _, c := range cases {
		if got := looksLikeJobURL(c.url); got != c.want {
			t.Errorf("looksLikeJobURL(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

func TestCompanyFromSender(t *testing.T) {
	cases := []struct {
		from string
		want string
	}{
		{"jobs@acme.com", "Acme"},
		{"Careers Team <careers@bigco.io>", "Bigco"},
		{"no-at-sign", ""},
	}
	for _, c := range cases {
		if got := companyFromSender(c.from); got != c.want {
			t.Errorf("companyFromSender(%q) = %q, want %q", c.from, got, c.want)
		}
	}
}

func TestRecordsFromGenericLinksSkipsNonJobURLs(t *testing.T) {
	s := New(Config{})
	body := `<html><body>
		<a href="https://boards.greenhouse.io/acme/jobs/555">Software Engineer</a>
		<a href="https://acme.com/unsubscribe">Unsubscribe</a>
	</body></html>`

	recs := s.recordsFromGenericLinks("New opening at Acme", "jobs@acme.com", time.Now(), body)
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].URL != "https://boards.greenhouse.io/acme/jobs/555" {
		t.Errorf("URL = %q", recs[0].URL)
	}
	if recs[0].Company != "Acme" {
		t.Errorf("Company = %q, want Acme", recs[0].Company)
	}
}
