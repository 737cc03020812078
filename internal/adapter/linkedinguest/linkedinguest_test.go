package linkedinguest

import (
	"strings"
	"testing"
)

func TestTimeRangeFilterBuckets(t *testing.T) {
	cases := []struct {
		hours float64
		want  string
	}{
		{1, "r3600"},
		{6, "r21600"},
		{24, "r86400"},
		{72, "r259200"},
		{168, "r604800"},
	}
	for _, c := range cases {
		if got := timeRangeFilter(c.hours); got != c.want {
			t.Errorf("timeRangeFilter(%v) = %q, want %q", c.hours, got, c.want)
		}
	}
}

func TestParseWithGoqueryExtractsCards(t *testing.T) {
	html := `<ul><li>
		<a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/123?pos=1">link</a>
		<h3 class="base-search-card__title">Software Engineer, New Grad</h3>
		<h4 class="base-search-card__subtitle">Acme</h4>
		<span class="job-search-card__location">New York, NY</span>
		<time datetime="2024-01-01">Jan 1</time>
	</li></ul>`

	cards := parseWithGoquery(strings.NewReader(html))
	if len(cards) != 1 {
		t.Fatalf("len(cards) = %d, want 1", len(cards))
	}
	if cards[0].URL != "https://www.linkedin.com/jobs/view/123" {
		t.Errorf("URL = %q, want query stripped", cards[0].URL)
	}
	if cards[0].Title != "Software Engineer, New Grad" {
		t.Errorf("Title = %q", cards[0].Title)
	}
}

func TestParseWithHTMLTreeFallbackExtractsCards(t *testing.T) {
	html := `<ul><li>
		<a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/456">link</a>
		<h3 class="base-search-card__title">Backend Engineer Entry Level</h3>
		<h4 class="base-search-card__subtitle">Beta</h4>
		<span class="job-search-card__location">Remote</span>
	</li></ul>`

	cards := parseWithHTMLTree(html)
	if len(cards) != 1 {
		t.Fatalf("len(cards) = %d, want 1", len(cards))
	}
	if cards[0].Company != "Beta" {
		t.Errorf("Company = %q", cards[0].Company)
	}
}
