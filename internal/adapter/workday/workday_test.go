package workday

import "testing"

func TestParseBoardURL(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    board
		wantErr bool
	}{
		{
			name: "simple tenant site",
			raw:  "https://acme.wd1.myworkdayjobs.com/External",
			want: board{Scheme: "https", Host: "acme.wd1.myworkdayjobs.com", Tenant: "acme", Site: "External"},
		},
		{
			name: "with locale segment",
			raw:  "https://acme.wd5.myworkdayjobs.com/en-US/External",
			want: board{Scheme: "https", Host: "acme.wd5.myworkdayjobs.com", Tenant: "acme", Site: "External", Locale: "en-US"},
		},
		{
			name:    "missing path",
			raw:     "https://acme.wd1.myworkdayjobs.com",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseBoardURL(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseBoardURL(%q) = %+v, want error", tc.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseBoardURL(%q) unexpected error: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("parseBoardURL(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestLooksLikeLocale(t *testing.T) {
	cases := map[string]bool{
		"en-US":    true,
		"fr-CA":    true,
		"External": false,
		"en":       false,
		"e2-US":    false,
	}
	for in, want := range cases {
		if got := looksLikeLocale(in); got != want {
			t.Errorf("looksLikeLocale(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNormalizeLocale(t *testing.T) {
	if got := normalizeLocale("EN-us"); got != "en-US" {
		t.Errorf("normalizeLocale(EN-us) = %q, want en-US", got)
	}
}

func TestJobsEndpoint(t *testing.T) {
	b := board{Scheme: "https", Host: "acme.wd1.myworkdayjobs.com", Tenant: "acme", Site: "External"}
	want := "https://acme.wd1.myworkdayjobs.com/wday/cxs/acme/External/jobs"
	if got := b.jobsEndpoint(); got != want {
		t.Errorf("jobsEndpoint() = %q, want %q", got, want)
	}

	b.Locale = "en-US"
	if got := b.jobsEndpoint(); got != want+"?locale=en-US" {
		t.Errorf("jobsEndpoint() with locale = %q, want %q", got, want+"?locale=en-US")
	}
}

func TestAbsoluteJobURL(t *testing.T) {
	b := board{Scheme: "https", Host: "acme.wd1.myworkdayjobs.com"}

	got := b.absoluteJobURL(wdPosting{ExternalPath: "/job/Remote/Engineer_R123"})
	want := "https://acme.wd1.myworkdayjobs.com/job/Remote/Engineer_R123"
	if got != want {
		t.Errorf("absoluteJobURL(path) = %q, want %q", got, want)
	}

	got = b.absoluteJobURL(wdPosting{ExternalURL: "https://other.example.com/job/1"})
	if got != "https://other.example.com/job/1" {
		t.Errorf("absoluteJobURL(externalURL) = %q, want passthrough", got)
	}

	if got := b.absoluteJobURL(wdPosting{}); got != "" {
		t.Errorf("absoluteJobURL(empty) = %q, want empty", got)
	}
}

func TestParseWorkdayPostedAt(t *testing.T) {
	cases := map[string]bool{
		"2024-03-01T00:00:00Z": true,
		"2024-03-01":           true,
		"1709251200":           true,
		"1709251200000":        true,
		"":                     false,
	}
	for in, wantParsed := range cases {
		got := parseWorkdayPostedAt(in)
		if wantParsed && got == in && in != "" {
			t.Errorf("parseWorkdayPostedAt(%q) did not normalize, got %q", in, got)
		}
		if !wantParsed && got != "" {
			t.Errorf("parseWorkdayPostedAt(%q) = %q, want empty", in, got)
		}
	}
}

func TestHashJobIDDeterministic(t *testing.T) {
	a := hashJobID("url:R-1234")
	b := hashJobID("url:R-1234")
	if a != b {
		t.Errorf("hashJobID not deterministic: %q != %q", a, b)
	}
	if hashJobID("url:R-1234") == hashJobID("url:R-5678") {
		t.Errorf("hashJobID collided for distinct inputs")
	}
	if len(a) != 16 {
		t.Errorf("hashJobID length = %d, want 16", len(a))
	}
}
