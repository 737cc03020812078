package filters

import "testing"

func TestUSLocationAccept(t *testing.T) {
	cases := []struct {
		loc  string
		want bool
	}{
		{"", true},
		{"Remote", true},
		{"Remote - US", true},
		{"Remote, EMEA", false},
		{"Remote (UK)", false},
		// "ukraine" must not trip the "uk" marker via bare substring match.
		{"Remote, Ukraine", true},
		{"San Francisco, CA", true},
		{"New York, NY", true},
		{"London, United Kingdom", false},
		{"Bangalore, India", false},
		{"Austin, TX", true},
	}

	for _, tc := range cases {
		got := USLocationAccept(tc.loc)
		if got != tc.want {
			t.Errorf("USLocationAccept(%q) = %v, want %v", tc.loc, got, tc.want)
		}
	}
}
