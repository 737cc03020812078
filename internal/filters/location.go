package filters

import "strings"

// tokenize replaces punctuation with spaces so word-boundary checks work
// regardless of how a location string is punctuated ("(UK)", "UK,", "UK.").
func tokenize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', '(', ')', '/', '-', ';':
			return ' '
		}
		return r
	}, s)
}

// nonUSRemoteMarkers blocks a "remote"-labeled posting from being treated
// as US-remote when it also names one of these regions (§4.2).
var nonUSRemoteMarkers = []string{
	"emea", "apac", "uk", "europe", "germany", "india", "canada", "latam",
}

// usIndicators are country/state/city tokens that make a location read as
// US-based even without the word "remote".
var usIndicators = []string{
	"united states", "usa", "u.s.", " us ",
	// state postal codes, leading-space-qualified per §4.2
	" al", " ak", " az", " ar", " ca", " co", " ct", " de", " fl", " ga",
	" hi", " id", " il", " in", " ia", " ks", " ky", " la", " me", " md",
	" ma", " mi", " mn", " ms", " mo", " mt", " ne", " nv", " nh", " nj",
	" nm", " ny", " nc", " nd", " oh", " ok", " or", " pa", " ri", " sc",
	" sd", " tn", " tx", " ut", " vt", " va", " wa", " wv", " wi", " wy",
	// major cities
	"new york", "san francisco", "los angeles", "chicago", "austin",
	"seattle", "boston", "denver", "atlanta", "dallas", "houston",
	"washington, dc", "washington dc", "san jose", "san diego",
	"miami", "philadelphia", "phoenix", "portland", "minneapolis",
}

// USLocationAccept implements §4.2's US-location acceptance: empty passes
// (treated as unknown/US-default); "remote" without a non-US region marker
// passes; any US indicator token passes; otherwise reject.
func USLocationAccept(location string) bool {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return true
	}

	padded := " " + tokenize(loc) + " "

	if strings.Contains(loc, "remote") {
		for _, marker := range nonUSRemoteMarkers {
			if strings.Contains(padded, " "+marker+" ") {
				return false
			}
		}
		return true
	}

	for _, tok := range usIndicators {
		if strings.HasPrefix(tok, " ") {
			if strings.Contains(padded, tok+" ") {
				return true
			}
			continue
		}
		if strings.Contains(loc, tok) {
			return true
		}
	}

	return false
}
