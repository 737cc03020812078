package filters

import "strings"

// seniorityBlockList is authoritative per §4.2: every record entering
// dedup passes through it. Order doesn't matter — any match rejects.
var seniorityBlockList = []string{
	"senior", " sr ", "sr.", "staff ", "principal", "director",
	"manager", "lead ", "tech lead", "head of", "vp ", "v.p.",
	"vice president", "distinguished", "fellow", "cto", "cpo", "coo",
	"cfo", "chief", "architect",
	"5+ yr", "7+ yr", "8+ yr", "10+ yr",
}

// alwaysMatchTokens unconditionally pass the role filter, independent of
// user preferences (GLOSSARY: "Always-match tokens").
var alwaysMatchTokens = []string{
	"software engineer", "swe", "sde", "developer", "programmer",
	"engineer i", "engineer ii", "new grad", "early career", "graduate",
	"entry level", "entry-level", "junior",
	"data scientist", "data analyst", "data engineer",
	"machine learning engineer", "ml engineer", "ai engineer",
	"analytics", "business analyst", "quantitative analyst",
	"qa engineer", "test engineer", "devops engineer", "site reliability",
	"frontend", "front-end", "backend", "back-end", "full stack", "full-stack",
	"mobile engineer", "ios engineer", "android engineer",
	"security engineer", "infrastructure engineer", "platform engineer",
}

// RoleAcceptor applies the seniority block list and the always-match /
// user-role union. Per the source's semantics (§9 Open Questions), a
// user's configured role list can only *extend* the always-match
// allowlist — it is never a restriction.
type RoleAcceptor struct {
	UserRoles []string // lowercased, user-configured additions
}

// Accept reports whether title passes the role filter. reason is set
// ("seniority"/"no_role_match") on rejection, for logging parity with the
// teacher's ShouldKeepJob.
func (a RoleAcceptor) Accept(title string) (ok bool, reason string) {
	low := strings.ToLower(title)

	for _, tok := range seniorityBlockList {
		if strings.Contains(low, tok) {
			return false, "seniority"
		}
	}

	for _, tok := range alwaysMatchTokens {
		if strings.Contains(low, tok) {
			return true, ""
		}
	}
	for _, tok := range a.UserRoles {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if strings.Contains(low, tok) {
			return true, ""
		}
	}

	return false, "no_role_match"
}

// IsSenior reports only the seniority-block half of Accept, used by the
// dedup admission path (§4.3 step 1) which must reject on seniority before
// any other bookkeeping happens.
func IsSenior(title string) bool {
	low := strings.ToLower(title)
	for _, tok := range seniorityBlockList {
		if strings.Contains(low, tok) {
			return true
		}
	}
	return false
}
