package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) errf(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) warnf(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func trimDedupe(xs []string, lowerKey bool) []string {
	seen := map[string]bool{}
	var ys []string
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		key := x
		if lowerKey {
			key = strings.ToLower(key)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		ys = append(ys, x)
	}
	return ys
}

func normalizeCompanies(in []Company) []Company {
	type key struct{ slug, name string }
	seen := map[key]bool{}
	var outc []Company
	for _, c := range in {
		slug := strings.ToLower(strings.TrimSpace(c.Slug))
		name := strings.TrimSpace(c.Name)
		if slug == "" && name == "" {
			continue
		}
		k := key{slug: slug, name: strings.ToLower(name)}
		if seen[k] {
			continue
		}
		seen[k] = true
		outc = append(outc, Company{Slug: slug, Name: name})
	}
	return outc
}

// checkCompanySource validates a company/board list. Workday's "slug" is
// actually a public job board URL rather than a bare slug, so its slug
// format isn't checked against slugRe.
func checkCompanySource(res *Validation, name string, sc SourceConfig) {
	if !sc.Enabled {
		return
	}
	if len(sc.Companies) == 0 {
		res.errf("sources.%s.enabled=true but sources.%s.companies is empty", name, name)
		return
	}
	for i, c := range sc.Companies {
		if c.Slug == "" {
			res.errf("sources.%s.companies[%d] missing slug", name, i)
		} else if name != "workday" && !slugRe.MatchString(c.Slug) {
			res.warnf("sources.%s.companies[%d].slug %q looks unusual (expected lowercase slug)", name, i, c.Slug)
		}
	}
}

// NormalizeAndValidate returns a normalized copy + validation messages.
// Keep normalization conservative (trim, dedupe, consistent casing) so you
// don't surprise users.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Preferences.Roles = trimDedupe(out.Preferences.Roles, true)
	out.Preferences.Locations = trimDedupe(out.Preferences.Locations, true)
	out.Email.SearchSubjectAny = trimDedupe(out.Email.SearchSubjectAny, false)

	out.Sources.Greenhouse.Companies = normalizeCompanies(out.Sources.Greenhouse.Companies)
	out.Sources.Lever.Companies = normalizeCompanies(out.Sources.Lever.Companies)
	out.Sources.Ashby.Companies = normalizeCompanies(out.Sources.Ashby.Companies)
	out.Sources.Workable.Companies = normalizeCompanies(out.Sources.Workable.Companies)
	out.Sources.SmartRecruiters.Companies = normalizeCompanies(out.Sources.SmartRecruiters.Companies)
	out.Sources.BambooHR.Companies = normalizeCompanies(out.Sources.BambooHR.Companies)
	out.Sources.Workday.Companies = normalizeCompanies(out.Sources.Workday.Companies)

	// run profile sanity
	if out.Run.HoursBack <= 0 {
		res.warnf("run.hours_back is <= 0; defaulting to 168 (7 days) at call sites")
	}
	if out.Run.MaxConcurrentFetch < 0 {
		res.errf("run.max_concurrent_fetch must be >= 0")
	}
	if out.Run.WorkdayCompanyLimit < 0 {
		res.errf("run.workday_company_limit must be >= 0")
	}

	checkCompanySource(&res, "greenhouse", out.Sources.Greenhouse)
	checkCompanySource(&res, "lever", out.Sources.Lever)
	checkCompanySource(&res, "ashby", out.Sources.Ashby)
	checkCompanySource(&res, "workable", out.Sources.Workable)
	checkCompanySource(&res, "smartrecruiters", out.Sources.SmartRecruiters)
	checkCompanySource(&res, "bamboohr", out.Sources.BambooHR)
	checkCompanySource(&res, "workday", out.Sources.Workday)
	if out.Sources.Adzuna.Enabled && (out.Sources.Adzuna.AppID == "" || out.Sources.Adzuna.AppKey == "") {
		res.errf("sources.adzuna.enabled=true but app_id/app_key are missing")
	}
	if out.Sources.JSearch.Enabled && out.Sources.JSearch.RapidAPIKey == "" {
		res.errf("sources.jsearch.enabled=true but rapidapi_key is missing")
	}
	if out.Sources.CuratedJSON.Enabled && len(out.Sources.CuratedJSON.Feeds) == 0 {
		res.warnf("sources.curated_json.enabled=true but feeds list is empty")
	}
	if out.Sources.CuratedMD.Enabled && len(out.Sources.CuratedMD.Feeds) == 0 {
		res.warnf("sources.curated_markdown.enabled=true but feeds list is empty")
	}
	if out.Sources.SimplifyFeed.Enabled && len(out.Sources.SimplifyFeed.Feeds) == 0 {
		res.warnf("sources.simplify_feed.enabled=true but feeds list is empty")
	}

	if out.Sources.Jobright.Enabled {
		res.warnf("sources.jobright.enabled=true: this adapter scrapes a rendered DOM with no public API and is the most likely to break silently")
	}

	// email specifics
	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.errf("email.imap_host is required when email.enabled=true")
		}
		if out.Email.IMAPPort <= 0 || out.Email.IMAPPort > 65535 {
			res.errf("email.imap_port must be a valid port (1-65535) when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.errf("email.username is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.AppPassword) == "" {
			res.errf("email.app_password is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Mailbox) == "" {
			res.errf("email.mailbox is required when email.enabled=true")
		}
	}

	anyBrowserAdapter := out.Sources.LinkedInAuth.Enabled ||
		out.Sources.Simplify.Enabled || out.Sources.Jobright.Enabled
	if anyBrowserAdapter && strings.TrimSpace(out.Browser.ProfileDir) == "" {
		res.errf("browser.profile_dir is required when any browser-driven adapter is enabled")
	}

	sort.Strings(res.Errors)
	sort.Strings(res.Warnings)

	return out, res
}
