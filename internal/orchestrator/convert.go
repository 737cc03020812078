package orchestrator

import (
	"jobtrawl/internal/adapter/ashby"
	"jobtrawl/internal/adapter/bamboohr"
	"jobtrawl/internal/adapter/curatedjson"
	"jobtrawl/internal/adapter/curatedmd"
	"jobtrawl/internal/adapter/greenhouse"
	"jobtrawl/internal/adapter/lever"
	"jobtrawl/internal/adapter/simplifyfeed"
	"jobtrawl/internal/adapter/smartrecruiters"
	"jobtrawl/internal/adapter/workable"
	"jobtrawl/internal/adapter/workday"
	"jobtrawl/internal/config"
)

// Each adapter package defines its own Company/Feed shape even though
// most are structurally identical to config.Company/config.Feed, so the
// orchestrator is the one place that knows how to translate user
// configuration into adapter-specific types.

func toGreenhouseCompanies(cs []config.Company) []greenhouse.Company {
	out := make([]greenhouse.Company, 0, len(cs))
	for _, c := range cs {
		out = append(out, greenhouse.Company{Slug: c.Slug, Name: c.Name})
	}
	return out
}

func toLeverCompanies(cs []config.Company) []lever.Company {
	out := make([]lever.Company, 0, len(cs))
	for _, c := range cs {
		out = append(out, lever.Company{Slug: c.Slug, Name: c.Name})
	}
	return out
}

func toAshbyCompanies(cs []config.Company) []ashby.Company {
	out := make([]ashby.Company, 0, len(cs))
	for _, c := range cs {
		out = append(out, ashby.Company{OrgName: c.Slug, Name: c.Name})
	}
	return out
}

func toWorkableCompanies(cs []config.Company) []workable.Company {
	out := make([]workable.Company, 0, len(cs))
	for _, c := range cs {
		out = append(out, workable.Company{Account: c.Slug, Name: c.Name})
	}
	return out
}

func toSmartRecruitersCompanies(cs []config.Company) []smartrecruiters.Company {
	out := make([]smartrecruiters.Company, 0, len(cs))
	for _, c := range cs {
		out = append(out, smartrecruiters.Company{Slug: c.Slug, Name: c.Name})
	}
	return out
}

func toBambooCompanies(cs []config.Company) []bamboohr.Company {
	out := make([]bamboohr.Company, 0, len(cs))
	for _, c := range cs {
		out = append(out, bamboohr.Company{Subdomain: c.Slug, Name: c.Name})
	}
	return out
}

func toWorkdayCompanies(cs []config.Company) []workday.Company {
	out := make([]workday.Company, 0, len(cs))
	for _, c := range cs {
		out = append(out, workday.Company{Slug: c.Slug, Name: c.Name})
	}
	return out
}

// toAdapterFeeds generalizes the three feed adapters' identical
// Feed{URL,Label} shape, converting config.Feed through each adapter
// package's own type via the mk constructor supplied by the caller.
func toAdapterFeeds[T any](fs []config.Feed, mk func(url, label string) T) []T {
	out := make([]T, 0, len(fs))
	for _, f := range fs {
		out = append(out, mk(f.URL, f.Label))
	}
	return out
}

func toCuratedJSONFeed(url, label string) curatedjson.Feed {
	return curatedjson.Feed{URL: url, Label: label}
}

func toCuratedMDFeed(url, label string) curatedmd.Feed {
	return curatedmd.Feed{URL: url, Label: label}
}

func toSimplifyFeedFeed(url, label string) simplifyfeed.Feed {
	return simplifyfeed.Feed{URL: url, Label: label}
}
