// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// OverlayCompanies replaces the per-adapter board/feed lists in cfg with
// whatever companiesPath carries, leaving every other setting untouched.
// A missing file is not an error: a fresh install runs with empty lists
// until the user populates one.
func OverlayCompanies(cfg *Config, companiesPath string) error {
	b, err := os.ReadFile(companiesPath)
	if err != nil {
		return nil
	}

	var cf CompaniesFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return err
	}

	overlayCompanyLists(cf, cfg)
	return nil
}

// overlayCompanyLists is the single place that knows which adapter's list
// to replace; Load's sources_file path and OverlayCompanies both funnel
// through it so the two entry points can't drift.
func overlayCompanyLists(cf CompaniesFile, cfg *Config) {
	if len(cf.Sources.Greenhouse.Companies) > 0 {
		cfg.Sources.Greenhouse.Companies = cf.Sources.Greenhouse.Companies
	}
	if len(cf.Sources.Lever.Companies) > 0 {
		cfg.Sources.Lever.Companies = cf.Sources.Lever.Companies
	}
	if len(cf.Sources.Ashby.Companies) > 0 {
		cfg.Sources.Ashby.Companies = cf.Sources.Ashby.Companies
	}
	if len(cf.Sources.Workable.Companies) > 0 {
		cfg.Sources.Workable.Companies = cf.Sources.Workable.Companies
	}
	if len(cf.Sources.SmartRecruiters.Companies) > 0 {
		cfg.Sources.SmartRecruiters.Companies = cf.Sources.SmartRecruiters.Companies
	}
	if len(cf.Sources.BambooHR.Companies) > 0 {
		cfg.Sources.BambooHR.Companies = cf.Sources.BambooHR.Companies
	}
	if len(cf.Sources.Workday.Companies) > 0 {
		cfg.Sources.Workday.Companies = cf.Sources.Workday.Companies
	}
	if len(cf.Sources.CuratedJSON.Feeds) > 0 {
		cfg.Sources.CuratedJSON.Feeds = cf.Sources.CuratedJSON.Feeds
	}
	if len(cf.Sources.CuratedMD.Feeds) > 0 {
		cfg.Sources.CuratedMD.Feeds = cf.Sources.CuratedMD.Feeds
	}
	if len(cf.Sources.SimplifyFeed.Feeds) > 0 {
		cfg.Sources.SimplifyFeed.Feeds = cf.Sources.SimplifyFeed.Feeds
	}
}
