// internal/config/config.go
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Company names one board on a per-company ATS adapter (Greenhouse, Lever,
// Ashby). Slug is the board's URL path component; Name is cosmetic.
type Company struct {
	Slug string `yaml:"slug" json:"slug"`
	Name string `yaml:"name" json:"name"`
}

type Feed struct {
	URL   string `yaml:"url" json:"url"`
	Label string `yaml:"label" json:"label"`
}

type SourceConfig struct {
	Enabled   bool      `yaml:"enabled" json:"enabled"`
	Companies []Company `yaml:"companies" json:"companies"`
}

type FeedSourceConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Feeds   []Feed `yaml:"feeds" json:"feeds"`
}

// ApiCredentialSource covers the Adzuna aggregator adapter, which needs an
// app_id/app_key pair rather than a company/board list.
type ApiCredentialSource struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	AppID   string `yaml:"app_id" json:"app_id"`
	AppKey  string `yaml:"app_key" json:"app_key"`
}

type BrowserSourceConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Sources bundles the per-adapter enablement + board/feed/credential
// configuration, one field per adapter named in §4.4.
type Sources struct {
	Greenhouse      SourceConfig        `yaml:"greenhouse" json:"greenhouse"`
	Lever           SourceConfig        `yaml:"lever" json:"lever"`
	Ashby           SourceConfig        `yaml:"ashby" json:"ashby"`
	Workable        SourceConfig        `yaml:"workable" json:"workable"`
	SmartRecruiters SourceConfig        `yaml:"smartrecruiters" json:"smartrecruiters"`
	BambooHR        SourceConfig        `yaml:"bamboohr" json:"bamboohr"`
	// Workday companies are addressed by their public job board URL
	// (https://<tenant>.<wdN>.myworkdayjobs.com/[<locale>/]<site>) rather
	// than a bare slug, so Company.Slug carries the whole URL here; the
	// adapter derives the CXS jobs endpoint from it (§4.4).
	Workday SourceConfig        `yaml:"workday" json:"workday"`
	Adzuna  ApiCredentialSource `yaml:"adzuna" json:"adzuna"`
	JSearch         struct {
		Enabled    bool   `yaml:"enabled" json:"enabled"`
		RapidAPIKey string `yaml:"rapidapi_key" json:"rapidapi_key"`
	} `yaml:"jsearch" json:"jsearch"`
	RemoteOK     BrowserSourceConfig `yaml:"remoteok" json:"remoteok"`
	CuratedJSON  FeedSourceConfig    `yaml:"curated_json" json:"curated_json"`
	CuratedMD    FeedSourceConfig    `yaml:"curated_markdown" json:"curated_markdown"`
	SimplifyFeed FeedSourceConfig    `yaml:"simplify_feed" json:"simplify_feed"`

	LinkedInGuest BrowserSourceConfig `yaml:"linkedin_guest" json:"linkedin_guest"`
	LinkedInAuth  BrowserSourceConfig `yaml:"linkedin_auth" json:"linkedin_auth"`
	Simplify      BrowserSourceConfig `yaml:"simplify" json:"simplify"`
	// Jobright defaults off: it has no public API and is the most
	// fragile of the browser-driven adapters (§4.4 "opt in, off unless
	// explicitly enabled").
	Jobright BrowserSourceConfig `yaml:"jobright" json:"jobright"`
}

type CompaniesFile struct {
	Sources Sources `yaml:"sources" json:"sources"`
}

// Preferences narrows which postings a run accepts, beyond the
// always-match allowlist and hardcoded seniority block (§4.2): the role
// list can only extend the always-match set, never restrict it.
type Preferences struct {
	Roles     []string `yaml:"roles" json:"roles"`
	Locations []string `yaml:"locations" json:"locations"`
}

// RunProfile holds the per-run knobs §4.6/§6 describe: how far back to
// look, and how many companies/requests the orchestrator budgets per run.
type RunProfile struct {
	HoursBack           float64 `yaml:"hours_back" json:"hours_back"`
	WorkdayCompanyLimit int     `yaml:"workday_company_limit" json:"workday_company_limit"`
	MaxConcurrentFetch  int     `yaml:"max_concurrent_fetch" json:"max_concurrent_fetch"`
}

type BrowserConfig struct {
	ProfileDir string `yaml:"profile_dir" json:"profile_dir"`
}

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Run         RunProfile  `yaml:"run" json:"run"`
	Preferences Preferences `yaml:"preferences" json:"preferences"`
	Browser     BrowserConfig `yaml:"browser" json:"browser"`

	Email struct {
		Enabled          bool     `yaml:"enabled" json:"enabled"`
		IMAPHost         string   `yaml:"imap_host" json:"imap_host"`
		IMAPPort         int      `yaml:"imap_port" json:"imap_port"`
		Username         string   `yaml:"username" json:"username"`
		AppPassword      string   `yaml:"app_password" json:"app_password"`
		Mailbox          string   `yaml:"mailbox" json:"mailbox"`
		SearchSubjectAny []string `yaml:"search_subject_any" json:"search_subject_any"`
	} `yaml:"email" json:"email"`

	Sources     Sources `yaml:"sources" json:"sources"`
	SourcesFile string  `yaml:"sources_file" json:"sources_file"`
}

func Load(path string) (Config, error) {
	var cfg Config

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	// Load companies.yml if configured
	if cfg.SourcesFile != "" {
		if err := loadCompaniesFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// loadCompaniesFile overlays the per-adapter board/feed lists from a
// separate file onto cfg, replacing only those lists and never touching
// any user-configured setting (enablement flags, credentials, run
// profile) — the same pattern the teacher's companies.yml loader follows.
func loadCompaniesFile(configPath string, cfg *Config) error {
	companiesPath := cfg.SourcesFile
	if !filepath.IsAbs(companiesPath) {
		companiesPath = filepath.Join(filepath.Dir(configPath), companiesPath)
	}

	b, err := os.ReadFile(companiesPath)
	if err != nil {
		// IMPORTANT: missing companies.yml should NOT break startup
		return nil
	}

	var cf CompaniesFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return err
	}

	overlayCompanyLists(cf, cfg)
	return nil
}
