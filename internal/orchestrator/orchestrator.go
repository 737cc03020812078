// Package orchestrator drives one discovery run end to end (§4.6): a
// bounded concurrent fan-out over the API-based adapters, a sequential pass
// over the first N Workday boards, and a sequential pass over the
// browser-driven adapters, all pushing through a single shared
// jobrecord.Run so the dedup/filter choke point sees every candidate
// exactly once regardless of which phase produced it.
package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"jobtrawl/internal/adapter/ashby"
	"jobtrawl/internal/adapter/adzuna"
	"jobtrawl/internal/adapter/bamboohr"
	"jobtrawl/internal/adapter/curatedjson"
	"jobtrawl/internal/adapter/curatedmd"
	"jobtrawl/internal/adapter/emailfeed"
	"jobtrawl/internal/adapter/greenhouse"
	"jobtrawl/internal/adapter/jobright"
	"jobtrawl/internal/adapter/jsearch"
	"jobtrawl/internal/adapter/lever"
	"jobtrawl/internal/adapter/linkedinauth"
	"jobtrawl/internal/adapter/linkedinguest"
	"jobtrawl/internal/adapter/remoteok"
	"jobtrawl/internal/adapter/simplify"
	"jobtrawl/internal/adapter/simplifyfeed"
	"jobtrawl/internal/adapter/smartrecruiters"
	"jobtrawl/internal/adapter/types"
	"jobtrawl/internal/adapter/workable"
	"jobtrawl/internal/adapter/workday"
	"jobtrawl/internal/browser"
	"jobtrawl/internal/config"
	"jobtrawl/internal/filters"
	"jobtrawl/internal/httpclient"
	"jobtrawl/internal/jobrecord"
	"jobtrawl/internal/secrets"
)

const userAgent = "jobtrawl/1.0 (+https://github.com/jobtrawl)"

// defaultWorkdayCompanyLimit mirrors §4.6's "first 15 companies" budget
// for the sequential Workday phase.
const defaultWorkdayCompanyLimit = 15

// defaultMaxConcurrentFetch is the suggested bound on in-flight Phase 1
// requests (§4.6, DOMAIN STACK: x/sync/semaphore "suggested 50").
const defaultMaxConcurrentFetch = 50

// Summary is the end-of-run report the CLI prints (§4.6's "final
// per-source count breakdown").
type Summary struct {
	Counts map[jobrecord.Source]int
	Errors map[jobrecord.Source]string
	Total  int
}

type Orchestrator struct {
	cfg  config.Config
	sink jobrecord.Sink
}

func New(cfg config.Config, sink jobrecord.Sink) *Orchestrator {
	return &Orchestrator{cfg: cfg, sink: sink}
}

// Run executes all three phases against a single Run and returns the
// per-source summary. hoursBack overrides cfg.Run.HoursBack when > 0 (the
// CLI's --hours flag, §6).
func (o *Orchestrator) Run(ctx context.Context, hoursBack float64) (Summary, error) {
	if hoursBack <= 0 {
		hoursBack = o.cfg.Run.HoursBack
	}
	if hoursBack <= 0 {
		hoursBack = 168
	}

	run := o.newRun(hoursBack)
	hc := httpclient.New(userAgent)
	limiter := httpclient.NewHostLimiter(2, 4)

	errs := make(map[jobrecord.Source]string)

	o.runPhase1(ctx, run, hc, limiter, errs)
	o.runPhase2(ctx, run, limiter, errs)
	o.runPhase3(ctx, run, hc, errs)

	return o.summarize(run, errs), nil
}

func (o *Orchestrator) newRun(hoursBack float64) *jobrecord.Run {
	f := filters.Filters{
		IsSenior: filters.IsSenior,
		AcceptRole: filters.RoleAcceptor{
			UserRoles: o.cfg.Preferences.Roles,
		}.Accept,
		AcceptLocation: filters.USLocationAccept,
	}
	fresh := filters.NewFreshness(time.Now(), hoursBack)
	f.AcceptFreshness = fresh.Accept

	return jobrecord.NewRun(f, o.sink, time.Now)
}

// runPhase1 fans out the API-based adapters concurrently, bounded by a
// semaphore, isolating each adapter's failure from the others (§4.6).
func (o *Orchestrator) runPhase1(ctx context.Context, run *jobrecord.Run, hc *httpclient.Client, limiter *httpclient.HostLimiter, errs map[jobrecord.Source]string) {
	maxConc := o.cfg.Run.MaxConcurrentFetch
	if maxConc <= 0 {
		maxConc = defaultMaxConcurrentFetch
	}
	sem := semaphore.NewWeighted(int64(maxConc))

	fetchers := o.phase1Fetchers(hc, limiter)

	g, gctx := errgroup.WithContext(ctx)
	var mu errMu
	for _, f := range fetchers {
		f := f
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			res, err := f.Fetch(gctx, run)
			if res.Finalize != nil {
				_ = res.Finalize(gctx)
			}
			if err != nil {
				log.Printf("[%s] phase1 error: %v", f.Name(), err)
				mu.set(errs, res.Source, err.Error())
				return nil
			}
			log.Printf("[%s] attempted=%d accepted=%d", f.Name(), res.Attempted, res.Accepted)
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) phase1Fetchers(hc *httpclient.Client, limiter *httpclient.HostLimiter) []types.Fetcher {
	var out []types.Fetcher

	if o.cfg.Sources.Greenhouse.Enabled {
		out = append(out, greenhouse.New(greenhouse.Config{Companies: toGreenhouseCompanies(o.cfg.Sources.Greenhouse.Companies)}, hc))
	}
	if o.cfg.Sources.Lever.Enabled {
		out = append(out, lever.New(lever.Config{Companies: toLeverCompanies(o.cfg.Sources.Lever.Companies)}, hc, limiter))
	}
	if o.cfg.Sources.Ashby.Enabled {
		out = append(out, ashby.New(ashby.Config{Companies: toAshbyCompanies(o.cfg.Sources.Ashby.Companies)}, hc))
	}
	if o.cfg.Sources.Workable.Enabled {
		out = append(out, workable.New(workable.Config{Companies: toWorkableCompanies(o.cfg.Sources.Workable.Companies)}, hc))
	}
	if o.cfg.Sources.SmartRecruiters.Enabled {
		out = append(out, smartrecruiters.New(smartrecruiters.Config{Companies: toSmartRecruitersCompanies(o.cfg.Sources.SmartRecruiters.Companies)}, hc, limiter))
	}
	if o.cfg.Sources.BambooHR.Enabled {
		out = append(out, bamboohr.New(bamboohr.Config{Companies: toBambooCompanies(o.cfg.Sources.BambooHR.Companies)}, hc))
	}
	if o.cfg.Sources.RemoteOK.Enabled {
		out = append(out, remoteok.New(hc))
	}
	if o.cfg.Sources.Adzuna.Enabled {
		id, idErr := secrets.ResolveAdzunaAppID(o.cfg)
		key, keyErr := secrets.ResolveAdzunaAppKey(o.cfg)
		if idErr == nil && keyErr == nil && id != "" && key != "" {
			out = append(out, adzuna.New(adzuna.Config{AppID: id, AppKey: key}, hc))
		}
	}
	if o.cfg.Sources.JSearch.Enabled {
		if key, err := secrets.ResolveRapidAPIKey(o.cfg); err == nil {
			out = append(out, jsearch.New(jsearch.Config{RapidAPIKey: key}, hc))
		}
	}
	if o.cfg.Sources.CuratedJSON.Enabled {
		out = append(out, curatedjson.New(curatedjson.Config{Feeds: toAdapterFeeds(o.cfg.Sources.CuratedJSON.Feeds, toCuratedJSONFeed)}, hc))
	}
	if o.cfg.Sources.CuratedMD.Enabled {
		out = append(out, curatedmd.New(curatedmd.Config{Feeds: toAdapterFeeds(o.cfg.Sources.CuratedMD.Feeds, toCuratedMDFeed)}, hc))
	}
	if o.cfg.Sources.SimplifyFeed.Enabled {
		out = append(out, simplifyfeed.New(simplifyfeed.Config{Feeds: toAdapterFeeds(o.cfg.Sources.SimplifyFeed.Feeds, toSimplifyFeedFeed)}, hc))
	}
	if o.cfg.Sources.LinkedInGuest.Enabled {
		out = append(out, linkedinguest.New(linkedinguest.Config{HoursBack: o.cfg.Run.HoursBack}, hc))
	}
	if o.cfg.Email.Enabled {
		pw, err := secrets.ResolveIMAPPassword(o.cfg)
		if err != nil {
			log.Printf("[email] %v", err)
		} else {
			out = append(out, emailfeed.New(emailfeed.Config{
				Enabled:          true,
				IMAPHost:         o.cfg.Email.IMAPHost,
				IMAPPort:         o.cfg.Email.IMAPPort,
				Username:         o.cfg.Email.Username,
				AppPassword:      pw,
				Mailbox:          o.cfg.Email.Mailbox,
				SearchSubjectAny: o.cfg.Email.SearchSubjectAny,
			}))
		}
	}

	return out
}

// runPhase2 walks the configured Workday boards sequentially, capped at
// the first N companies per run (§4.6).
func (o *Orchestrator) runPhase2(ctx context.Context, run *jobrecord.Run, limiter *httpclient.HostLimiter, errs map[jobrecord.Source]string) {
	if !o.cfg.Sources.Workday.Enabled {
		return
	}
	companies := o.cfg.Sources.Workday.Companies
	limit := o.cfg.Run.WorkdayCompanyLimit
	if limit <= 0 {
		limit = defaultWorkdayCompanyLimit
	}
	if len(companies) > limit {
		log.Printf("[workday] %d companies configured, capping phase 2 at %d per run", len(companies), limit)
		companies = companies[:limit]
	}

	w := workday.New(workday.Config{Companies: toWorkdayCompanies(companies)}, limiter)
	res, err := w.Fetch(ctx, run)
	if err != nil {
		log.Printf("[workday] phase2 error: %v", err)
		errs[jobrecord.SourceWorkday] = err.Error()
		return
	}
	log.Printf("[workday] attempted=%d accepted=%d", res.Attempted, res.Accepted)
}

// runPhase3 drives the browser-based adapters sequentially against one
// shared profile (§4.5's single-context resource rule): Simplify first,
// then LinkedIn-authenticated, then Jobright if explicitly enabled.
func (o *Orchestrator) runPhase3(ctx context.Context, run *jobrecord.Run, hc *httpclient.Client, errs map[jobrecord.Source]string) {
	needsBrowser := o.cfg.Sources.Simplify.Enabled || o.cfg.Sources.LinkedInAuth.Enabled || o.cfg.Sources.Jobright.Enabled
	if !needsBrowser {
		return
	}
	if o.cfg.Browser.ProfileDir == "" {
		log.Printf("[phase3] browser.profile_dir not set, skipping all browser-driven adapters")
		return
	}

	profile, err := browser.Open(o.cfg.Browser.ProfileDir)
	if err != nil {
		log.Printf("[phase3] failed to open browser profile: %v", err)
		return
	}
	defer profile.Close()

	runOne := func(f types.Fetcher) {
		res, err := f.Fetch(ctx, run)
		if res.Finalize != nil {
			_ = res.Finalize(ctx)
		}
		if err != nil {
			log.Printf("[%s] phase3 error: %v", f.Name(), err)
			errs[res.Source] = err.Error()
			return
		}
		log.Printf("[%s] attempted=%d accepted=%d", f.Name(), res.Attempted, res.Accepted)
	}

	if o.cfg.Sources.Simplify.Enabled {
		runOne(simplify.New(profile))
	}
	if o.cfg.Sources.LinkedInAuth.Enabled {
		runOne(linkedinauth.New(profile))
	}
	if o.cfg.Sources.Jobright.Enabled {
		runOne(jobright.New(jobright.Config{Enabled: true}, profile))
	}
}

func (o *Orchestrator) summarize(run *jobrecord.Run, errs map[jobrecord.Source]string) Summary {
	counts := run.Counts()
	total := 0
	for _, n := range counts {
		total += n
	}
	return Summary{Counts: counts, Errors: errs, Total: total}
}

// errMu guards concurrent writes into the shared per-source error map
// from Phase 1's parallel fan-out.
type errMu struct{ mu sync.Mutex }

func (m *errMu) set(dst map[jobrecord.Source]string, src jobrecord.Source, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dst[src] = msg
}
