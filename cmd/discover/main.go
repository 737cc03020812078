// Command discover runs one job-discovery pass: it loads the user's
// configuration, fans the enabled source adapters out across the
// orchestrator's three phases, and persists every admitted record to the
// local SQLite store, mirroring the teacher's single-instance-locked
// engine startup sequence (§6, originally daily_runner.py).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"jobtrawl/internal/config"
	"jobtrawl/internal/orchestrator"
	"jobtrawl/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		hours         = flag.Float64("hours", 0, "override run.hours_back for this invocation")
		skipDiscovery = flag.Bool("skip-discovery", false, "skip the discovery phase entirely")
		skipApply     = flag.Bool("skip-apply", false, "accepted but unused: tailoring/submission is out of scope")
		maxTailor     = flag.Int("max-tailor", 20, "accepted but unused: tailoring/submission is out of scope")
		singleJob     = flag.String("single-job", "", "accepted but unused: tailoring/submission is out of scope")
	)
	flag.Parse()
	_ = skipApply
	_ = maxTailor
	_ = singleJob

	if *skipDiscovery {
		log.Printf("--skip-discovery set, nothing to do")
		return nil
	}

	dataDir := os.Getenv("JOBTRAWL_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	lockPath := filepath.Join(dataDir, "discover.lock")
	lk := flock.New(lockPath)
	deadline := time.Now().Add(1 * time.Second)
	for {
		locked, err := lk.TryLock()
		if err != nil {
			return fmt.Errorf("lock %s: %w", lockPath, err)
		}
		if locked {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("discover is already running: %s", lockPath)
		}
		time.Sleep(50 * time.Millisecond)
	}
	defer func() { _ = lk.Unlock() }()

	defaultConfigPath := os.Getenv("JOBTRAWL_DEFAULT_CONFIG")
	if defaultConfigPath == "" {
		defaultConfigPath = "config.example.yml"
	}
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultConfigPath)
	if err != nil {
		return fmt.Errorf("config bootstrap: %w", err)
	}

	cfg, err := config.Load(userCfgPath)
	if err != nil {
		return fmt.Errorf("config load (%s): %w", userCfgPath, err)
	}

	cfg, validation := config.NormalizeAndValidate(cfg)
	for _, w := range validation.Warnings {
		log.Printf("config warning: %s", w)
	}
	if !validation.OK() {
		for _, e := range validation.Errors {
			log.Printf("config error: %s", e)
		}
		return fmt.Errorf("invalid configuration (%d errors)", len(validation.Errors))
	}

	dbPath := filepath.Join(dataDir, "applications.db")
	if v := os.Getenv("JOB_DB_PATH"); v != "" {
		dbPath = v
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	sink := store.Sink{DB: db}
	orch := orchestrator.New(cfg, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	defer cancel()

	summary, err := orch.Run(ctx, *hours)
	if err != nil {
		return fmt.Errorf("discovery run: %w", err)
	}

	log.Printf("discovery run complete: %d records admitted", summary.Total)
	for src, n := range summary.Counts {
		log.Printf("  %-16s %d", src, n)
	}
	for src, msg := range summary.Errors {
		log.Printf("  %-16s ERROR: %s", src, msg)
	}

	return nil
}
