// Package browser provides the shared headful-browser substrate the
// login-gated adapters drive (§4.5): a persistent on-disk profile directory
// reused across every browser adapter in a run so one interactive login
// covers multiple sites, built on go-rod the way the retrieval pack's
// browser-automation manifests (Klukvas-Jobber, codenerd, amzn-gastown)
// carry it as a dependency.
package browser

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Profile owns the single persistent browser context shared by every
// browser-driven adapter within one discovery run. §5's resource model
// requires it be opened by at most one context at a time, which the
// orchestrator enforces by running Phase 3 sequentially rather than this
// type locking internally.
type Profile struct {
	Dir     string
	browser *rod.Browser
	l       *launcher.Launcher
}

// Open launches a headful Chromium instance against the persistent profile
// directory at dir, with the automation-signature flag disabled and a
// desktop viewport (§4.5).
func Open(dir string) (*Profile, error) {
	l := launcher.New().
		UserDataDir(dir).
		Headless(false).
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", "1366,900")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	return &Profile{Dir: dir, browser: b, l: l}, nil
}

// Close tears down the browser connection and the launcher process.
func (p *Profile) Close() error {
	if p == nil || p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	if p.l != nil {
		p.l.Cleanup()
	}
	return err
}

// Page opens a fresh page against the shared browser, with a viewport and
// user-agent matching the teacher's desktop-rendering assumption.
func (p *Profile) Page(ctx context.Context) (*rod.Page, error) {
	page, err := p.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("browser: new page: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: desktopUserAgent}); err != nil {
		log.Printf("[browser] set user agent: %v", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: 1366, Height: 900}); err != nil {
		log.Printf("[browser] set viewport: %v", err)
	}
	return page, nil
}

// LoginWait polls the page's current URL once per second until it matches
// one of wantFragments (a post-login URL indicator) or timeout elapses
// (§4.5's "poll page URL once per second for up to 120s" contract, shared
// by LinkedIn-authenticated and Simplify).
func LoginWait(ctx context.Context, page *rod.Page, wantFragments []string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}
		info, err := page.Info()
		if err == nil {
			low := strings.ToLower(info.URL)
			for _, frag := range wantFragments {
				if strings.Contains(low, strings.ToLower(frag)) {
					return true
				}
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Second):
		}
	}
	return false
}
