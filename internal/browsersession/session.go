// Package browsersession is the scoped acquisition and release of an
// automated browser and its pages, parameterized by a types.Configuration,
// per spec §4.4 and the "scoped acquisition of browser + page" design note
// in §9: session outer, page inner, release guaranteed on every exit path.
package browsersession

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/edgecomet/national-treasure/pkg/types"
)

// sessionStatus mirrors the render pool's lifecycle states, generalized
// from a fixed pool slot to a one-shot, per-job session.
type sessionStatus int32

const (
	statusIdle sessionStatus = iota
	statusActive
	statusDead
)

// Session is a scoped browser instance launched under one Configuration.
// A Session owns exactly one browser process; it is never shared across
// concurrent jobs (spec §5's single-consumer-per-session rule).
type Session struct {
	config types.Configuration
	logger *zap.Logger

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc

	createdAt      time.Time
	browserVersion string
	status         int32 // sessionStatus
}

// Acquire launches a browser with the configuration's flags (stealth flags
// when enabled, viewport, user agent) and returns a scoped Session. Callers
// must call Release on every exit path.
func Acquire(ctx context.Context, cfg types.Configuration, logger *zap.Logger) (*Session, error) {
	s := &Session{
		config:    cfg,
		logger:    logger,
		createdAt: time.Now().UTC(),
		status:    int32(statusIdle),
	}

	opts := buildExecAllocatorOptions(cfg)
	s.allocatorCtx, s.allocatorCancel = chromedp.NewExecAllocator(ctx, opts...)
	s.browserCtx, s.browserCancel = chromedp.NewContext(s.allocatorCtx)

	if err := chromedp.Run(s.browserCtx); err != nil {
		s.allocatorCancel()
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}

	if err := chromedp.Run(s.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, product, _, _, _, err := browser.GetVersion().Do(ctx)
		if err != nil {
			return err
		}
		s.browserVersion = product
		return nil
	})); err != nil {
		logger.Warn("failed to capture browser version", zap.Error(err))
	}

	if cfg.Stealth {
		if err := applyStealth(s.browserCtx); err != nil {
			logger.Warn("stealth patch failed", zap.Error(err))
		}
	}

	return s, nil
}

// buildExecAllocatorOptions derives chromedp flags from the configuration,
// generalizing the render pool's hardcoded flag set into one keyed off
// HeadlessKind, viewport, user agent, and the stealth toggle.
func buildExecAllocatorOptions(cfg types.Configuration) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
	}

	switch cfg.HeadlessKind {
	case types.HeadlessShell:
		opts = append(opts, chromedp.Flag("headless", "old"))
	case types.HeadlessNew:
		opts = append(opts, chromedp.Flag("headless", "new"))
	case types.HeadlessLegacy:
		opts = append(opts, chromedp.Flag("headless", true))
	case types.HeadlessVisible:
		opts = append(opts, chromedp.Flag("headless", false))
	}

	if cfg.ViewportW > 0 && cfg.ViewportH > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.ViewportW, cfg.ViewportH))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	if cfg.Stealth {
		opts = append(opts,
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.Flag("enable-automation", false),
			chromedp.Flag("disable-infobars", true),
		)
	}

	return append(chromedp.DefaultExecAllocatorOptions[:], opts...)
}

// applyStealth removes the navigator.webdriver marker and other automation
// tells, run once per session right after launch.
func applyStealth(ctx context.Context) error {
	const script = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`
	return chromedp.Run(ctx, chromedp.Evaluate(script, nil))
}

// Release closes the browser and any runtime it owns. Safe to call multiple
// times and on every exit path (success, failure, cancellation).
func (s *Session) Release() {
	atomic.StoreInt32(&s.status, int32(statusDead))
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocatorCancel != nil {
		s.allocatorCancel()
	}
}

// IsAlive reports whether the underlying browser still responds.
func (s *Session) IsAlive() bool {
	if sessionStatus(atomic.LoadInt32(&s.status)) == statusDead {
		return false
	}
	ctx, cancel := context.WithTimeout(s.browserCtx, 5*time.Second)
	defer cancel()
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, _, _, _, err := browser.GetVersion().Do(ctx)
		return err
	})) == nil
}

// BrowserVersion returns the captured browser product string.
func (s *Session) BrowserVersion() string {
	return s.browserVersion
}

// Age returns how long the session's browser process has been running.
func (s *Session) Age() time.Duration {
	return time.Since(s.createdAt)
}
