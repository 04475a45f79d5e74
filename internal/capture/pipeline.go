// Package capture orchestrates the one-shot page capture: browser session,
// navigation, validation, optional behaviors, and artifact emission, per
// spec §4.5.
package capture

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/edgecomet/national-treasure/internal/behaviors"
	"github.com/edgecomet/national-treasure/internal/browsersession"
	"github.com/edgecomet/national-treasure/internal/validator"
	"github.com/edgecomet/national-treasure/pkg/types"
)

// Request describes one capture job.
type Request struct {
	URL                  string
	Config               types.Configuration
	Artifacts            []types.ArtifactKind
	BehaviorsEnabled     bool
	PreNavigationCookies map[string]string

	NavigationTimeout time.Duration
	BehaviorTimeout   time.Duration
	OverallTimeout    time.Duration
}

// Pipeline is the reusable orchestrator; ArtifactDir is where emitted
// artifacts are rooted.
type Pipeline struct {
	logger      *zap.Logger
	validator   *validator.Validator
	artifactDir string
}

// New builds a Pipeline.
func New(v *validator.Validator, artifactDir string, logger *zap.Logger) *Pipeline {
	return &Pipeline{validator: v, artifactDir: artifactDir, logger: logger}
}

// Run executes all nine phases of spec §4.5 and always returns a populated
// CaptureResult, even on failure.
func (p *Pipeline) Run(ctx context.Context, req Request) types.CaptureResult {
	start := time.Now()
	result := types.CaptureResult{SchemaVersion: types.SchemaVersion, Artifacts: map[types.ArtifactKind]string{}}

	overallCtx, cancel := context.WithTimeout(ctx, req.OverallTimeout)
	defer cancel()

	// Phase 1: open browser session under the configuration.
	session, err := browsersession.Acquire(overallCtx, req.Config, p.logger)
	if err != nil {
		return p.fail(result, start, err)
	}
	defer session.Release()

	// Phase 2: open page scope.
	page, err := session.OpenPage(overallCtx)
	if err != nil {
		return p.fail(result, start, err)
	}
	defer page.Close()

	// Phase 3: inject pre-navigation cookies (pass-through, not a core decision).
	if len(req.PreNavigationCookies) > 0 {
		if err := injectCookies(page.Context(), req.URL, req.PreNavigationCookies); err != nil {
			p.logger.Warn("cookie injection failed", zap.Error(err))
		}
	}

	// Phase 4+5: navigate and acquire response metadata, title, body text.
	nav, err := page.Navigate(overallCtx, req.URL, req.Config.WaitStrategy, req.NavigationTimeout)
	if errors.Is(overallCtx.Err(), context.DeadlineExceeded) {
		result.Error = ErrOverallTimeout.Error()
		result.DurationMS = time.Since(start).Milliseconds()
		return result
	}
	if err != nil {
		return p.fail(result, start, err)
	}
	if nav == nil {
		return p.fail(result, start, ErrNoResponse)
	}

	result.Title = nav.Title
	result.Status = nav.StatusCode
	result.ContentLength = int64(len(nav.HTML))

	// Phase 6: validate.
	validation := p.validator.Classify(validator.Input{
		StatusCode: nav.StatusCode,
		Body:       nav.HTML,
		Title:      nav.Title,
		Headers:    nav.Headers,
	})
	result.Validation = validation

	// Phase 7: behaviors, only if validator says ok and caller enabled them.
	if validation.Result == types.ResultOK && req.BehaviorsEnabled {
		runner := behaviors.New(req.BehaviorTimeout, req.BehaviorTimeout)
		stats := runner.Run(page.Context())
		p.logger.Debug("behaviors finished", zap.Any("counts", stats.Counts), zap.Strings("truncated", stats.Truncated))
	}

	// Phase 8: emit artifacts.
	artifacts, artifactErr := emitArtifacts(overallCtx, page.Context(), nav, req.URL, req.Artifacts, p.artifactDir)
	result.Artifacts = artifacts

	// Phase 9: structured result.
	result.DurationMS = time.Since(start).Milliseconds()
	switch {
	case artifactErr != nil:
		result.Success = false
		result.Error = artifactErr.Error()
	case validation.Result != types.ResultOK:
		result.Success = false
	default:
		result.Success = true
	}

	return result
}

func (p *Pipeline) fail(result types.CaptureResult, start time.Time, err error) types.CaptureResult {
	result.Success = false
	result.Error = err.Error()
	result.DurationMS = time.Since(start).Milliseconds()
	return result
}

func injectCookies(pageCtx context.Context, url string, cookies map[string]string) error {
	for name, value := range cookies {
		if err := chromedp.Run(pageCtx, network.SetCookie(name, value).WithURL(url)); err != nil {
			return err
		}
	}
	return nil
}
