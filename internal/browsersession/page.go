package browsersession

import (
	"context"
	"sync/atomic"

	"github.com/chromedp/chromedp"
)

// Page is a single tab scoped beneath a Session. Spec §4.4/§9 require that
// every page opened against a session is guaranteed to close before the
// session itself closes; Open/Close enforce that nesting.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// OpenPage creates a new tab under the session's browser context.
func (s *Session) OpenPage(ctx context.Context) (*Page, error) {
	if sessionStatus(atomic.LoadInt32(&s.status)) == statusDead {
		return nil, ErrSessionDead
	}
	atomic.StoreInt32(&s.status, int32(statusActive))

	pageCtx, cancel := chromedp.NewContext(s.browserCtx)
	if err := chromedp.Run(pageCtx); err != nil {
		cancel()
		return nil, err
	}
	return &Page{ctx: pageCtx, cancel: cancel}, nil
}

// Close releases the tab. Callers must defer this immediately after
// OpenPage succeeds, before doing anything else with the page.
func (p *Page) Close() {
	if p.cancel != nil {
		p.cancel()
	}
}

// Context returns the chromedp-wired context for issuing actions
// against this page.
func (p *Page) Context() context.Context {
	return p.ctx
}
