package browsersession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/edgecomet/national-treasure/pkg/types"
)

const maxHTMLSize = 20 * 1024 * 1024 // 20MB, mirrors the render pool's response ceiling

// NavigationResult is the response metadata capture and behaviors need to
// drive validation and artifact emission.
type NavigationResult struct {
	StatusCode   int
	FinalURL     string
	Headers      map[string][]string
	HTML         string
	Title        string
	TimedOut     bool
	ResponseTime time.Duration
}

// Navigate loads url on the page, waiting for the configured lifecycle
// event (soft timeout: a wait that expires does not fail navigation, it
// just flags TimedOut so behaviors and validation can react).
func (p *Page) Navigate(ctx context.Context, url string, wait types.WaitStrategy, timeout time.Duration) (*NavigationResult, error) {
	start := time.Now()
	result := &NavigationResult{}

	var mu sync.Mutex
	chromedp.ListenTarget(p.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			mu.Lock()
			if urlsMatchIgnoringFragment(e.Response.URL, url) && result.StatusCode == 0 {
				result.StatusCode = int(e.Response.Status)
				result.Headers = flattenHeaders(e.Response.Headers)
			}
			mu.Unlock()
		}
	})

	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		network.Enable(),
		page.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, _, _, err := page.Navigate(url).Do(ctx)
			return err
		}),
		waitForStrategy(wait, timeout),
	)

	result.ResponseTime = time.Since(start)

	if errors.Is(err, context.DeadlineExceeded) {
		result.TimedOut = true
	} else if err != nil {
		return result, fmt.Errorf("%w: %v", ErrNavigateFailed, err)
	}

	if err := chromedp.Run(p.ctx, chromedp.Location(&result.FinalURL)); err != nil {
		return result, fmt.Errorf("%w: %v", ErrNavigateFailed, err)
	}

	html, err := extractHTML(p.ctx)
	if err != nil {
		return result, err
	}
	if len(html) > maxHTMLSize {
		return result, ErrResponseTooLarge
	}
	result.HTML = html

	var title string
	_ = chromedp.Run(p.ctx, chromedp.Title(&title))
	result.Title = title

	if result.StatusCode == 0 {
		result.StatusCode = 200
	}

	return result, nil
}

// waitForStrategy maps a WaitStrategy onto the chromedp wait primitive that
// implements it.
func waitForStrategy(wait types.WaitStrategy, timeout time.Duration) chromedp.Action {
	switch wait {
	case types.WaitDOMContentLoaded:
		return chromedp.WaitReady("body", chromedp.ByQuery)
	case types.WaitLoad:
		return chromedp.ActionFunc(func(ctx context.Context) error {
			return chromedp.WaitVisible("body", chromedp.ByQuery).Do(ctx)
		})
	default: // WaitNetworkIdle
		return chromedp.ActionFunc(func(ctx context.Context) error {
			idleCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return chromedp.Run(idleCtx, network.SetCacheDisabled(true), chromedp.Sleep(500*time.Millisecond))
		})
	}
}

// extractHTML retries document retrieval, mirroring the render pool's
// three-attempt recovery from a transient CDP error.
func extractHTML(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		rootNode, err := dom.GetDocument().Do(ctx)
		if err != nil {
			lastErr = err
			time.Sleep(300 * time.Millisecond)
			continue
		}
		html, err := dom.GetOuterHTML().WithNodeID(rootNode.NodeID).Do(ctx)
		if err != nil {
			lastErr = err
			time.Sleep(300 * time.Millisecond)
			continue
		}
		return html, nil
	}
	return "", fmt.Errorf("%w after 3 attempts: %v", ErrExtractHTML, lastErr)
}

// flattenHeaders lowercases every header name, matching spec §4.2's
// "response headers (lowercased keys)" contract the validator relies on.
func flattenHeaders(raw map[string]interface{}) map[string][]string {
	headers := make(map[string][]string, len(raw))
	for k, v := range raw {
		k = strings.ToLower(k)
		switch val := v.(type) {
		case string:
			if strings.Contains(val, "\n") {
				for _, part := range strings.Split(val, "\n") {
					if trimmed := strings.TrimSpace(part); trimmed != "" {
						headers[k] = append(headers[k], trimmed)
					}
				}
			} else {
				headers[k] = []string{val}
			}
		case []interface{}:
			for _, item := range val {
				if str, ok := item.(string); ok {
					headers[k] = append(headers[k], str)
				}
			}
		}
	}
	return headers
}

func urlsMatchIgnoringFragment(a, b string) bool {
	cut := func(s string) string {
		if i := strings.Index(s, "#"); i >= 0 {
			return s[:i]
		}
		return s
	}
	return cut(a) == cut(b)
}
