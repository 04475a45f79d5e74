package behaviors

import (
	"context"

	"github.com/chromedp/chromedp"
)

// behaviorFunc mutates the live page and returns a count of effects applied.
// Per spec §4.3, a behavior never raises: any per-action error is reported
// through the bool return rather than propagated.
type behaviorFunc func(ctx context.Context) (count int, ok bool)

// names, in the fixed run order spec §4.3 defines.
const (
	nameDismissOverlays   = "dismiss_overlays"
	nameScrollToLoad      = "scroll_to_load"
	nameExpandContent     = "expand_content"
	nameClickTabs         = "click_tabs"
	nameNavigateCarousels = "navigate_carousels"
	nameExpandComments    = "expand_comments"
	nameInfiniteScroll    = "infinite_scroll"
)

func orderedBehaviors() []struct {
	name string
	fn   behaviorFunc
} {
	return []struct {
		name string
		fn   behaviorFunc
	}{
		{nameDismissOverlays, dismissOverlays},
		{nameScrollToLoad, scrollToLoad},
		{nameExpandContent, expandContent},
		{nameClickTabs, clickTabs},
		{nameNavigateCarousels, navigateCarousels},
		{nameExpandComments, expandComments},
		{nameInfiniteScroll, infiniteScroll},
	}
}

// dismissOverlays clicks known cookie-consent / modal-close controls and
// sends an Escape key.
func dismissOverlays(ctx context.Context) (int, bool) {
	const script = `
(function() {
	var selectors = [
		'#onetrust-accept-btn-handler', '.cc-dismiss', '.cc-btn', '.cookie-consent-accept',
		'[aria-label="Close"]', '[aria-label="close"]', '.modal-close', '.close-button',
		'button[class*="cookie"][class*="accept"]', 'button[id*="accept"]'
	];
	var clicked = 0;
	selectors.forEach(function(sel) {
		document.querySelectorAll(sel).forEach(function(el) {
			if (el.offsetParent !== null) { el.click(); clicked++; }
		});
	});
	return clicked;
})()`
	var count int
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &count)); err != nil {
		return 0, false
	}
	_ = chromedp.Run(ctx, chromedp.KeyEvent(""))
	return count, true
}

// scrollToLoad scrolls by viewport increments until scrollHeight is stable
// for stableStreak consecutive passes or stepCap is reached, then restores
// the original scroll position.
func scrollToLoad(ctx context.Context) (int, bool) {
	const stepCap = 40
	const stableStreak = 3
	const script = `
(function(stepCap, stableStreak) {
	var original = window.scrollY;
	var lastHeight = -1;
	var stable = 0;
	var steps = 0;
	for (var i = 0; i < stepCap; i++) {
		window.scrollBy(0, window.innerHeight);
		steps++;
		var h = document.documentElement.scrollHeight;
		if (h === lastHeight) {
			stable++;
			if (stable >= stableStreak) break;
		} else {
			stable = 0;
		}
		lastHeight = h;
	}
	window.scrollTo(0, original);
	return steps;
})(%d, %d)`
	var steps int
	evaluated := chromedp.Evaluate(sprintf(script, stepCap, stableStreak), &steps)
	if err := chromedp.Run(ctx, evaluated); err != nil {
		return 0, false
	}
	return steps, true
}

// expandContent opens collapsed <details> elements and clicks elements
// whose visible text matches a known "show more" phrase set.
func expandContent(ctx context.Context) (int, bool) {
	const script = `
(function() {
	var phrases = ['read more', 'show more', 'see more', 'view more', 'expand'];
	var opened = 0;
	document.querySelectorAll('details:not([open])').forEach(function(d) {
		d.setAttribute('open', ''); opened++;
	});
	var all = document.querySelectorAll('button, a, span, div');
	for (var i = 0; i < all.length; i++) {
		var el = all[i];
		var text = (el.innerText || '').trim().toLowerCase();
		if (text.length > 0 && text.length < 40 && phrases.indexOf(text) !== -1 && el.offsetParent !== null) {
			el.click();
			opened++;
		}
	}
	return opened;
})()`
	var count int
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &count)); err != nil {
		return 0, false
	}
	return count, true
}

// clickTabs clicks every unselected tab within each recognized tab
// container, in document order.
func clickTabs(ctx context.Context) (int, bool) {
	const script = `
(function() {
	var clicked = 0;
	document.querySelectorAll('[role="tablist"]').forEach(function(list) {
		list.querySelectorAll('[role="tab"]').forEach(function(tab) {
			if (tab.getAttribute('aria-selected') !== 'true' && tab.offsetParent !== null) {
				tab.click();
				clicked++;
			}
		});
	});
	return clicked;
})()`
	var count int
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &count)); err != nil {
		return 0, false
	}
	return count, true
}

// navigateCarousels clicks each recognized carousel's "next" control up to
// a per-carousel cap.
func navigateCarousels(ctx context.Context) (int, bool) {
	const perCarouselCap = 10
	const script = `
(function(cap) {
	var clicks = 0;
	document.querySelectorAll('[class*="carousel"], [class*="slider"], [role="region"][aria-roledescription="carousel"]').forEach(function(c) {
		var next = c.querySelector('[class*="next"], [aria-label*="Next"], [aria-label*="next"]');
		if (!next) return;
		for (var i = 0; i < cap; i++) {
			if (next.offsetParent === null) break;
			next.click();
			clicks++;
		}
	});
	return clicks;
})(%d)`
	var count int
	if err := chromedp.Run(ctx, chromedp.Evaluate(sprintf(script, perCarouselCap), &count)); err != nil {
		return 0, false
	}
	return count, true
}

// expandComments clicks "load more comments"-style controls, site-agnostic.
func expandComments(ctx context.Context) (int, bool) {
	const script = `
(function() {
	var phrases = ['load more comments', 'show more comments', 'view more comments', 'more replies'];
	var clicked = 0;
	var all = document.querySelectorAll('button, a, span');
	for (var i = 0; i < all.length; i++) {
		var el = all[i];
		var text = (el.innerText || '').trim().toLowerCase();
		if (phrases.indexOf(text) !== -1 && el.offsetParent !== null) {
			el.click();
			clicked++;
		}
	}
	return clicked;
})()`
	var count int
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &count)); err != nil {
		return 0, false
	}
	return count, true
}

// infiniteScroll runs scroll-and-wait cycles capped by page count.
func infiniteScroll(ctx context.Context) (int, bool) {
	const pageCap = 15
	pages := 0
	var lastHeight int64
	for i := 0; i < pageCap; i++ {
		var height int64
		if err := chromedp.Run(ctx, chromedp.Evaluate(`document.documentElement.scrollHeight`, &height)); err != nil {
			return pages, false
		}
		if height == lastHeight && i > 0 {
			break
		}
		lastHeight = height
		if err := chromedp.Run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.documentElement.scrollHeight)`, nil)); err != nil {
			return pages, false
		}
		pages++
		if err := chromedp.Run(ctx, chromedp.Sleep(waitAfterScroll)); err != nil {
			return pages, false
		}
	}
	return pages, true
}
