// Package validator converts the post-navigation state of a page into a
// typed classification, per spec §4.2.
package validator

import (
	"fmt"
	"strings"

	"github.com/edgecomet/national-treasure/pkg/types"
	"github.com/edgecomet/national-treasure/pkg/pattern"
)

// Input carries everything the validator needs. Body is the page body in
// any case (the capture pipeline passes the full, uncapped HTML); Classify
// lowercases Body and Title before matching. Headers keys are already
// lowercased; Cookies holds the observed cookie names (any case).
type Input struct {
	StatusCode int
	FinalURL   string
	Title      string
	Body       string
	Headers    map[string][]string
	Cookies    []string
}

// Validator classifies page loads against an ordered pattern set.
type Validator struct {
	patterns         []PatternEntry
	minContentLength int
}

// New builds a Validator from a pattern set and the configured length floor.
func New(patterns []PatternEntry, minContentLength int) *Validator {
	return &Validator{patterns: patterns, minContentLength: minContentLength}
}

// emptyMarkers are the substrings that, combined with a too-short body,
// classify a page as empty rather than ok (spec §4.2 step 3).
var emptyMarkers = []string{"error", "denied", "forbidden"}

// Classify runs the four-step algorithm from spec §4.2 and returns the
// first classification that applies.
func (v *Validator) Classify(in Input) types.ValidationResult {
	if in.StatusCode >= 400 {
		return types.ValidationResult{
			Result:  types.ResultBlocked,
			Service: fmt.Sprintf("http_%d", in.StatusCode),
		}
	}

	lowerTitle := strings.ToLower(in.Title)
	lowerBody := strings.ToLower(in.Body)

	for _, p := range v.patterns {
		if v.matches(p, lowerBody, lowerTitle, in.Headers, in.Cookies) {
			result := types.ResultBlocked
			if p.ServiceTag == "captcha" {
				result = types.ResultCaptcha
			}
			if p.ServiceTag == "rate-limit" {
				result = types.ResultRateLimited
			}
			return types.ValidationResult{Result: result, Service: p.ServiceTag}
		}
	}

	if len(in.Body) < v.minContentLength && containsAny(lowerBody, emptyMarkers) {
		return types.ValidationResult{Result: types.ResultEmpty}
	}

	return types.ValidationResult{Result: types.ResultOK}
}

func (v *Validator) matches(p PatternEntry, lowerBody, lowerTitle string, headers map[string][]string, cookies []string) bool {
	switch p.Where {
	case WhereBody:
		return pattern.MatchWildcard(lowerBody, "*"+strings.ToLower(p.Text)+"*")
	case WhereTitle:
		return pattern.MatchWildcard(lowerTitle, "*"+strings.ToLower(p.Text)+"*")
	case WhereHeader:
		_, ok := headers[strings.ToLower(p.HeaderName)]
		return ok
	case WhereCookie:
		target := strings.ToLower(p.HeaderName)
		for _, c := range cookies {
			if strings.ToLower(c) == target {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
