package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgecomet/national-treasure/pkg/types"
)

func TestClassify_HTTPStatusOverridesEverything(t *testing.T) {
	v := New(DefaultPatterns(), 500)
	result := v.Classify(Input{StatusCode: 503, Body: "recaptcha everywhere"})
	assert.Equal(t, types.ResultBlocked, result.Result)
	assert.Equal(t, "http_503", result.Service)
}

func TestClassify_CloudflareChallenge(t *testing.T) {
	v := New(DefaultPatterns(), 500)
	result := v.Classify(Input{StatusCode: 403, Body: "Just a moment... checking your browser"})
	assert.Equal(t, types.ResultBlocked, result.Result)
	assert.Equal(t, "cloudflare", result.Service)
}

func TestClassify_CaptchaIsItsOwnResult(t *testing.T) {
	v := New(DefaultPatterns(), 500)
	result := v.Classify(Input{StatusCode: 200, Body: "please complete the recaptcha below to continue"})
	assert.Equal(t, types.ResultCaptcha, result.Result)
	assert.Equal(t, "captcha", result.Service)
}

func TestClassify_HeaderPresence(t *testing.T) {
	v := New(DefaultPatterns(), 500)
	result := v.Classify(Input{
		StatusCode: 200,
		Body:       "welcome to the site, nothing to see here at all really",
		Headers:    map[string][]string{"cf-ray": {"abc123"}},
	})
	assert.Equal(t, types.ResultBlocked, result.Result)
	assert.Equal(t, "cloudflare", result.Service)
}

func TestClassify_CookiePresence(t *testing.T) {
	v := New(DefaultPatterns(), 500)
	result := v.Classify(Input{
		StatusCode: 200,
		Body:       "a perfectly normal page with plenty of content to spare here",
		Cookies:    []string{"session", "DataDome"},
	})
	assert.Equal(t, types.ResultBlocked, result.Result)
	assert.Equal(t, "datadome", result.Service)
}

func TestClassify_EmptyBelowLengthFloorWithMarker(t *testing.T) {
	v := New(DefaultPatterns(), 500)
	result := v.Classify(Input{StatusCode: 200, Body: "access forbidden"})
	assert.Equal(t, types.ResultEmpty, result.Result)
}

func TestClassify_ShortBodyWithoutMarkerIsOK(t *testing.T) {
	v := New(DefaultPatterns(), 500)
	result := v.Classify(Input{StatusCode: 200, Body: "hello"})
	assert.Equal(t, types.ResultOK, result.Result)
}

func TestClassify_OrderingIsATieBreak(t *testing.T) {
	v := New([]PatternEntry{
		{ServiceTag: "specific", Where: WhereBody, Text: "error code 42"},
		{ServiceTag: "general", Where: WhereBody, Text: "error"},
	}, 0)
	result := v.Classify(Input{StatusCode: 200, Body: "error code 42 occurred"})
	assert.Equal(t, "specific", result.Service)
}

func TestClassify_LongOKBody(t *testing.T) {
	v := New(DefaultPatterns(), 500)
	body := ""
	for i := 0; i < 100; i++ {
		body += "all good here, nothing unusual about this page. "
	}
	result := v.Classify(Input{StatusCode: 200, Body: body})
	assert.Equal(t, types.ResultOK, result.Result)
}
