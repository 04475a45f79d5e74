package validator

// Where names the part of the response a pattern entry tests.
type Where int

const (
	WhereBody Where = iota
	WhereTitle
	WhereHeader
	WhereCookie
)

// PatternEntry is one row of the configured, ordered pattern set: a
// service-tag signature and where to look for it. The set is data, not
// code, per spec §4.2 — DefaultPatterns is simply one reasonable default.
type PatternEntry struct {
	ServiceTag string
	SiteSignal string // human-readable description, not matched against
	Where      Where
	Text       string // substring to find, for Where == Body/Title
	HeaderName string // header or cookie name, for Where == Header/Cookie
}

// DefaultPatterns is the recognized-services table named in spec §4.2:
// cloudfront, cloudflare, perimeterx, datadome, akamai, imperva, captcha
// (recaptcha/hcaptcha/turnstile), rate-limit. Order is a tie-break: earlier
// entries are more specific and win first.
func DefaultPatterns() []PatternEntry {
	return []PatternEntry{
		{ServiceTag: "cloudflare", SiteSignal: "challenge page", Where: WhereBody, Text: "just a moment"},
		{ServiceTag: "cloudflare", SiteSignal: "challenge page", Where: WhereTitle, Text: "just a moment"},
		{ServiceTag: "cloudflare", SiteSignal: "ray id banner", Where: WhereBody, Text: "cloudflare ray id"},
		{ServiceTag: "cloudflare", SiteSignal: "server header", Where: WhereHeader, HeaderName: "cf-ray"},
		{ServiceTag: "cloudfront", SiteSignal: "error page", Where: WhereBody, Text: "the request could not be satisfied"},
		{ServiceTag: "cloudfront", SiteSignal: "via header", Where: WhereHeader, HeaderName: "x-amz-cf-id"},
		{ServiceTag: "perimeterx", SiteSignal: "block page", Where: WhereBody, Text: "px-captcha"},
		{ServiceTag: "perimeterx", SiteSignal: "cookie marker", Where: WhereCookie, HeaderName: "_px"},
		{ServiceTag: "datadome", SiteSignal: "block page", Where: WhereBody, Text: "datadome"},
		{ServiceTag: "datadome", SiteSignal: "cookie marker", Where: WhereCookie, HeaderName: "datadome"},
		{ServiceTag: "akamai", SiteSignal: "block page", Where: WhereBody, Text: "access denied"},
		{ServiceTag: "akamai", SiteSignal: "reference marker", Where: WhereBody, Text: "reference #"},
		{ServiceTag: "imperva", SiteSignal: "incapsula block", Where: WhereBody, Text: "incapsula"},
		{ServiceTag: "imperva", SiteSignal: "cookie marker", Where: WhereCookie, HeaderName: "incap_ses"},
		{ServiceTag: "captcha", SiteSignal: "recaptcha widget", Where: WhereBody, Text: "recaptcha"},
		{ServiceTag: "captcha", SiteSignal: "hcaptcha widget", Where: WhereBody, Text: "hcaptcha"},
		{ServiceTag: "captcha", SiteSignal: "turnstile widget", Where: WhereBody, Text: "cf-turnstile"},
		{ServiceTag: "rate-limit", SiteSignal: "rate limited page", Where: WhereBody, Text: "too many requests"},
	}
}
