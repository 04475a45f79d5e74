// Package pattern provides wildcard string matching used by the response
// validator's body/title pattern set.
//
//   - The wildcard * matches any sequence of characters, including none.
//     Example: "*googlebot*" matches "googlebot", "googlebot/2.1", "my-googlebot"
//   - Matching is case-sensitive: "*googlebot*" does not match "Googlebot".
package pattern

import "strings"

// MatchWildcard performs wildcard pattern matching on raw strings.
//
// The wildcard * matches any sequence of characters (including none).
// Multiple wildcards are supported.
//
// Examples:
//   - MatchWildcard("/blog/post", "/blog/*") → true
//   - MatchWildcard("/blog/2024/post", "/blog/*") → true (recursive matching)
//   - MatchWildcard("document.pdf", "*.pdf") → true
//   - MatchWildcard("anything", "*") → true (catch-all)
//
// Note: the wildcard * is always recursive and matches multiple path segments.
func MatchWildcard(text, pattern string) bool {
	// If no wildcard, do exact match
	if !strings.Contains(pattern, "*") {
		return text == pattern
	}

	// Split pattern by wildcards
	parts := strings.Split(pattern, "*")

	// Text must start with first part
	if !strings.HasPrefix(text, parts[0]) {
		return false
	}
	text = text[len(parts[0]):]

	// Text must end with last part
	if !strings.HasSuffix(text, parts[len(parts)-1]) {
		return false
	}
	text = text[:len(text)-len(parts[len(parts)-1])]

	// Check middle parts exist in order
	for i := 1; i < len(parts)-1; i++ {
		if parts[i] == "" {
			continue
		}
		idx := strings.Index(text, parts[i])
		if idx == -1 {
			return false
		}
		text = text[idx+len(parts[i]):]
	}

	return true
}
