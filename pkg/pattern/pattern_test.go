package pattern

import "testing"

func TestMatchWildcard(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		input    string
		expected bool
	}{
		{"exact match success", "/exact/path", "/exact/path", true},
		{"exact match fail", "/exact/path", "/exact/other", false},

		{"wildcard trailing match", "/blog/*", "/blog/post", true},
		{"wildcard trailing deep match", "/blog/*", "/blog/2024/jan/post", true},
		{"wildcard trailing no match", "/blog/*", "/news/post", false},
		{"wildcard extension match", "*.pdf", "/docs/report.pdf", true},
		{"wildcard extension deep match", "*.pdf", "/reports/2024/Q1/summary.pdf", true},
		{"wildcard extension no match", "*.pdf", "/docs/report.doc", false},
		{"wildcard middle match", "/product/*/reviews", "/product/123/reviews", true},
		{"wildcard middle deep match", "/product/*/reviews", "/product/123/details/reviews", true},
		{"wildcard middle no match", "/product/*/reviews", "/product/123/ratings", false},
		{"wildcard multiple match", "/a/*/b/*/c", "/a/1/b/2/c", true},
		{"wildcard multiple deep match", "/a/*/b/*/c", "/a/1/x/y/b/2/z/c", true},
		{"wildcard catch-all", "*", "/any/path/here", true},
		{"wildcard empty segments", "a**b", "ab", true},
		{"wildcard empty segments with text", "a**b", "axxxb", true},
		{"wildcard at start", "*/test", "/path/test", true},
		{"wildcard at end", "test/*", "test/path", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchWildcard(tt.input, tt.pattern); got != tt.expected {
				t.Errorf("MatchWildcard(%q, %q) = %v, want %v", tt.input, tt.pattern, got, tt.expected)
			}
		})
	}
}

func BenchmarkMatchWildcard(b *testing.B) {
	input := "/blog/2024/january/post-1"
	pattern := "/blog/*"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MatchWildcard(input, pattern)
	}
}
