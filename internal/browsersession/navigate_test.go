package browsersession

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUrlsMatchIgnoringFragment(t *testing.T) {
	require.True(t, urlsMatchIgnoringFragment("https://example.test/a#x", "https://example.test/a#y"))
	require.False(t, urlsMatchIgnoringFragment("https://example.test/a", "https://example.test/b"))
}

func TestFlattenHeaders_SplitsNewlineSeparatedValues(t *testing.T) {
	raw := map[string]interface{}{
		"set-cookie": "a=1\nb=2",
		"x-single":   "only",
	}
	headers := flattenHeaders(raw)
	require.Equal(t, []string{"a=1", "b=2"}, headers["set-cookie"])
	require.Equal(t, []string{"only"}, headers["x-single"])
}

func TestFlattenHeaders_LowercasesKeys(t *testing.T) {
	raw := map[string]interface{}{
		"CF-RAY":      "abc123",
		"X-Amz-Cf-Id": "def456",
	}
	headers := flattenHeaders(raw)
	require.Equal(t, []string{"abc123"}, headers["cf-ray"])
	require.Equal(t, []string{"def456"}, headers["x-amz-cf-id"])
	require.NotContains(t, headers, "CF-RAY")
}
