package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgecomet/national-treasure/pkg/types"
)

func TestDecodeCaptureJob_RequiresURL(t *testing.T) {
	_, err := decodeCaptureJob([]byte(`{"artifacts":["html"]}`))
	require.Error(t, err)
}

func TestDecodeCaptureJob_RoundTrip(t *testing.T) {
	payload := []byte(`{"url":"https://example.test/a","artifacts":["html","screenshot"],"behaviors_enabled":true}`)
	req, err := decodeCaptureJob(payload)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/a", req.URL)
	assert.Equal(t, []types.ArtifactKind{types.ArtifactHTML, types.ArtifactScreenshot}, req.Artifacts)
	assert.True(t, req.BehaviorsEnabled)
}

func TestEncodeCaptureResult_ProducesJSON(t *testing.T) {
	result := types.CaptureResult{SchemaVersion: types.SchemaVersion, Success: true, Status: 200}
	data, err := encodeCaptureResult(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"success":true`)
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "example.test", extractDomain("https://example.test/path?q=1"))
	assert.Equal(t, "sub.example.test", extractDomain("http://sub.example.test:8080/"))
	assert.Equal(t, "http://[::1", extractDomain("http://[::1"))
}
