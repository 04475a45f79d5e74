package main

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/edgecomet/national-treasure/pkg/types"
)

// captureJobPayload is the JSON shape a capture job's opaque payload carries.
type captureJobPayload struct {
	URL              string             `json:"url"`
	Artifacts        []types.ArtifactKind `json:"artifacts"`
	BehaviorsEnabled bool               `json:"behaviors_enabled"`
}

func decodeCaptureJob(payload []byte) (captureJobPayload, error) {
	var req captureJobPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return captureJobPayload{}, fmt.Errorf("decode capture job payload: %w", err)
	}
	if req.URL == "" {
		return captureJobPayload{}, fmt.Errorf("capture job payload missing url")
	}
	return req, nil
}

func encodeCaptureResult(result types.CaptureResult) ([]byte, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode capture result: %w", err)
	}
	return data, nil
}

func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.Hostname()
}
