package browsersession

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgecomet/national-treasure/pkg/types"
)

func TestBuildExecAllocatorOptions_StealthAddsAntiAutomationFlags(t *testing.T) {
	plain := types.Configuration{HeadlessKind: types.HeadlessNew, ViewportW: 1280, ViewportH: 800}
	stealthy := plain
	stealthy.Stealth = true

	plainOpts := buildExecAllocatorOptions(plain)
	stealthOpts := buildExecAllocatorOptions(stealthy)

	require.Greater(t, len(stealthOpts), len(plainOpts))
}

func TestBuildExecAllocatorOptions_NonEmptyForEveryHeadlessKind(t *testing.T) {
	for _, kind := range []types.HeadlessKind{
		types.HeadlessShell, types.HeadlessNew, types.HeadlessLegacy, types.HeadlessVisible,
	} {
		cfg := types.Configuration{HeadlessKind: kind, ViewportW: 1024, ViewportH: 768, UserAgent: "ua"}
		opts := buildExecAllocatorOptions(cfg)
		require.NotEmpty(t, opts)
	}
}
