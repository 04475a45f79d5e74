// Package behaviors implements the ordered, bounded content-expansion
// steps run against a live page before capture, per spec §4.3.
package behaviors

import (
	"context"
	"fmt"
	"time"

	"github.com/edgecomet/national-treasure/pkg/types"
)

const waitAfterScroll = 400 * time.Millisecond

func sprintf(format string, a ...interface{}) string {
	return fmt.Sprintf(format, a...)
}

// Runner executes the fixed behavior set against a page context, enforcing
// a per-behavior deadline and an overall deadline.
type Runner struct {
	perBehaviorTimeout time.Duration
	overallTimeout     time.Duration
}

// New builds a Runner with the given per-behavior and overall deadlines.
func New(perBehaviorTimeout, overallTimeout time.Duration) *Runner {
	return &Runner{perBehaviorTimeout: perBehaviorTimeout, overallTimeout: overallTimeout}
}

// Run executes every behavior in order against pageCtx. It returns no
// error: individual behavior failures are swallowed and the count the
// behavior reported is kept as is; behaviors cut short by a deadline, or
// skipped because the overall deadline already passed, are listed in
// Truncated.
func (r *Runner) Run(pageCtx context.Context) types.BehaviorStats {
	start := time.Now()
	stats := types.BehaviorStats{Counts: make(map[string]int)}

	overallCtx, cancel := context.WithTimeout(pageCtx, r.overallTimeout)
	defer cancel()

	for _, b := range orderedBehaviors() {
		select {
		case <-overallCtx.Done():
			stats.Truncated = append(stats.Truncated, b.name)
			continue
		default:
		}

		behaviorCtx, behaviorCancel := context.WithTimeout(overallCtx, r.perBehaviorTimeout)
		count, ok := b.fn(behaviorCtx)
		behaviorCancel()

		if !ok && behaviorCtx.Err() != nil {
			stats.Truncated = append(stats.Truncated, b.name)
		}
		stats.Counts[b.name] = count
	}

	stats.ElapsedMS = time.Since(start).Milliseconds()
	return stats
}
