package queue

import (
	"context"
	"time"

	"github.com/edgecomet/national-treasure/pkg/types"
)

// Store is the subset of internal/store.DB the worker pool depends on.
type Store interface {
	Claim(ctx context.Context, workerID string, lease time.Duration) (types.Job, error)
	Heartbeat(ctx context.Context, jobID int64, workerID string, lease time.Duration) error
	Succeed(ctx context.Context, jobID int64, workerID string, result []byte) error
	Fail(ctx context.Context, jobID int64, workerID string, errMsg string, backoff time.Duration) error
	RecoverStale(ctx context.Context, now time.Time) (int, error)
	DepthByStatus(ctx context.Context) (map[types.JobStatus]int, error)
}
