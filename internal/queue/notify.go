package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Notifier publishes claim/release events on a pub/sub channel for external
// observers. It is an optional heartbeat-style hook, not the queue's source
// of truth: SQLite always remains authoritative, the way the render pool's
// own heartbeat only mirrors state already held by the pool itself.
type Notifier struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewNotifier wraps an existing redis client. Pass a nil client to disable
// notifications entirely (e.g. in tests or single-node deployments).
func NewNotifier(client *redis.Client, channel string, logger *zap.Logger) *Notifier {
	return &Notifier{client: client, channel: channel, logger: logger}
}

// PublishClaimed announces that a job was claimed by a worker.
func (n *Notifier) PublishClaimed(ctx context.Context, jobID int64, workerID string) {
	n.publish(ctx, "claimed", jobID, workerID)
}

// PublishReleased announces that a job finished (succeeded, failed, or
// dead-lettered) and its worker released it.
func (n *Notifier) PublishReleased(ctx context.Context, jobID int64, workerID string) {
	n.publish(ctx, "released", jobID, workerID)
}

func (n *Notifier) publish(ctx context.Context, event string, jobID int64, workerID string) {
	if n == nil || n.client == nil {
		return
	}
	payload := event + ":" + workerID
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.Debug("notify publish failed", zap.Error(err), zap.Int64("job_id", jobID))
	}
}
