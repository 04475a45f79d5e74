package queue

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgecomet/national-treasure/internal/config"
	"github.com/edgecomet/national-treasure/internal/metrics"
	"github.com/edgecomet/national-treasure/internal/store"
	"github.com/edgecomet/national-treasure/pkg/types"
)

func openTestStore(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.WorkerPoolSize = "1"
	cfg.DefaultLeaseSeconds = 5
	cfg.PollInterval = 10 * time.Millisecond
	cfg.StaleRecoveryInterval = time.Hour
	return &cfg
}

func TestPool_ClaimsAndSucceedsRegisteredJobType(t *testing.T) {
	db := openTestStore(t)
	id, err := db.Enqueue(context.Background(), "ignored-queue", types.JobTypeCapture, []byte("payload"), 0, nil, 0)
	require.NoError(t, err)

	pool := New(db, testConfig(), zap.NewNop(), NewNotifier(nil, "", zap.NewNop()))
	done := make(chan struct{})
	pool.Handle(string(types.JobTypeCapture), func(ctx context.Context, job types.Job) ([]byte, error) {
		close(done)
		return []byte("ok"), nil
	})

	pool.Start(context.Background())
	defer pool.Shutdown(time.Second)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}

	require.Eventually(t, func() bool {
		job, err := db.GetJob(context.Background(), id)
		return err == nil && job.Status == types.JobDone
	}, time.Second, 10*time.Millisecond)
}

func TestPool_UnregisteredJobTypeFailsWithErrNoHandler(t *testing.T) {
	db := openTestStore(t)
	id, err := db.Enqueue(context.Background(), "q", types.JobTypeScrape, []byte("payload"), 0, nil, 0)
	require.NoError(t, err)

	pool := New(db, testConfig(), zap.NewNop(), NewNotifier(nil, "", zap.NewNop()))
	pool.Start(context.Background())
	defer pool.Shutdown(time.Second)

	require.Eventually(t, func() bool {
		job, err := db.GetJob(context.Background(), id)
		require.NoError(t, err)
		return job.Attempts > 0
	}, time.Second, 10*time.Millisecond)

	job, err := db.GetJob(context.Background(), id)
	require.NoError(t, err)
	require.Contains(t, job.LastError, ErrNoHandler.Error())
}

func TestPool_HandlerErrorRetriesWithBackoff(t *testing.T) {
	db := openTestStore(t)
	id, err := db.Enqueue(context.Background(), "q", types.JobTypeCapture, []byte("payload"), 0, nil, 0)
	require.NoError(t, err)

	pool := New(db, testConfig(), zap.NewNop(), NewNotifier(nil, "", zap.NewNop()))
	pool.Handle(string(types.JobTypeCapture), func(ctx context.Context, job types.Job) ([]byte, error) {
		return nil, errors.New("boom")
	})
	pool.Start(context.Background())
	defer pool.Shutdown(time.Second)

	require.Eventually(t, func() bool {
		job, err := db.GetJob(context.Background(), id)
		return err == nil && job.Attempts == 1 && job.LastError == "boom"
	}, time.Second, 10*time.Millisecond)
}

func TestPool_ActiveJobsTracksInFlightWork(t *testing.T) {
	db := openTestStore(t)
	_, err := db.Enqueue(context.Background(), "q", types.JobTypeCapture, []byte("payload"), 0, nil, 0)
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	pool := New(db, testConfig(), zap.NewNop(), NewNotifier(nil, "", zap.NewNop()))
	pool.Handle(string(types.JobTypeCapture), func(ctx context.Context, job types.Job) ([]byte, error) {
		close(started)
		<-release
		return []byte("ok"), nil
	})
	pool.Start(context.Background())

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("handler never started")
	}
	require.EqualValues(t, 1, pool.ActiveJobs())
	close(release)
	pool.Shutdown(time.Second)
}

func TestPool_RecordsClaimLatencyAndDeadLetterMetrics(t *testing.T) {
	db := openTestStore(t)
	id, err := db.EnqueueWithMaxAttempts(context.Background(), "q", types.JobTypeCapture, []byte("payload"), 0, 1, nil, 0)
	require.NoError(t, err)

	collector := metrics.New("nt_pool_test", prometheus.NewRegistry())

	pool := New(db, testConfig(), zap.NewNop(), NewNotifier(nil, "", zap.NewNop()))
	pool.SetMetrics(collector)
	pool.Handle(string(types.JobTypeCapture), func(ctx context.Context, job types.Job) ([]byte, error) {
		return nil, errors.New("boom")
	})
	pool.Start(context.Background())
	defer pool.Shutdown(time.Second)

	require.Eventually(t, func() bool {
		job, err := db.GetJob(context.Background(), id)
		return err == nil && job.Status == types.JobDead
	}, time.Second, 10*time.Millisecond)

	require.Equal(t, 1, testutil.CollectAndCount(collector.ClaimLatency))
	require.Equal(t, float64(1), testutil.ToFloat64(collector.DeadLetterTotal))
}
