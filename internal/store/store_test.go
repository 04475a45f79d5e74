package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edgecomet/national-treasure/pkg/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecord_UpdatesConfigAndDomainCounters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	configID, err := db.CreateConfiguration(ctx, types.Configuration{
		Name: "default", HeadlessKind: types.HeadlessNew, ViewportW: 1280, ViewportH: 800,
		UserAgent: "ua", WaitStrategy: types.WaitNetworkIdle, TimeoutMS: 30000,
	})
	require.NoError(t, err)

	o := types.NewOutcome(time.Now())
	o.Domain = "example.test"
	o.URL = "https://example.test/"
	o.ConfigID = configID
	o.Result = types.ResultOK

	_, err = db.Record(ctx, o)
	require.NoError(t, err)

	cfg, err := db.GetConfiguration(ctx, configID)
	require.NoError(t, err)
	require.EqualValues(t, 1, cfg.Attempts)
	require.EqualValues(t, 1, cfg.Successes)

	domain, err := db.GetDomain(ctx, "example.test")
	require.NoError(t, err)
	require.EqualValues(t, 1, domain.SampleCount)
}

func TestClaim_RespectsDependency(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	parentID, err := db.Enqueue(ctx, "default", types.JobTypeCapture, nil, 0, nil, 0)
	require.NoError(t, err)
	_, err = db.Enqueue(ctx, "default", types.JobTypeCapture, nil, 0, &parentID, 0)
	require.NoError(t, err)

	j, err := db.Claim(ctx, "w1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, parentID, j.ID)

	_, err = db.Claim(ctx, "w1", time.Minute)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Succeed(ctx, parentID, "w1", nil))

	j2, err := db.Claim(ctx, "w2", time.Minute)
	require.NoError(t, err)
	require.NotEqual(t, parentID, j2.ID)
}

func TestFail_RetriesThenDeadLetters(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.EnqueueWithMaxAttempts(ctx, "default", types.JobTypeCapture, nil, 0, 2, nil, 0)
	require.NoError(t, err)

	j, err := db.Claim(ctx, "w1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, id, j.ID)

	require.NoError(t, db.Fail(ctx, id, "w1", "boom", 0))
	j, err = db.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, types.JobPending, j.Status)
	require.Equal(t, 1, j.Attempts)

	j, err = db.Claim(ctx, "w2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, db.Fail(ctx, id, "w2", "boom again", 0))

	j, err = db.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, types.JobDead, j.Status)
	require.Equal(t, 2, j.Attempts)
}

func TestRecoverStale_ReclaimsExpiredLease(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.Enqueue(ctx, "default", types.JobTypeCapture, nil, 0, nil, 0)
	require.NoError(t, err)

	_, err = db.Claim(ctx, "w1", time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	n, err := db.RecoverStale(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	j, err := db.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, types.JobPending, j.Status)
	require.Equal(t, 1, j.Attempts)
}

func TestEnqueue_RejectsAtPendingCap(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Enqueue(ctx, "default", types.JobTypeCapture, nil, 0, nil, 1)
	require.NoError(t, err)

	_, err = db.Enqueue(ctx, "default", types.JobTypeCapture, nil, 0, nil, 1)
	require.ErrorIs(t, err, ErrQueueFull)
}

func TestRetryDeadLetter_ResetsAttempts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.EnqueueWithMaxAttempts(ctx, "default", types.JobTypeCapture, nil, 0, 1, nil, 0)
	require.NoError(t, err)
	_, err = db.Claim(ctx, "w1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, db.Fail(ctx, id, "w1", "fatal", 0))

	var dlID int64
	row := db.sql.QueryRowContext(ctx, `SELECT id FROM dead_letter WHERE job_id = ?`, id)
	require.NoError(t, row.Scan(&dlID))

	require.NoError(t, db.RetryDeadLetter(ctx, dlID))

	j, err := db.GetJob(ctx, id)
	require.NoError(t, err)
	require.Equal(t, types.JobPending, j.Status)
	require.Equal(t, 0, j.Attempts)
}
