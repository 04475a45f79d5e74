package learner

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

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

func mustConfig(t *testing.T, db *store.DB, name string) int64 {
	t.Helper()
	id, err := db.CreateConfiguration(context.Background(), types.Configuration{
		Name: name, HeadlessKind: types.HeadlessNew, ViewportW: 1280, ViewportH: 800,
		UserAgent: "ua", WaitStrategy: types.WaitNetworkIdle, TimeoutMS: 30000,
	})
	require.NoError(t, err)
	return id
}

func TestSelectConfiguration_UnknownDomainUsesGlobalDefault(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	good := mustConfig(t, db, "good")
	bad := mustConfig(t, db, "bad")

	for i := 0; i < 8; i++ {
		o := types.NewOutcome(time.Now())
		o.Domain = "seed.test"
		o.ConfigID = good
		o.Result = types.ResultOK
		_, err := db.Record(ctx, o)
		require.NoError(t, err)
	}
	o := types.NewOutcome(time.Now())
	o.Domain = "seed.test"
	o.ConfigID = bad
	o.Result = types.ResultError
	_, err := db.Record(ctx, o)
	require.NoError(t, err)

	l := New(db, DefaultParams(), 1)
	selected, err := l.SelectConfiguration(ctx, "fresh.example.test")
	require.NoError(t, err)
	require.Equal(t, good, selected)
}

func TestSelectConfiguration_ClearWinnerChosenMostOfTheTime(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	armA := mustConfig(t, db, "A")
	armB := mustConfig(t, db, "B")

	now := time.Now()
	for i := 0; i < 10; i++ {
		oa := types.NewOutcome(now)
		oa.Domain = "blocky.test"
		oa.ConfigID = armA
		oa.Result = types.ResultOK
		_, err := db.Record(ctx, oa)
		require.NoError(t, err)

		ob := types.NewOutcome(now)
		ob.Domain = "blocky.test"
		ob.ConfigID = armB
		ob.Result = types.ResultError
		_, err = db.Record(ctx, ob)
		require.NoError(t, err)
	}

	l := New(db, DefaultParams(), 42)
	winsA := 0
	for i := 0; i < 1000; i++ {
		selected, err := l.SelectConfiguration(ctx, "blocky.test")
		require.NoError(t, err)
		if selected == armA {
			winsA++
		}
	}
	require.Greater(t, winsA, 950)
}

func TestRecord_UpdatesBestConfigAfterThreshold(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	cfg := mustConfig(t, db, "only")

	l := New(db, DefaultParams(), 7)
	for i := 0; i < 12; i++ {
		o := types.NewOutcome(time.Now())
		o.Domain = "grows.test"
		o.ConfigID = cfg
		o.Result = types.ResultOK
		require.NoError(t, l.Record(ctx, o))
	}

	rec, err := db.GetDomain(ctx, "grows.test")
	require.NoError(t, err)
	require.Equal(t, cfg, rec.BestConfigID)
	require.Greater(t, rec.Confidence, 0.5)
}

func TestDetectDrift_FlagsRegression(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	cfg := mustConfig(t, db, "cfg")
	l := New(db, DefaultParams(), 3)

	base := time.Now().Add(-48 * time.Hour)
	for i := 0; i < 100; i++ {
		o := types.NewOutcome(base.Add(time.Duration(i) * time.Minute))
		o.Domain = "newsite.test"
		o.ConfigID = cfg
		if i%10 == 0 {
			o.Result = types.ResultError
		} else {
			o.Result = types.ResultOK
		}
		_, err := db.Record(ctx, o)
		require.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		o := types.NewOutcome(time.Now())
		o.Domain = "newsite.test"
		o.ConfigID = cfg
		o.Result = types.ResultBlocked
		o.BlockService = "cloudflare"
		_, err := db.Record(ctx, o)
		require.NoError(t, err)
	}

	signal, err := l.DetectDrift(ctx, "newsite.test")
	require.NoError(t, err)
	require.True(t, signal.Drift)
	require.True(t, signal.NewBlock)
	require.Equal(t, "cloudflare", signal.NewBlockService)
}

func TestSelectConfiguration_RecordsArmSelectionMetric(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	mustConfig(t, db, "only")

	collector := metrics.New("nt_learner_test", prometheus.NewRegistry())
	l := New(db, DefaultParams(), 5)
	l.SetMetrics(collector)

	_, err := l.SelectConfiguration(ctx, "cold.test")
	require.NoError(t, err)
	require.Equal(t, float64(1), testutil.ToFloat64(collector.ArmSelections.WithLabelValues("cold.test", "true")))
}

func TestDetectDrift_RecordsDriftSignalMetric(t *testing.T) {
	ctx := context.Background()
	db := openTestStore(t)
	cfg := mustConfig(t, db, "cfg")

	collector := metrics.New("nt_learner_test2", prometheus.NewRegistry())
	l := New(db, DefaultParams(), 3)
	l.SetMetrics(collector)

	base := time.Now().Add(-48 * time.Hour)
	for i := 0; i < 100; i++ {
		o := types.NewOutcome(base.Add(time.Duration(i) * time.Minute))
		o.Domain = "drifting.test"
		o.ConfigID = cfg
		o.Result = types.ResultOK
		_, err := db.Record(ctx, o)
		require.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		o := types.NewOutcome(time.Now())
		o.Domain = "drifting.test"
		o.ConfigID = cfg
		o.Result = types.ResultBlocked
		o.BlockService = "datadome"
		_, err := db.Record(ctx, o)
		require.NoError(t, err)
	}

	signal, err := l.DetectDrift(ctx, "drifting.test")
	require.NoError(t, err)
	require.True(t, signal.Drift)
	require.Equal(t, float64(1), testutil.ToFloat64(collector.DriftSignals.WithLabelValues("drifting.test", "true")))
}

func TestSampleBeta_MeanApproximatesParameters(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		sum += sampleBeta(rng, 8, 2)
	}
	mean := sum / n
	require.InDelta(t, 0.8, mean, 0.02)
}
