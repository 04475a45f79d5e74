// Command treasuryd runs the capture worker pool: it claims jobs, asks the
// domain learner for a configuration, drives the capture pipeline, and
// reports outcomes back to the learner and the queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/edgecomet/national-treasure/internal/capture"
	"github.com/edgecomet/national-treasure/internal/config"
	"github.com/edgecomet/national-treasure/internal/learner"
	"github.com/edgecomet/national-treasure/internal/logging"
	"github.com/edgecomet/national-treasure/internal/metrics"
	"github.com/edgecomet/national-treasure/internal/queue"
	"github.com/edgecomet/national-treasure/internal/store"
	"github.com/edgecomet/national-treasure/internal/validator"
	"github.com/edgecomet/national-treasure/pkg/types"
)

func main() {
	dbPath := flag.String("db", "national-treasure.db", "path to the SQLite store")
	archiveDir := flag.String("archive-dir", "archive", "directory artifacts are written under")
	redisAddr := flag.String("redis-addr", "", "optional redis address for queue claim/release notifications")
	flag.Parse()

	initialLogger, err := logging.NewDefault()
	if err != nil {
		panic(err)
	}

	dynamicLogger, err := logging.NewWithStartupOverride(logging.Default())
	if err != nil {
		initialLogger.Fatal("failed to build configured logger", zap.Error(err))
	}
	logger := dynamicLogger.Logger

	cfg := config.Default()
	cfg.DatabasePath = *dbPath
	cfg.ArchiveDir = *archiveDir
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer db.Close()

	l := learner.New(db, learner.DefaultParams(), time.Now().UnixNano())

	v := validator.New(validator.DefaultPatterns(), cfg.MinContentLength)
	pipeline := capture.New(v, cfg.ArchiveDir, logger)

	collector := metrics.New("nt", prometheus.DefaultRegisterer)
	l.SetMetrics(collector)

	var redisClient *redis.Client
	if *redisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer redisClient.Close()
	}
	notifier := queue.NewNotifier(redisClient, "national-treasure:jobs", logger)

	pool := queue.New(db, &cfg, logger, notifier)
	pool.SetMetrics(collector)
	pool.Handle(string(types.JobTypeCapture), captureHandler(db, l, pipeline, &cfg, collector, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := db.RecoverStale(ctx, time.Now()); err != nil {
		logger.Warn("initial stale-lease recovery failed", zap.Error(err))
	}

	pool.Start(ctx)
	logger.Info("treasuryd started", zap.String("db", cfg.DatabasePath), zap.String("archive_dir", cfg.ArchiveDir))

	dynamicLogger.SwitchToConfiguredLevel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	dynamicLogger.EnsureInfoLevelForShutdown()
	cancel()
	pool.Shutdown(30 * time.Second)
	logger.Info("treasuryd stopped")
}

// captureHandler adapts the capture pipeline into a queue.Handler: it
// decodes the job payload, asks the learner for a configuration, runs the
// pipeline, records the outcome, and returns the structured result as the
// job's stored payload.
func captureHandler(db *store.DB, l *learner.Learner, pipeline *capture.Pipeline, cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) queue.Handler {
	return func(ctx context.Context, job types.Job) ([]byte, error) {
		req, err := decodeCaptureJob(job.Payload)
		if err != nil {
			return nil, err
		}

		domain := extractDomain(req.URL)
		configID, err := l.SelectConfiguration(ctx, domain)
		if err != nil {
			return nil, err
		}
		cfgRecord, err := db.GetConfiguration(ctx, configID)
		if err != nil {
			return nil, err
		}

		pipelineReq := capture.Request{
			URL:               req.URL,
			Config:            cfgRecord,
			Artifacts:         req.Artifacts,
			BehaviorsEnabled:  req.BehaviorsEnabled,
			NavigationTimeout: time.Duration(cfg.NavigationTimeoutMS) * time.Millisecond,
			BehaviorTimeout:   time.Duration(cfg.BehaviorTimeoutMS) * time.Millisecond,
			OverallTimeout:    time.Duration(cfg.OverallTimeoutMS) * time.Millisecond,
		}

		start := time.Now()
		result := pipeline.Run(ctx, pipelineReq)
		collector.CaptureDuration.WithLabelValues(string(result.Validation.Result)).Observe(time.Since(start).Seconds())
		collector.CaptureTotal.WithLabelValues(string(result.Validation.Result)).Inc()

		outcome := types.NewOutcome(time.Now())
		outcome.Domain = domain
		outcome.URL = req.URL
		outcome.ConfigID = configID
		outcome.Result = result.Validation.Result
		outcome.BlockService = result.Validation.Service
		outcome.HTTPStatus = result.Status
		outcome.ResponseMS = result.DurationMS
		outcome.ContentLength = result.ContentLength
		outcome.PageTitle = result.Title

		if err := l.Record(ctx, outcome); err != nil {
			logger.Warn("failed to record outcome", zap.Error(err), zap.String("domain", domain))
		}

		if signal, err := l.DetectDrift(ctx, domain); err != nil {
			logger.Warn("failed to check for drift", zap.Error(err), zap.String("domain", domain))
		} else if signal.Drift {
			logger.Warn("drift detected", zap.String("domain", domain), zap.Bool("new_block", signal.NewBlock), zap.String("new_block_service", signal.NewBlockService))
		}

		if !result.Success {
			return nil, fmt.Errorf("%w: %s", ErrCaptureNotOK, captureFailureReason(result))
		}

		return encodeCaptureResult(result)
	}
}

// captureFailureReason renders the most specific thing we know about why a
// capture didn't reach a clean ok result, for the job's last_error column.
func captureFailureReason(result types.CaptureResult) string {
	if result.Error != "" {
		return result.Error
	}
	if result.Validation.Service != "" {
		return fmt.Sprintf("%s (%s)", result.Validation.Result, result.Validation.Service)
	}
	return string(result.Validation.Result)
}
