// Package learner implements the domain learner: Thompson sampling over
// configurations as bandit arms, similarity-based cold start, time-decayed
// outcome weighting, drift detection, and rate discipline, per spec §4.6.
package learner

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/edgecomet/national-treasure/internal/metrics"
	"github.com/edgecomet/national-treasure/pkg/types"
)

// Store is the subset of internal/store.DB the learner depends on.
type Store interface {
	CreateConfiguration(ctx context.Context, c types.Configuration) (int64, error)
	GetConfiguration(ctx context.Context, id int64) (types.Configuration, error)
	ListConfigurations(ctx context.Context) ([]types.Configuration, error)
	GlobalBestConfiguration(ctx context.Context) (types.Configuration, error)
	GetDomain(ctx context.Context, domain string) (types.DomainRecord, error)
	UpdateBestConfig(ctx context.Context, domain string, configID int64, confidence float64) error
	UpdateRateDiscipline(ctx context.Context, domain string, minDelayMS, maxPerMinute int) error
	AddBlockTag(ctx context.Context, domain, tag string) error
	Record(ctx context.Context, o types.Outcome) (int64, error)
	OutcomesForDomain(ctx context.Context, domain string) ([]types.Outcome, error)
	HistoricalSuccessRate(ctx context.Context, domain string) (float64, error)
	SimilarDomains(ctx context.Context, domain string, k int) ([]types.SimilarityEdge, error)
}

// Params are the tunables named in spec §6's configuration surface.
type Params struct {
	ExplorationThreshold float64 // default 10
	ExplorationBonus     float64 // default 0.1
	DecayHalfLifeDays    float64 // default 30
	ColdStartK           int     // default 5
	ColdStartConfidence  float64 // default 0.7
	DriftRecentWindow    int     // default 10
	DriftHistoricalHigh  float64 // default 0.8
	DriftRecentLow       float64 // default 0.3
	MinSamplesForBest    int     // default 10
}

// DefaultParams returns the defaults named throughout spec §4.6 and §6.
func DefaultParams() Params {
	return Params{
		ExplorationThreshold: 10,
		ExplorationBonus:     0.1,
		DecayHalfLifeDays:    30,
		ColdStartK:           5,
		ColdStartConfidence:  0.7,
		DriftRecentWindow:    10,
		DriftHistoricalHigh:  0.8,
		DriftRecentLow:       0.3,
		MinSamplesForBest:    10,
	}
}

// Learner proposes configurations for domains and ingests outcomes.
type Learner struct {
	store   Store
	params  Params
	metrics *metrics.Collector

	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a Learner. rngSeed is exposed so tests can make arm selection
// deterministic; production callers should pass a time-derived seed.
func New(store Store, params Params, rngSeed int64) *Learner {
	return &Learner{
		store:  store,
		params: params,
		rng:    rand.New(rand.NewSource(rngSeed)),
	}
}

// SetMetrics attaches a Prometheus collector the learner reports arm
// selections and drift signals to. Optional: a Learner with no collector
// attached simply skips recording.
func (l *Learner) SetMetrics(m *metrics.Collector) {
	l.metrics = m
}

// weightedArmStats groups a domain's outcome history by configuration id and
// applies the exponential time-decay weight from spec §4.6: each outcome
// contributes exp(-ln(2) * age_days / half_life_days) instead of 1.
func (l *Learner) weightedArmStats(ctx context.Context, domain string, now time.Time) (map[int64]types.ArmStats, error) {
	outcomes, err := l.store.OutcomesForDomain(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("load outcomes: %w", err)
	}

	stats := make(map[int64]types.ArmStats)
	for _, o := range outcomes {
		ageDays := now.Sub(o.Timestamp).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		weight := math.Exp(-math.Ln2 * ageDays / l.params.DecayHalfLifeDays)

		a := stats[o.ConfigID]
		a.ConfigID = o.ConfigID
		if o.Result == types.ResultOK {
			a.Successes += weight
		} else {
			a.Failures += weight
		}
		if o.Timestamp.After(a.LastSeen) {
			a.LastSeen = o.Timestamp
		}
		stats[o.ConfigID] = a
	}
	return stats, nil
}

// SelectConfiguration returns the configuration id the bandit (or cold
// start) proposes for domain.
func (l *Learner) SelectConfiguration(ctx context.Context, domain string) (int64, error) {
	now := time.Now()
	stats, err := l.weightedArmStats(ctx, domain, now)
	if err != nil {
		return 0, err
	}

	if len(stats) == 0 {
		configID, err := l.coldStart(ctx, domain)
		if err != nil {
			return 0, err
		}
		l.metrics.RecordArmSelection(domain, true)
		return configID, nil
	}

	type candidate struct {
		configID int64
		sample   float64
		lastSeen time.Time
	}

	var best *candidate
	l.mu.Lock()
	for configID, arm := range stats {
		sample := sampleBeta(l.rng, 1+arm.Successes, 1+arm.Failures)
		if arm.Observations() < l.params.ExplorationThreshold {
			sample += l.params.ExplorationBonus
		}

		c := candidate{configID: configID, sample: sample, lastSeen: arm.LastSeen}
		if best == nil || c.sample > best.sample || (c.sample == best.sample && c.lastSeen.After(best.lastSeen)) {
			best = &c
		}
	}
	l.mu.Unlock()

	l.metrics.RecordArmSelection(domain, false)
	return best.configID, nil
}

// coldStart implements spec §4.6's cold-start procedure for unseen domains.
func (l *Learner) coldStart(ctx context.Context, domain string) (int64, error) {
	neighbors, err := l.store.SimilarDomains(ctx, domain, l.params.ColdStartK)
	if err != nil {
		return 0, fmt.Errorf("find similar domains: %w", err)
	}

	for _, edge := range neighbors {
		neighborDomain := edge.DomainA
		if neighborDomain == domain {
			neighborDomain = edge.DomainB
		}
		rec, err := l.store.GetDomain(ctx, neighborDomain)
		if err != nil {
			continue
		}
		if rec.Confidence >= l.params.ColdStartConfidence {
			return rec.BestConfigID, nil
		}
	}

	best, err := l.store.GlobalBestConfiguration(ctx)
	if err != nil {
		return 0, fmt.Errorf("global best fallback: %w", err)
	}
	return best.ID, nil
}

// Record appends an outcome and, if the configuration used now dominates
// the domain's current best arm (higher posterior mean with >= MinSamplesForBest
// weighted samples), updates the domain's best_config_id and confidence.
func (l *Learner) Record(ctx context.Context, o types.Outcome) error {
	if _, err := l.store.Record(ctx, o); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}

	if o.BlockService != "" {
		if err := l.store.AddBlockTag(ctx, o.Domain, o.BlockService); err != nil {
			return fmt.Errorf("record block tag: %w", err)
		}
	}

	stats, err := l.weightedArmStats(ctx, o.Domain, o.Timestamp)
	if err != nil {
		return err
	}

	arm, ok := stats[o.ConfigID]
	if !ok || arm.Observations() < float64(l.params.MinSamplesForBest) {
		return nil
	}
	mean := posteriorMean(1+arm.Successes, 1+arm.Failures)

	domainRec, err := l.store.GetDomain(ctx, o.Domain)
	if err != nil {
		return fmt.Errorf("load domain record: %w", err)
	}

	if domainRec.BestConfigID == 0 || mean > domainRec.Confidence {
		if err := l.store.UpdateBestConfig(ctx, o.Domain, o.ConfigID, mean); err != nil {
			return fmt.Errorf("update best config: %w", err)
		}
	}
	return nil
}

// DetectDrift compares the success rate of the most recent outcomes against
// the historical rate, per spec §4.6. It only reports the signal: the
// learner does not act on drift, and SelectConfiguration's exploration bonus
// stays the same whether or not drift was detected.
func (l *Learner) DetectDrift(ctx context.Context, domain string) (types.DriftSignal, error) {
	outcomes, err := l.store.OutcomesForDomain(ctx, domain)
	if err != nil {
		return types.DriftSignal{}, fmt.Errorf("load outcomes: %w", err)
	}

	signal := types.DriftSignal{Domain: domain}
	if len(outcomes) < l.params.DriftRecentWindow {
		return signal, nil
	}

	recent := outcomes[len(outcomes)-l.params.DriftRecentWindow:]
	historical := outcomes[:len(outcomes)-l.params.DriftRecentWindow]

	recentRate := successRate(recent)
	historicalRate := successRate(historical)

	if historicalRate >= l.params.DriftHistoricalHigh && recentRate <= l.params.DriftRecentLow {
		signal.Drift = true
	}

	historicalBlocks := make(map[string]bool)
	for _, o := range historical {
		if o.BlockService != "" {
			historicalBlocks[o.BlockService] = true
		}
	}
	for _, o := range recent {
		if o.BlockService != "" && !historicalBlocks[o.BlockService] {
			signal.NewBlock = true
			signal.NewBlockService = o.BlockService
			break
		}
	}

	if signal.Drift {
		l.metrics.RecordDriftSignal(domain, signal.NewBlock)
	}

	return signal, nil
}

func successRate(outcomes []types.Outcome) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	var successes int
	for _, o := range outcomes {
		if o.Result == types.ResultOK {
			successes++
		}
	}
	return float64(successes) / float64(len(outcomes))
}

// ShouldWait reports how long a caller must wait before requesting a
// configuration for domain, honoring the learned minimum inter-request
// delay. Callers are required to honor this before calling
// SelectConfiguration again for the same domain.
func (l *Learner) ShouldWait(ctx context.Context, domain string) (time.Duration, error) {
	rec, err := l.store.GetDomain(ctx, domain)
	if err != nil {
		return 0, nil // unseen domain: no discipline learned yet
	}
	if rec.MinDelayMS <= 0 {
		return 0, nil
	}

	elapsed := time.Since(rec.LastUpdated)
	minDelay := time.Duration(rec.MinDelayMS) * time.Millisecond
	if elapsed >= minDelay {
		return 0, nil
	}
	return minDelay - elapsed, nil
}
