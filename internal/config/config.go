// Package config holds the literal configuration surface described in the
// external interfaces section of the engineering spec. Loading it from
// environment or file sources is out of scope; callers build a Config in
// code (or in tests) and call Validate.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
)

// Config carries every recognized knob, all optional with the defaults below.
type Config struct {
	DatabasePath string
	ArchiveDir   string

	WorkerPoolSize        string // "auto" or a positive integer string
	DefaultLeaseSeconds   int
	PollInterval          time.Duration
	StaleRecoveryInterval time.Duration

	RetryBaseSeconds int
	RetryCapSeconds  int
	MaxAttempts      int

	NavigationTimeoutMS int
	BehaviorTimeoutMS   int
	OverallTimeoutMS    int

	MinContentLength int

	ExplorationThreshold int
	ExplorationBonus     float64
	DecayHalfLifeDays    int
}

// Default returns the configuration with every default named in the spec.
func Default() Config {
	return Config{
		DatabasePath:          "national-treasure.db",
		ArchiveDir:            "archive",
		WorkerPoolSize:        "3",
		DefaultLeaseSeconds:   1800,
		PollInterval:          500 * time.Millisecond,
		StaleRecoveryInterval: 30 * time.Second,
		RetryBaseSeconds:      30,
		RetryCapSeconds:       3600,
		MaxAttempts:           3,
		NavigationTimeoutMS:   30000,
		BehaviorTimeoutMS:     30000,
		OverallTimeoutMS:      120000,
		MinContentLength:      500,
		ExplorationThreshold:  10,
		ExplorationBonus:      0.1,
		DecayHalfLifeDays:     30,
	}
}

// Validate checks that the configuration's values are internally consistent.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path cannot be empty")
	}
	if c.ArchiveDir == "" {
		return fmt.Errorf("archive_dir cannot be empty")
	}
	if c.WorkerPoolSize != "auto" {
		n, err := strconv.Atoi(c.WorkerPoolSize)
		if err != nil || n <= 0 {
			return fmt.Errorf("worker_pool_size must be 'auto' or a positive integer")
		}
	}
	if c.DefaultLeaseSeconds <= 0 {
		return fmt.Errorf("default_lease_seconds must be positive")
	}
	if c.RetryBaseSeconds <= 0 || c.RetryCapSeconds <= 0 || c.RetryCapSeconds < c.RetryBaseSeconds {
		return fmt.Errorf("retry_base_seconds and retry_cap_seconds must be positive with cap >= base")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}
	if c.NavigationTimeoutMS <= 0 || c.BehaviorTimeoutMS <= 0 || c.OverallTimeoutMS <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.OverallTimeoutMS < c.NavigationTimeoutMS {
		return fmt.Errorf("overall_timeout_ms must be >= navigation_timeout_ms")
	}
	if c.MinContentLength < 0 {
		return fmt.Errorf("min_content_length cannot be negative")
	}
	if c.ExplorationThreshold < 0 {
		return fmt.Errorf("exploration_threshold cannot be negative")
	}
	if c.ExplorationBonus < 0 {
		return fmt.Errorf("exploration_bonus cannot be negative")
	}
	if c.DecayHalfLifeDays <= 0 {
		return fmt.Errorf("decay_half_life_days must be positive")
	}
	return nil
}

// Lease returns the default lease duration as a time.Duration.
func (c *Config) Lease() time.Duration {
	return time.Duration(c.DefaultLeaseSeconds) * time.Second
}

// RetryBackoff computes base * 2^(attempts-1), capped, per spec §4.7.
func (c *Config) RetryBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	base := c.RetryBaseSeconds
	backoff := base << uint(attempts-1)
	if backoff > c.RetryCapSeconds || backoff <= 0 {
		backoff = c.RetryCapSeconds
	}
	return time.Duration(backoff) * time.Second
}

// WorkerCount resolves WorkerPoolSize to a concrete worker count, auto-sizing
// from available system RAM the way the browser pool sizes itself: each
// worker owns one in-flight browser session, budgeted at ~500MB.
func (c *Config) WorkerCount() int {
	if c.WorkerPoolSize != "auto" {
		if n, err := strconv.Atoi(c.WorkerPoolSize); err == nil && n > 0 {
			return n
		}
	}
	return autoWorkerCount()
}

func autoWorkerCount() int {
	var totalRAMBytes int64 = 8 * 1024 * 1024 * 1024
	if v, err := mem.VirtualMemory(); err == nil {
		totalRAMBytes = int64(v.Total)
	}

	reserved := int64(2 * 1024 * 1024 * 1024)
	perWorker := int64(500 * 1024 * 1024)
	available := totalRAMBytes - reserved

	n := int(available / perWorker)
	if n < 1 {
		n = 1
	}
	if n > 20 {
		n = 20
	}
	return n
}
