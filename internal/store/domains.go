package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/edgecomet/national-treasure/pkg/types"
)

// GetDomain loads a domain record, returning ErrNotFound if it has never
// recorded an outcome.
func (db *DB) GetDomain(ctx context.Context, domain string) (types.DomainRecord, error) {
	row := db.sql.QueryRowContext(ctx, `
		SELECT domain, best_config_id, confidence, min_delay_ms, max_per_minute, block_tags, first_seen, last_updated, sample_count
		FROM domains WHERE domain = ?`, domain)

	var d types.DomainRecord
	var blockTags sql.NullString
	var firstSeen, lastUpdated string

	if err := row.Scan(&d.Domain, &d.BestConfigID, &d.Confidence, &d.MinDelayMS, &d.MaxPerMinute, &blockTags, &firstSeen, &lastUpdated, &d.SampleCount); err != nil {
		if err == sql.ErrNoRows {
			return types.DomainRecord{}, ErrNotFound
		}
		return types.DomainRecord{}, fmt.Errorf("scan domain: %w", err)
	}

	var err error
	if d.FirstSeen, err = time.Parse(time.RFC3339Nano, firstSeen); err != nil {
		return types.DomainRecord{}, err
	}
	if d.LastUpdated, err = time.Parse(time.RFC3339Nano, lastUpdated); err != nil {
		return types.DomainRecord{}, err
	}
	if blockTags.Valid && blockTags.String != "" {
		d.BlockTags = strings.Split(blockTags.String, ",")
	}
	return d, nil
}

// UpdateBestConfig sets the domain's best_config_id and confidence, used by
// the learner when a new configuration dominates the current best with
// posterior mean computed over >= 10 samples (spec §4.6 outcome ingestion).
func (db *DB) UpdateBestConfig(ctx context.Context, domain string, configID int64, confidence float64) error {
	_, err := db.sql.ExecContext(ctx, `UPDATE domains SET best_config_id = ?, confidence = ? WHERE domain = ?`, configID, confidence, domain)
	if err != nil {
		return fmt.Errorf("update best config: %w", err)
	}
	return nil
}

// UpdateRateDiscipline persists the learned minimum inter-request delay and
// max-per-minute cap for a domain.
func (db *DB) UpdateRateDiscipline(ctx context.Context, domain string, minDelayMS, maxPerMinute int) error {
	_, err := db.sql.ExecContext(ctx, `UPDATE domains SET min_delay_ms = ?, max_per_minute = ? WHERE domain = ?`, minDelayMS, maxPerMinute, domain)
	if err != nil {
		return fmt.Errorf("update rate discipline: %w", err)
	}
	return nil
}

// AddBlockTag appends a newly observed block attribution tag to the
// domain's free-form tag set, if not already present.
func (db *DB) AddBlockTag(ctx context.Context, domain, tag string) error {
	d, err := db.GetDomain(ctx, domain)
	if err != nil {
		return err
	}
	for _, t := range d.BlockTags {
		if t == tag {
			return nil
		}
	}
	d.BlockTags = append(d.BlockTags, tag)
	_, err = db.sql.ExecContext(ctx, `UPDATE domains SET block_tags = ? WHERE domain = ?`, strings.Join(d.BlockTags, ","), domain)
	if err != nil {
		return fmt.Errorf("add block tag: %w", err)
	}
	return nil
}
