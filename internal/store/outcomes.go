package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edgecomet/national-treasure/pkg/types"
)

// recentWindow is the number of most-recent outcomes per domain that
// HistoricalSuccessRate leaves out. It equals the learner's default drift
// window, but the learner's drift detector does not read it.
const recentWindow = 10

// Record appends an outcome, increments the configuration's attempt (and,
// if ok, success) counter, and updates the domain record's sample count and
// timestamps, all in a single transaction. Per spec §4.1, a write failure
// leaves the attempt unrecorded; the caller must not retry record() unless
// the underlying capture is also re-done.
func (db *DB) Record(ctx context.Context, o types.Outcome) (int64, error) {
	var id int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO outcomes (schema_version, ts, domain, url, config_id, result, block_service, http_status, response_ms, content_length, page_title, hour, weekday, recent_rate)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.SchemaVersion, o.Timestamp.UTC().Format(time.RFC3339Nano), o.Domain, o.URL, o.ConfigID, string(o.Result),
			nullString(o.BlockService), o.HTTPStatus, o.ResponseMS, o.ContentLength, o.PageTitle, o.HourOfDay, o.Weekday, o.RecentRate,
		)
		if err != nil {
			return fmt.Errorf("insert outcome: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}

		if o.Result == types.ResultOK {
			_, err = tx.ExecContext(ctx, `UPDATE configurations SET attempts = attempts + 1, successes = successes + 1, last_success = ? WHERE id = ?`,
				o.Timestamp.UTC().Format(time.RFC3339Nano), o.ConfigID)
		} else {
			_, err = tx.ExecContext(ctx, `UPDATE configurations SET attempts = attempts + 1, last_failure = ? WHERE id = ?`,
				o.Timestamp.UTC().Format(time.RFC3339Nano), o.ConfigID)
		}
		if err != nil {
			return fmt.Errorf("update configuration counters: %w", err)
		}

		return db.touchDomainTx(ctx, tx, o.Domain, o.Timestamp)
	})
	return id, err
}

// touchDomainTx upserts a domain row, bumping sample_count and last_updated.
func (db *DB) touchDomainTx(ctx context.Context, tx *sql.Tx, domain string, ts time.Time) error {
	tsStr := ts.UTC().Format(time.RFC3339Nano)
	res, err := tx.ExecContext(ctx, `UPDATE domains SET sample_count = sample_count + 1, last_updated = ? WHERE domain = ?`, tsStr, domain)
	if err != nil {
		return fmt.Errorf("update domain: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO domains (domain, best_config_id, confidence, min_delay_ms, max_per_minute, first_seen, last_updated, sample_count)
			VALUES (?, 0, 0, 0, 0, ?, ?, 1)`, domain, tsStr, tsStr)
		if err != nil {
			return fmt.Errorf("insert domain: %w", err)
		}
	}
	return nil
}

// ArmStats returns, for every configuration this domain has ever used, raw
// (unweighted) success/failure counts and the last time each arm was seen.
// The learner does not call this; it builds its own time-decayed tallies
// from OutcomesForDomain.
func (db *DB) ArmStats(ctx context.Context, domain string) (map[int64]types.ArmStats, error) {
	rows, err := db.sql.QueryContext(ctx, `
		SELECT config_id, result, ts FROM outcomes WHERE domain = ? ORDER BY ts ASC`, domain)
	if err != nil {
		return nil, fmt.Errorf("query arm stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[int64]types.ArmStats)
	for rows.Next() {
		var configID int64
		var result, tsStr string
		if err := rows.Scan(&configID, &result, &tsStr); err != nil {
			return nil, fmt.Errorf("scan arm stats row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			return nil, err
		}

		a := stats[configID]
		a.ConfigID = configID
		if types.Result(result) == types.ResultOK {
			a.Successes++
		} else {
			a.Failures++
		}
		if ts.After(a.LastSeen) {
			a.LastSeen = ts
		}
		stats[configID] = a
	}
	return stats, rows.Err()
}

// Recent returns the N most-recent outcomes for a domain, newest first.
func (db *DB) Recent(ctx context.Context, domain string, n int) ([]types.Outcome, error) {
	rows, err := db.sql.QueryContext(ctx, `
		SELECT id, schema_version, ts, domain, url, config_id, result, block_service, http_status, response_ms, content_length, page_title, hour, weekday, recent_rate
		FROM outcomes WHERE domain = ? ORDER BY ts DESC LIMIT ?`, domain, n)
	if err != nil {
		return nil, fmt.Errorf("query recent outcomes: %w", err)
	}
	defer rows.Close()
	return scanOutcomes(rows)
}

// HistoricalSuccessRate computes the success rate over every outcome for a
// domain except its recentWindow most recent ones.
func (db *DB) HistoricalSuccessRate(ctx context.Context, domain string) (float64, error) {
	row := db.sql.QueryRowContext(ctx, `
		SELECT COUNT(*), SUM(CASE WHEN result = 'ok' THEN 1 ELSE 0 END)
		FROM outcomes WHERE domain = ? AND id NOT IN (
			SELECT id FROM outcomes WHERE domain = ? ORDER BY ts DESC LIMIT ?
		)`, domain, domain, recentWindow)

	var total int64
	var successes sql.NullInt64
	if err := row.Scan(&total, &successes); err != nil {
		return 0, fmt.Errorf("historical success rate: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(successes.Int64) / float64(total), nil
}

// OutcomesForDomain returns every outcome recorded for a domain, oldest
// first, for the learner's own weighting (time decay) and drift arithmetic.
func (db *DB) OutcomesForDomain(ctx context.Context, domain string) ([]types.Outcome, error) {
	rows, err := db.sql.QueryContext(ctx, `
		SELECT id, schema_version, ts, domain, url, config_id, result, block_service, http_status, response_ms, content_length, page_title, hour, weekday, recent_rate
		FROM outcomes WHERE domain = ? ORDER BY ts ASC`, domain)
	if err != nil {
		return nil, fmt.Errorf("query outcomes for domain: %w", err)
	}
	defer rows.Close()
	return scanOutcomes(rows)
}

func scanOutcomes(rows *sql.Rows) ([]types.Outcome, error) {
	var out []types.Outcome
	for rows.Next() {
		var o types.Outcome
		var tsStr, result string
		var blockService, pageTitle sql.NullString
		if err := rows.Scan(&o.ID, &o.SchemaVersion, &tsStr, &o.Domain, &o.URL, &o.ConfigID, &result, &blockService,
			&o.HTTPStatus, &o.ResponseMS, &o.ContentLength, &pageTitle, &o.HourOfDay, &o.Weekday, &o.RecentRate); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			return nil, err
		}
		o.Timestamp = ts
		o.Result = types.Result(result)
		o.BlockService = blockService.String
		o.PageTitle = pageTitle.String
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
