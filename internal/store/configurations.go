package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/edgecomet/national-treasure/pkg/types"
)

// CreateConfiguration inserts a new, zero-countered configuration.
func (db *DB) CreateConfiguration(ctx context.Context, c types.Configuration) (int64, error) {
	res, err := db.sql.ExecContext(ctx, `
		INSERT INTO configurations (name, headless_kind, viewport_w, viewport_h, user_agent, stealth, wait_strategy, timeout_ms, attempts, successes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		c.Name, c.HeadlessKind.String(), c.ViewportW, c.ViewportH, c.UserAgent, c.Stealth, c.WaitStrategy.String(), c.TimeoutMS,
	)
	if err != nil {
		return 0, fmt.Errorf("insert configuration: %w", err)
	}
	return res.LastInsertId()
}

// GetConfiguration loads a configuration by id.
func (db *DB) GetConfiguration(ctx context.Context, id int64) (types.Configuration, error) {
	row := db.sql.QueryRowContext(ctx, `
		SELECT id, name, headless_kind, viewport_w, viewport_h, user_agent, stealth, wait_strategy, timeout_ms, attempts, successes, last_success, last_failure
		FROM configurations WHERE id = ?`, id)
	return scanConfiguration(row)
}

// ListConfigurations returns every known configuration.
func (db *DB) ListConfigurations(ctx context.Context) ([]types.Configuration, error) {
	rows, err := db.sql.QueryContext(ctx, `
		SELECT id, name, headless_kind, viewport_w, viewport_h, user_agent, stealth, wait_strategy, timeout_ms, attempts, successes, last_success, last_failure
		FROM configurations`)
	if err != nil {
		return nil, fmt.Errorf("list configurations: %w", err)
	}
	defer rows.Close()

	var out []types.Configuration
	for rows.Next() {
		c, err := scanConfiguration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GlobalBestConfiguration returns the configuration with the highest overall
// success rate across all domains, used for cold-start fallback.
func (db *DB) GlobalBestConfiguration(ctx context.Context) (types.Configuration, error) {
	configs, err := db.ListConfigurations(ctx)
	if err != nil {
		return types.Configuration{}, err
	}
	if len(configs) == 0 {
		return types.Configuration{}, ErrNotFound
	}

	best := configs[0]
	for _, c := range configs[1:] {
		if c.SuccessRate() > best.SuccessRate() {
			best = c
		}
	}
	return best, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConfiguration(row rowScanner) (types.Configuration, error) {
	var c types.Configuration
	var headlessKind, waitStrategy string
	var lastSuccess, lastFailure sql.NullString

	if err := row.Scan(&c.ID, &c.Name, &headlessKind, &c.ViewportW, &c.ViewportH, &c.UserAgent, &c.Stealth, &waitStrategy, &c.TimeoutMS, &c.Attempts, &c.Successes, &lastSuccess, &lastFailure); err != nil {
		if err == sql.ErrNoRows {
			return types.Configuration{}, ErrNotFound
		}
		return types.Configuration{}, fmt.Errorf("scan configuration: %w", err)
	}

	kind, err := types.ParseHeadlessKind(headlessKind)
	if err != nil {
		return types.Configuration{}, err
	}
	c.HeadlessKind = kind

	wait, err := types.ParseWaitStrategy(waitStrategy)
	if err != nil {
		return types.Configuration{}, err
	}
	c.WaitStrategy = wait

	if c.LastSuccess, err = parseNullTime(lastSuccess); err != nil {
		return types.Configuration{}, err
	}
	if c.LastFailure, err = parseNullTime(lastFailure); err != nil {
		return types.Configuration{}, err
	}
	return c, nil
}
