package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edgecomet/national-treasure/pkg/types"
)

// Enqueue inserts a new pending job. If pendingCap is > 0 and the queue
// already holds that many pending jobs, ErrQueueFull is returned and the job
// is never inserted (spec §5 backpressure: the only producer-side control).
func (db *DB) Enqueue(ctx context.Context, queue string, jobType types.JobType, payload []byte, priority int, dependsOn *int64, pendingCap int) (int64, error) {
	var id int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if pendingCap > 0 {
			var pending int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE status = ?`, string(types.JobPending)).Scan(&pending); err != nil {
				return fmt.Errorf("count pending: %w", err)
			}
			if pending >= pendingCap {
				return ErrQueueFull
			}
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		res, err := tx.ExecContext(ctx, `
			INSERT INTO jobs (queue, type, payload, priority, status, attempts, max_attempts, created_at, available_at, depends_on)
			VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
			queue, string(jobType), payload, priority, string(types.JobPending), defaultMaxAttempts, now, now, dependsOn)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// defaultMaxAttempts is overridden per-job by EnqueueWithMaxAttempts; kept
// here only as the fallback used by Enqueue's simpler signature.
const defaultMaxAttempts = 3

// EnqueueWithMaxAttempts is Enqueue with an explicit max_attempts, used by
// callers that don't want the package default.
func (db *DB) EnqueueWithMaxAttempts(ctx context.Context, queue string, jobType types.JobType, payload []byte, priority, maxAttempts int, dependsOn *int64, pendingCap int) (int64, error) {
	var id int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if pendingCap > 0 {
			var pending int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE status = ?`, string(types.JobPending)).Scan(&pending); err != nil {
				return fmt.Errorf("count pending: %w", err)
			}
			if pending >= pendingCap {
				return ErrQueueFull
			}
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		res, err := tx.ExecContext(ctx, `
			INSERT INTO jobs (queue, type, payload, priority, status, attempts, max_attempts, created_at, available_at, depends_on)
			VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
			queue, string(jobType), payload, priority, string(types.JobPending), maxAttempts, now, now, dependsOn)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// Claim atomically selects the highest-priority, oldest-available pending
// job whose dependency (if any) is done, and transitions it to running
// under worker_id with the given lease. Returns ErrNotFound if nothing is
// claimable.
func (db *DB) Claim(ctx context.Context, workerID string, lease time.Duration) (types.Job, error) {
	var job types.Job
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		nowStr := now.Format(time.RFC3339Nano)

		row := tx.QueryRowContext(ctx, `
			SELECT j.id FROM jobs j
			WHERE j.status = ? AND j.available_at <= ?
			  AND (j.depends_on IS NULL OR EXISTS (
			        SELECT 1 FROM jobs p WHERE p.id = j.depends_on AND p.status = ?
			      ))
			ORDER BY j.priority DESC, j.created_at ASC
			LIMIT 1`, string(types.JobPending), nowStr, string(types.JobDone))

		var id int64
		if err := row.Scan(&id); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("select claimable job: %w", err)
		}

		deadline := now.Add(lease).Format(time.RFC3339Nano)
		_, err := tx.ExecContext(ctx, `
			UPDATE jobs SET status = ?, locked_by = ?, locked_at = ?, lease_deadline = ?, started_at = COALESCE(started_at, ?)
			WHERE id = ?`, string(types.JobRunning), workerID, nowStr, deadline, nowStr, id)
		if err != nil {
			return fmt.Errorf("claim job: %w", err)
		}

		j, err := db.getJobTx(ctx, tx, id)
		if err != nil {
			return err
		}
		job = j
		return nil
	})
	return job, err
}

// Heartbeat extends a job's lease, succeeding only if workerID still owns it.
func (db *DB) Heartbeat(ctx context.Context, jobID int64, workerID string, lease time.Duration) error {
	deadline := time.Now().UTC().Add(lease).Format(time.RFC3339Nano)
	res, err := db.sql.ExecContext(ctx, `
		UPDATE jobs SET lease_deadline = ? WHERE id = ? AND locked_by = ? AND status = ?`,
		deadline, jobID, workerID, string(types.JobRunning))
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return requireAffected(res, ErrOwnershipMismatch)
}

// Succeed transitions a job to done and stores its result, verifying ownership.
func (db *DB) Succeed(ctx context.Context, jobID int64, workerID string, result []byte) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := db.sql.ExecContext(ctx, `
		UPDATE jobs SET status = ?, result = ?, completed_at = ?, locked_by = NULL, locked_at = NULL, lease_deadline = NULL
		WHERE id = ? AND locked_by = ? AND status = ?`,
		string(types.JobDone), result, now, jobID, workerID, string(types.JobRunning))
	if err != nil {
		return fmt.Errorf("succeed: %w", err)
	}
	return requireAffected(res, ErrOwnershipMismatch)
}

// Fail increments attempts and either reschedules the job with a backoff
// delay or, once max_attempts is exhausted, dead-letters it. backoff is
// computed by the caller (internal/config.RetryBackoff) from the
// post-increment attempt count.
func (db *DB) Fail(ctx context.Context, jobID int64, workerID string, errMsg string, backoff time.Duration) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT queue, payload, attempts, max_attempts FROM jobs WHERE id = ? AND locked_by = ? AND status = ?`,
			jobID, workerID, string(types.JobRunning))

		var queue string
		var payload []byte
		var attempts, maxAttempts int
		if err := row.Scan(&queue, &payload, &attempts, &maxAttempts); err != nil {
			if err == sql.ErrNoRows {
				return ErrOwnershipMismatch
			}
			return fmt.Errorf("select job for fail: %w", err)
		}

		attempts++
		now := time.Now().UTC()

		if attempts < maxAttempts {
			availableAt := now.Add(backoff).Format(time.RFC3339Nano)
			_, err := tx.ExecContext(ctx, `
				UPDATE jobs SET status = ?, attempts = ?, last_error = ?, available_at = ?, locked_by = NULL, locked_at = NULL, lease_deadline = NULL
				WHERE id = ?`, string(types.JobPending), attempts, errMsg, availableAt, jobID)
			return err
		}

		_, err := tx.ExecContext(ctx, `
			UPDATE jobs SET status = ?, attempts = ?, last_error = ?, locked_by = NULL, locked_at = NULL, lease_deadline = NULL
			WHERE id = ?`, string(types.JobDead), attempts, errMsg, jobID)
		if err != nil {
			return fmt.Errorf("mark job dead: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO dead_letter (job_id, queue, payload, error, attempts, died_at) VALUES (?, ?, ?, ?, ?, ?)`,
			jobID, queue, payload, errMsg, attempts, now.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert dead letter: %w", err)
		}
		return nil
	})
}

// RecoverStale returns jobs whose lease has expired while still running back
// to pending, incrementing attempts and clearing ownership. Runs
// periodically and at startup.
func (db *DB) RecoverStale(ctx context.Context, now time.Time) (int, error) {
	var recovered int
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		nowStr := now.UTC().Format(time.RFC3339Nano)
		rows, err := tx.QueryContext(ctx, `SELECT id FROM jobs WHERE status = ? AND lease_deadline < ?`, string(types.JobRunning), nowStr)
		if err != nil {
			return fmt.Errorf("select stale jobs: %w", err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range ids {
			_, err := tx.ExecContext(ctx, `
				UPDATE jobs SET status = ?, attempts = attempts + 1, available_at = ?, locked_by = NULL, locked_at = NULL, lease_deadline = NULL
				WHERE id = ?`, string(types.JobPending), nowStr, id)
			if err != nil {
				return fmt.Errorf("recover stale job %d: %w", id, err)
			}
			recovered++
		}
		return nil
	})
	return recovered, err
}

// RetryDeadLetter copies a dead-letter record back to a fresh pending job,
// retaining the original id for traceability, and marks the dead-letter
// record revived. Per the spec's resolved open question, attempts reset to
// zero on revival.
func (db *DB) RetryDeadLetter(ctx context.Context, deadLetterID int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT job_id, queue, payload FROM dead_letter WHERE id = ?`, deadLetterID)
		var jobID int64
		var queue string
		var payload []byte
		if err := row.Scan(&jobID, &queue, &payload); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("select dead letter: %w", err)
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		_, err := tx.ExecContext(ctx, `
			UPDATE jobs SET status = ?, attempts = 0, last_error = NULL, available_at = ?, locked_by = NULL, locked_at = NULL, lease_deadline = NULL, completed_at = NULL
			WHERE id = ?`, string(types.JobPending), now, jobID)
		if err != nil {
			return fmt.Errorf("revive job: %w", err)
		}

		_, err = tx.ExecContext(ctx, `UPDATE dead_letter SET revived = 1 WHERE id = ?`, deadLetterID)
		return err
	})
}

// DepthByStatus returns the number of jobs in each status, for backpressure
// and operator visibility.
func (db *DB) DepthByStatus(ctx context.Context) (map[types.JobStatus]int, error) {
	rows, err := db.sql.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("depth by status: %w", err)
	}
	defer rows.Close()

	depths := make(map[types.JobStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		depths[types.JobStatus(status)] = count
	}
	return depths, rows.Err()
}

// GetJob loads a job by id.
func (db *DB) GetJob(ctx context.Context, id int64) (types.Job, error) {
	return db.getJobTx(ctx, db.sql, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (db *DB) getJobTx(ctx context.Context, q queryRower, id int64) (types.Job, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, queue, type, payload, priority, status, attempts, max_attempts, last_error, result,
		       created_at, available_at, started_at, completed_at, locked_by, locked_at, lease_deadline, depends_on
		FROM jobs WHERE id = ?`, id)

	var j types.Job
	var jobType, status string
	var lastError, lockedBy sql.NullString
	var createdAt, availableAt string
	var startedAt, completedAt, lockedAt, leaseDeadline sql.NullString
	var dependsOn sql.NullInt64

	if err := row.Scan(&j.ID, &j.Queue, &jobType, &j.Payload, &j.Priority, &status, &j.Attempts, &j.MaxAttempts, &lastError, &j.Result,
		&createdAt, &availableAt, &startedAt, &completedAt, &lockedBy, &lockedAt, &leaseDeadline, &dependsOn); err != nil {
		if err == sql.ErrNoRows {
			return types.Job{}, ErrNotFound
		}
		return types.Job{}, fmt.Errorf("scan job: %w", err)
	}

	j.Type = types.JobType(jobType)
	j.Status = types.JobStatus(status)
	j.LastError = lastError.String
	j.LockedBy = lockedBy.String

	var err error
	if j.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return types.Job{}, err
	}
	if j.AvailableAt, err = time.Parse(time.RFC3339Nano, availableAt); err != nil {
		return types.Job{}, err
	}
	if j.StartedAt, err = parseNullTime(startedAt); err != nil {
		return types.Job{}, err
	}
	if j.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return types.Job{}, err
	}
	if j.LockedAt, err = parseNullTime(lockedAt); err != nil {
		return types.Job{}, err
	}
	if j.LeaseDeadline, err = parseNullTime(leaseDeadline); err != nil {
		return types.Job{}, err
	}
	if dependsOn.Valid {
		v := dependsOn.Int64
		j.DependsOn = &v
	}
	return j, nil
}

func requireAffected(res sql.Result, errIfZero error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errIfZero
	}
	return nil
}
