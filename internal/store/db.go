// Package store is the single durable, SQLite-backed backing store shared
// by the outcome store and the job queue, per spec §5's "one durable
// backing store, short transactions, row-level locking" shared-resource
// policy. The database handle is an explicit dependency threaded through
// constructors, never a process-wide singleton.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DB is the explicit handle passed to the outcome store, domain learner,
// and job queue constructors.
type DB struct {
	sql    *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the SQLite database at path and runs the
// schema migration. WAL mode and a busy timeout are set so the short,
// serialized transactions required by §4.1/§4.7 don't spuriously fail under
// concurrent writers.
func Open(path string, logger *zap.Logger) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1) // sqlite3 driver serializes writers; one conn avoids SQLITE_BUSY churn

	db := &DB{sql: sqlDB, logger: logger}
	if err := migrate(db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	return db.sql.Close()
}

// withTx runs fn inside a transaction opened with serializable isolation
// requested (the sqlite3 driver issues a plain BEGIN), committing on success
// and rolling back on any error. Open's single connection keeps transactions
// from overlapping, which gives the serializability §4.1 and §4.7 both
// require for same-key writes.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.sql.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
