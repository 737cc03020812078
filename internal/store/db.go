// Package store persists discovered job records into a SQLite database and
// tracks the status of any application workflow layered on top of them
// (§4.7, §9 supplemented features). It keeps the teacher's db.go shape: a
// single *sql.DB wrapped in a thin DB handle, opened with a busy-timeout
// DSN and a single writer connection, migrated on open.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	Pool *sql.DB
}

// Open opens (creating if needed) the sqlite file at path and runs schema
// migrations. WAL mode lets the orchestrator's concurrent adapter
// goroutines all write through the same handle without SQLITE_BUSY churn,
// since every write still serializes through the single pooled connection.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	pool.SetMaxOpenConns(1) // sqlite typically wants 1 writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	d := &DB{Pool: pool}
	if err := d.Migrate(); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}
