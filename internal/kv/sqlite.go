package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/menezmethod/macrofx/internal/deps"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v BLOB NOT NULL, exp INTEGER)`
	sqlitePurge  = `DELETE FROM kv WHERE k = ?1 AND exp IS NOT NULL AND exp < ?2`
	sqliteGet    = `SELECT v FROM kv WHERE k = ?1`
	sqliteSet    = `INSERT INTO kv (k, v, exp) VALUES (?1, ?2, ?3)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v, exp = excluded.exp`
	sqliteDelete = `DELETE FROM kv WHERE k = ?1`
	sqlitePut    = `INSERT INTO kv (k, v, exp) VALUES (?1, ?2, NULL)
		ON CONFLICT(k) DO UPDATE SET v = excluded.v`
	sqliteExpire = `UPDATE kv SET exp = ?2 WHERE k = ?1`
)

// SQLite is a file-backed store. Expiry is stored as unix milliseconds and
// enforced lazily on read.
type SQLite struct {
	db    *sql.DB
	clock deps.Clock
}

// OpenSQLite opens (creating if needed) the database at dsn.
// Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, dsn string, clock deps.Clock) (*SQLite, error) {
	if clock == nil {
		clock = deps.SystemClock
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	// One connection serialises writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &SQLite{db: db, clock: clock}, nil
}

func (s *SQLite) now() int64 { return s.clock.Now().UnixMilli() }

// Get implements deps.KV.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if _, err := s.db.ExecContext(ctx, sqlitePurge, key, s.now()); err != nil {
		return nil, false, fmt.Errorf("sqlite purge %q: %w", key, err)
	}

	var v []byte
	err := s.db.QueryRowContext(ctx, sqliteGet, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get %q: %w", key, err)
	}
	if v == nil {
		v = []byte{}
	}
	return v, true, nil
}

// Set implements deps.KV.
func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var exp any
	if ttl > 0 {
		exp = s.clock.Now().Add(ttl).UnixMilli()
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, sqliteSet, key, value, exp); err != nil {
		return fmt.Errorf("sqlite set %q: %w", key, err)
	}
	return nil
}

// Delete implements deps.KV.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, sqliteDelete, key); err != nil {
		return fmt.Errorf("sqlite delete %q: %w", key, err)
	}
	return nil
}

// Incr implements deps.Incrementer inside one transaction. A stored value
// that is not a decimal integer is left alone and reported as ErrNotCounter.
// An existing expiry is kept.
func (s *SQLite) Incr(ctx context.Context, key string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite incr %q: %w", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, sqlitePurge, key, s.now()); err != nil {
		return 0, fmt.Errorf("sqlite purge %q: %w", key, err)
	}

	var n int64
	var raw []byte
	err = tx.QueryRowContext(ctx, sqliteGet, key).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return 0, fmt.Errorf("sqlite incr %q: %w", key, err)
	default:
		n, err = strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, errNotCounter(key, err)
		}
	}
	n++

	if _, err := tx.ExecContext(ctx, sqlitePut, key, strconv.FormatInt(n, 10)); err != nil {
		return 0, fmt.Errorf("sqlite incr %q: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite incr %q: %w", key, err)
	}
	return n, nil
}

// Expire implements deps.Expirer. A ttl of zero or less removes the expiry.
func (s *SQLite) Expire(ctx context.Context, key string, ttl time.Duration) error {
	var exp any
	if ttl > 0 {
		exp = s.clock.Now().Add(ttl).UnixMilli()
	}
	if _, err := s.db.ExecContext(ctx, sqliteExpire, key, exp); err != nil {
		return fmt.Errorf("sqlite expire %q: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
