// Package sqlite keeps cart blobs in a single key/value table so the
// storefront can run as one binary without Redis.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/saiko-shop/storefront/internal/repository"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cart_blobs (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// One writer at a time; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply cart schema: %w", err)
	}
	return db, nil
}

type cartStorage struct {
	db  *sql.DB
	now func() time.Time
}

func NewCartStorage(db *sql.DB) repository.CartStorage {
	return &cartStorage{db: db, now: time.Now}
}

func (r *cartStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM cart_blobs WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart %s from sqlite: %w", key, err)
	}
	return value, nil
}

func (r *cartStorage) Set(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return errors.New("cannot save cart under an empty key")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, r.now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to save cart %s to sqlite: %w", key, err)
	}
	return nil
}

func (r *cartStorage) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cart %s from sqlite: %w", key, err)
	}
	return nil
}
