package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aditpras/lapakchat/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS transactions (
		trx_id TEXT PRIMARY KEY,
		product TEXT NOT NULL,
		status TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_updated ON transactions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetTransaction retrieves a transaction by its id.
func (s *SQLiteStore) GetTransaction(ctx context.Context, trxID string) (*domain.Transaction, error) {
	query := `SELECT trx_id, product, status, updated_at FROM transactions WHERE trx_id = ?`

	row := s.db.QueryRowContext(ctx, query, trxID)

	var trx domain.Transaction
	var updatedAt int64

	err := row.Scan(&trx.TrxID, &trx.Product, &trx.Status, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction row: %w", err)
	}

	trx.UpdatedAt = time.Unix(updatedAt, 0)
	return &trx, nil
}

// UpsertTransaction creates or updates a transaction record.
func (s *SQLiteStore) UpsertTransaction(ctx context.Context, trx *domain.Transaction) error {
	query := `
	INSERT INTO transactions (trx_id, product, status, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(trx_id) DO UPDATE SET
		product = excluded.product,
		status = excluded.status,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		trx.TrxID, trx.Product, trx.Status, trx.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
