// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/aditpras/lapakchat/internal/domain"
)

// Repository defines the interface for transaction-status data. The
// storefront writes these records; the relay reads them so the bot can
// answer status questions.
type Repository interface {
	// GetTransaction retrieves a transaction by its id. Returns
	// (nil, nil) when no such transaction exists.
	GetTransaction(ctx context.Context, trxID string) (*domain.Transaction, error)

	// UpsertTransaction creates or updates a transaction record.
	UpsertTransaction(ctx context.Context, trx *domain.Transaction) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
