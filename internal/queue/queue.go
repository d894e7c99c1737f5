package queue

import (
	"context"
	"errors"
	"time"

	"warungpos/backend/internal/domain"
)

var (
	ErrNotFound = errors.New("queued sale not found")
	// ErrClosed is returned once the backing store has been shut down.
	ErrClosed = errors.New("queue closed")
)

// Store is the client-local durable queue holding checkouts accepted while the
// remote ledger was unreachable. Entries survive restarts; the sync driver
// drains them and deletes what it commits.
type Store interface {
	// Enqueue persists the sale and its item snapshots atomically with
	// status "queued".
	Enqueue(ctx context.Context, sale domain.QueuedSale, items []domain.QueuedSaleItem) (*domain.QueuedSale, error)

	// List returns entries in the given statuses (all statuses when none are
	// given), oldest first, each with its items.
	List(ctx context.Context, statuses ...string) ([]domain.QueuedSaleView, error)
	Get(ctx context.Context, id string) (*domain.QueuedSaleView, error)

	// SetStatus moves an entry to the given status, stamping
	// status_updated_at and recording lastError (empty clears it).
	SetStatus(ctx context.Context, id string, status string, lastError string) error

	// Delete removes an entry and its items. Deleting an id that does not
	// exist is not an error; the sync driver may race a manual purge.
	Delete(ctx context.Context, id string) error

	// CountPending counts entries in status queued or syncing. Failed
	// entries are excluded; they show up in the operational queue view
	// instead.
	CountPending(ctx context.Context) (int, error)

	// ResetStale flips entries stuck in "syncing" longer than threshold back
	// to "queued", recording why, so a crashed sync cycle cannot strand
	// them. Returns the number of entries reset.
	ResetStale(ctx context.Context, threshold time.Duration) (int, error)

	Close() error
}
