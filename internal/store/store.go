package store

import (
	"context"
	"errors"

	"warungpos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnavailable marks transport-level failures: the remote store could
	// not be reached or did not answer in time. Orchestration treats it as
	// "offline" and falls back to the local queue.
	ErrUnavailable = errors.New("remote store unavailable")
	// ErrVersionConflict is returned by conditional batch updates when the
	// presented version no longer matches the stored row.
	ErrVersionConflict = errors.New("batch version conflict")
)

// Ledger is the remote store surface consumed by the core. Every call may fail
// with ErrUnavailable (transport) or ErrValidation (rejected by the store).
type Ledger interface {
	Ping(ctx context.Context) error

	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	GetProductsBySKUs(ctx context.Context, skus []string) (map[string]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	// UpdateProductStock adjusts the cached aggregate stock by delta
	// (negative for consumption). The cache may drift from the ledger if this
	// call fails after a successful batch update; callers report but do not
	// reverse.
	UpdateProductStock(ctx context.Context, sku string, delta int) error

	// ListOpenBatches returns batches with remaining_qty > 0 ordered
	// ascending by (created_at, id). The ordering is the FIFO contract and is
	// total: no two open batches compare equal.
	ListOpenBatches(ctx context.Context, sku string) ([]domain.Batch, error)
	ListBatches(ctx context.Context, sku string) ([]domain.Batch, error)
	CreateBatch(ctx context.Context, batch domain.Batch) (*domain.Batch, error)
	// UpdateBatchRemaining conditionally sets remaining_qty; fails with
	// ErrVersionConflict when expectedVersion is stale.
	UpdateBatchRemaining(ctx context.Context, batchID string, remainingQty int, expectedVersion int64) error
	UpdateBatchPrice(ctx context.Context, batchID string, sellingPriceCents int64) (*domain.Batch, error)
	DeleteBatch(ctx context.Context, batchID string) error
	// PruneExhaustedBatches deletes batches with remaining_qty == 0 for the
	// product. Storage hygiene only; safe to run or skip at any time.
	PruneExhaustedBatches(ctx context.Context, sku string) (int, error)

	CreateSale(ctx context.Context, sale domain.Sale, lines []domain.SaleLine) (*domain.Sale, error)
}

// IsUnavailable reports whether err should be treated as a connectivity
// failure for orchestration purposes. Deadline expiry counts: a remote call
// that timed out is indistinguishable from being offline.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
