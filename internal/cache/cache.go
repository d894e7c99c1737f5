package cache

import (
	"context"
	"time"

	"warungpos/backend/internal/domain"
)

// CatalogCache shields the remote ledger from repeated catalog reads. Writers
// invalidate on every catalog or batch mutation; a miss always falls through
// to the ledger, so a cold or broken cache only costs latency.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]domain.Product, bool, error)
	Set(ctx context.Context, key string, products []domain.Product, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopCatalogCache struct{}

func (NoopCatalogCache) Get(_ context.Context, _ string) ([]domain.Product, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) Set(_ context.Context, _ string, _ []domain.Product, _ time.Duration) error {
	return nil
}

func (NoopCatalogCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
