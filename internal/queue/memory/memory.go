package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/queue"
	"warungpos/backend/internal/xid"
)

// Store is an in-memory queue for tests and dev mode. It mirrors the sqlite
// implementation's semantics, including idempotent delete.
type Store struct {
	mu      sync.RWMutex
	sales   map[string]domain.QueuedSale
	items   map[string][]domain.QueuedSaleItem
	failing bool
}

func New() *Store {
	return &Store{
		sales: make(map[string]domain.QueuedSale),
		items: make(map[string][]domain.QueuedSaleItem),
	}
}

// SetFailing makes every call return queue.ErrClosed, for tests that need a
// broken local store.
func (s *Store) SetFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

func (s *Store) checkHealthy() error {
	if s.failing {
		return queue.ErrClosed
	}
	return nil
}

func (s *Store) Enqueue(_ context.Context, sale domain.QueuedSale, items []domain.QueuedSaleItem) (*domain.QueuedSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkHealthy(); err != nil {
		return nil, err
	}

	if sale.ID == "" {
		sale.ID = xid.New("qsale")
	}
	now := time.Now().UTC()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = now
	}
	sale.Status = domain.QueueStatusQueued
	sale.StatusUpdatedAt = now
	sale.ItemsCount = len(items)

	kept := make([]domain.QueuedSaleItem, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			item.ID = xid.New("qitem")
		}
		item.QueuedSaleID = sale.ID
		kept = append(kept, item)
	}

	s.sales[sale.ID] = sale
	s.items[sale.ID] = kept
	created := sale
	return &created, nil
}

func (s *Store) List(_ context.Context, statuses ...string) ([]domain.QueuedSaleView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkHealthy(); err != nil {
		return nil, err
	}

	views := make([]domain.QueuedSaleView, 0, len(s.sales))
	for id, sale := range s.sales {
		if len(statuses) > 0 && !slices.Contains(statuses, sale.Status) {
			continue
		}
		items := make([]domain.QueuedSaleItem, len(s.items[id]))
		copy(items, s.items[id])
		views = append(views, domain.QueuedSaleView{Sale: sale, Items: items})
	}
	slices.SortFunc(views, func(a, b domain.QueuedSaleView) int {
		if a.Sale.CreatedAt.Equal(b.Sale.CreatedAt) {
			return cmpString(a.Sale.ID, b.Sale.ID)
		}
		if a.Sale.CreatedAt.Before(b.Sale.CreatedAt) {
			return -1
		}
		return 1
	})
	return views, nil
}

func (s *Store) Get(_ context.Context, id string) (*domain.QueuedSaleView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkHealthy(); err != nil {
		return nil, err
	}

	sale, ok := s.sales[id]
	if !ok {
		return nil, queue.ErrNotFound
	}
	items := make([]domain.QueuedSaleItem, len(s.items[id]))
	copy(items, s.items[id])
	return &domain.QueuedSaleView{Sale: sale, Items: items}, nil
}

func (s *Store) SetStatus(_ context.Context, id string, status string, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkHealthy(); err != nil {
		return err
	}

	sale, ok := s.sales[id]
	if !ok {
		return queue.ErrNotFound
	}
	sale.Status = status
	sale.LastError = lastError
	sale.StatusUpdatedAt = time.Now().UTC()
	s.sales[id] = sale
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkHealthy(); err != nil {
		return err
	}

	delete(s.sales, id)
	delete(s.items, id)
	return nil
}

func (s *Store) CountPending(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkHealthy(); err != nil {
		return 0, err
	}

	count := 0
	for _, sale := range s.sales {
		if sale.Status == domain.QueueStatusQueued || sale.Status == domain.QueueStatusSyncing {
			count++
		}
	}
	return count, nil
}

func (s *Store) ResetStale(_ context.Context, threshold time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkHealthy(); err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-threshold)
	reset := 0
	for id, sale := range s.sales {
		if sale.Status != domain.QueueStatusSyncing || !sale.StatusUpdatedAt.Before(cutoff) {
			continue
		}
		sale.Status = domain.QueueStatusQueued
		sale.LastError = "sync interrupted, requeued as stale"
		sale.StatusUpdatedAt = time.Now().UTC()
		s.sales[id] = sale
		reset++
	}
	return reset, nil
}

func (s *Store) Close() error {
	return nil
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}
