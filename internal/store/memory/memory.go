package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
	"warungpos/backend/internal/xid"
)

// Store is an in-memory ledger used for dev mode and tests. SetOnline(false)
// makes every call fail with store.ErrUnavailable, which is how tests exercise
// the offline checkout path.
type Store struct {
	mu          sync.RWMutex
	online      bool
	products    map[string]domain.Product
	batchesByID map[string]domain.Batch
	salesByID   map[string]domain.Sale
	linesBySale map[string][]domain.SaleLine
}

func New() *Store {
	return &Store{
		online:      true,
		products:    make(map[string]domain.Product),
		batchesByID: make(map[string]domain.Batch),
		salesByID:   make(map[string]domain.Sale),
		linesBySale: make(map[string][]domain.SaleLine),
	}
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	products := []domain.Product{
		{SKU: "SKU-MIE-01", Name: "Mie Goreng Instan", Category: "grocery", PriceCents: 3500, Active: true},
		{SKU: "SKU-TELUR-01", Name: "Telur 10 Butir", Category: "grocery", PriceCents: 26500, Active: true},
		{SKU: "SKU-KOPI-01", Name: "Kopi Sachet", Category: "beverage", PriceCents: 2600, Active: true},
		{SKU: "SKU-AIR-01", Name: "Air Mineral 600ml", Category: "beverage", PriceCents: 3900, Active: true},
		{SKU: "SKU-SABUN-01", Name: "Sabun Mandi", Category: "household", PriceCents: 7400, Active: true},
	}
	for _, p := range products {
		s.products[p.SKU] = p
	}

	seedBatches := []domain.Batch{
		{SKU: "SKU-MIE-01", BoughtPriceCents: 2400, SellingPriceCents: 3500, Qty: 120},
		{SKU: "SKU-TELUR-01", BoughtPriceCents: 21000, SellingPriceCents: 26500, Qty: 40},
		{SKU: "SKU-KOPI-01", BoughtPriceCents: 1700, SellingPriceCents: 2600, Qty: 200},
		{SKU: "SKU-AIR-01", BoughtPriceCents: 2800, SellingPriceCents: 3900, Qty: 96},
		{SKU: "SKU-SABUN-01", BoughtPriceCents: 5100, SellingPriceCents: 7400, Qty: 60},
	}
	for i, b := range seedBatches {
		b.ID = xid.New("batch")
		b.RemainingQty = b.Qty
		b.Version = 1
		// Stagger created_at so seeded FIFO order is deterministic.
		b.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		s.batchesByID[b.ID] = b

		p := s.products[b.SKU]
		p.StockQty += b.Qty
		s.products[b.SKU] = p
	}

	return s
}

// SetOnline toggles the simulated connectivity state.
func (s *Store) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
}

func (s *Store) checkOnline() error {
	if !s.online {
		return store.ErrUnavailable
	}
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkOnline()
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !p.Active {
			continue
		}
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})
	return products, nil
}

func (s *Store) GetProductBySKU(_ context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	p, ok := s.products[sku]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyProduct := p
	return &copyProduct, nil
}

func (s *Store) GetProductsBySKUs(_ context.Context, skus []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	result := make(map[string]domain.Product, len(skus))
	for _, sku := range skus {
		if p, ok := s.products[sku]; ok && p.Active {
			result[sku] = p
		}
	}
	return result, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrValidation
	}
	if _, exists := s.products[product.SKU]; exists {
		return nil, store.ErrValidation
	}

	product.Active = true
	s.products[product.SKU] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrValidation
	}
	existing, exists := s.products[product.SKU]
	if !exists {
		return nil, store.ErrNotFound
	}
	product.StockQty = existing.StockQty
	s.products[product.SKU] = product
	updated := product
	return &updated, nil
}

func (s *Store) UpdateProductStock(_ context.Context, sku string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return err
	}

	p, ok := s.products[sku]
	if !ok {
		return store.ErrNotFound
	}
	p.StockQty += delta
	if p.StockQty < 0 {
		p.StockQty = 0
	}
	s.products[sku] = p
	return nil
}

func (s *Store) ListOpenBatches(_ context.Context, sku string) ([]domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	batches := make([]domain.Batch, 0, 8)
	for _, b := range s.batchesByID {
		if b.SKU != sku || b.RemainingQty < 1 {
			continue
		}
		batches = append(batches, b)
	}
	slices.SortFunc(batches, compareBatchFIFO)
	return batches, nil
}

func (s *Store) ListBatches(_ context.Context, sku string) ([]domain.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	batches := make([]domain.Batch, 0, 8)
	for _, b := range s.batchesByID {
		if sku != "" && b.SKU != sku {
			continue
		}
		batches = append(batches, b)
	}
	slices.SortFunc(batches, compareBatchFIFO)
	return batches, nil
}

func (s *Store) CreateBatch(_ context.Context, batch domain.Batch) (*domain.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(batch.SKU) == "" || batch.Qty < 1 || batch.BoughtPriceCents < 0 || batch.SellingPriceCents < 1 {
		return nil, store.ErrValidation
	}
	if _, exists := s.products[batch.SKU]; !exists {
		return nil, store.ErrNotFound
	}
	if batch.ID == "" {
		batch.ID = xid.New("batch")
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}
	batch.RemainingQty = batch.Qty
	batch.Version = 1
	s.batchesByID[batch.ID] = batch

	p := s.products[batch.SKU]
	p.StockQty += batch.Qty
	s.products[batch.SKU] = p

	created := batch
	return &created, nil
}

func (s *Store) UpdateBatchRemaining(_ context.Context, batchID string, remainingQty int, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return err
	}

	b, ok := s.batchesByID[batchID]
	if !ok {
		return store.ErrNotFound
	}
	if remainingQty < 0 || remainingQty > b.Qty {
		return store.ErrValidation
	}
	if b.Version != expectedVersion {
		return store.ErrVersionConflict
	}
	b.RemainingQty = remainingQty
	b.Version++
	s.batchesByID[batchID] = b
	return nil
}

func (s *Store) UpdateBatchPrice(_ context.Context, batchID string, sellingPriceCents int64) (*domain.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	if sellingPriceCents < 1 {
		return nil, store.ErrValidation
	}
	b, ok := s.batchesByID[batchID]
	if !ok {
		return nil, store.ErrNotFound
	}
	b.SellingPriceCents = sellingPriceCents
	s.batchesByID[batchID] = b
	updated := b
	return &updated, nil
}

func (s *Store) DeleteBatch(_ context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return err
	}

	if _, ok := s.batchesByID[batchID]; !ok {
		return store.ErrNotFound
	}
	delete(s.batchesByID, batchID)
	return nil
}

func (s *Store) PruneExhaustedBatches(_ context.Context, sku string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return 0, err
	}

	pruned := 0
	for id, b := range s.batchesByID {
		if b.SKU != sku || b.RemainingQty != 0 {
			continue
		}
		delete(s.batchesByID, id)
		pruned++
	}
	return pruned, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale, lines []domain.SaleLine) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOnline(); err != nil {
		return nil, err
	}

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if len(lines) == 0 {
		return nil, store.ErrValidation
	}
	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, store.ErrValidation
	}

	kept := make([]domain.SaleLine, 0, len(lines))
	for _, line := range lines {
		if line.ID == "" {
			line.ID = xid.New("line")
		}
		line.SaleID = sale.ID
		kept = append(kept, line)
	}

	s.salesByID[sale.ID] = sale
	s.linesBySale[sale.ID] = kept
	created := sale
	return &created, nil
}

// Sales and SaleLines expose committed rows for test assertions.
func (s *Store) Sales() []domain.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		sales = append(sales, sale)
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return sales
}

func (s *Store) SaleLines(saleID string) []domain.SaleLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.linesBySale[saleID]
	result := make([]domain.SaleLine, len(lines))
	copy(result, lines)
	return result
}

func compareBatchFIFO(a domain.Batch, b domain.Batch) int {
	if a.CreatedAt.Before(b.CreatedAt) {
		return -1
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return 1
	}
	return cmpString(a.ID, b.ID)
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
