package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"warungpos/backend/internal/cache"
	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/ledger"
	"warungpos/backend/internal/queue"
	"warungpos/backend/internal/store"
	"warungpos/backend/internal/xid"
)

const (
	catalogCacheKey = "catalog:products"
	catalogCacheTTL = 30 * time.Second
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Service coordinates checkouts against the remote ledger and falls back to
// the local durable queue whenever the ledger is unreachable. One Service per
// client process; sales are processed sequentially by construction of the
// HTTP handler chain, so no internal locking is needed here.
type Service struct {
	remote         store.Ledger
	engine         *ledger.Engine
	queue          queue.Store
	catalog        cache.CatalogCache
	remoteTimeout  time.Duration
	staleThreshold time.Duration
}

func New(remote store.Ledger, q queue.Store, catalog cache.CatalogCache, remoteTimeout time.Duration, staleThreshold time.Duration) *Service {
	if remoteTimeout <= 0 {
		remoteTimeout = 5 * time.Second
	}
	if staleThreshold <= 0 {
		staleThreshold = 2 * time.Minute
	}
	if catalog == nil {
		catalog = cache.NoopCatalogCache{}
	}

	return &Service{
		remote:         remote,
		engine:         ledger.New(remote),
		queue:          q,
		catalog:        catalog,
		remoteTimeout:  remoteTimeout,
		staleThreshold: staleThreshold,
	}
}

func (s *Service) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.remoteTimeout)
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	return nil
}

// ---- Catalog ----

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if cached, hit, err := s.catalog.Get(ctx, catalogCacheKey); err == nil && hit {
		return cached, nil
	} else if err != nil {
		log.Printf("[service] catalog cache read failed: %v", err)
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	products, err := s.remote.ListProducts(rctx)
	if err != nil {
		return nil, err
	}

	if err := s.catalog.Set(ctx, catalogCacheKey, products, catalogCacheTTL); err != nil {
		log.Printf("[service] catalog cache write failed: %v", err)
	}
	return products, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.SKU == "" || req.Name == "" || req.Category == "" || req.PriceCents < 1 {
		return domain.Product{}, store.ErrValidation
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	created, err := s.remote.CreateProduct(rctx, domain.Product{
		SKU:        req.SKU,
		Name:       req.Name,
		Category:   req.Category,
		PriceCents: req.PriceCents,
		Barcode:    req.Barcode,
		ImageURL:   req.ImageURL,
		Active:     true,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateCatalog(ctx)
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, sku string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return domain.Product{}, store.ErrValidation
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	existing, err := s.remote.GetProductBySKU(rctx, sku)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.PriceCents != nil {
		updated.PriceCents = *req.PriceCents
	}
	if req.Barcode != nil {
		updated.Barcode = *req.Barcode
	}
	if req.ImageURL != nil {
		updated.ImageURL = *req.ImageURL
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}
	if updated.Name == "" || updated.Category == "" || updated.PriceCents < 1 {
		return domain.Product{}, store.ErrValidation
	}

	saved, err := s.remote.UpdateProduct(rctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateCatalog(ctx)
	return *saved, nil
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.catalog.Invalidate(ctx, catalogCacheKey); err != nil {
		log.Printf("[service] catalog cache invalidation failed: %v", err)
	}
}

// ---- Batch ledger administration ----

func (s *Service) ListBatches(ctx context.Context, sku string) ([]domain.Batch, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	return s.remote.ListBatches(rctx, strings.ToUpper(strings.TrimSpace(sku)))
}

func (s *Service) CreateBatch(ctx context.Context, req domain.BatchCreateRequest) (domain.Batch, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Batch{}, err
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	if req.SKU == "" || req.Qty < 1 || req.BoughtPriceCents < 0 || req.SellingPriceCents < 1 {
		return domain.Batch{}, store.ErrValidation
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	created, err := s.remote.CreateBatch(rctx, domain.Batch{
		SKU:               req.SKU,
		BoughtPriceCents:  req.BoughtPriceCents,
		SellingPriceCents: req.SellingPriceCents,
		Qty:               req.Qty,
	})
	if err != nil {
		return domain.Batch{}, err
	}

	s.invalidateCatalog(ctx)
	return *created, nil
}

func (s *Service) UpdateBatchPrice(ctx context.Context, batchID string, req domain.BatchPriceUpdateRequest) (domain.Batch, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Batch{}, err
	}
	if req.SellingPriceCents < 1 {
		return domain.Batch{}, store.ErrValidation
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	updated, err := s.remote.UpdateBatchPrice(rctx, batchID, req.SellingPriceCents)
	if err != nil {
		return domain.Batch{}, err
	}
	return *updated, nil
}

func (s *Service) DeleteBatch(ctx context.Context, batchID string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	if err := s.remote.DeleteBatch(rctx, batchID); err != nil {
		return err
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *Service) PruneBatches(ctx context.Context, sku string) (int, error) {
	if err := requireAdmin(ctx); err != nil {
		return 0, err
	}

	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return 0, store.ErrValidation
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	return s.remote.PruneExhaustedBatches(rctx, sku)
}

// ---- Quoting ----

func (s *Service) Quote(ctx context.Context, req domain.QuoteRequest) (domain.QuoteResponse, error) {
	normalized := normalizeItems(req.CartItems)
	if len(normalized) == 0 {
		return domain.QuoteResponse{}, store.ErrValidation
	}

	products, online, err := s.fetchProducts(ctx, skusOf(normalized))
	if err != nil {
		return domain.QuoteResponse{}, err
	}

	resp := domain.QuoteResponse{Lines: make([]domain.QuoteLine, 0, len(normalized))}
	for _, item := range normalized {
		product, exists := products[item.SKU]
		if !exists {
			return domain.QuoteResponse{}, fmt.Errorf("%w: unknown product %s", store.ErrValidation, item.SKU)
		}

		line, err := s.quoteLine(ctx, product, item.Qty, online)
		if err != nil {
			return domain.QuoteResponse{}, err
		}
		resp.Lines = append(resp.Lines, line)
		resp.SubtotalCents += line.LineTotalCents
	}
	return resp, nil
}

// quoteLine prices one cart line. Offline there is no ledger to walk, so the
// snapshot price is the product's nominal price.
func (s *Service) quoteLine(ctx context.Context, product domain.Product, qty int, online bool) (domain.QuoteLine, error) {
	if !online {
		return nominalLine(product, qty), nil
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	line, err := s.engine.QuoteItem(rctx, product, qty)
	if err != nil {
		if store.IsUnavailable(err) {
			return nominalLine(product, qty), nil
		}
		return domain.QuoteLine{}, err
	}
	return line, nil
}

func nominalLine(product domain.Product, qty int) domain.QuoteLine {
	return domain.QuoteLine{
		SKU:            product.SKU,
		Qty:            qty,
		UnitPriceCents: product.PriceCents,
		LineTotalCents: product.PriceCents * int64(qty),
		NominalPrice:   true,
	}
}

// ---- Checkout orchestration ----

// Checkout drives one sale through Validating and Committing. The response
// status is "committed" when the sale landed in the remote store and "queued"
// when it was accepted locally; validation and stock failures surface as
// errors instead.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}
	if !isSupportedPaymentMethod(req.PaymentMethod) {
		return domain.CheckoutResponse{}, store.ErrValidation
	}

	normalized := normalizeItems(req.CartItems)
	if len(normalized) == 0 {
		return domain.CheckoutResponse{}, store.ErrValidation
	}

	products, online, err := s.fetchProducts(ctx, skusOf(normalized))
	if err != nil {
		return domain.CheckoutResponse{}, err
	}

	// Validating: aggregate stock pre-check. Racy against other clients by
	// design; the consumption engine re-checks batch by batch.
	for _, item := range normalized {
		product, exists := products[item.SKU]
		if !exists {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: unknown product %s", store.ErrValidation, item.SKU)
		}
		if item.Qty > product.StockQty {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: %s has %d left, %d requested",
				store.ErrInsufficientStock, item.SKU, product.StockQty, item.Qty)
		}
	}

	lines := make([]domain.QuoteLine, 0, len(normalized))
	subtotal := int64(0)
	for _, item := range normalized {
		line, err := s.quoteLine(ctx, products[item.SKU], item.Qty, online)
		if err != nil {
			return domain.CheckoutResponse{}, err
		}
		lines = append(lines, line)
		subtotal += line.LineTotalCents
	}
	total := subtotal

	change := int64(0)
	if req.PaymentMethod == domain.PaymentCash {
		if req.CashReceivedCents < total {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: cash received %d below total %d",
				store.ErrValidation, req.CashReceivedCents, total)
		}
		change = req.CashReceivedCents - total
	} else {
		req.CashReceivedCents = 0
	}

	if !online {
		return s.enqueueCheckout(ctx, req, lines, products, subtotal, total, change)
	}

	// Committing.
	rctx, cancel := s.remoteCtx(ctx)
	consumed, err := s.engine.ConsumeMany(rctx, normalized)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			// Rejected: the engine confirmed what the pre-check missed.
			return domain.CheckoutResponse{}, err
		}
		if store.IsUnavailable(err) {
			log.Printf("[service] checkout went offline mid-commit: %v", err)
			return s.enqueueCheckout(ctx, req, lines, products, subtotal, total, change)
		}
		return domain.CheckoutResponse{}, err
	}

	sale := domain.Sale{
		ID:                xid.New("sale"),
		TotalCents:        total,
		PaymentMethod:     req.PaymentMethod,
		CashReceivedCents: req.CashReceivedCents,
		ChangeCents:       change,
		CogsCents:         consumed.CogsCents,
		ItemsCount:        len(normalized),
		CreatedAt:         time.Now().UTC(),
	}
	saleLines := buildSaleLines(sale.ID, lines, consumed)

	rctx, cancel = s.remoteCtx(ctx)
	created, err := s.remote.CreateSale(rctx, sale, saleLines)
	cancel()
	if err != nil {
		// Inventory is already consumed. Queue the sale so the movement is
		// not lost; sync will re-consume, an accepted data-quality risk.
		log.Printf("[service] remote sale write failed after consumption, queueing: %v", err)
		return s.enqueueCheckout(ctx, req, lines, products, subtotal, total, change)
	}

	return domain.CheckoutResponse{
		SaleID:  created.ID,
		Status:  domain.CheckoutCommitted,
		Receipt: buildReceipt(lines, products, subtotal, total, req, change, created.CreatedAt),
	}, nil
}

func (s *Service) enqueueCheckout(
	ctx context.Context,
	req domain.CheckoutRequest,
	lines []domain.QuoteLine,
	products map[string]domain.Product,
	subtotal int64,
	total int64,
	change int64,
) (domain.CheckoutResponse, error) {
	items := make([]domain.QueuedSaleItem, 0, len(lines))
	for _, line := range lines {
		product := products[line.SKU]
		items = append(items, domain.QueuedSaleItem{
			SKU:            line.SKU,
			Name:           product.Name,
			Category:       product.Category,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
			LineTotalCents: line.LineTotalCents,
		})
	}

	queued, err := s.queue.Enqueue(ctx, domain.QueuedSale{
		SubtotalCents:     subtotal,
		TotalCents:        total,
		PaymentMethod:     req.PaymentMethod,
		CashReceivedCents: req.CashReceivedCents,
		ChangeCents:       change,
	}, items)
	if err != nil {
		return domain.CheckoutResponse{}, fmt.Errorf("enqueue offline sale: %w", err)
	}

	log.Printf("[service] sale %s queued offline (total=%d, items=%d)", queued.ID, total, len(items))
	return domain.CheckoutResponse{
		SaleID:  queued.ID,
		Status:  domain.CheckoutQueued,
		Receipt: buildReceipt(lines, products, subtotal, total, req, change, queued.CreatedAt),
	}, nil
}

// fetchProducts resolves products from the remote catalog, falling back to
// the cached catalog when the remote store is unreachable. The bool reports
// whether the client should treat itself as online.
func (s *Service) fetchProducts(ctx context.Context, skus []string) (map[string]domain.Product, bool, error) {
	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()

	products, err := s.remote.GetProductsBySKUs(rctx, skus)
	if err == nil {
		return products, true, nil
	}
	if !store.IsUnavailable(err) {
		return nil, false, err
	}

	cached, hit, cacheErr := s.catalog.Get(ctx, catalogCacheKey)
	if cacheErr != nil || !hit {
		// Offline with a cold cache: nothing to price against.
		return nil, false, err
	}

	bysku := make(map[string]domain.Product, len(skus))
	for _, p := range cached {
		bysku[p.SKU] = p
	}
	result := make(map[string]domain.Product, len(skus))
	for _, sku := range skus {
		if p, ok := bysku[sku]; ok {
			result[sku] = p
		}
	}
	return result, false, nil
}

// ---- Queue operations & synchronization driver ----

func (s *Service) QueueStatus(ctx context.Context) (domain.QueueSummary, error) {
	pending, err := s.queue.CountPending(ctx)
	if err != nil {
		return domain.QueueSummary{}, err
	}

	rctx, cancel := s.remoteCtx(ctx)
	defer cancel()
	online := s.remote.Ping(rctx) == nil
	return domain.QueueSummary{Pending: pending, Online: online}, nil
}

func (s *Service) ListQueuedSales(ctx context.Context) ([]domain.QueuedSaleView, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.queue.List(ctx)
}

func (s *Service) DeleteQueuedSale(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.queue.Delete(ctx, id)
}

func (s *Service) ResetStaleQueue(ctx context.Context) (int, error) {
	return s.queue.ResetStale(ctx, s.staleThreshold)
}

// SyncAll drains the queue: one attempt per eligible entry, failures recorded
// on the entry and skipped until the next cycle.
func (s *Service) SyncAll(ctx context.Context) (domain.SyncResult, error) {
	views, err := s.queue.List(ctx, domain.QueueStatusQueued, domain.QueueStatusFailed)
	if err != nil {
		return domain.SyncResult{}, err
	}

	result := domain.SyncResult{}
	for _, view := range views {
		result.Attempted++
		if err := s.syncEntry(ctx, view); err != nil {
			result.Failed++
			log.Printf("[sync] sale %s failed: %v", view.Sale.ID, err)
			continue
		}
		result.Synced++
	}
	if result.Attempted > 0 {
		log.Printf("[sync] cycle done: attempted=%d synced=%d failed=%d", result.Attempted, result.Synced, result.Failed)
	}
	return result, nil
}

func (s *Service) SyncOne(ctx context.Context, id string) error {
	view, err := s.queue.Get(ctx, id)
	if err != nil {
		return err
	}
	if view.Sale.Status != domain.QueueStatusQueued && view.Sale.Status != domain.QueueStatusFailed {
		return fmt.Errorf("%w: sale %s is %s", store.ErrValidation, id, view.Sale.Status)
	}
	return s.syncEntry(ctx, *view)
}

// syncEntry replays one queued sale. Consumption is recomputed fresh against
// the current ledger; the persisted line items keep the snapshotted unit
// prices, which is what the customer was actually charged.
func (s *Service) syncEntry(ctx context.Context, view domain.QueuedSaleView) error {
	if err := s.queue.SetStatus(ctx, view.Sale.ID, domain.QueueStatusSyncing, ""); err != nil {
		return err
	}

	cart := make([]domain.CartItem, 0, len(view.Items))
	for _, item := range view.Items {
		cart = append(cart, domain.CartItem{SKU: item.SKU, Qty: item.Qty})
	}

	rctx, cancel := s.remoteCtx(ctx)
	consumed, err := s.engine.ConsumeMany(rctx, cart)
	cancel()
	if err != nil {
		return s.failEntry(ctx, view.Sale.ID, fmt.Errorf("consume: %w", err))
	}

	sale := domain.Sale{
		ID:                xid.New("sale"),
		TotalCents:        view.Sale.TotalCents,
		PaymentMethod:     view.Sale.PaymentMethod,
		CashReceivedCents: view.Sale.CashReceivedCents,
		ChangeCents:       view.Sale.ChangeCents,
		CogsCents:         consumed.CogsCents,
		ItemsCount:        len(view.Items),
		CreatedAt:         view.Sale.CreatedAt,
	}

	saleLines := make([]domain.SaleLine, 0, len(view.Items))
	for i, item := range view.Items {
		line := domain.SaleLine{
			SaleID:         sale.ID,
			SKU:            item.SKU,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			LineTotalCents: item.LineTotalCents,
		}
		if i < len(consumed.Items) {
			line.LineCogsCents = consumed.Items[i].Consumption.CogsCents
		}
		saleLines = append(saleLines, line)
	}

	rctx, cancel = s.remoteCtx(ctx)
	_, err = s.remote.CreateSale(rctx, sale, saleLines)
	cancel()
	if err != nil {
		return s.failEntry(ctx, view.Sale.ID, fmt.Errorf("remote write: %w", err))
	}

	// done is transient: record it for observers, then drop the entry.
	if err := s.queue.SetStatus(ctx, view.Sale.ID, domain.QueueStatusDone, ""); err != nil {
		log.Printf("[sync] sale %s: done transition failed: %v", view.Sale.ID, err)
	}
	return s.queue.Delete(ctx, view.Sale.ID)
}

func (s *Service) failEntry(ctx context.Context, id string, cause error) error {
	if err := s.queue.SetStatus(ctx, id, domain.QueueStatusFailed, cause.Error()); err != nil {
		return fmt.Errorf("%v (status update also failed: %w)", cause, err)
	}
	return cause
}

// RunSyncLoop blocks until ctx is done, draining the queue every interval.
// Stale syncing entries are recovered at startup and on every tick, so a
// killed process cannot strand an entry.
func (s *Service) RunSyncLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	if reset, err := s.ResetStaleQueue(ctx); err != nil {
		log.Printf("[sync] startup stale reset failed: %v", err)
	} else if reset > 0 {
		log.Printf("[sync] recovered %d stale syncing entries at startup", reset)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, err := s.ResetStaleQueue(ctx); err != nil {
			log.Printf("[sync] stale reset failed: %v", err)
		}

		rctx, cancel := s.remoteCtx(ctx)
		online := s.remote.Ping(rctx) == nil
		cancel()
		if !online {
			continue
		}

		if _, err := s.SyncAll(ctx); err != nil {
			log.Printf("[sync] cycle failed: %v", err)
		}
	}
}

// ---- Helpers ----

func buildSaleLines(saleID string, lines []domain.QuoteLine, consumed *domain.MultiConsumption) []domain.SaleLine {
	saleLines := make([]domain.SaleLine, 0, len(lines))
	for i, line := range lines {
		sl := domain.SaleLine{
			SaleID:         saleID,
			SKU:            line.SKU,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
			LineTotalCents: line.LineTotalCents,
		}
		if i < len(consumed.Items) {
			sl.LineCogsCents = consumed.Items[i].Consumption.CogsCents
		}
		saleLines = append(saleLines, sl)
	}
	return saleLines
}

func buildReceipt(
	lines []domain.QuoteLine,
	products map[string]domain.Product,
	subtotal int64,
	total int64,
	req domain.CheckoutRequest,
	change int64,
	createdAt time.Time,
) domain.Receipt {
	items := make([]domain.ReceiptItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, domain.ReceiptItem{
			SKU:            line.SKU,
			Name:           products[line.SKU].Name,
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: line.LineTotalCents,
		})
	}

	return domain.Receipt{
		Items:             items,
		SubtotalCents:     subtotal,
		TaxCents:          0,
		TotalCents:        total,
		PaymentMethod:     req.PaymentMethod,
		CashReceivedCents: req.CashReceivedCents,
		ChangeCents:       change,
		CreatedAt:         createdAt,
	}
}

func normalizeItems(items []domain.CartItem) []domain.CartItem {
	merged := make([]domain.CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		sku := strings.ToUpper(strings.TrimSpace(item.SKU))
		if sku == "" || item.Qty < 1 {
			continue
		}
		if pos, seen := index[sku]; seen {
			merged[pos].Qty += item.Qty
			continue
		}
		index[sku] = len(merged)
		merged = append(merged, domain.CartItem{SKU: sku, Qty: item.Qty})
	}
	return merged
}

func skusOf(items []domain.CartItem) []string {
	skus := make([]string, 0, len(items))
	for _, item := range items {
		skus = append(skus, item.SKU)
	}
	return skus
}

func isSupportedPaymentMethod(method string) bool {
	switch method {
	case domain.PaymentCash, domain.PaymentQRIS, domain.PaymentCard:
		return true
	}
	return false
}
