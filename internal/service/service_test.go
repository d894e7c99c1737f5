package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"warungpos/backend/internal/domain"
	queuemem "warungpos/backend/internal/queue/memory"
	"warungpos/backend/internal/store"
	storemem "warungpos/backend/internal/store/memory"
)

// memCatalogCache is a single-key cache for tests; the service only ever uses
// one catalog key.
type memCatalogCache struct {
	products []domain.Product
}

func (c *memCatalogCache) Get(_ context.Context, _ string) ([]domain.Product, bool, error) {
	if c.products == nil {
		return nil, false, nil
	}
	return c.products, true, nil
}

func (c *memCatalogCache) Set(_ context.Context, _ string, products []domain.Product, _ time.Duration) error {
	c.products = products
	return nil
}

func (c *memCatalogCache) Invalidate(_ context.Context, _ string) error {
	c.products = nil
	return nil
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "owner", Role: "admin"})
}

func newTestService(t *testing.T) (*Service, *storemem.Store, *queuemem.Store, *memCatalogCache) {
	t.Helper()
	mem := storemem.New()
	q := queuemem.New()
	c := &memCatalogCache{}
	svc := New(mem, q, c, 2*time.Second, time.Minute)

	ctx := context.Background()
	if _, err := mem.CreateProduct(ctx, domain.Product{
		SKU: "SKU-MIE-01", Name: "Mie Goreng Instan", Category: "grocery", PriceCents: 1500,
	}); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if _, err := mem.CreateBatch(ctx, domain.Batch{
		SKU: "SKU-MIE-01", BoughtPriceCents: 500, SellingPriceCents: 1500, Qty: 10,
	}); err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return svc, mem, q, c
}

func TestCheckoutCommitsOnline(t *testing.T) {
	svc, mem, q, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod:     domain.PaymentCash,
		CashReceivedCents: 5000,
		CartItems:         []domain.CartItem{{SKU: "sku-mie-01", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if resp.Status != domain.CheckoutCommitted {
		t.Fatalf("status %q, want committed", resp.Status)
	}
	if resp.Receipt.TotalCents != 3000 || resp.Receipt.ChangeCents != 2000 {
		t.Errorf("receipt total=%d change=%d, want 3000/2000", resp.Receipt.TotalCents, resp.Receipt.ChangeCents)
	}

	sales := mem.Sales()
	if len(sales) != 1 {
		t.Fatalf("got %d remote sales, want 1", len(sales))
	}
	if sales[0].CogsCents != 1000 || sales[0].TotalCents != 3000 {
		t.Errorf("sale cogs=%d total=%d, want 1000/3000", sales[0].CogsCents, sales[0].TotalCents)
	}

	lines := mem.SaleLines(sales[0].ID)
	if len(lines) != 1 {
		t.Fatalf("got %d sale lines, want 1", len(lines))
	}
	if lines[0].UnitPriceCents != 1500 || lines[0].Qty != 2 || lines[0].LineCogsCents != 1000 {
		t.Errorf("line = %+v, want unit 1500 qty 2 cogs 1000", lines[0])
	}

	product, err := mem.GetProductBySKU(ctx, "SKU-MIE-01")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.StockQty != 8 {
		t.Errorf("stock %d, want 8", product.StockQty)
	}

	batches, _ := mem.ListOpenBatches(ctx, "SKU-MIE-01")
	if len(batches) != 1 || batches[0].RemainingQty != 8 {
		t.Errorf("batches = %+v, want one with remaining 8", batches)
	}

	pending, _ := q.CountPending(ctx)
	if pending != 0 {
		t.Errorf("pending %d, want 0", pending)
	}
}

func TestCheckoutRejectsShortCash(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod:     domain.PaymentCash,
		CashReceivedCents: 2000,
		CartItems:         []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 2}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCheckoutRejectsInsufficientStock(t *testing.T) {
	svc, mem, q, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod:     domain.PaymentCash,
		CashReceivedCents: 100000,
		CartItems:         []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 20}},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	if len(mem.Sales()) != 0 {
		t.Error("rejected checkout still created a remote sale")
	}
	pending, _ := q.CountPending(ctx)
	if pending != 0 {
		t.Errorf("rejected checkout was queued, pending = %d", pending)
	}
}

func TestCheckoutOfflineQueuesAndSyncsOnce(t *testing.T) {
	svc, mem, q, _ := newTestService(t)
	ctx := context.Background()

	// Prime the catalog cache while online, as a browsing client would.
	if _, err := svc.ListProducts(ctx); err != nil {
		t.Fatalf("prime catalog: %v", err)
	}

	mem.SetOnline(false)
	resp, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod:     domain.PaymentCash,
		CashReceivedCents: 3000,
		CartItems:         []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("offline checkout: %v", err)
	}
	if resp.Status != domain.CheckoutQueued {
		t.Fatalf("status %q, want queued", resp.Status)
	}

	views, err := q.List(ctx)
	if err != nil || len(views) != 1 {
		t.Fatalf("queue views = %v (%v), want 1 entry", views, err)
	}
	if views[0].Sale.Status != domain.QueueStatusQueued {
		t.Errorf("queued status %q, want queued", views[0].Sale.Status)
	}
	if len(views[0].Items) != 1 || views[0].Items[0].Name != "Mie Goreng Instan" {
		t.Errorf("queued items = %+v, want snapshot of product name", views[0].Items)
	}

	// The remote ledger must be untouched while offline.
	mem.SetOnline(true)
	batches, _ := mem.ListOpenBatches(ctx, "SKU-MIE-01")
	if len(batches) != 1 || batches[0].RemainingQty != 10 {
		t.Fatalf("batches = %+v, want untouched remaining 10", batches)
	}

	result, err := svc.SyncAll(ctx)
	if err != nil {
		t.Fatalf("sync all: %v", err)
	}
	if result.Attempted != 1 || result.Synced != 1 || result.Failed != 0 {
		t.Fatalf("sync result = %+v, want 1/1/0", result)
	}

	// Consumed exactly once, entry deleted.
	batches, _ = mem.ListOpenBatches(ctx, "SKU-MIE-01")
	if len(batches) != 1 || batches[0].RemainingQty != 8 {
		t.Errorf("batches = %+v, want remaining 8 after one consumption", batches)
	}
	sales := mem.Sales()
	if len(sales) != 1 {
		t.Fatalf("got %d remote sales, want 1", len(sales))
	}
	if sales[0].TotalCents != 3000 || sales[0].CogsCents != 1000 {
		t.Errorf("synced sale = %+v, want total 3000 cogs 1000", sales[0])
	}
	views, _ = q.List(ctx)
	if len(views) != 0 {
		t.Errorf("queue still holds %d entries after sync", len(views))
	}

	// A second cycle finds nothing to do.
	result, err = svc.SyncAll(ctx)
	if err != nil || result.Attempted != 0 {
		t.Errorf("second sync = %+v (%v), want no attempts", result, err)
	}
}

func TestSyncFailureIsRecordedAndRetried(t *testing.T) {
	svc, mem, q, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ListProducts(ctx); err != nil {
		t.Fatalf("prime catalog: %v", err)
	}
	mem.SetOnline(false)
	if _, err := svc.Checkout(ctx, domain.CheckoutRequest{
		PaymentMethod:     domain.PaymentCash,
		CashReceivedCents: 3000,
		CartItems:         []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 2}},
	}); err != nil {
		t.Fatalf("offline checkout: %v", err)
	}

	// Still offline: the cycle attempts the entry and records the failure.
	result, err := svc.SyncAll(ctx)
	if err != nil {
		t.Fatalf("sync all: %v", err)
	}
	if result.Failed != 1 {
		t.Fatalf("sync result = %+v, want 1 failure", result)
	}

	views, _ := q.List(ctx)
	if len(views) != 1 || views[0].Sale.Status != domain.QueueStatusFailed {
		t.Fatalf("views = %+v, want one failed entry", views)
	}
	if views[0].Sale.LastError == "" {
		t.Error("failed entry has no recorded error")
	}

	// Next cycle after reconnecting picks the failed entry up again.
	mem.SetOnline(true)
	result, err = svc.SyncAll(ctx)
	if err != nil || result.Synced != 1 {
		t.Fatalf("retry sync = %+v (%v), want 1 synced", result, err)
	}
	if len(mem.Sales()) != 1 {
		t.Errorf("got %d remote sales, want 1", len(mem.Sales()))
	}
}

func TestQuotePrefersBatchPrice(t *testing.T) {
	svc, mem, _, _ := newTestService(t)
	ctx := adminCtx()

	// Newer, more expensive batch; the quote must still use the oldest.
	if _, err := mem.CreateBatch(context.Background(), domain.Batch{
		SKU: "SKU-MIE-01", BoughtPriceCents: 700, SellingPriceCents: 1800, Qty: 10,
		CreatedAt: time.Now().UTC().Add(time.Hour),
	}); err != nil {
		t.Fatalf("create batch: %v", err)
	}

	resp, err := svc.Quote(ctx, domain.QuoteRequest{
		CartItems: []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 3}},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if len(resp.Lines) != 1 || resp.Lines[0].UnitPriceCents != 1500 {
		t.Errorf("lines = %+v, want oldest batch price 1500", resp.Lines)
	}
	if resp.SubtotalCents != 4500 {
		t.Errorf("subtotal %d, want 4500", resp.SubtotalCents)
	}
}

func TestQueueStatusReportsPendingAndConnectivity(t *testing.T) {
	svc, mem, q, _ := newTestService(t)
	ctx := context.Background()

	if _, err := q.Enqueue(ctx, domain.QueuedSale{TotalCents: 1000, PaymentMethod: domain.PaymentCash}, []domain.QueuedSaleItem{
		{SKU: "SKU-MIE-01", Name: "Mie Goreng Instan", Qty: 1, UnitPriceCents: 1000, LineTotalCents: 1000},
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	summary, err := svc.QueueStatus(ctx)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	if summary.Pending != 1 || !summary.Online {
		t.Errorf("summary = %+v, want pending 1 online", summary)
	}

	mem.SetOnline(false)
	summary, err = svc.QueueStatus(ctx)
	if err != nil {
		t.Fatalf("queue status offline: %v", err)
	}
	if summary.Online {
		t.Error("summary reports online against an unreachable ledger")
	}
}

func TestAdminGuards(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, domain.ProductCreateRequest{
		SKU: "SKU-X", Name: "X", Category: "misc", PriceCents: 100,
	}); err == nil {
		t.Error("CreateProduct without admin actor succeeded")
	}
	if _, err := svc.CreateBatch(ctx, domain.BatchCreateRequest{
		SKU: "SKU-MIE-01", BoughtPriceCents: 1, SellingPriceCents: 2, Qty: 1,
	}); err == nil {
		t.Error("CreateBatch without admin actor succeeded")
	}
	if _, err := svc.ListQueuedSales(ctx); err == nil {
		t.Error("ListQueuedSales without admin actor succeeded")
	}

	if _, err := svc.CreateBatch(adminCtx(), domain.BatchCreateRequest{
		SKU: "SKU-MIE-01", BoughtPriceCents: 600, SellingPriceCents: 1600, Qty: 5,
	}); err != nil {
		t.Errorf("CreateBatch with admin actor: %v", err)
	}
}

func TestUpdateBatchPriceValidatesAndRepricesFutureUnits(t *testing.T) {
	svc, mem, _, _ := newTestService(t)
	ctx := adminCtx()

	batches, err := svc.ListBatches(ctx, "SKU-MIE-01")
	if err != nil || len(batches) != 1 {
		t.Fatalf("seed batches = %v (%v)", batches, err)
	}
	batchID := batches[0].ID

	if _, err := svc.UpdateBatchPrice(ctx, batchID, domain.BatchPriceUpdateRequest{SellingPriceCents: 0}); !errors.Is(err, store.ErrValidation) {
		t.Errorf("price 0: err = %v, want ErrValidation", err)
	}
	if _, err := svc.UpdateBatchPrice(ctx, batchID, domain.BatchPriceUpdateRequest{SellingPriceCents: -5}); !errors.Is(err, store.ErrValidation) {
		t.Errorf("price -5: err = %v, want ErrValidation", err)
	}

	// Sell two units at the original price, then reprice the batch.
	if _, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod:     domain.PaymentCash,
		CashReceivedCents: 3000,
		CartItems:         []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 2}},
	}); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	updated, err := svc.UpdateBatchPrice(ctx, batchID, domain.BatchPriceUpdateRequest{SellingPriceCents: 2000})
	if err != nil {
		t.Fatalf("update price: %v", err)
	}
	if updated.SellingPriceCents != 2000 || updated.RemainingQty != 8 {
		t.Errorf("batch = %+v, want price 2000 remaining 8", updated)
	}

	// The already-committed sale keeps what was actually charged.
	sales := mem.Sales()
	if len(sales) != 1 || sales[0].TotalCents != 3000 {
		t.Fatalf("sales = %+v, want one sale at the old price", sales)
	}

	// Units sold after the reprice go out at the new price.
	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod:     domain.PaymentCash,
		CashReceivedCents: 4000,
		CartItems:         []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if resp.Receipt.TotalCents != 4000 {
		t.Errorf("repriced total %d, want 4000", resp.Receipt.TotalCents)
	}
}

func TestDeleteBatchRemovesLotAndMissingIsNotFound(t *testing.T) {
	svc, mem, _, _ := newTestService(t)
	ctx := adminCtx()

	batches, err := svc.ListBatches(ctx, "SKU-MIE-01")
	if err != nil || len(batches) != 1 {
		t.Fatalf("seed batches = %v (%v)", batches, err)
	}

	if err := svc.DeleteBatch(ctx, batches[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	remaining, _ := mem.ListBatches(context.Background(), "SKU-MIE-01")
	if len(remaining) != 0 {
		t.Errorf("batches = %+v, want none after delete", remaining)
	}

	if err := svc.DeleteBatch(ctx, batches[0].ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("repeat delete: err = %v, want ErrNotFound", err)
	}
}

func TestPruneBatchesRemovesOnlyExhaustedLots(t *testing.T) {
	svc, mem, _, _ := newTestService(t)
	ctx := adminCtx()

	if _, err := svc.PruneBatches(ctx, ""); !errors.Is(err, store.ErrValidation) {
		t.Errorf("empty sku: err = %v, want ErrValidation", err)
	}

	// Second lot at a different price; drain the first completely.
	if _, err := svc.CreateBatch(ctx, domain.BatchCreateRequest{
		SKU: "SKU-MIE-01", BoughtPriceCents: 700, SellingPriceCents: 1500, Qty: 5,
	}); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if _, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod:     domain.PaymentCash,
		CashReceivedCents: 15000,
		CartItems:         []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 10}},
	}); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	pruned, err := svc.PruneBatches(ctx, "SKU-MIE-01")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned %d lots, want 1", pruned)
	}

	open, _ := mem.ListOpenBatches(context.Background(), "SKU-MIE-01")
	if len(open) != 1 || open[0].RemainingQty != 5 {
		t.Fatalf("open batches = %+v, want the untouched second lot", open)
	}

	// Pruning is FIFO-neutral: the survivor sells as before.
	resp, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		PaymentMethod:     domain.PaymentCash,
		CashReceivedCents: 3000,
		CartItems:         []domain.CartItem{{SKU: "SKU-MIE-01", Qty: 2}},
	})
	if err != nil {
		t.Fatalf("post-prune checkout: %v", err)
	}
	if resp.Receipt.TotalCents != 3000 {
		t.Errorf("post-prune total %d, want 3000", resp.Receipt.TotalCents)
	}
}

func TestDeleteQueuedSaleIsIdempotentForAdmins(t *testing.T) {
	svc, _, q, _ := newTestService(t)
	ctx := adminCtx()

	queued, err := q.Enqueue(context.Background(), domain.QueuedSale{TotalCents: 500, PaymentMethod: domain.PaymentCash}, nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := svc.DeleteQueuedSale(ctx, queued.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.DeleteQueuedSale(ctx, queued.ID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}
