package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"warungpos/backend/internal/domain"
)

func TestQueueSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue.db")

	q, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	sale, err := q.Enqueue(ctx, domain.QueuedSale{
		SubtotalCents:     3000,
		TotalCents:        3000,
		PaymentMethod:     domain.PaymentCash,
		CashReceivedCents: 5000,
		ChangeCents:       2000,
	}, []domain.QueuedSaleItem{
		{SKU: "SKU-MIE-01", Name: "Mie Goreng Instan", Category: "grocery", UnitPriceCents: 1500, Qty: 2, LineTotalCents: 3000},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	view, err := reopened.Get(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if view.Sale.Status != domain.QueueStatusQueued || view.Sale.TotalCents != 3000 {
		t.Errorf("sale = %+v, want queued with total 3000", view.Sale)
	}
	if len(view.Items) != 1 || view.Items[0].Name != "Mie Goreng Instan" {
		t.Errorf("items = %+v, want the snapshotted item", view.Items)
	}

	pending, err := reopened.CountPending(ctx)
	if err != nil || pending != 1 {
		t.Errorf("pending = %d (%v), want 1", pending, err)
	}
}

func TestDeleteCascadesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	q, err := New(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer q.Close()

	sale, err := q.Enqueue(ctx, domain.QueuedSale{TotalCents: 1000, PaymentMethod: domain.PaymentCash}, []domain.QueuedSaleItem{
		{SKU: "SKU-KOPI-01", Name: "Kopi Sachet", Category: "beverage", UnitPriceCents: 1000, Qty: 1, LineTotalCents: 1000},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := q.Delete(ctx, sale.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := q.Delete(ctx, sale.ID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}

	views, err := q.List(ctx)
	if err != nil || len(views) != 0 {
		t.Errorf("views = %v (%v), want empty", views, err)
	}
}

func TestResetStaleRequeuesOnlyOldSyncing(t *testing.T) {
	ctx := context.Background()
	q, err := New(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer q.Close()

	sale, err := q.Enqueue(ctx, domain.QueuedSale{TotalCents: 1000, PaymentMethod: domain.PaymentCash}, nil)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.SetStatus(ctx, sale.ID, domain.QueueStatusSyncing, ""); err != nil {
		t.Fatalf("set syncing: %v", err)
	}

	reset, err := q.ResetStale(ctx, time.Hour)
	if err != nil || reset != 0 {
		t.Fatalf("fresh entry reset = %d (%v), want 0", reset, err)
	}

	time.Sleep(30 * time.Millisecond)
	reset, err = q.ResetStale(ctx, 15*time.Millisecond)
	if err != nil || reset != 1 {
		t.Fatalf("stale entry reset = %d (%v), want 1", reset, err)
	}

	view, err := q.Get(ctx, sale.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Sale.Status != domain.QueueStatusQueued || view.Sale.LastError == "" {
		t.Errorf("sale = %+v, want queued with recorded reason", view.Sale)
	}
}
