package sqlite

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/queue"
	"warungpos/backend/internal/xid"
)

// queuedSaleRow is the persisted shape of a queued sale. Statuses are indexed
// because the sync driver queries by status every cycle.
type queuedSaleRow struct {
	ID                string    `gorm:"primaryKey;size:64"`
	SubtotalCents     int64     `gorm:"not null"`
	TotalCents        int64     `gorm:"not null"`
	PaymentMethod     string    `gorm:"size:16;not null"`
	CashReceivedCents int64     `gorm:"not null"`
	ChangeCents       int64     `gorm:"not null"`
	ItemsCount        int       `gorm:"not null"`
	Status            string    `gorm:"size:16;not null;index"`
	LastError         string    `gorm:"size:512"`
	CreatedAt         time.Time `gorm:"not null"`
	StatusUpdatedAt   time.Time `gorm:"not null"`
}

func (queuedSaleRow) TableName() string { return "queued_sales" }

type queuedSaleItemRow struct {
	ID             string `gorm:"primaryKey;size:64"`
	QueuedSaleID   string `gorm:"size:64;not null;index"`
	SKU            string `gorm:"size:64;not null"`
	Name           string `gorm:"size:128;not null"`
	Category       string `gorm:"size:64;not null"`
	UnitPriceCents int64  `gorm:"not null"`
	Qty            int    `gorm:"not null"`
	LineTotalCents int64  `gorm:"not null"`
}

func (queuedSaleItemRow) TableName() string { return "queued_sale_items" }

type Store struct {
	db *gorm.DB
}

// New opens (or creates) the queue database at path and migrates its schema.
// Use ":memory:" for a throwaway queue.
func New(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&queuedSaleRow{}, &queuedSaleItemRow{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Enqueue(ctx context.Context, sale domain.QueuedSale, items []domain.QueuedSaleItem) (*domain.QueuedSale, error) {
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

	itemRows := make([]queuedSaleItemRow, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			item.ID = xid.New("qitem")
		}
		item.QueuedSaleID = sale.ID
		itemRows = append(itemRows, itemToRow(item))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(saleToRow(sale)).Error; err != nil {
			return err
		}
		if len(itemRows) > 0 {
			if err := tx.Create(&itemRows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created := sale
	return &created, nil
}

func (s *Store) List(ctx context.Context, statuses ...string) ([]domain.QueuedSaleView, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var rows []queuedSaleRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	views := make([]domain.QueuedSaleView, 0, len(rows))
	for _, row := range rows {
		items, err := s.itemsFor(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, domain.QueuedSaleView{Sale: rowToSale(row), Items: items})
	}
	return views, nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.QueuedSaleView, error) {
	var row queuedSaleRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, queue.ErrNotFound
		}
		return nil, err
	}

	items, err := s.itemsFor(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return &domain.QueuedSaleView{Sale: rowToSale(row), Items: items}, nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status string, lastError string) error {
	res := s.db.WithContext(ctx).Model(&queuedSaleRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            status,
			"last_error":        lastError,
			"status_updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return queue.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("queued_sale_id = ?", id).Delete(&queuedSaleItemRow{}).Error; err != nil {
			return err
		}
		// Missing rows are fine: delete is idempotent.
		return tx.Where("id = ?", id).Delete(&queuedSaleRow{}).Error
	})
}

func (s *Store) CountPending(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&queuedSaleRow{}).
		Where("status IN ?", []string{domain.QueueStatusQueued, domain.QueueStatusSyncing}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Store) ResetStale(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-threshold)
	res := s.db.WithContext(ctx).Model(&queuedSaleRow{}).
		Where("status = ? AND status_updated_at < ?", domain.QueueStatusSyncing, cutoff).
		Updates(map[string]any{
			"status":            domain.QueueStatusQueued,
			"last_error":        "sync interrupted, requeued as stale",
			"status_updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (s *Store) itemsFor(ctx context.Context, saleID string) ([]domain.QueuedSaleItem, error) {
	var rows []queuedSaleItemRow
	err := s.db.WithContext(ctx).
		Where("queued_sale_id = ?", saleID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]domain.QueuedSaleItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToItem(row))
	}
	return items, nil
}

func saleToRow(s domain.QueuedSale) *queuedSaleRow {
	return &queuedSaleRow{
		ID:                s.ID,
		SubtotalCents:     s.SubtotalCents,
		TotalCents:        s.TotalCents,
		PaymentMethod:     s.PaymentMethod,
		CashReceivedCents: s.CashReceivedCents,
		ChangeCents:       s.ChangeCents,
		ItemsCount:        s.ItemsCount,
		Status:            s.Status,
		LastError:         s.LastError,
		CreatedAt:         s.CreatedAt,
		StatusUpdatedAt:   s.StatusUpdatedAt,
	}
}

func rowToSale(r queuedSaleRow) domain.QueuedSale {
	return domain.QueuedSale{
		ID:                r.ID,
		SubtotalCents:     r.SubtotalCents,
		TotalCents:        r.TotalCents,
		PaymentMethod:     r.PaymentMethod,
		CashReceivedCents: r.CashReceivedCents,
		ChangeCents:       r.ChangeCents,
		ItemsCount:        r.ItemsCount,
		Status:            r.Status,
		LastError:         r.LastError,
		CreatedAt:         r.CreatedAt.UTC(),
		StatusUpdatedAt:   r.StatusUpdatedAt.UTC(),
	}
}

func itemToRow(i domain.QueuedSaleItem) queuedSaleItemRow {
	return queuedSaleItemRow{
		ID:             i.ID,
		QueuedSaleID:   i.QueuedSaleID,
		SKU:            i.SKU,
		Name:           i.Name,
		Category:       i.Category,
		UnitPriceCents: i.UnitPriceCents,
		Qty:            i.Qty,
		LineTotalCents: i.LineTotalCents,
	}
}

func rowToItem(r queuedSaleItemRow) domain.QueuedSaleItem {
	return domain.QueuedSaleItem{
		ID:             r.ID,
		QueuedSaleID:   r.QueuedSaleID,
		SKU:            r.SKU,
		Name:           r.Name,
		Category:       r.Category,
		UnitPriceCents: r.UnitPriceCents,
		Qty:            r.Qty,
		LineTotalCents: r.LineTotalCents,
	}
}
