package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
	"warungpos/backend/internal/xid"
)

// Store is the Postgres-backed remote ledger. Expected schema:
//
//	products        (sku PK, name, category, price_cents, stock_qty, barcode, image_url, active, created_at, updated_at)
//	batches         (id PK, sku FK, bought_price_cents, selling_price_cents, qty, remaining_qty, version, created_at)
//	sales           (id PK, total_cents, payment_method, cash_received_cents, change_cents, cogs_cents, items_count, created_at)
//	sale_lines      (id PK, sale_id FK, sku, unit_price_cents, qty, line_total_cents, line_cogs_cents)
//
// with an index on batches (sku, created_at, id) backing the FIFO scan.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, category, price_cents, stock_qty, COALESCE(barcode, ''), COALESCE(image_url, ''), active
		FROM products
		WHERE active = true
		ORDER BY category, name
	`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Category, &p.PriceCents, &p.StockQty, &p.Barcode, &p.ImageURL, &p.Active); err != nil {
			return nil, classify(err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return products, nil
}

func (s *Store) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT sku, name, category, price_cents, stock_qty, COALESCE(barcode, ''), COALESCE(image_url, ''), active
		FROM products
		WHERE sku = $1
	`, sku).Scan(&p.SKU, &p.Name, &p.Category, &p.PriceCents, &p.StockQty, &p.Barcode, &p.ImageURL, &p.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, classify(err)
	}
	return &p, nil
}

func (s *Store) GetProductsBySKUs(ctx context.Context, skus []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(skus))
	if len(skus) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sku, name, category, price_cents, stock_qty, COALESCE(barcode, ''), COALESCE(image_url, ''), active
		FROM products
		WHERE active = true AND sku = ANY($1)
	`, skus)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.SKU, &p.Name, &p.Category, &p.PriceCents, &p.StockQty, &p.Barcode, &p.ImageURL, &p.Active); err != nil {
			return nil, classify(err)
		}
		result[p.SKU] = p
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return result, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrValidation
	}

	product.Active = true
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (sku, name, category, price_cents, stock_qty, barcode, image_url, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,0,$5,$6,$7,now(),now())
	`, product.SKU, product.Name, product.Category, product.PriceCents, nullIfEmpty(product.Barcode), nullIfEmpty(product.ImageURL), product.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, classify(err)
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.SKU == "" || product.Name == "" || product.Category == "" || product.PriceCents < 1 {
		return nil, store.ErrValidation
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, price_cents = $4, barcode = $5, image_url = $6, active = $7, updated_at = now()
		WHERE sku = $1
	`, product.SKU, product.Name, product.Category, product.PriceCents, nullIfEmpty(product.Barcode), nullIfEmpty(product.ImageURL), product.Active)
	if err != nil {
		return nil, classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, classify(err)
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) UpdateProductStock(ctx context.Context, sku string, delta int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET stock_qty = GREATEST(stock_qty + $2, 0), updated_at = now()
		WHERE sku = $1
	`, sku, delta)
	if err != nil {
		return classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListOpenBatches(ctx context.Context, sku string) ([]domain.Batch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, bought_price_cents, selling_price_cents, qty, remaining_qty, version, created_at
		FROM batches
		WHERE sku = $1 AND remaining_qty > 0
		ORDER BY created_at ASC, id ASC
	`, sku)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	return scanBatches(rows)
}

func (s *Store) ListBatches(ctx context.Context, sku string) ([]domain.Batch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sku, bought_price_cents, selling_price_cents, qty, remaining_qty, version, created_at
		FROM batches
		WHERE ($1 = '' OR sku = $1)
		ORDER BY created_at ASC, id ASC
	`, sku)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	return scanBatches(rows)
}

func (s *Store) CreateBatch(ctx context.Context, batch domain.Batch) (*domain.Batch, error) {
	if strings.TrimSpace(batch.SKU) == "" || batch.Qty < 1 || batch.BoughtPriceCents < 0 || batch.SellingPriceCents < 1 {
		return nil, store.ErrValidation
	}
	if batch.ID == "" {
		batch.ID = xid.New("batch")
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}
	batch.RemainingQty = batch.Qty
	batch.Version = 1

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches (id, sku, bought_price_cents, selling_price_cents, qty, remaining_qty, version, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, batch.ID, batch.SKU, batch.BoughtPriceCents, batch.SellingPriceCents, batch.Qty, batch.RemainingQty, batch.Version, batch.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, classify(err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products SET stock_qty = stock_qty + $2, updated_at = now() WHERE sku = $1
	`, batch.SKU, batch.Qty)
	if err != nil {
		return nil, classify(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	created := batch
	return &created, nil
}

func (s *Store) UpdateBatchRemaining(ctx context.Context, batchID string, remainingQty int, expectedVersion int64) error {
	if remainingQty < 0 {
		return store.ErrValidation
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE batches
		SET remaining_qty = $2, version = version + 1
		WHERE id = $1 AND version = $3 AND $2 <= qty
	`, batchID, remainingQty, expectedVersion)
	if err != nil {
		return classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if affected == 0 {
		// Distinguish a stale version from a missing row.
		var exists bool
		if scanErr := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM batches WHERE id = $1)`, batchID).Scan(&exists); scanErr != nil {
			return classify(scanErr)
		}
		if !exists {
			return store.ErrNotFound
		}
		return store.ErrVersionConflict
	}
	return nil
}

func (s *Store) UpdateBatchPrice(ctx context.Context, batchID string, sellingPriceCents int64) (*domain.Batch, error) {
	if sellingPriceCents < 1 {
		return nil, store.ErrValidation
	}

	var b domain.Batch
	err := s.db.QueryRowContext(ctx, `
		UPDATE batches
		SET selling_price_cents = $2
		WHERE id = $1
		RETURNING id, sku, bought_price_cents, selling_price_cents, qty, remaining_qty, version, created_at
	`, batchID, sellingPriceCents).Scan(&b.ID, &b.SKU, &b.BoughtPriceCents, &b.SellingPriceCents, &b.Qty, &b.RemainingQty, &b.Version, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, classify(err)
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}

func (s *Store) DeleteBatch(ctx context.Context, batchID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM batches WHERE id = $1`, batchID)
	if err != nil {
		return classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) PruneExhaustedBatches(ctx context.Context, sku string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM batches WHERE sku = $1 AND remaining_qty = 0
	`, sku)
	if err != nil {
		return 0, classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, classify(err)
	}
	return int(affected), nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale, lines []domain.SaleLine) (*domain.Sale, error) {
	if len(lines) == 0 {
		return nil, store.ErrValidation
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, total_cents, payment_method, cash_received_cents, change_cents, cogs_cents, items_count, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, sale.ID, sale.TotalCents, sale.PaymentMethod, sale.CashReceivedCents, sale.ChangeCents, sale.CogsCents, sale.ItemsCount, sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, classify(err)
	}

	for _, line := range lines {
		if line.ID == "" {
			line.ID = xid.New("line")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_lines (id, sale_id, sku, unit_price_cents, qty, line_total_cents, line_cogs_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, line.ID, sale.ID, line.SKU, line.UnitPriceCents, line.Qty, line.LineTotalCents, line.LineCogsCents)
		if err != nil {
			return nil, classify(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	created := sale
	return &created, nil
}

func scanBatches(rows *sql.Rows) ([]domain.Batch, error) {
	batches := make([]domain.Batch, 0, 16)
	for rows.Next() {
		var b domain.Batch
		if err := rows.Scan(&b.ID, &b.SKU, &b.BoughtPriceCents, &b.SellingPriceCents, &b.Qty, &b.RemainingQty, &b.Version, &b.CreatedAt); err != nil {
			return nil, classify(err)
		}
		b.CreatedAt = b.CreatedAt.UTC()
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return batches, nil
}

// classify maps driver errors onto the store taxonomy. Server-side SQL errors
// carry a pgconn.PgError and are surfaced as-is; anything else (dial failures,
// resets, timeouts) is a transport problem and reads as unavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
