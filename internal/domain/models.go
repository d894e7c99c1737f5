package domain

import "time"

type Product struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	// StockQty is a denormalized cache of the sum of open batch remaining
	// quantities. The batch ledger is authoritative; the consumption engine
	// updates this value whenever it mutates a batch.
	StockQty int    `json:"stock_qty"`
	Barcode  string `json:"barcode,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Active   bool   `json:"active"`
}

type ProductCreateRequest struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	Barcode    string `json:"barcode,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

type ProductUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	Category   *string `json:"category,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
	Barcode    *string `json:"barcode,omitempty"`
	ImageURL   *string `json:"image_url,omitempty"`
	Active     *bool   `json:"active,omitempty"`
}

// Batch is one purchase lot of a product. Open batches (RemainingQty > 0) are
// consumed oldest-first, ordered by (CreatedAt, ID). Version guards concurrent
// remaining-quantity updates: writers must present the version they read.
type Batch struct {
	ID                string    `json:"id"`
	SKU               string    `json:"sku"`
	BoughtPriceCents  int64     `json:"bought_price_cents"`
	SellingPriceCents int64     `json:"selling_price_cents"`
	Qty               int       `json:"qty"`
	RemainingQty      int       `json:"remaining_qty"`
	Version           int64     `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
}

type BatchCreateRequest struct {
	SKU               string `json:"sku"`
	BoughtPriceCents  int64  `json:"bought_price_cents"`
	SellingPriceCents int64  `json:"selling_price_cents"`
	Qty               int    `json:"qty"`
}

type BatchPriceUpdateRequest struct {
	SellingPriceCents int64 `json:"selling_price_cents"`
}

type CartItem struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

type QuoteRequest struct {
	CartItems []CartItem `json:"cart_items"`
}

type QuoteLine struct {
	SKU            string `json:"sku"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
	// NominalPrice reports that no open batch covered the line and the
	// product's catalog price was used instead.
	NominalPrice bool `json:"nominal_price,omitempty"`
}

type QuoteResponse struct {
	Lines         []QuoteLine `json:"lines"`
	SubtotalCents int64       `json:"subtotal_cents"`
}

type CheckoutRequest struct {
	PaymentMethod     string     `json:"payment_method"`
	CashReceivedCents int64      `json:"cash_received_cents,omitempty"`
	CartItems         []CartItem `json:"cart_items"`
}

const (
	CheckoutCommitted = "committed"
	CheckoutQueued    = "queued"
)

type CheckoutResponse struct {
	SaleID  string  `json:"sale_id"`
	Status  string  `json:"status"`
	Receipt Receipt `json:"receipt"`
}

// Receipt is the payload handed to the external rendering collaborator. The
// backend computes totals only; formatting and printing happen elsewhere.
type Receipt struct {
	Items             []ReceiptItem `json:"items"`
	SubtotalCents     int64         `json:"subtotal_cents"`
	TaxCents          int64         `json:"tax_cents"`
	TotalCents        int64         `json:"total_cents"`
	PaymentMethod     string        `json:"payment_method"`
	CashReceivedCents int64         `json:"cash_received_cents,omitempty"`
	ChangeCents       int64         `json:"change_cents,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

type ReceiptItem struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// Sale is the committed, authoritative transaction row in the remote store.
// Append-only once written.
type Sale struct {
	ID                string    `json:"id"`
	TotalCents        int64     `json:"total_cents"`
	PaymentMethod     string    `json:"payment_method"`
	CashReceivedCents int64     `json:"cash_received_cents"`
	ChangeCents       int64     `json:"change_cents"`
	CogsCents         int64     `json:"cogs_cents"`
	ItemsCount        int       `json:"items_count"`
	CreatedAt         time.Time `json:"created_at"`
}

type SaleLine struct {
	ID             string `json:"id"`
	SaleID         string `json:"sale_id"`
	SKU            string `json:"sku"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Qty            int    `json:"qty"`
	LineTotalCents int64  `json:"line_total_cents"`
	LineCogsCents  int64  `json:"line_cogs_cents"`
}

const (
	QueueStatusQueued  = "queued"
	QueueStatusSyncing = "syncing"
	QueueStatusDone    = "done"
	QueueStatusFailed  = "failed"
)

// QueuedSale is a checkout accepted locally while the remote store was
// unreachable. It lives in the client-local durable queue until the
// synchronization driver commits it remotely and deletes it.
type QueuedSale struct {
	ID                string    `json:"id"`
	SubtotalCents     int64     `json:"subtotal_cents"`
	TotalCents        int64     `json:"total_cents"`
	PaymentMethod     string    `json:"payment_method"`
	CashReceivedCents int64     `json:"cash_received_cents"`
	ChangeCents       int64     `json:"change_cents"`
	ItemsCount        int       `json:"items_count"`
	Status            string    `json:"status"`
	LastError         string    `json:"last_error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	StatusUpdatedAt   time.Time `json:"status_updated_at"`
}

// QueuedSaleItem snapshots product name/category and the unit price actually
// charged at enqueue time, so the queue stays self-describing even if the
// catalog changes before synchronization.
type QueuedSaleItem struct {
	ID             string `json:"id"`
	QueuedSaleID   string `json:"queued_sale_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Qty            int    `json:"qty"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type QueuedSaleView struct {
	Sale  QueuedSale       `json:"sale"`
	Items []QueuedSaleItem `json:"items"`
}

// Consumption is the outcome of one FIFO walk. On an insufficient-stock
// failure it still carries the quantities consumed before the ledger ran out.
type Consumption struct {
	ConsumedQty  int   `json:"consumed_qty"`
	CogsCents    int64 `json:"cogs_cents"`
	RevenueCents int64 `json:"revenue_cents"`
}

type ItemConsumption struct {
	SKU          string      `json:"sku"`
	RequestedQty int         `json:"requested_qty"`
	Consumption  Consumption `json:"consumption"`
}

type MultiConsumption struct {
	CogsCents    int64             `json:"cogs_cents"`
	RevenueCents int64             `json:"revenue_cents"`
	Items        []ItemConsumption `json:"items"`
}

type SyncResult struct {
	Attempted int `json:"attempted"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
}

type QueueSummary struct {
	Pending int  `json:"pending"`
	Online  bool `json:"online"`
}

type Actor struct {
	Username string
	Role     string
}

const (
	PaymentCash = "cash"
	PaymentQRIS = "qris"
	PaymentCard = "card"
)
