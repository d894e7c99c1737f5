package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"

	"warungpos/backend/internal/domain"
	"warungpos/backend/internal/store"
)

// maxConflictRetries bounds how often a single batch update is retried after a
// version conflict before the walk gives up on that batch.
const maxConflictRetries = 3

// Engine consumes open batches oldest-first and prices carts off the batch
// ledger. It holds no state of its own; every walk reads fresh rows.
type Engine struct {
	ledger store.Ledger
}

func New(ledger store.Ledger) *Engine {
	return &Engine{ledger: ledger}
}

// QuoteItem prices one cart line without touching the ledger. It walks the
// open batches oldest-first exactly like Consume, accumulating selling price
// per unit taken, so the quoted total always matches the revenue a commit
// would compute. When no open batch exists the product's catalog price
// applies and the line is flagged as nominal; units beyond what the open
// batches cover are also priced at the catalog price (the orchestrator's
// stock pre-check rejects such carts before commit).
func (e *Engine) QuoteItem(ctx context.Context, product domain.Product, qty int) (domain.QuoteLine, error) {
	line := domain.QuoteLine{SKU: product.SKU, Qty: qty}
	if qty < 1 {
		return line, store.ErrValidation
	}

	batches, err := e.ledger.ListOpenBatches(ctx, product.SKU)
	if err != nil {
		return line, err
	}
	if len(batches) == 0 {
		line.UnitPriceCents = product.PriceCents
		line.NominalPrice = true
		line.LineTotalCents = product.PriceCents * int64(qty)
		return line, nil
	}

	needed := qty
	total := int64(0)
	for _, batch := range batches {
		if needed == 0 {
			break
		}
		take := batch.RemainingQty
		if take > needed {
			take = needed
		}
		total += int64(take) * batch.SellingPriceCents
		needed -= take
	}
	if needed > 0 {
		total += int64(needed) * product.PriceCents
	}

	line.LineTotalCents = total
	// Line total is authoritative; the unit price is the blended average and
	// may round down when the line spans batches with different prices.
	line.UnitPriceCents = total / int64(qty)
	return line, nil
}

// Consume walks the open batches of one product oldest-first, draining each
// until qty units are taken. COGS accumulates at each batch's bought price and
// revenue at its selling price. When the ledger runs dry mid-walk the partial
// consumption is returned together with ErrInsufficientStock; nothing is
// rolled back.
func (e *Engine) Consume(ctx context.Context, sku string, qty int) (*domain.Consumption, error) {
	result := &domain.Consumption{}
	if qty < 1 {
		return result, store.ErrValidation
	}

	batches, err := e.ledger.ListOpenBatches(ctx, sku)
	if err != nil {
		return result, err
	}

	needed := qty
	for _, batch := range batches {
		if needed == 0 {
			break
		}
		taken, err := e.drainBatch(ctx, batch, needed)
		if err != nil {
			if result.ConsumedQty > 0 {
				e.reportStock(ctx, sku, result.ConsumedQty)
			}
			return result, err
		}
		result.ConsumedQty += taken
		result.CogsCents += int64(taken) * batch.BoughtPriceCents
		result.RevenueCents += int64(taken) * batch.SellingPriceCents
		needed -= taken
	}

	if result.ConsumedQty > 0 {
		e.reportStock(ctx, sku, result.ConsumedQty)
	}
	if needed > 0 {
		return result, fmt.Errorf("%w: %s short %d of %d", store.ErrInsufficientStock, sku, needed, qty)
	}
	return result, nil
}

// ConsumeMany runs Consume for each cart item in order. The first failure
// aborts the remaining items; consumption already applied stays applied and is
// reported in the partial result. Callers are expected to pre-validate
// aggregate stock so this path is rare.
func (e *Engine) ConsumeMany(ctx context.Context, items []domain.CartItem) (*domain.MultiConsumption, error) {
	result := &domain.MultiConsumption{Items: make([]domain.ItemConsumption, 0, len(items))}
	if len(items) == 0 {
		return result, store.ErrValidation
	}

	for _, item := range items {
		consumed, err := e.Consume(ctx, item.SKU, item.Qty)
		result.Items = append(result.Items, domain.ItemConsumption{
			SKU:          item.SKU,
			RequestedQty: item.Qty,
			Consumption:  *consumed,
		})
		result.CogsCents += consumed.CogsCents
		result.RevenueCents += consumed.RevenueCents
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// drainBatch takes up to needed units from one batch via a conditional update.
// A version conflict means another walker touched the batch; the row is
// re-read and the take recomputed against its fresh remaining quantity.
func (e *Engine) drainBatch(ctx context.Context, batch domain.Batch, needed int) (int, error) {
	for attempt := 0; ; attempt++ {
		take := batch.RemainingQty
		if take > needed {
			take = needed
		}
		if take == 0 {
			return 0, nil
		}

		err := e.ledger.UpdateBatchRemaining(ctx, batch.ID, batch.RemainingQty-take, batch.Version)
		if err == nil {
			return take, nil
		}
		if errors.Is(err, store.ErrNotFound) {
			// Deleted out from under the walk; treat as empty.
			return 0, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) || attempt >= maxConflictRetries {
			return 0, err
		}

		fresh, ok, err := e.refetchBatch(ctx, batch.SKU, batch.ID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, nil
		}
		batch = fresh
	}
}

func (e *Engine) refetchBatch(ctx context.Context, sku string, batchID string) (domain.Batch, bool, error) {
	batches, err := e.ledger.ListOpenBatches(ctx, sku)
	if err != nil {
		return domain.Batch{}, false, err
	}
	for _, b := range batches {
		if b.ID == batchID {
			return b, true, nil
		}
	}
	return domain.Batch{}, false, nil
}

// reportStock lowers the denormalized stock cache by the consumed quantity.
// The batch ledger stays authoritative, so a failed cache write is logged and
// left for the next reconciliation rather than reversed.
func (e *Engine) reportStock(ctx context.Context, sku string, consumed int) {
	if err := e.ledger.UpdateProductStock(ctx, sku, -consumed); err != nil {
		log.Printf("[fifo] stock cache update failed for %s (delta -%d): %v", sku, consumed, err)
	}
}
