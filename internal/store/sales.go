package store

import (
	"context"

	"sjsage522/productworker/internal/sale"
)

// UpsertSale supersedes any previous sale for the product source. There is
// never more than one sale row per product source; re-detection replaces it
// in place.
func (w *Writer) UpsertSale(ctx context.Context, productSourceID int64, s *sale.Sale) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO sales (product_source_id, regular_price, sale_price, discount_percent, end_at, active, detected_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, now())
		ON CONFLICT (product_source_id) DO UPDATE SET
			regular_price    = EXCLUDED.regular_price,
			sale_price       = EXCLUDED.sale_price,
			discount_percent = EXCLUDED.discount_percent,
			end_at           = EXCLUDED.end_at,
			active           = TRUE,
			detected_at      = now()`,
		productSourceID, s.RegularPrice, s.SalePrice, s.DiscountPercent, s.EndAt)
	return err
}

// DeactivateSale marks a sale inactive once a re-crawl no longer observes
// it. The row stays for history; only the flag flips.
func (w *Writer) DeactivateSale(ctx context.Context, productSourceID int64) error {
	_, err := w.db.Exec(ctx, `
		UPDATE sales SET active = FALSE
		WHERE product_source_id = $1 AND active = TRUE`,
		productSourceID)
	return err
}

// ExpireSales flips the active flag on every sale whose end date has
// passed. Run at the start of each ingestion run.
func (w *Writer) ExpireSales(ctx context.Context) (int64, error) {
	tag, err := w.db.Exec(ctx, `
		UPDATE sales SET active = FALSE
		WHERE active = TRUE AND end_at IS NOT NULL AND end_at < now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
