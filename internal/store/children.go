package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// FindPerformerByName looks up a performer by exact name.
func (w *Writer) FindPerformerByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := w.db.QueryRow(ctx,
		`SELECT id FROM performers WHERE lower(name) = lower($1)`, name,
	).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

// CreatePerformer inserts a performer row, tolerating a concurrent insert
// of the same name.
func (w *Writer) CreatePerformer(ctx context.Context, name string) (int64, error) {
	var id int64
	err := w.db.QueryRow(ctx, `
		INSERT INTO performers (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		name,
	).Scan(&id)
	return id, err
}

// SetPerformerImage backfills a profile image when none is stored yet.
func (w *Writer) SetPerformerImage(ctx context.Context, performerID int64, url string) error {
	_, err := w.db.Exec(ctx, `
		UPDATE performers SET profile_image = $2
		WHERE id = $1 AND (profile_image IS NULL OR profile_image = '')`,
		performerID, url)
	return err
}

// LinkPerformer attaches a performer to a product; repeated links are
// no-ops.
func (w *Writer) LinkPerformer(ctx context.Context, productID, performerID int64) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO product_performers (product_id, performer_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		productID, performerID)
	return err
}

// UpsertTag ensures a tag row exists and returns its ID.
func (w *Writer) UpsertTag(ctx context.Context, name string) (int64, error) {
	var id int64
	err := w.db.QueryRow(ctx, `
		INSERT INTO tags (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		name,
	).Scan(&id)
	return id, err
}

// LinkTag attaches a tag to a product; repeated links are no-ops.
func (w *Writer) LinkTag(ctx context.Context, productID, tagID int64) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO product_tags (product_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		productID, tagID)
	return err
}

// UpsertImage records a sample/package image keyed by (product, url).
func (w *Writer) UpsertImage(ctx context.Context, productID int64, url, kind string) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO product_images (product_id, url, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, url) DO UPDATE SET kind = EXCLUDED.kind`,
		productID, url, kind)
	return err
}

// UpsertVideo records a sample video keyed by (product, url).
func (w *Writer) UpsertVideo(ctx context.Context, productID int64, url string) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO product_videos (product_id, url)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		productID, url)
	return err
}

// UpsertReview records one review; the natural key keeps identical reviews
// from piling up across re-crawls.
func (w *Writer) UpsertReview(ctx context.Context, productID int64, author string, rating float64, title, body, postedAt string) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO product_reviews (product_id, author, rating, title, body, posted_at)
		VALUES ($1, $2, NULLIF($3, 0.0), $4, $5, NULLIF($6, '')::date)
		ON CONFLICT (product_id, author, title, body) DO UPDATE SET
			rating    = COALESCE(EXCLUDED.rating, product_reviews.rating),
			posted_at = COALESCE(EXCLUDED.posted_at, product_reviews.posted_at)`,
		productID, author, rating, title, body, postedAt)
	return err
}

// UpsertRatingSummary stores the aggregate rating for a product.
func (w *Writer) UpsertRatingSummary(ctx context.Context, productID int64, average float64, count int) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO product_ratings (product_id, average, review_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id) DO UPDATE SET
			average      = EXCLUDED.average,
			review_count = EXCLUDED.review_count`,
		productID, average, count)
	return err
}

// AddPricePoint appends to the price history, at most one row per source
// per day; a same-day re-crawl updates the day's row instead.
func (w *Writer) AddPricePoint(ctx context.Context, productSourceID int64, price, listPrice int) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO product_prices (product_source_id, price, list_price)
		VALUES ($1, $2, NULLIF($3, 0))
		ON CONFLICT (product_source_id, recorded_on) DO UPDATE SET
			price      = EXCLUDED.price,
			list_price = COALESCE(EXCLUDED.list_price, product_prices.list_price)`,
		productSourceID, price, listPrice)
	return err
}
