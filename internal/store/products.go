package store

import (
	"context"
)

// ProductRow carries the canonical product fields for an upsert. Empty
// strings and zero values never overwrite existing data: the COALESCE/NULLIF
// pattern in the statement keeps the previous value when a re-crawl lost a
// field the earlier crawl had.
type ProductRow struct {
	Code             string
	Title            string
	Description      string
	DurationMin      int
	ReleaseDate      string
	DefaultThumbnail string
	Maker            string
	Label            string
	Series           string
	Category         string
}

// UpsertProduct creates or updates the canonical product row and returns
// its ID. The canonical code is the conflict key.
func (w *Writer) UpsertProduct(ctx context.Context, p ProductRow) (int64, error) {
	var id int64
	err := w.db.QueryRow(ctx, `
		INSERT INTO products (code, title, description, duration_min, release_date,
		                      default_thumbnail, maker, label, series, category)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, 0), NULLIF($5, '')::date,
		        NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))
		ON CONFLICT (code) DO UPDATE SET
			title             = COALESCE(NULLIF(EXCLUDED.title, ''), products.title),
			description       = COALESCE(NULLIF(EXCLUDED.description, ''), products.description),
			duration_min      = COALESCE(EXCLUDED.duration_min, products.duration_min),
			release_date      = COALESCE(EXCLUDED.release_date, products.release_date),
			default_thumbnail = COALESCE(NULLIF(EXCLUDED.default_thumbnail, ''), products.default_thumbnail),
			maker             = COALESCE(NULLIF(EXCLUDED.maker, ''), products.maker),
			label             = COALESCE(NULLIF(EXCLUDED.label, ''), products.label),
			series            = COALESCE(NULLIF(EXCLUDED.series, ''), products.series),
			category          = COALESCE(NULLIF(EXCLUDED.category, ''), products.category),
			updated_at        = now()
		RETURNING id`,
		p.Code, p.Title, p.Description, p.DurationMin, p.ReleaseDate,
		p.DefaultThumbnail, p.Maker, p.Label, p.Series, p.Category,
	).Scan(&id)
	return id, err
}

// UpsertProductSource creates or updates the per-site row for a product,
// keyed by (source, local_id), and returns its ID.
func (w *Writer) UpsertProductSource(ctx context.Context, productID int64, source, localID, affiliateURL string, price int, dataSource string) (int64, error) {
	var id int64
	err := w.db.QueryRow(ctx, `
		INSERT INTO product_sources (product_id, source, local_id, affiliate_url, price, data_source)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, 0), $6)
		ON CONFLICT (source, local_id) DO UPDATE SET
			affiliate_url = COALESCE(NULLIF(EXCLUDED.affiliate_url, ''), product_sources.affiliate_url),
			price         = COALESCE(EXCLUDED.price, product_sources.price),
			data_source   = EXCLUDED.data_source,
			updated_at    = now()
		RETURNING id`,
		productID, source, localID, affiliateURL, price, dataSource,
	).Scan(&id)
	return id, err
}

// FindProductByCode returns the product ID and title for a canonical code.
func (w *Writer) FindProductByCode(ctx context.Context, code string) (int64, string, bool, error) {
	var id int64
	var title *string
	err := w.db.QueryRow(ctx,
		`SELECT id, title FROM products WHERE code = $1`, code,
	).Scan(&id, &title)
	if err != nil {
		if isNoRows(err) {
			return 0, "", false, nil
		}
		return 0, "", false, err
	}
	if title == nil {
		return id, "", true, nil
	}
	return id, *title, true, nil
}

// FindProductBySimilarCode matches a code exactly or as the suffix of a
// stored code. Wiki articles write label codes without the numeric
// distribution prefix some sources keep, e.g. mium300 vs 300mium300; the
// shortest stored code wins so the exact match is preferred.
func (w *Writer) FindProductBySimilarCode(ctx context.Context, code string) (int64, string, bool, error) {
	var id int64
	var title *string
	err := w.db.QueryRow(ctx, `
		SELECT id, title FROM products
		WHERE code = $1 OR code LIKE '%' || $1
		ORDER BY length(code)
		LIMIT 1`, code,
	).Scan(&id, &title)
	if err != nil {
		if isNoRows(err) {
			return 0, "", false, nil
		}
		return 0, "", false, err
	}
	if title == nil {
		return id, "", true, nil
	}
	return id, *title, true, nil
}
