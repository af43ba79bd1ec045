package store

import (
	"context"
	"time"
)

// StagingRow is one wiki-crawl finding awaiting reconciliation.
type StagingRow struct {
	ID            int64
	Site          string
	ProductCode   string
	PerformerName string
	SourceURL     string
}

// InsertStaging records one candidate name from a wiki crawl. The row is
// write-once per (site, code, name); repeats are ignored.
func (w *Writer) InsertStaging(ctx context.Context, site, productCode, performerName, sourceURL string) error {
	_, err := w.db.Exec(ctx, `
		INSERT INTO wiki_staging (site, product_code, performer_name, source_url)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (site, product_code, performer_name) DO NOTHING`,
		site, productCode, performerName, sourceURL)
	return err
}

// StagedNameForCode returns the earliest staged candidate name for a
// product code, used by the resolver's wiki-priority rule.
func (w *Writer) StagedNameForCode(ctx context.Context, code string) (string, bool, error) {
	var name string
	err := w.db.QueryRow(ctx, `
		SELECT performer_name FROM wiki_staging
		WHERE product_code = $1
		ORDER BY created_at
		LIMIT 1`, code,
	).Scan(&name)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return name, true, nil
}

// UnprocessedStaging lists staging rows awaiting the reconciliation pass.
func (w *Writer) UnprocessedStaging(ctx context.Context, limit int) ([]StagingRow, error) {
	rows, err := w.db.Query(ctx, `
		SELECT id, site, product_code, performer_name, COALESCE(source_url, '')
		FROM wiki_staging
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StagingRow
	for rows.Next() {
		var r StagingRow
		if err := rows.Scan(&r.ID, &r.Site, &r.ProductCode, &r.PerformerName, &r.SourceURL); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// MarkStagingProcessed stamps a staging row as consumed. Processed rows
// are never mutated again.
func (w *Writer) MarkStagingProcessed(ctx context.Context, id int64) error {
	_, err := w.db.Exec(ctx,
		`UPDATE wiki_staging SET processed_at = $2 WHERE id = $1 AND processed_at IS NULL`,
		id, time.Now())
	return err
}
