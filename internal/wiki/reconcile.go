package wiki

import (
	"context"

	"sjsage522/productworker/internal/identity"
	"sjsage522/productworker/internal/store"
	"sjsage522/productworker/logger"
)

// ReconcileStore is the slice of the writer the reconciliation pass needs.
type ReconcileStore interface {
	UnprocessedStaging(ctx context.Context, limit int) ([]store.StagingRow, error)
	FindProductBySimilarCode(ctx context.Context, code string) (int64, string, bool, error)
	FindPerformerByName(ctx context.Context, name string) (int64, bool, error)
	CreatePerformer(ctx context.Context, name string) (int64, error)
	LinkPerformer(ctx context.Context, productID, performerID int64) error
	MarkStagingProcessed(ctx context.Context, id int64) error
}

// ReconcileSummary reports one reconciliation pass.
type ReconcileSummary struct {
	Scanned int
	Linked  int
	Pending int
	Skipped int
	Errors  int
}

// Reconciler joins staged wiki findings to products that the main ingest
// has since created. Rows whose product does not exist yet stay pending,
// so the pass can be re-run at any time and picks them up once the product
// lands. Linking is idempotent.
type Reconciler struct {
	store ReconcileStore
	log   *logger.Logger
}

// NewReconciler creates a reconciler
func NewReconciler(s ReconcileStore) *Reconciler {
	return &Reconciler{store: s, log: logger.ForWiki("reconcile")}
}

// Run processes up to batchSize pending staging rows.
func (r *Reconciler) Run(ctx context.Context, batchSize int) (*ReconcileSummary, error) {
	if batchSize < 1 {
		batchSize = 500
	}

	rows, err := r.store.UnprocessedStaging(ctx, batchSize)
	if err != nil {
		return nil, err
	}

	sum := &ReconcileSummary{Scanned: len(rows)}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		outcome, err := r.reconcileRow(ctx, row)
		if err != nil {
			r.log.Warn().Err(err).Int64("staging_id", row.ID).
				Str("code", row.ProductCode).Msg("Reconcile failed for row")
			sum.Errors++
			continue
		}
		switch outcome {
		case outcomeLinked:
			sum.Linked++
		case outcomeSkipped:
			sum.Skipped++
		default:
			sum.Pending++
		}
	}

	r.log.Info().
		Int("scanned", sum.Scanned).
		Int("linked", sum.Linked).
		Int("pending", sum.Pending).
		Int("errors", sum.Errors).
		Msg("Reconciliation pass finished")
	return sum, nil
}

type reconcileOutcome int

const (
	outcomePending reconcileOutcome = iota
	outcomeLinked
	outcomeSkipped
)

// reconcileRow links one staging row. Pending means the product has not
// been ingested yet and the row stays for a later pass.
func (r *Reconciler) reconcileRow(ctx context.Context, row store.StagingRow) (reconcileOutcome, error) {
	if !identity.IsValidPerformerName(row.PerformerName) {
		// a term that slipped past the crawl-time filter; retire the row
		if err := r.store.MarkStagingProcessed(ctx, row.ID); err != nil {
			return outcomePending, err
		}
		r.log.Debug().Str("name", row.PerformerName).Msg("Staged name failed validation, retired")
		return outcomeSkipped, nil
	}

	productID, _, found, err := r.store.FindProductBySimilarCode(ctx, row.ProductCode)
	if err != nil {
		return outcomePending, err
	}
	if !found {
		return outcomePending, nil
	}

	performerID, found, err := r.store.FindPerformerByName(ctx, row.PerformerName)
	if err != nil {
		return outcomePending, err
	}
	if !found {
		if performerID, err = r.store.CreatePerformer(ctx, row.PerformerName); err != nil {
			return outcomePending, err
		}
	}

	if err := r.store.LinkPerformer(ctx, productID, performerID); err != nil {
		return outcomePending, err
	}
	if err := r.store.MarkStagingProcessed(ctx, row.ID); err != nil {
		return outcomePending, err
	}

	r.log.Debug().
		Str("code", row.ProductCode).
		Str("name", row.PerformerName).
		Int64("product_id", productID).
		Msg("Staged name linked to product")
	return outcomeLinked, nil
}
