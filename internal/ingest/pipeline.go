package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/productworker/helpers"
	"sjsage522/productworker/internal/extract"
	"sjsage522/productworker/internal/identity"
	"sjsage522/productworker/internal/sale"
	"sjsage522/productworker/internal/snapshot"
	"sjsage522/productworker/internal/store"
	"sjsage522/productworker/logger"
	"sjsage522/productworker/services/publisher"
)

// Fetcher is the polite per-site HTTP client.
type Fetcher interface {
	Get(url string) (*helpers.Response, error)
}

// Snapshots is the raw-page store the pipeline gates re-ingestion on.
type Snapshots interface {
	Upsert(ctx context.Context, source, key, url string, html []byte) (*snapshot.Result, error)
	MarkProcessed(ctx context.Context, id int64) error
}

// Store is the slice of the database writer the pipeline drives.
type Store interface {
	UpsertProduct(ctx context.Context, p store.ProductRow) (int64, error)
	UpsertProductSource(ctx context.Context, productID int64, source, localID, affiliateURL string, price int, dataSource string) (int64, error)
	AddPricePoint(ctx context.Context, productSourceID int64, price, listPrice int) error
	UpsertImage(ctx context.Context, productID int64, url, kind string) error
	UpsertVideo(ctx context.Context, productID int64, url string) error
	LinkPerformer(ctx context.Context, productID, performerID int64) error
	UpsertTag(ctx context.Context, name string) (int64, error)
	LinkTag(ctx context.Context, productID, tagID int64) error
	UpsertReview(ctx context.Context, productID int64, author string, rating float64, title, body, postedAt string) error
	UpsertRatingSummary(ctx context.Context, productID int64, average float64, count int) error
	UpsertSale(ctx context.Context, productSourceID int64, s *sale.Sale) error
	DeactivateSale(ctx context.Context, productSourceID int64) error
	ExpireSales(ctx context.Context) (int64, error)
}

// PerformerResolver maps raw scraped names to performer row IDs.
type PerformerResolver interface {
	ResolvePerformer(ctx context.Context, rawName, productCode, productTitle string) (int64, error)
}

// Options controls one pipeline run.
type Options struct {
	Limit     int    // max products to process; 0 means unbounded
	StartPage int    // first listing page; 0 means 1
	Order     string // OrderNewest or OrderOldest
	Force     bool   // reprocess even unchanged, already-processed pages
	DryRun    bool   // fetch and extract but write nothing
}

// Summary is the end-of-run accounting.
type Summary struct {
	Pages    int
	Seen     int
	New      int
	Updated  int
	Skipped  int
	NotFound int
	Errors   int
}

// Event is the compact product-updated message published after each
// successful write.
type Event struct {
	Source  string `json:"source"`
	Code    string `json:"code"`
	LocalID string `json:"local_id"`
	Title   string `json:"title,omitempty"`
	Price   int    `json:"price,omitempty"`
	IsNew   bool   `json:"is_new"`
	OnSale  bool   `json:"on_sale,omitempty"`
}

// Pipeline walks one storefront's listing pages, ingests each discovered
// product detail page, and stops on the listing heuristics: too many empty
// pages in a row, or too many pages in a row that yielded nothing new.
type Pipeline struct {
	site      SourceSite
	fetcher   Fetcher
	snapshots Snapshots
	store     Store
	resolver  PerformerResolver
	publisher publisher.Publisher

	EmptyPageLimit int
	NoNewPageLimit int

	now func() time.Time
	log *logger.Logger
}

// New creates a pipeline for one storefront. publisher may be nil when no
// event stream is configured.
func New(site SourceSite, fetcher Fetcher, snapshots Snapshots, st Store, resolver PerformerResolver, pub publisher.Publisher) *Pipeline {
	return &Pipeline{
		site:           site,
		fetcher:        fetcher,
		snapshots:      snapshots,
		store:          st,
		resolver:       resolver,
		publisher:      pub,
		EmptyPageLimit: 3,
		NoNewPageLimit: 5,
		now:            time.Now,
		log:            logger.ForPipeline(),
	}
}

type outcome int

const (
	outcomeNew outcome = iota
	outcomeUpdated
	outcomeSkipped
	outcomeNotFound
	outcomeError
)

// Run executes one ingestion run. Product-level failures are contained and
// counted; only context cancellation aborts the run early.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	if opts.StartPage < 1 {
		opts.StartPage = 1
	}
	if opts.Order == "" {
		opts.Order = OrderNewest
	}

	sum := &Summary{}

	if !opts.DryRun {
		if expired, err := p.store.ExpireSales(ctx); err != nil {
			p.log.Warn().Err(err).Msg("Expiring lapsed sales failed")
		} else if expired > 0 {
			p.log.Info().Int64("count", expired).Msg("Lapsed sales deactivated")
		}
	}

	emptyStreak, noNewStreak := 0, 0
	for page := opts.StartPage; ; page++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if opts.Limit > 0 && sum.Seen >= opts.Limit {
			break
		}

		ids := p.listPage(page, opts.Order, sum)
		sum.Pages++

		if len(ids) == 0 {
			emptyStreak++
			if emptyStreak >= p.EmptyPageLimit {
				p.log.Info().Int("page", page).Msg("Stopping: empty listing page streak")
				break
			}
			continue
		}
		emptyStreak = 0

		newOnPage := 0
		for _, localID := range ids {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			if opts.Limit > 0 && sum.Seen >= opts.Limit {
				break
			}
			sum.Seen++

			switch p.ingestOne(ctx, localID, opts) {
			case outcomeNew:
				sum.New++
				newOnPage++
			case outcomeUpdated:
				sum.Updated++
			case outcomeSkipped:
				sum.Skipped++
			case outcomeNotFound:
				sum.NotFound++
			case outcomeError:
				sum.Errors++
			}
		}

		if newOnPage == 0 {
			noNewStreak++
			if noNewStreak >= p.NoNewPageLimit {
				p.log.Info().Int("page", page).Msg("Stopping: no new products streak")
				break
			}
		} else {
			noNewStreak = 0
		}
	}

	// keep the event streams bounded once the pass is over
	if p.publisher != nil && !opts.DryRun {
		if err := p.publisher.TrimStreams(); err != nil {
			p.log.Warn().Err(err).Msg("Stream trim failed")
		}
	}

	p.log.Info().
		Str("source", p.site.Name).
		Int("pages", sum.Pages).
		Int("seen", sum.Seen).
		Int("new", sum.New).
		Int("updated", sum.Updated).
		Int("skipped", sum.Skipped).
		Int("not_found", sum.NotFound).
		Int("errors", sum.Errors).
		Msg("Ingestion run finished")
	return sum, nil
}

// listPage fetches one listing page and returns the local IDs on it. Fetch
// or parse failures count as an error and yield an empty page.
func (p *Pipeline) listPage(page int, order string, sum *Summary) []string {
	listURL := p.site.ListURL(page, order)
	resp, err := p.fetcher.Get(listURL)
	if err != nil {
		p.log.Warn().Err(err).Str("url", listURL).Msg("Listing fetch failed")
		sum.Errors++
		return nil
	}
	if resp.Status != http.StatusOK {
		p.log.Debug().Int("status", resp.Status).Str("url", listURL).Msg("Listing page unavailable")
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		p.log.Warn().Err(err).Str("url", listURL).Msg("Listing parse failed")
		sum.Errors++
		return nil
	}
	return p.site.ListLocalIDs(doc)
}

// ingestOne fetches, gates, extracts and persists a single product.
func (p *Pipeline) ingestOne(ctx context.Context, localID string, opts Options) outcome {
	detailURL := p.site.DetailURL(localID)
	resp, err := p.fetcher.Get(detailURL)
	if err != nil {
		p.log.Warn().Err(err).Str("local_id", localID).Msg("Detail fetch failed")
		return outcomeError
	}
	switch {
	case resp.Status == http.StatusNotFound || resp.Status == http.StatusGone:
		return outcomeNotFound
	case resp.Status != http.StatusOK:
		p.log.Warn().Int("status", resp.Status).Str("local_id", localID).Msg("Unexpected detail status")
		return outcomeError
	}

	var snap *snapshot.Result
	if !opts.DryRun {
		snap, err = p.snapshots.Upsert(ctx, p.site.Name, localID, detailURL, resp.Body)
		if err != nil {
			p.log.Error().Err(err).Str("local_id", localID).Msg("Snapshot write failed")
			return outcomeError
		}
		if !snap.Changed && snap.Processed && !opts.Force {
			return outcomeSkipped
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		p.log.Warn().Err(err).Str("local_id", localID).Msg("Detail parse failed")
		return outcomeError
	}

	rec, err := p.site.Extractor.Extract(doc, localID)
	if err != nil {
		if errors.Is(err, extract.ErrNotFound) {
			// placeholder or empty page; stamp it so the unchanged page is
			// skipped next run instead of re-parsed forever
			if snap != nil {
				if merr := p.snapshots.MarkProcessed(ctx, snap.ID); merr != nil {
					p.log.Warn().Err(merr).Str("local_id", localID).Msg("Snapshot stamp failed")
				}
			}
			return outcomeNotFound
		}
		p.log.Warn().Err(err).Str("local_id", localID).Msg("Extraction failed")
		return outcomeError
	}

	code := identity.NormalizeProductID(p.site.Name, localID)
	category := p.backfillFromMaker(rec, code)

	if opts.DryRun {
		p.log.Info().
			Str("source", p.site.Name).
			Str("code", code).
			Str("title", rec.Title).
			Int("price", rec.Price).
			Msg("Dry run: extracted product, nothing written")
		return outcomeUpdated
	}

	productID, err := p.store.UpsertProduct(ctx, store.ProductRow{
		Code:             code,
		Title:            rec.Title,
		Description:      rec.Description,
		DurationMin:      rec.DurationMin,
		ReleaseDate:      rec.ReleaseDate,
		DefaultThumbnail: rec.CoverURL,
		Maker:            rec.Maker,
		Label:            rec.Label,
		Series:           rec.Series,
		Category:         category,
	})
	if err != nil {
		p.log.Error().Err(err).Str("code", code).Msg("Product upsert failed")
		return outcomeError
	}

	sourceID, err := p.store.UpsertProductSource(ctx, productID, p.site.Name, localID, rec.AffiliateURL, rec.Price, "crawl")
	if err != nil {
		p.log.Error().Err(err).Str("code", code).Msg("Product source upsert failed")
		return outcomeError
	}

	activeSale := p.writeChildren(ctx, productID, sourceID, code, rec, doc)

	if snap != nil {
		if err := p.snapshots.MarkProcessed(ctx, snap.ID); err != nil {
			p.log.Warn().Err(err).Str("code", code).Msg("Snapshot stamp failed")
		}
	}

	isNew := snap != nil && snap.IsNew
	p.publish(rec, code, isNew, activeSale)

	if isNew {
		return outcomeNew
	}
	return outcomeUpdated
}

// backfillFromMaker fills maker metadata and the cover URL from the static
// prefix table when the page itself did not provide them. Returns the
// maker category, which only ever comes from the table.
func (p *Pipeline) backfillFromMaker(rec *extract.Record, code string) string {
	info, ok := identity.LookupMaker(code)
	if !ok {
		return ""
	}
	if rec.Maker == "" {
		rec.Maker = info.Maker
	}
	if rec.Label == "" {
		rec.Label = info.Label
	}
	if rec.CoverURL == "" {
		rec.CoverURL = identity.SynthesizeCoverURL(code)
	}
	return info.Category
}

// writeChildren persists everything hanging off the product row. Each write
// is best-effort: a failure is logged and the rest still runs, so one bad
// review never loses the price history. Reports whether a sale is active.
func (p *Pipeline) writeChildren(ctx context.Context, productID, sourceID int64, code string, rec *extract.Record, doc *goquery.Document) bool {
	if rec.Price > 0 {
		if err := p.store.AddPricePoint(ctx, sourceID, rec.Price, rec.ListPrice); err != nil {
			p.log.Warn().Err(err).Str("code", code).Msg("Price point write failed")
		}
	}

	for _, u := range rec.SampleImages {
		if err := p.store.UpsertImage(ctx, productID, u, "sample"); err != nil {
			p.log.Warn().Err(err).Str("code", code).Msg("Sample image write failed")
		}
	}
	for _, u := range rec.SampleVideos {
		if err := p.store.UpsertVideo(ctx, productID, u); err != nil {
			p.log.Warn().Err(err).Str("code", code).Msg("Sample video write failed")
		}
	}

	for _, name := range rec.Performers {
		performerID, err := p.resolver.ResolvePerformer(ctx, name, code, rec.Title)
		if err != nil {
			p.log.Debug().Err(err).Str("code", code).Str("name", name).Msg("Performer rejected")
			continue
		}
		if err := p.store.LinkPerformer(ctx, productID, performerID); err != nil {
			p.log.Warn().Err(err).Str("code", code).Str("name", name).Msg("Performer link failed")
		}
	}

	for _, rv := range rec.Reviews {
		if err := p.store.UpsertReview(ctx, productID, rv.Author, rv.Rating, rv.Title, rv.Body, rv.PostedAt); err != nil {
			p.log.Warn().Err(err).Str("code", code).Msg("Review write failed")
		}
	}
	if rec.RatingAvg > 0 {
		if err := p.store.UpsertRatingSummary(ctx, productID, rec.RatingAvg, rec.RatingCount); err != nil {
			p.log.Warn().Err(err).Str("code", code).Msg("Rating summary write failed")
		}
	}

	for _, tag := range rec.Tags {
		tagID, err := p.store.UpsertTag(ctx, tag)
		if err != nil {
			p.log.Warn().Err(err).Str("code", code).Str("tag", tag).Msg("Tag upsert failed")
			continue
		}
		if err := p.store.LinkTag(ctx, productID, tagID); err != nil {
			p.log.Warn().Err(err).Str("code", code).Str("tag", tag).Msg("Tag link failed")
		}
	}

	s := sale.Detect(rec.ListPrice, rec.Price, doc.Text(), p.now())
	if s != nil {
		if err := p.store.UpsertSale(ctx, sourceID, s); err != nil {
			p.log.Warn().Err(err).Str("code", code).Msg("Sale write failed")
			return false
		}
		return true
	}
	if err := p.store.DeactivateSale(ctx, sourceID); err != nil {
		p.log.Warn().Err(err).Str("code", code).Msg("Sale deactivation failed")
	}
	return false
}

func (p *Pipeline) publish(rec *extract.Record, code string, isNew, onSale bool) {
	if p.publisher == nil {
		return
	}
	payload, err := json.Marshal(Event{
		Source:  p.site.Name,
		Code:    code,
		LocalID: rec.LocalID,
		Title:   rec.Title,
		Price:   rec.Price,
		IsNew:   isNew,
		OnSale:  onSale,
	})
	if err != nil {
		return
	}
	if err := p.publisher.Publish(p.site.Name, payload); err != nil {
		p.log.Warn().Err(err).Str("code", code).Msg("Event publish failed")
	}
}
