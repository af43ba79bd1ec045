package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/productworker/helpers"
)

// FanzaExtractor parses FANZA digital-video detail pages. Every field is an
// independent chain of strategies ordered from most to least reliable:
// JSON-LD first, then fixed containers, then regex scans over the whole
// document, each guarded by the numeric sanity filters.
type FanzaExtractor struct {
	baseURL string
}

// NewFanza creates a FANZA extractor
func NewFanza(baseURL string) *FanzaExtractor {
	return &FanzaExtractor{baseURL: baseURL}
}

// Source returns the source identifier
func (e *FanzaExtractor) Source() string {
	return "fanza"
}

var fanzaHomepageTitles = []string{
	"FANZA",
	"FANZA（ファンザ）",
	"アダルト動画 FANZA",
}

// Detail pages always carry at least one of these blocks; a page with none
// of them is a landing page regardless of what its URL looked like.
var fanzaLandmarks = []string{
	".priceList",
	"#performer",
	".box-onSale",
	"table.mg-b20",
	"#sample-image-block",
}

var (
	fanzaListPricePattern = regexp.MustCompile(`通常価格[：:]?\s*([0-9,]+)\s*円`)
	fanzaCastPattern      = regexp.MustCompile(`出演(?:者)?[：:]\s*([^\n<]{1,80})`)
	fanzaRatingPattern    = regexp.MustCompile(`([0-9](?:\.[0-9]{1,2})?)\s*点`)
	fanzaDurationPattern  = regexp.MustCompile(`収録(?:時間)?[：:]?\s*([0-9]{1,3})\s*分`)
)

// Extract turns a FANZA detail page into a Record.
func (e *FanzaExtractor) Extract(doc *goquery.Document, localID string) (*Record, error) {
	if IsPlaceholder(doc, fanzaHomepageTitles, fanzaLandmarks) {
		return nil, ErrNotFound
	}

	ld := ParseJSONLD(doc)
	pageText := doc.Text()

	rec := &Record{
		Source:       "fanza",
		LocalID:      localID,
		AffiliateURL: e.baseURL + "/digital/videoa/-/detail/=/cid=" + localID + "/",
	}

	rec.Title = FirstNonEmpty(doc,
		func(*goquery.Document) string {
			if ld != nil {
				return ld.Name
			}
			return ""
		},
		selectorText("h1#title"),
		metaContent(`meta[property="og:title"]`),
	)

	rec.Description = FirstNonEmpty(doc,
		func(*goquery.Document) string {
			if ld != nil {
				return ld.Description
			}
			return ""
		},
		selectorText("div.mg-b20.lh4 p.mg-b20"),
		selectorText("div.mg-b20.lh4"),
	)

	rec.DurationMin = e.extractDuration(doc, ld, pageText)
	rec.ReleaseDate = e.extractReleaseDate(doc, ld)

	rec.Maker = infoTableValue(doc, "メーカー")
	rec.Label = infoTableValue(doc, "レーベル")
	rec.Series = infoTableValue(doc, "シリーズ")

	rec.Performers = e.extractPerformers(doc, ld, pageText)
	rec.Tags = e.extractTags(doc, ld)
	rec.Price, rec.ListPrice = e.extractPrices(doc, ld, pageText)

	rec.CoverURL = FirstNonEmpty(doc,
		func(*goquery.Document) string {
			if ld != nil && len(ld.Image) > 0 {
				return ld.Image[0]
			}
			return ""
		},
		selectorAttr("#package-src-"+localID, "src"),
		selectorAttr("img.package", "src"),
		metaContent(`meta[property="og:image"]`),
	)

	rec.SampleImages = e.extractSampleImages(doc)
	rec.SampleVideos = e.extractSampleVideos(doc)
	rec.Reviews = e.extractReviews(doc)
	rec.RatingAvg, rec.RatingCount = e.extractRating(doc, ld)

	if !rec.HasUsableFields() {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (e *FanzaExtractor) extractDuration(doc *goquery.Document, ld *ProductLD, pageText string) int {
	if ld != nil {
		if minutes := ParseISODuration(ld.Duration); minutes > 0 {
			return minutes
		}
	}
	if v := infoTableValue(doc, "収録時間"); v != "" {
		if minutes := ParseDurationText(v); minutes > 0 {
			return minutes
		}
	}
	if m := fanzaDurationPattern.FindStringSubmatch(pageText); m != nil {
		minutes, _ := strconv.Atoi(m[1])
		if ValidDuration(minutes) {
			return minutes
		}
	}
	return 0
}

func (e *FanzaExtractor) extractReleaseDate(doc *goquery.Document, ld *ProductLD) string {
	for _, label := range []string{"配信開始日", "商品発売日", "発売日"} {
		if v := infoTableValue(doc, label); v != "" {
			if date := ParseDateText(v); date != "" {
				return date
			}
		}
	}
	if ld != nil {
		for _, raw := range []string{ld.DateCreated, ld.UploadDate} {
			if date := ParseDateText(raw); date != "" {
				return date
			}
		}
	}
	return ""
}

func (e *FanzaExtractor) extractPerformers(doc *goquery.Document, ld *ProductLD, pageText string) []string {
	if ld != nil && len(ld.Actor) > 0 {
		return dedupeStrings(ld.Actor)
	}

	var names []string
	doc.Find("#performer a, span#performer a").Each(func(_ int, s *goquery.Selection) {
		if name := helpers.CollapseSpace(s.Text()); name != "" {
			names = append(names, name)
		}
	})
	if len(names) > 0 {
		return dedupeStrings(names)
	}

	if m := fanzaCastPattern.FindStringSubmatch(pageText); m != nil {
		for _, part := range strings.Split(m[1], "、") {
			if name := helpers.CollapseSpace(part); name != "" {
				names = append(names, name)
			}
		}
	}
	return dedupeStrings(names)
}

func (e *FanzaExtractor) extractTags(doc *goquery.Document, ld *ProductLD) []string {
	var tags []string
	doc.Find(`table.mg-b20 a[href*="article=keyword"]`).Each(func(_ int, s *goquery.Selection) {
		if tag := helpers.CollapseSpace(s.Text()); tag != "" {
			tags = append(tags, tag)
		}
	})
	if len(tags) == 0 && ld != nil {
		tags = append(tags, ld.Genre...)
	}
	return dedupeStrings(tags)
}

// extractPrices returns (current, listPrice). The labeled HD/default price
// wins over generic matches; among unlabeled candidates the typical-range
// heuristic in PickPrice decides.
func (e *FanzaExtractor) extractPrices(doc *goquery.Document, ld *ProductLD, pageText string) (int, int) {
	var current int

	// 1. explicit HD row in the price list; struck-through tokens are
	// stripped from a clone first so the original price cannot shadow the
	// current one
	doc.Find(".priceList li").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), "HD") && !strings.Contains(s.Text(), "ダウンロード") {
			return true
		}
		clean := s.Clone()
		clean.Find("del, span.strike, .price-original").Remove()
		if amounts := ScanYenAmounts(clean.Text()); len(amounts) > 0 && ValidPrice(amounts[0]) {
			current = amounts[0]
			return false
		}
		return true
	})

	// 2. default price container
	if current == 0 {
		if amounts := ScanYenAmounts(doc.Find("p.price, div.price, td.price").First().Text()); len(amounts) > 0 {
			current = PickPrice(amounts)
		}
	}

	// 3. structured data offer
	if current == 0 && ld != nil {
		if yen := ld.PriceYen(); ValidPrice(yen) {
			current = yen
		}
	}

	// 4. whole-document scan, ranked by the typical range
	if current == 0 {
		current = PickPrice(ScanYenAmounts(pageText))
	}

	var list int
	if struck := doc.Find("span.strike, del, .price-original").First().Text(); struck != "" {
		if amounts := ScanYenAmounts(struck); len(amounts) > 0 && ValidPrice(amounts[0]) {
			list = amounts[0]
		}
	}
	if list == 0 {
		if m := fanzaListPricePattern.FindStringSubmatch(pageText); m != nil {
			if yen := helpers.ParseYen(m[1]); ValidPrice(yen) {
				list = yen
			}
		}
	}

	return current, list
}

func (e *FanzaExtractor) extractSampleImages(doc *goquery.Document) []string {
	var urls []string
	doc.Find("#sample-image-block img, div#sample-image-block a img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-lazy")
		}
		if src == "" || IsDecorativeAsset(src) {
			return
		}
		urls = append(urls, src)
	})
	return dedupeStrings(urls)
}

func (e *FanzaExtractor) extractSampleVideos(doc *goquery.Document) []string {
	var urls []string
	doc.Find(`#detail-sample-movie source, #detail-sample-movie a, a[href$=".mp4"]`).Each(func(_ int, s *goquery.Selection) {
		u, ok := s.Attr("src")
		if !ok {
			u, _ = s.Attr("href")
		}
		if u == "" || IsDecorativeAsset(u) {
			return
		}
		if strings.Contains(u, ".mp4") || strings.Contains(u, "litevideo") {
			urls = append(urls, u)
		}
	})
	return dedupeStrings(urls)
}

func (e *FanzaExtractor) extractReviews(doc *goquery.Document) []Review {
	var reviews []Review
	doc.Find(".d-review__unit").Each(func(_ int, s *goquery.Selection) {
		review := Review{
			Author:   helpers.CollapseSpace(s.Find(".d-review__name").Text()),
			Title:    helpers.CollapseSpace(s.Find(".d-review__title").Text()),
			Body:     strings.TrimSpace(s.Find(".d-review__comment").Text()),
			PostedAt: ParseDateText(s.Find(".d-review__postdate").Text()),
		}
		if m := fanzaRatingPattern.FindStringSubmatch(s.Find(".d-review__rating").Text()); m != nil {
			review.Rating, _ = strconv.ParseFloat(m[1], 64)
		}
		if review.Body != "" || review.Title != "" {
			reviews = append(reviews, review)
		}
	})
	return reviews
}

func (e *FanzaExtractor) extractRating(doc *goquery.Document, ld *ProductLD) (float64, int) {
	if value, count := ld.Rating(); value > 0 {
		return value, count
	}

	var value float64
	var count int
	if m := fanzaRatingPattern.FindStringSubmatch(doc.Find(".d-review__average").Text()); m != nil {
		value, _ = strconv.ParseFloat(m[1], 64)
	}
	countText := doc.Find(".d-review__evaluates strong").Text()
	if countText != "" {
		count = helpers.ParseYen(countText) // digit scan; not actually yen
	}
	return value, count
}
