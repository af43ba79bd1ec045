package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/productworker/helpers"
)

// MGSExtractor parses MGS detail pages. MGS rarely embeds structured data,
// so the chains lean harder on its label/value detail table and on regex
// scans than the FANZA extractor does.
type MGSExtractor struct {
	baseURL string
}

// NewMGS creates an MGS extractor
func NewMGS(baseURL string) *MGSExtractor {
	return &MGSExtractor{baseURL: baseURL}
}

// Source returns the source identifier
func (e *MGSExtractor) Source() string {
	return "mgs"
}

var mgsHomepageTitles = []string{
	"MGS動画",
	"MGS動画｜アダルト動画サイト",
}

var mgsLandmarks = []string{
	".detail_data",
	".detail_photo",
	"ul.price_list",
	".shousai_tab",
}

var (
	mgsListPricePattern = regexp.MustCompile(`(?:通常|定価)[：:]?\s*([0-9,]+)\s*円`)
	mgsStarPattern      = regexp.MustCompile(`star([0-9])(?:_([05]))?`)
)

// Extract turns an MGS detail page into a Record.
func (e *MGSExtractor) Extract(doc *goquery.Document, localID string) (*Record, error) {
	if IsPlaceholder(doc, mgsHomepageTitles, mgsLandmarks) {
		return nil, ErrNotFound
	}

	ld := ParseJSONLD(doc)
	pageText := doc.Text()

	rec := &Record{
		Source:       "mgs",
		LocalID:      localID,
		AffiliateURL: e.baseURL + "/product/product_detail/" + strings.ToUpper(localID) + "/",
	}

	rec.Title = FirstNonEmpty(doc,
		func(*goquery.Document) string {
			if ld != nil {
				return ld.Name
			}
			return ""
		},
		selectorText("h1.tag"),
		selectorText(".common_detail_cover h1"),
		metaContent(`meta[property="og:title"]`),
	)

	rec.Description = FirstNonEmpty(doc,
		func(*goquery.Document) string {
			if ld != nil {
				return ld.Description
			}
			return ""
		},
		selectorText("p.txt.introduction"),
		selectorText(".detail_txt"),
	)

	rec.DurationMin = e.extractDuration(doc, ld, pageText)
	rec.ReleaseDate = e.extractReleaseDate(doc, ld)

	rec.Maker = infoTableValue(doc, "メーカー")
	rec.Label = infoTableValue(doc, "レーベル")
	rec.Series = infoTableValue(doc, "シリーズ")

	rec.Performers = e.extractPerformers(doc, ld)
	rec.Tags = e.extractTags(doc, ld)
	rec.Price, rec.ListPrice = e.extractPrices(doc, ld, pageText)

	rec.CoverURL = FirstNonEmpty(doc,
		selectorAttr(".detail_photo img.enlarge_image", "src"),
		selectorAttr(".detail_photo img", "src"),
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

func (e *MGSExtractor) extractDuration(doc *goquery.Document, ld *ProductLD, pageText string) int {
	if v := infoTableValue(doc, "収録時間"); v != "" {
		if minutes := ParseDurationText(v); minutes > 0 {
			return minutes
		}
	}
	if ld != nil {
		if minutes := ParseISODuration(ld.Duration); minutes > 0 {
			return minutes
		}
	}
	if minutes := ParseDurationText(pageText); minutes > 0 {
		return minutes
	}
	return 0
}

func (e *MGSExtractor) extractReleaseDate(doc *goquery.Document, ld *ProductLD) string {
	for _, label := range []string{"配信開始日", "商品発売日", "発売日"} {
		if v := infoTableValue(doc, label); v != "" {
			if date := ParseDateText(v); date != "" {
				return date
			}
		}
	}
	if ld != nil {
		if date := ParseDateText(ld.UploadDate); date != "" {
			return date
		}
	}
	return ""
}

func (e *MGSExtractor) extractPerformers(doc *goquery.Document, ld *ProductLD) []string {
	var names []string
	if v := infoTableValue(doc, "出演"); v != "" {
		for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == '、' || r == ',' }) {
			if name := helpers.CollapseSpace(part); name != "" {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		doc.Find(".detail_data a[href*='/search/cSearch.php']").Each(func(_ int, s *goquery.Selection) {
			if name := helpers.CollapseSpace(s.Text()); name != "" {
				names = append(names, name)
			}
		})
	}
	if len(names) == 0 && ld != nil {
		names = append(names, ld.Actor...)
	}
	return dedupeStrings(names)
}

func (e *MGSExtractor) extractTags(doc *goquery.Document, ld *ProductLD) []string {
	var tags []string
	if v := infoTableValue(doc, "ジャンル"); v != "" {
		for _, part := range strings.Fields(v) {
			tags = append(tags, part)
		}
	}
	doc.Find(`.detail_data a[href*="genre"]`).Each(func(_ int, s *goquery.Selection) {
		if tag := helpers.CollapseSpace(s.Text()); tag != "" {
			tags = append(tags, tag)
		}
	})
	if len(tags) == 0 && ld != nil {
		tags = append(tags, ld.Genre...)
	}
	return dedupeStrings(tags)
}

func (e *MGSExtractor) extractPrices(doc *goquery.Document, ld *ProductLD, pageText string) (int, int) {
	var current int

	// 1. the HD row of the price list is the representative price;
	// struck-through tokens are stripped from a clone first
	doc.Find("ul.price_list li").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), "HD") {
			return true
		}
		clean := s.Clone()
		clean.Find("del, span.strike, .normal_price").Remove()
		if amounts := ScanYenAmounts(clean.Text()); len(amounts) > 0 && ValidPrice(amounts[0]) {
			current = amounts[0]
			return false
		}
		return true
	})

	// 2. any price list entry
	if current == 0 {
		clean := doc.Find("ul.price_list").Clone()
		clean.Find("del, span.strike, .normal_price").Remove()
		if amounts := ScanYenAmounts(clean.Text()); len(amounts) > 0 {
			current = PickPrice(amounts)
		}
	}

	// 3. structured data, then whole-page scan
	if current == 0 && ld != nil {
		if yen := ld.PriceYen(); ValidPrice(yen) {
			current = yen
		}
	}
	if current == 0 {
		current = PickPrice(ScanYenAmounts(pageText))
	}

	var list int
	if struck := doc.Find("del, span.strike, .normal_price").First().Text(); struck != "" {
		if amounts := ScanYenAmounts(struck); len(amounts) > 0 && ValidPrice(amounts[0]) {
			list = amounts[0]
		}
	}
	if list == 0 {
		if m := mgsListPricePattern.FindStringSubmatch(pageText); m != nil {
			if yen := helpers.ParseYen(m[1]); ValidPrice(yen) {
				list = yen
			}
		}
	}

	return current, list
}

func (e *MGSExtractor) extractSampleImages(doc *goquery.Document) []string {
	var urls []string
	doc.Find("#sample-photo img, .sample_image_wrap a").Each(func(_ int, s *goquery.Selection) {
		u, ok := s.Attr("src")
		if !ok {
			u, _ = s.Attr("href")
		}
		if u == "" || IsDecorativeAsset(u) {
			return
		}
		urls = append(urls, u)
	})
	return dedupeStrings(urls)
}

func (e *MGSExtractor) extractSampleVideos(doc *goquery.Document) []string {
	var urls []string
	doc.Find(`a.button_sample, a[href*="sampleplayer"], video source`).Each(func(_ int, s *goquery.Selection) {
		u, ok := s.Attr("href")
		if !ok {
			u, _ = s.Attr("src")
		}
		if u == "" || IsDecorativeAsset(u) {
			return
		}
		urls = append(urls, u)
	})
	return dedupeStrings(urls)
}

func (e *MGSExtractor) extractReviews(doc *goquery.Document) []Review {
	var reviews []Review
	doc.Find(".review_list .review_unit, .user_review li").Each(func(_ int, s *goquery.Selection) {
		review := Review{
			Author:   helpers.CollapseSpace(s.Find(".review_name, .name").Text()),
			Title:    helpers.CollapseSpace(s.Find(".review_title, .title").Text()),
			Body:     strings.TrimSpace(s.Find(".review_txt, .comment").Text()),
			PostedAt: ParseDateText(s.Find(".review_date, .date").Text()),
		}
		if class, ok := s.Find("span[class*='star']").Attr("class"); ok {
			review.Rating = parseStarClass(class)
		}
		if review.Body != "" || review.Title != "" {
			reviews = append(reviews, review)
		}
	})
	return reviews
}

// parseStarClass converts MGS star classes like "star4" or "star3_5" into
// a numeric rating.
func parseStarClass(class string) float64 {
	m := mgsStarPattern.FindStringSubmatch(class)
	if m == nil {
		return 0
	}
	stars, _ := strconv.ParseFloat(m[1], 64)
	if m[2] == "5" {
		stars += 0.5
	}
	return stars
}

func (e *MGSExtractor) extractRating(doc *goquery.Document, ld *ProductLD) (float64, int) {
	if value, count := ld.Rating(); value > 0 {
		return value, count
	}

	var value float64
	if class, ok := doc.Find(".review_average span[class*='star']").Attr("class"); ok {
		value = parseStarClass(class)
	}
	count := 0
	if text := doc.Find(".review_average .count").Text(); text != "" {
		count = helpers.ParseYen(text)
	}
	return value, count
}
