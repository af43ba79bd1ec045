package extract

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNotFound is returned when a fetched page is a placeholder or landing
// page rather than a real product detail page. It is a structural absence,
// not a failure: callers must not count it as an error.
var ErrNotFound = errors.New("product page not found")

// Strategy extracts one field from a document. Returning "" means the
// strategy did not find the field; the next strategy in the chain runs.
type Strategy func(doc *goquery.Document) string

// FirstNonEmpty tries strategies in order and returns the first non-empty
// result. A fully exhausted chain yields "" and the field stays null.
func FirstNonEmpty(doc *goquery.Document, strategies ...Strategy) string {
	for _, s := range strategies {
		if s == nil {
			continue
		}
		if v := strings.TrimSpace(s(doc)); v != "" {
			return v
		}
	}
	return ""
}

// Review is a single user review scraped from a detail page.
type Review struct {
	Author   string
	Rating   float64
	Title    string
	Body     string
	PostedAt string
}

// Record is the normalized intermediate product record one extractor
// produces from one raw page. Empty/zero fields mean "not found on page".
type Record struct {
	Source       string
	LocalID      string
	Title        string
	Description  string
	DurationMin  int
	ReleaseDate  string
	Maker        string
	Label        string
	Series       string
	Performers   []string
	Tags         []string
	Price        int
	ListPrice    int
	AffiliateURL string
	CoverURL     string
	SampleImages []string
	SampleVideos []string
	Reviews      []Review
	RatingAvg    float64
	RatingCount  int
}

// HasUsableFields reports whether the record carries anything worth
// persisting. A record with zero usable fields is dropped entirely.
func (r *Record) HasUsableFields() bool {
	return r.Title != "" || r.Price > 0 || len(r.Performers) > 0 ||
		r.DurationMin > 0 || r.ReleaseDate != "" || len(r.SampleImages) > 0
}

// Extractor turns a raw detail page into a normalized Record.
type Extractor interface {
	Source() string
	Extract(doc *goquery.Document, localID string) (*Record, error)
}

// Placeholder detection. A page is rejected outright when its title equals
// the site's generic homepage title or when none of the expected detail
// landmarks are present. This runs before any field extraction so a
// non-product page can never fabricate a product.

// IsPlaceholder reports whether doc is a generic/landing page.
func IsPlaceholder(doc *goquery.Document, homepageTitles []string, landmarks []string) bool {
	pageTitle := strings.TrimSpace(doc.Find("title").First().Text())
	for _, t := range homepageTitles {
		if pageTitle == t {
			return true
		}
	}

	for _, sel := range landmarks {
		if doc.Find(sel).Length() > 0 {
			return false
		}
	}
	return true
}
