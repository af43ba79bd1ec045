package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/productworker/helpers"
	"sjsage522/productworker/internal/extract"
)

// SourceSite bundles everything the pipeline needs to walk one storefront:
// listing URL construction, local-ID discovery on listing pages, detail URL
// construction, and the page extractor.
type SourceSite struct {
	Name         string
	Extractor    extract.Extractor
	ListURL      func(page int, order string) string
	DetailURL    func(localID string) string
	ListLocalIDs func(doc *goquery.Document) []string
}

// OrderNewest and OrderOldest select the listing sort direction.
const (
	OrderNewest = "newest"
	OrderOldest = "oldest"
)

var fanzaCidParam = regexp.MustCompile(`/cid=([^/"?#]+)`)

// FanzaSite builds the FANZA digital-video storefront description.
func FanzaSite(baseURL string) SourceSite {
	base := strings.TrimRight(baseURL, "/")
	return SourceSite{
		Name:      "fanza",
		Extractor: extract.NewFanza(base),
		ListURL: func(page int, order string) string {
			sort := "date"
			if order == OrderOldest {
				sort = "old"
			}
			return fmt.Sprintf("%s/digital/videoa/-/list/=/sort=%s/page=%d/", base, sort, page)
		},
		DetailURL: func(localID string) string {
			return base + "/digital/videoa/-/detail/=/cid=" + localID + "/"
		},
		ListLocalIDs: func(doc *goquery.Document) []string {
			var ids []string
			doc.Find(`a[href*="/cid="]`).Each(func(_ int, s *goquery.Selection) {
				href, _ := s.Attr("href")
				if m := fanzaCidParam.FindStringSubmatch(href); m != nil {
					ids = append(ids, m[1])
				}
			})
			return dedupe(ids)
		},
	}
}

// MGSSite builds the MGS storefront description.
func MGSSite(baseURL string) SourceSite {
	base := strings.TrimRight(baseURL, "/")
	return SourceSite{
		Name:      "mgs",
		Extractor: extract.NewMGS(base),
		ListURL: func(page int, order string) string {
			sort := "new"
			if order == OrderOldest {
				sort = "old"
			}
			return fmt.Sprintf("%s/search/cSearch.php?sort=%s&list_cnt=30&page=%d", base, sort, page)
		},
		DetailURL: func(localID string) string {
			return base + "/product/product_detail/" + strings.ToUpper(localID) + "/"
		},
		ListLocalIDs: func(doc *goquery.Document) []string {
			var ids []string
			doc.Find(`a[href*="/product/product_detail/"]`).Each(func(_ int, s *goquery.Selection) {
				href, _ := s.Attr("href")
				id, err := helpers.GetSplitPart(href, "/product/product_detail/", 1)
				if err != nil {
					return
				}
				if i := strings.IndexAny(id, "/?#"); i >= 0 {
					id = id[:i]
				}
				ids = append(ids, id)
			})
			return dedupe(ids)
		},
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
