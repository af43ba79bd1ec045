package wiki

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/productworker/helpers"
	"sjsage522/productworker/logger"
	"sjsage522/productworker/services/cache"
)

// Site describes one auxiliary wiki: where article pages live, which DOM
// slots hold candidate performer names, and whether the site still serves
// a legacy (non UTF-8) encoding.
type Site struct {
	Name          string
	BaseURL       string
	IndexPath     string
	DetailPattern *regexp.Regexp
	PagePattern   *regexp.Regexp
	TitleSelector string
	NameSelectors []string
	Legacy        bool
}

// AvWikiSite is a WordPress-style site, UTF-8, one article per product
// with the code in the title and the performer name in the body.
func AvWikiSite(baseURL string) Site {
	return Site{
		Name:          "av-wiki",
		BaseURL:       strings.TrimRight(baseURL, "/"),
		IndexPath:     "/",
		DetailPattern: regexp.MustCompile(`/(?:av|archives)/[^/]+/?$`),
		PagePattern:   regexp.MustCompile(`/page/[0-9]+/?$`),
		TitleSelector: "h1.entry-title",
		NameSelectors: []string{
			".entry-content a[href*='actress']",
			".entry-content li strong",
			".actress-name",
		},
	}
}

// ShiroutonameSite is an older site that still serves EUC-JP pages.
func ShiroutonameSite(baseURL string) Site {
	return Site{
		Name:          "shiroutoname",
		BaseURL:       strings.TrimRight(baseURL, "/"),
		IndexPath:     "/",
		DetailPattern: regexp.MustCompile(`/archives/[0-9]+(?:\.html)?/?$`),
		PagePattern:   regexp.MustCompile(`/(?:page/[0-9]+|archives/cat_[0-9]+\.html)/?$`),
		TitleSelector: "h2.title, h1.entry-title",
		NameSelectors: []string{
			".entry-body strong",
			".entry-content strong",
		},
		Legacy: true,
	}
}

// StagingWriter receives the crawl findings.
type StagingWriter interface {
	InsertStaging(ctx context.Context, site, productCode, performerName, sourceURL string) error
}

// PageFetcher is the polite per-site fetcher.
type PageFetcher interface {
	Get(url string) (*helpers.Response, error)
}

// Summary reports what one crawl pass did.
type Summary struct {
	PagesVisited int
	DetailPages  int
	Staged       int
	Errors       int
}

// Crawler walks one wiki site breadth-first from its index page, following
// pagination and article links on the same host, and stages every
// (code, name) pair it can read off an article. Findings only ever land in
// the staging table; linking to products is the reconciliation pass's job.
type Crawler struct {
	site     Site
	fetcher  PageFetcher
	staging  StagingWriter
	cacheSvc cache.CacheService
	maxPages int
	visited  map[string]bool
	log      *logger.Logger
}

const visitedTTL = 24 * time.Hour

// NewCrawler creates a crawler for one site. maxPages bounds the BFS so a
// runaway link structure cannot turn a pass into a full-site mirror.
func NewCrawler(site Site, fetcher PageFetcher, staging StagingWriter, cacheSvc cache.CacheService, maxPages int) *Crawler {
	if maxPages < 1 {
		maxPages = 50
	}
	return &Crawler{
		site:     site,
		fetcher:  fetcher,
		staging:  staging,
		cacheSvc: cacheSvc,
		maxPages: maxPages,
		visited:  map[string]bool{},
		log:      logger.ForWiki(site.Name),
	}
}

// Run executes one BFS pass. Page-level failures are counted and skipped;
// only context cancellation aborts the pass.
func (c *Crawler) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	queue := []string{c.site.BaseURL + c.site.IndexPath}

	for len(queue) > 0 && sum.PagesVisited < c.maxPages {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		pageURL := queue[0]
		queue = queue[1:]

		if c.seen(pageURL) {
			continue
		}
		c.markSeen(pageURL)

		doc, err := c.fetchDoc(pageURL)
		if err != nil {
			c.log.Warn().Err(err).Str("url", pageURL).Msg("Page fetch failed, skipping")
			sum.Errors++
			continue
		}
		sum.PagesVisited++

		if c.site.DetailPattern.MatchString(pageURL) {
			sum.DetailPages++
			sum.Staged += c.harvest(ctx, doc, pageURL, sum)
		}

		queue = append(queue, c.discoverLinks(doc, pageURL)...)
	}

	c.log.Info().
		Int("pages", sum.PagesVisited).
		Int("details", sum.DetailPages).
		Int("staged", sum.Staged).
		Int("errors", sum.Errors).
		Msg("Wiki crawl pass finished")
	return sum, nil
}

func (c *Crawler) fetchDoc(pageURL string) (*goquery.Document, error) {
	resp, err := c.fetcher.Get(pageURL)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		c.log.Debug().Int("status", resp.Status).Str("url", pageURL).Msg("Non-OK page skipped")
		return nil, errNotOK(resp.Status)
	}

	body := resp.Body
	if c.site.Legacy {
		decoded, err := helpers.DecodeToUTF8(body, "text/html")
		if err != nil {
			return nil, err
		}
		body = decoded
	}

	return goquery.NewDocumentFromReader(strings.NewReader(string(body)))
}

type errNotOK int

func (e errNotOK) Error() string { return "unexpected status " + http.StatusText(int(e)) }

// harvest reads the product code from the article title and candidate
// names from the site's known slots plus labeled lines in the body text.
func (c *Crawler) harvest(ctx context.Context, doc *goquery.Document, pageURL string, sum *Summary) int {
	title := strings.TrimSpace(doc.Find(c.site.TitleSelector).First().Text())
	code, ok := ExtractCode(title)
	if !ok {
		// some sites only carry the code in the URL slug
		if code, ok = ExtractCode(pageURL); !ok {
			c.log.Debug().Str("url", pageURL).Msg("No product code on article, skipping")
			return 0
		}
	}

	names := map[string]bool{}
	for _, sel := range c.site.NameSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			for _, part := range splitNames(s.Text()) {
				if name, ok := CleanCandidate(part); ok {
					names[name] = true
				}
			}
		})
	}
	for _, name := range LabeledNames(doc.Text()) {
		names[name] = true
	}

	staged := 0
	for name := range names {
		if err := c.staging.InsertStaging(ctx, c.site.Name, code, name, pageURL); err != nil {
			c.log.Warn().Err(err).Str("code", code).Str("name", name).Msg("Staging insert failed")
			sum.Errors++
			continue
		}
		staged++
	}
	return staged
}

// discoverLinks collects unvisited same-host links that look like article
// pages or pagination.
func (c *Crawler) discoverLinks(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		if abs.Host != base.Host {
			return
		}
		target := abs.String()
		if c.seen(target) {
			return
		}
		if c.site.DetailPattern.MatchString(abs.Path) || c.site.PagePattern.MatchString(abs.Path) {
			links = append(links, target)
		}
	})
	return links
}

func (c *Crawler) visitedKey(pageURL string) string {
	return "wiki_visited_" + c.site.Name + "_" + pageURL
}

func (c *Crawler) seen(pageURL string) bool {
	if c.visited[pageURL] {
		return true
	}
	if c.cacheSvc != nil {
		if _, err := c.cacheSvc.Get(c.visitedKey(pageURL)); err == nil {
			return true
		}
	}
	return false
}

func (c *Crawler) markSeen(pageURL string) {
	c.visited[pageURL] = true
	if c.cacheSvc != nil {
		c.cacheSvc.Set(c.visitedKey(pageURL), []byte("1"), visitedTTL)
	}
}

// splitNames breaks a scraped string on the separators the sites use
// between multiple names.
func splitNames(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '、', ',', '，', '／', '/', '・', '\n':
			return true
		}
		return false
	})
}
