package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/productworker/helpers"
)

// Shared strategy constructors used by every source extractor.

// selectorText returns a strategy that yields the trimmed text of the
// first element matching sel.
func selectorText(sel string) Strategy {
	return func(doc *goquery.Document) string {
		return helpers.CollapseSpace(doc.Find(sel).First().Text())
	}
}

// selectorAttr returns a strategy that yields an attribute of the first
// element matching sel.
func selectorAttr(sel, attr string) Strategy {
	return func(doc *goquery.Document) string {
		v, _ := doc.Find(sel).First().Attr(attr)
		return v
	}
}

// metaContent returns a strategy that yields the content attribute of a
// meta tag.
func metaContent(sel string) Strategy {
	return selectorAttr(sel, "content")
}

// infoTableValue scans label/value tables (th or first td holds the label)
// and returns the value cell's text for the first row whose label contains
// the given label string.
func infoTableValue(doc *goquery.Document, label string) string {
	var value string
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		head := row.Find("th").First()
		if head.Length() == 0 {
			head = row.Find("td").First()
		}
		if !strings.Contains(head.Text(), label) {
			return true
		}
		cell := row.Find("td").Last()
		if cell.Length() == 0 {
			return true
		}
		value = helpers.CollapseSpace(cell.Text())
		// the label cell itself can come back when the row has one td
		if strings.Contains(value, label) {
			value = ""
			return true
		}
		return false
	})
	return value
}

// dedupeStrings removes duplicates while preserving first-seen order.
func dedupeStrings(in []string) []string {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
