package ingest

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFanzaListLocalIDs(t *testing.T) {
	site := FanzaSite("https://fanza.test")
	doc := listingDoc(t, `<html><body>
<a href="/digital/videoa/-/detail/=/cid=abp00123/">a</a>
<a href="/digital/videoa/-/detail/=/cid=ssis001/?i3_ref=list">b</a>
<a href="/digital/videoa/-/detail/=/cid=abp00123/">dup</a>
<a href="/digital/videoa/-/list/=/page=2/">next</a>
</body></html>`)

	ids := site.ListLocalIDs(doc)
	assert.Equal(t, []string{"abp00123", "ssis001"}, ids, "deduped, query params stripped")
}

func TestMGSListLocalIDs(t *testing.T) {
	site := MGSSite("https://mgs.test")
	doc := listingDoc(t, `<html><body>
<a href="/product/product_detail/300MIUM-300/">a</a>
<a href="https://mgs.test/product/product_detail/SIRO-3214/?from=list">b</a>
<a href="/product/product_detail/300MIUM-300/">dup</a>
<a href="/search/cSearch.php?page=2">next</a>
</body></html>`)

	ids := site.ListLocalIDs(doc)
	assert.Equal(t, []string{"300MIUM-300", "SIRO-3214"}, ids)
}

func TestListURLOrder(t *testing.T) {
	fanza := FanzaSite("https://fanza.test")
	assert.Contains(t, fanza.ListURL(2, OrderNewest), "sort=date")
	assert.Contains(t, fanza.ListURL(2, OrderNewest), "page=2")
	assert.Contains(t, fanza.ListURL(1, OrderOldest), "sort=old")

	mgs := MGSSite("https://mgs.test")
	assert.Contains(t, mgs.ListURL(3, OrderNewest), "sort=new")
	assert.Contains(t, mgs.ListURL(3, OrderNewest), "page=3")
	assert.Contains(t, mgs.ListURL(1, OrderOldest), "sort=old")
}
