package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFirstNonEmptyStopsAtFirstHit(t *testing.T) {
	doc := docFromHTML(t, `<html><body><p class="b">second</p></body></html>`)

	var thirdRan bool
	got := FirstNonEmpty(doc,
		selectorText(".a"), // misses
		selectorText(".b"),
		func(*goquery.Document) string {
			thirdRan = true
			return "third"
		},
	)
	assert.Equal(t, "second", got)
	assert.False(t, thirdRan, "chain must stop at the first non-empty result")
}

func TestFirstNonEmptyAllMiss(t *testing.T) {
	doc := docFromHTML(t, `<html><body></body></html>`)
	got := FirstNonEmpty(doc, selectorText(".a"), nil, selectorText(".b"))
	assert.Equal(t, "", got, "an exhausted chain leaves the field null")
}

func TestIsPlaceholderByHomepageTitle(t *testing.T) {
	doc := docFromHTML(t, `<html><head><title>FANZA</title></head>
		<body><div class="priceList">1,980円</div></body></html>`)
	assert.True(t, IsPlaceholder(doc, fanzaHomepageTitles, fanzaLandmarks),
		"the generic homepage title wins even when a landmark is present")
}

func TestIsPlaceholderByMissingLandmarks(t *testing.T) {
	doc := docFromHTML(t, `<html><head><title>404 Not Found</title></head>
		<body><p>お探しのページは見つかりません</p></body></html>`)
	assert.True(t, IsPlaceholder(doc, fanzaHomepageTitles, fanzaLandmarks))
}

func TestIsPlaceholderRealDetailPage(t *testing.T) {
	doc := docFromHTML(t, `<html><head><title>商品タイトル - FANZA動画</title></head>
		<body><div class="priceList"><li>HD 1,980円</li></div></body></html>`)
	assert.False(t, IsPlaceholder(doc, fanzaHomepageTitles, fanzaLandmarks))
}

func TestInfoTableValue(t *testing.T) {
	doc := docFromHTML(t, `<html><body><table class="mg-b20">
		<tr><td>収録時間：</td><td>120分</td></tr>
		<tr><th>メーカー</th><td>プレステージ</td></tr>
	</table></body></html>`)

	assert.Equal(t, "120分", infoTableValue(doc, "収録時間"))
	assert.Equal(t, "プレステージ", infoTableValue(doc, "メーカー"))
	assert.Equal(t, "", infoTableValue(doc, "シリーズ"))
}

func TestParseJSONLD(t *testing.T) {
	doc := docFromHTML(t, `<html><head>
	<script type="application/ld+json">{"bad json</script>
	<script type="application/ld+json">
	{
		"@type": "Product",
		"name": "Example Title",
		"description": "desc",
		"actor": [{"name": "Jane Doe"}, {"name": "深田えいみ"}],
		"duration": "PT2H0M",
		"image": "https://pics.example.com/cover.jpg",
		"offers": {"price": "1980", "priceCurrency": "JPY"},
		"aggregateRating": {"ratingValue": "4.5", "reviewCount": "12"}
	}
	</script></head><body></body></html>`)

	ld := ParseJSONLD(doc)
	require.NotNil(t, ld, "malformed blocks are skipped, valid one is used")
	assert.Equal(t, "Example Title", ld.Name)
	assert.Equal(t, []string{"Jane Doe", "深田えいみ"}, []string(ld.Actor))
	assert.Equal(t, 120, ParseISODuration(ld.Duration))
	assert.Equal(t, 1980, ld.PriceYen())

	value, count := ld.Rating()
	assert.Equal(t, 4.5, value)
	assert.Equal(t, 12, count)
}

func TestParseJSONLDSingleActorObject(t *testing.T) {
	doc := docFromHTML(t, `<html><head><script type="application/ld+json">
	{"name": "T", "actor": {"name": "Solo Performer"}}
	</script></head><body></body></html>`)

	ld := ParseJSONLD(doc)
	require.NotNil(t, ld)
	assert.Equal(t, []string{"Solo Performer"}, []string(ld.Actor))
}

func TestParseJSONLDAbsent(t *testing.T) {
	doc := docFromHTML(t, `<html><body><p>nothing structured</p></body></html>`)
	assert.Nil(t, ParseJSONLD(doc))
}

func TestRecordHasUsableFields(t *testing.T) {
	assert.False(t, (&Record{Source: "fanza", LocalID: "x"}).HasUsableFields())
	assert.True(t, (&Record{Title: "t"}).HasUsableFields())
	assert.True(t, (&Record{Price: 1980}).HasUsableFields())
	assert.True(t, (&Record{Performers: []string{"a"}}).HasUsableFields())
}

func TestDedupeStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, dedupeStrings([]string{"a", "b", "a", "", "b"}))
}
