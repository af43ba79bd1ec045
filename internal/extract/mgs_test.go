package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mgsFixture = `<html>
<head><title>【配信限定】初撮り。みおちゃん - MGS動画検索結果</title></head>
<body>
<div class="common_detail_cover">
	<h1 class="tag">初撮り。みおちゃん</h1>
	<div class="detail_photo">
		<img class="enlarge_image" src="https://image.mgstage.com/images/prestigepremium/300mium/300/pb_e_300mium-300.jpg">
	</div>
	<div class="detail_data">
		<table>
			<tr><th>出演：</th><td>みおちゃん</td></tr>
			<tr><th>収録時間：</th><td>75min</td></tr>
			<tr><th>配信開始日：</th><td>2023/06/15</td></tr>
			<tr><th>メーカー：</th><td>プレステージプレミアム</td></tr>
			<tr><th>シリーズ：</th><td>シロウトTV</td></tr>
			<tr><th>ジャンル：</th><td><a href="/search/?genre=1">素人</a> <a href="/search/?genre=2">ハメ撮り</a></td></tr>
		</table>
	</div>
	<ul class="price_list">
		<li>HD版 <span class="normal_price">2,480円</span> 1,980円</li>
		<li>SD版 980円</li>
	</ul>
	<p class="txt introduction">素朴な笑顔が印象的な彼女の初撮影作品。収録時間75分。</p>
	<div class="review_average"><span class="star4_5"></span><span class="count">23件</span></div>
	<div class="review_list">
		<div class="review_unit">
			<span class="review_name">購入者</span>
			<span class="star4"></span>
			<p class="review_txt">自然な雰囲気が良い。</p>
			<span class="review_date">2023/07/01</span>
		</div>
	</div>
</div>
</body></html>`

func TestMGSExtractFixture(t *testing.T) {
	e := NewMGS("https://www.mgstage.com")
	doc := docFromHTML(t, mgsFixture)

	rec, err := e.Extract(doc, "300MIUM-300")
	require.NoError(t, err)

	assert.Equal(t, "mgs", rec.Source)
	assert.Equal(t, "初撮り。みおちゃん", rec.Title)
	assert.Equal(t, []string{"みおちゃん"}, rec.Performers)
	assert.Equal(t, "2023-06-15", rec.ReleaseDate)
	assert.Equal(t, "プレステージプレミアム", rec.Maker)
	assert.Equal(t, "シロウトTV", rec.Series)
	assert.Equal(t, []string{"素人", "ハメ撮り"}, rec.Tags)

	// the HD row's live price, not the struck-through normal price
	assert.Equal(t, 1980, rec.Price)
	assert.Equal(t, 2480, rec.ListPrice)

	assert.Contains(t, rec.CoverURL, "pb_e_300mium-300.jpg")
	assert.Contains(t, rec.AffiliateURL, "300MIUM-300")

	// "75min" does not match the 分 pattern; the regex fallback over the
	// description ("収録時間75分") supplies it
	assert.Equal(t, 75, rec.DurationMin)

	require.Len(t, rec.Reviews, 1)
	assert.Equal(t, 4.0, rec.Reviews[0].Rating)
	assert.Equal(t, "2023-07-01", rec.Reviews[0].PostedAt)

	assert.Equal(t, 4.5, rec.RatingAvg)
	assert.Equal(t, 23, rec.RatingCount)
}

func TestMGSExtractRejectsHomepage(t *testing.T) {
	html := `<html><head><title>MGS動画</title></head><body>
	<ul class="price_list"><li>キャンペーン中</li></ul></body></html>`

	e := NewMGS("https://www.mgstage.com")
	_, err := e.Extract(docFromHTML(t, html), "300MIUM-300")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMGSExtractRejectsNonDetailPage(t *testing.T) {
	html := `<html><head><title>検索結果</title></head><body>
	<p>該当する商品が見つかりませんでした。</p></body></html>`

	e := NewMGS("https://www.mgstage.com")
	_, err := e.Extract(docFromHTML(t, html), "300MIUM-300")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseStarClass(t *testing.T) {
	assert.Equal(t, 4.0, parseStarClass("star4"))
	assert.Equal(t, 4.5, parseStarClass("star4_5"))
	assert.Equal(t, 3.0, parseStarClass("review star3"))
	assert.Equal(t, 0.0, parseStarClass("no-stars"))
}
