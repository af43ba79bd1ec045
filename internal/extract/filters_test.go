package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDuration(t *testing.T) {
	assert.True(t, ValidDuration(1))
	assert.True(t, ValidDuration(120))
	assert.True(t, ValidDuration(600))
	assert.False(t, ValidDuration(0))
	assert.False(t, ValidDuration(601), "durations beyond 600 minutes are noise")
	assert.False(t, ValidDuration(-5))
}

func TestValidPrice(t *testing.T) {
	assert.True(t, ValidPrice(100))
	assert.True(t, ValidPrice(1980))
	assert.True(t, ValidPrice(100000))
	assert.False(t, ValidPrice(99))
	assert.False(t, ValidPrice(100001))
}

func TestPickPricePrefersTypicalRange(t *testing.T) {
	// 25000 is plausible but outside the typical band; 1980 wins
	assert.Equal(t, 1980, PickPrice([]int{25000, 1980, 50}))
	// only out-of-band plausible candidates: first plausible one wins
	assert.Equal(t, 25000, PickPrice([]int{25000, 90000}))
	// nothing plausible
	assert.Equal(t, 0, PickPrice([]int{5, 2000000}))
	assert.Equal(t, 0, PickPrice(nil))
}

func TestParseDurationText(t *testing.T) {
	assert.Equal(t, 120, ParseDurationText("収録時間：120分"))
	assert.Equal(t, 95, ParseDurationText("95分"))
	assert.Equal(t, 0, ParseDurationText("分"))
	assert.Equal(t, 0, ParseDurationText("no duration here"))
}

func TestParseISODuration(t *testing.T) {
	assert.Equal(t, 120, ParseISODuration("PT2H"))
	assert.Equal(t, 125, ParseISODuration("PT2H5M"))
	assert.Equal(t, 45, ParseISODuration("PT45M"))
	assert.Equal(t, 0, ParseISODuration("PT0M"))
	assert.Equal(t, 0, ParseISODuration("garbage"))
}

func TestParseDateText(t *testing.T) {
	assert.Equal(t, "2023-04-01", ParseDateText("2023/04/01"))
	assert.Equal(t, "2023-04-01", ParseDateText("配信開始日：2023/4/1"))
	assert.Equal(t, "2023-04-01", ParseDateText("2023年4月1日"))
	assert.Equal(t, "2023-04-01", ParseDateText("2023-04-01"))
	assert.Equal(t, "", ParseDateText("no date"))
}

func TestScanYenAmounts(t *testing.T) {
	amounts := ScanYenAmounts("通常価格：2,980円 → セール価格 1,980円")
	assert.Equal(t, []int{2980, 1980}, amounts)
	assert.Empty(t, ScanYenAmounts("値段の記載なし"))
}

func TestScanYenAmountsCurrencyPrefix(t *testing.T) {
	assert.Equal(t, []int{2980, 1980}, ScanYenAmounts("¥2,980 → ¥1,980"))
	assert.Equal(t, []int{500}, ScanYenAmounts("￥500"))
	// both notations on one token still yield one amount
	assert.Equal(t, []int{2980}, ScanYenAmounts("¥2,980円"))
	// mixed notations in one blob keep document order
	assert.Equal(t, []int{2980, 1980}, ScanYenAmounts("<del>¥2,980</del> 1,980円"))
}

func TestIsDecorativeAsset(t *testing.T) {
	decorative := []string{
		"https://img.example.com/btn_sample.gif",
		"https://img.example.com/common/icon_hd.png",
		"https://img.example.com/now_printing.jpg",
		"https://img.example.com/site_logo.png",
	}
	for _, u := range decorative {
		assert.True(t, IsDecorativeAsset(u), "should exclude %q", u)
	}

	assert.False(t, IsDecorativeAsset("https://pics.example.com/abp00123/abp00123jp-1.jpg"))
}
