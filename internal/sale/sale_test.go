package sale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var crawlTime = time.Date(2023, 7, 10, 12, 0, 0, 0, time.UTC)

func TestDetectDiscountPercent(t *testing.T) {
	s := Detect(2980, 1980, "", crawlTime)
	require.NotNil(t, s)
	assert.Equal(t, 34, s.DiscountPercent, "round((1-1980/2980)*100) = 34")
	assert.Equal(t, 2980, s.RegularPrice)
	assert.Equal(t, 1980, s.SalePrice)
	assert.Nil(t, s.EndAt, "no deadline token means open-ended")
}

func TestDetectNoSale(t *testing.T) {
	assert.Nil(t, Detect(1980, 1980, "", crawlTime), "equal prices are not a sale")
	assert.Nil(t, Detect(1980, 2980, "", crawlTime), "regular below current is not a sale")
	assert.Nil(t, Detect(0, 1980, "", crawlTime))
	assert.Nil(t, Detect(2980, 0, "", crawlTime))
}

func TestDetectHalfOff(t *testing.T) {
	s := Detect(3000, 1500, "", crawlTime)
	require.NotNil(t, s)
	assert.Equal(t, 50, s.DiscountPercent)
}

func TestEndDateMonthDayThisYear(t *testing.T) {
	s := Detect(2980, 1980, "セール実施中！8/31まで", crawlTime)
	require.NotNil(t, s)
	require.NotNil(t, s.EndAt)
	assert.Equal(t, time.Date(2023, 8, 31, 23, 59, 59, 0, time.UTC), *s.EndAt)
}

func TestEndDateMonthDayRollsToNextYear(t *testing.T) {
	// 3/15 is already past at crawl time, so it means next March
	s := Detect(2980, 1980, "3月15日まで", crawlTime)
	require.NotNil(t, s)
	require.NotNil(t, s.EndAt)
	assert.Equal(t, 2024, s.EndAt.Year())
	assert.Equal(t, time.March, s.EndAt.Month())
}

func TestEndDateFullDate(t *testing.T) {
	s := Detect(2980, 1980, "2023/08/31まで限定価格", crawlTime)
	require.NotNil(t, s)
	require.NotNil(t, s.EndAt)
	assert.Equal(t, time.Date(2023, 8, 31, 23, 59, 59, 0, time.UTC), *s.EndAt)
}

func TestEndDateCountdown(t *testing.T) {
	s := Detect(2980, 1980, "セール終了まで残り3日12時間", crawlTime)
	require.NotNil(t, s)
	require.NotNil(t, s.EndAt)
	assert.Equal(t, crawlTime.Add(3*24*time.Hour+12*time.Hour), *s.EndAt)
}

func TestEndDateCountdownDaysOnly(t *testing.T) {
	s := Detect(2980, 1980, "あと5日", crawlTime)
	require.NotNil(t, s)
	require.NotNil(t, s.EndAt)
	assert.Equal(t, crawlTime.Add(5*24*time.Hour), *s.EndAt)
}

func TestEndDateBannerToken(t *testing.T) {
	s := Detect(2980, 1980, "期間限定セール 9/30", crawlTime)
	require.NotNil(t, s)
	require.NotNil(t, s.EndAt)
	assert.Equal(t, time.Date(2023, 9, 30, 23, 59, 59, 0, time.UTC), *s.EndAt)
}

func TestEndDateFirstMatchWins(t *testing.T) {
	// both an explicit date and a countdown appear; the explicit date wins
	s := Detect(2980, 1980, "8/31まで（残り52日）", crawlTime)
	require.NotNil(t, s)
	require.NotNil(t, s.EndAt)
	assert.Equal(t, time.August, s.EndAt.Month())
}
