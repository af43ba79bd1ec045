package sale

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// Sale is a detected discount window for one product source. EndAt is nil
// for open-ended sales where the page names no deadline.
type Sale struct {
	RegularPrice    int
	SalePrice       int
	DiscountPercent int
	EndAt           *time.Time
}

var (
	// "8/31まで" or "8月31日まで" — month/day, year implied
	monthDayPattern = regexp.MustCompile(`([0-9]{1,2})[/月]([0-9]{1,2})日?まで`)
	// "2023/08/31まで" or "2023-08-31まで"
	fullDatePattern = regexp.MustCompile(`([0-9]{4})[/\-]([0-9]{1,2})[/\-]([0-9]{1,2})(?:日)?まで`)
	// "残り3日" / "あと3日12時間" countdown
	countdownPattern = regexp.MustCompile(`(?:残り|あと)([0-9]+)日(?:([0-9]+)時間)?`)
	// campaign banner with a bare short date, e.g. "期間限定セール 8/31"
	bannerPattern = regexp.MustCompile(`期間限定[^0-9]{0,12}([0-9]{1,2})/([0-9]{1,2})`)
)

// Detect derives a Sale from the current price and the struck-through
// regular price. It returns nil unless regular > current; equal prices are
// not a sale. Discount percent is round((1 - current/regular) * 100).
func Detect(regular, current int, pageText string, now time.Time) *Sale {
	if regular <= 0 || current <= 0 || regular <= current {
		return nil
	}

	percent := int(math.Round((1 - float64(current)/float64(regular)) * 100))

	return &Sale{
		RegularPrice:    regular,
		SalePrice:       current,
		DiscountPercent: percent,
		EndAt:           parseEndDate(pageText, now),
	}
}

// parseEndDate tries the end-date tokens in fixed order; the first match
// wins, and no match means an open-ended sale.
func parseEndDate(text string, now time.Time) *time.Time {
	// full dates are checked before month/day so "2023/08/31まで" is not
	// half-consumed by the short pattern
	if m := fullDatePattern.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return endOfDay(year, month, day, now)
	}

	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		end := endOfDay(now.Year(), month, day, now)
		// a month/day already behind us means next year
		if end != nil && end.Before(now) {
			end = endOfDay(now.Year()+1, month, day, now)
		}
		return end
	}

	if m := countdownPattern.FindStringSubmatch(text); m != nil {
		days, _ := strconv.Atoi(m[1])
		hours, _ := strconv.Atoi(m[2])
		end := now.Add(time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour)
		return &end
	}

	if m := bannerPattern.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		end := endOfDay(now.Year(), month, day, now)
		if end != nil && end.Before(now) {
			end = endOfDay(now.Year()+1, month, day, now)
		}
		return end
	}

	return nil
}

func endOfDay(year, month, day int, now time.Time) *time.Time {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 23, 59, 59, 0, now.Location())
	return &t
}
