package extract

import (
	"regexp"
	"strconv"
	"strings"

	"sjsage522/productworker/helpers"
)

// Numeric sanity bounds. Values outside these ranges are almost always
// unrelated numbers picked up by a regex scan, so chains reject them.
const (
	minDurationMin = 1
	maxDurationMin = 600

	minPlausibleYen = 100
	maxPlausibleYen = 100000

	// typicalYen brackets the common commercial price band; used only to
	// rank multiple unlabeled candidates, not to reject a lone match.
	typicalYenLow  = 300
	typicalYenHigh = 10000
)

// ValidDuration reports whether a parsed duration is plausible for a video.
func ValidDuration(minutes int) bool {
	return minutes >= minDurationMin && minutes <= maxDurationMin
}

// ValidPrice reports whether a parsed yen amount is plausible at all.
func ValidPrice(yen int) bool {
	return yen >= minPlausibleYen && yen <= maxPlausibleYen
}

// PickPrice selects one price from multiple unlabeled candidates. Values
// inside the typical commercial band win over outliers; ties go to the
// earliest candidate. Known approximation: legitimately very cheap or very
// expensive items can lose to an in-band unrelated number.
func PickPrice(candidates []int) int {
	var fallback int
	for _, yen := range candidates {
		if !ValidPrice(yen) {
			continue
		}
		if yen >= typicalYenLow && yen <= typicalYenHigh {
			return yen
		}
		if fallback == 0 {
			fallback = yen
		}
	}
	return fallback
}

var (
	durationMinPattern = regexp.MustCompile(`([0-9]{1,3})\s*分`)
	isoDurationPattern = regexp.MustCompile(`PT(?:([0-9]+)H)?(?:([0-9]+)M)?`)
	datePattern        = regexp.MustCompile(`([0-9]{4})[/\-年]\s*([0-9]{1,2})[/\-月]\s*([0-9]{1,2})`)
	// amounts appear both suffixed ("1,980円") and prefixed ("¥1,980")
	yenPattern = regexp.MustCompile(`[¥￥]\s*[0-9][0-9,]*|(?:[0-9]{1,3}(?:,[0-9]{3})*|[0-9]+)\s*円`)
)

// ParseDurationText pulls a minute count out of free text such as
// "収録時間：120分". Returns 0 when nothing plausible is found.
func ParseDurationText(text string) int {
	m := durationMinPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	minutes, _ := strconv.Atoi(m[1])
	if !ValidDuration(minutes) {
		return 0
	}
	return minutes
}

// ParseISODuration parses an ISO-8601 duration like PT2H5M into minutes.
func ParseISODuration(s string) int {
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	total := hours*60 + mins
	if !ValidDuration(total) {
		return 0
	}
	return total
}

// ParseDateText normalizes "2023/04/01", "2023-4-1" or "2023年4月1日" to
// ISO form. Returns "" when no date is present.
func ParseDateText(text string) string {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	year := m[1]
	month := m[2]
	day := m[3]
	if len(month) == 1 {
		month = "0" + month
	}
	if len(day) == 1 {
		day = "0" + day
	}
	return year + "-" + month + "-" + day
}

// ScanYenAmounts finds every yen amount in a blob of text, in order.
func ScanYenAmounts(text string) []int {
	var amounts []int
	for _, m := range yenPattern.FindAllString(text, -1) {
		if yen := helpers.ParseYen(m); yen > 0 {
			amounts = append(amounts, yen)
		}
	}
	return amounts
}

// decorativeAssets are filename substrings that mark buttons, icons and
// other chrome which must never be accepted as sample media.
var decorativeAssets = []string{
	"btn_",
	"button",
	"icon",
	"logo",
	"banner",
	"bnr_",
	"now_printing",
	"nowprinting",
	"dummy",
	"spacer",
	"arrow",
	"play_",
}

// IsDecorativeAsset reports whether a media URL points at site chrome
// rather than an actual sample image or video.
func IsDecorativeAsset(url string) bool {
	lowered := strings.ToLower(url)
	for _, token := range decorativeAssets {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}
