package wiki

import (
	"regexp"
	"strings"

	"sjsage522/productworker/internal/identity"
)

// excludedTerms are strings the auxiliary sites mix into the same DOM
// slots as performer names: genre labels, UI chrome, emoticons and other
// known non-name tokens. Comparison is done on the trimmed lowercase term.
var excludedTerms = map[string]bool{
	"素人":      true,
	"人妻":      true,
	"熟女":      true,
	"巨乳":      true,
	"美少女":     true,
	"単体作品":    true,
	"中出し":     true,
	"ハメ撮り":    true,
	"ナンパ":     true,
	"前へ":      true,
	"次へ":      true,
	"一覧":      true,
	"ホーム":     true,
	"検索":      true,
	"シェアする":   true,
	"ツイート":    true,
	"コメント":    true,
	"関連記事":    true,
	"続きを読む":   true,
	"(^^)":    true,
	"(^_^)":   true,
	"m(__)m":  true,
	"＼(^o^)／": true,
	"名前":      true,
	"不明":      true,
	"調査中":     true,
}

var (
	// product codes as they appear in wiki titles and body text
	codeTokenPattern = regexp.MustCompile(`([A-Za-z]{2,6})[-_ ]?([0-9]{2,5})`)
	// "名前：深田えいみ" style labeled lines
	labeledNamePattern = regexp.MustCompile(`(?:名前|女優名|出演者?)[：:]\s*([^\s　、,]{2,25})`)
)

// ExtractCode pulls the first product-code-shaped token out of text and
// returns it normalized. ok is false when no token is present.
func ExtractCode(text string) (string, bool) {
	m := codeTokenPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]) + m[2], true
}

// CleanCandidate trims a scraped string and decides whether it could be a
// performer name: exclusion terms and implausible strings are dropped.
func CleanCandidate(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	name = strings.Trim(name, "「」『』()（）")
	if name == "" {
		return "", false
	}
	if excludedTerms[strings.ToLower(name)] {
		return "", false
	}
	if !identity.IsValidPerformerName(name) {
		return "", false
	}
	return name, true
}

// LabeledNames extracts names from "名前：〜" style lines in free text.
func LabeledNames(text string) []string {
	var names []string
	for _, m := range labeledNamePattern.FindAllStringSubmatch(text, -1) {
		if name, ok := CleanCandidate(m[1]); ok {
			names = append(names, name)
		}
	}
	return names
}
