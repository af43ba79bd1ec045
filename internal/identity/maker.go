package identity

import (
	"fmt"
)

// MakerInfo unifies the studio identity behind a product-code prefix:
// maker name, label path used in image URLs, and a coarse category.
type MakerInfo struct {
	Maker    string
	Label    string
	Category string
}

// makerPrefixes maps the alphabetic prefix of a product code to its
// unified maker. The table is static; unknown prefixes simply yield no
// maker metadata.
var makerPrefixes = map[string]MakerInfo{
	"abp":   {Maker: "プレステージ", Label: "ABSOLUTELY PERFECT", Category: "単体"},
	"abw":   {Maker: "プレステージ", Label: "ABSOLUTELY WONDERFUL", Category: "単体"},
	"chn":   {Maker: "プレステージ", Label: "新・絶対的美少女", Category: "単体"},
	"sga":   {Maker: "プレステージ", Label: "真・素人娘", Category: "素人"},
	"ssis":  {Maker: "エスワン", Label: "S1 NO.1 STYLE", Category: "単体"},
	"ssni":  {Maker: "エスワン", Label: "S1 NO.1 STYLE", Category: "単体"},
	"mide":  {Maker: "ムーディーズ", Label: "MOODYZ DIVA", Category: "単体"},
	"midv":  {Maker: "ムーディーズ", Label: "MOODYZ DIVA", Category: "単体"},
	"ipx":   {Maker: "アイデアポケット", Label: "IDEA POCKET", Category: "単体"},
	"ipzz":  {Maker: "アイデアポケット", Label: "IDEA POCKET", Category: "単体"},
	"stars": {Maker: "SODクリエイト", Label: "SODstar", Category: "単体"},
	"start": {Maker: "SODクリエイト", Label: "SODstar", Category: "単体"},
	"sdab":  {Maker: "SODクリエイト", Label: "青春時代", Category: "単体"},
	"mium":  {Maker: "プレステージプレミアム", Label: "シロウトTV", Category: "素人"},
	"siro":  {Maker: "プレステージプレミアム", Label: "シロウトTV", Category: "素人"},
	"luxu":  {Maker: "ラグジュTV", Label: "ラグジュTV", Category: "素人"},
	"gana":  {Maker: "ナンパTV", Label: "マジ軟派、初撮。", Category: "素人"},
	"fsdss": {Maker: "FALENO", Label: "FALENOstar", Category: "単体"},
	"cawd":  {Maker: "kawaii", Label: "kawaii*", Category: "単体"},
	"wanz":  {Maker: "ワンズファクトリー", Label: "WANZ", Category: "単体"},
	"jul":   {Maker: "Madonna", Label: "Madonna", Category: "人妻"},
	"juq":   {Maker: "Madonna", Label: "Madonna", Category: "人妻"},
	"meyd":  {Maker: "溜池ゴロー", Label: "溜池ゴロー", Category: "人妻"},
}

// LookupMaker resolves a normalized product code to its maker identity.
func LookupMaker(code string) (MakerInfo, bool) {
	prefix, _, ok := SplitCode(code)
	if !ok {
		return MakerInfo{}, false
	}
	info, ok := makerPrefixes[prefix]
	return info, ok
}

// SynthesizeCoverURL builds the conventional package-image URL for a code
// when the detail page itself provided none. Only codes with a known maker
// get a synthesized URL; anything else returns an empty string.
func SynthesizeCoverURL(code string) string {
	prefix, number, ok := SplitCode(code)
	if !ok {
		return ""
	}
	if _, known := makerPrefixes[prefix]; !known {
		return ""
	}
	for len(number) < 5 {
		number = "0" + number
	}
	cid := prefix + number
	return fmt.Sprintf("https://pics.dmm.co.jp/digital/video/%s/%spl.jpg", cid, cid)
}
