package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ProductLD is the subset of schema.org product/video markup the sources
// embed. Fields the sites leave out simply stay zero.
type ProductLD struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Image           stringList `json:"image"`
	Duration        string     `json:"duration"`
	DateCreated     string     `json:"dateCreated"`
	UploadDate      string     `json:"uploadDate"`
	Actor           actorList  `json:"actor"`
	Genre           stringList `json:"genre"`
	Offers          *offerLD   `json:"offers"`
	AggregateRating *ratingLD  `json:"aggregateRating"`
}

type offerLD struct {
	Price    flexNumber `json:"price"`
	Currency string     `json:"priceCurrency"`
}

type ratingLD struct {
	RatingValue flexNumber `json:"ratingValue"`
	ReviewCount flexNumber `json:"reviewCount"`
}

// flexNumber tolerates the numeric sloppiness of real-world structured
// data, where "1980" and 1980 are both common. Unparseable values decode
// to zero instead of failing the whole block.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(f)
	return nil
}

// actorList tolerates the three shapes sites use for actor: a single
// object, an array of objects, or a plain string.
type actorList []string

func (a *actorList) UnmarshalJSON(data []byte) error {
	var one struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &one); err == nil && one.Name != "" {
		*a = []string{one.Name}
		return nil
	}

	var many []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &many); err == nil {
		names := make([]string, 0, len(many))
		for _, m := range many {
			if m.Name != "" {
				names = append(names, m.Name)
			}
		}
		*a = names
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			*a = []string{s}
		}
		return nil
	}

	// unknown shape: leave empty rather than failing the whole block
	*a = nil
	return nil
}

// stringList tolerates a single string or an array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "" {
			*l = []string{s}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}

	*l = nil
	return nil
}

// ParseJSONLD decodes the first ld+json block in the document that looks
// like a product or video object. Malformed blocks are skipped, not fatal.
func ParseJSONLD(doc *goquery.Document) *ProductLD {
	var found *ProductLD
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		var ld ProductLD
		if err := json.Unmarshal([]byte(raw), &ld); err != nil {
			return true
		}
		if ld.Name == "" {
			return true
		}

		found = &ld
		return false
	})
	return found
}

// PriceYen returns the offer price as integer yen, 0 when absent.
func (ld *ProductLD) PriceYen() int {
	if ld == nil || ld.Offers == nil {
		return 0
	}
	return int(ld.Offers.Price)
}

// Rating returns the aggregate rating value and count, zeros when absent.
func (ld *ProductLD) Rating() (float64, int) {
	if ld == nil || ld.AggregateRating == nil {
		return 0, 0
	}
	return float64(ld.AggregateRating.RatingValue), int(ld.AggregateRating.ReviewCount)
}
