package identity

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"sjsage522/productworker/logger"
	"sjsage522/productworker/pkg/errors"
)

var (
	separatorPattern = regexp.MustCompile(`[-_ /]`)
	// FANZA content IDs embed a distribution prefix before the label code,
	// e.g. 118abp123 or h_086mild777re01. The label code is the stable part.
	fanzaCidPattern = regexp.MustCompile(`^(?:h_)?[0-9]{3,4}([a-z]{2,}[0-9].*)$`)
	codePattern     = regexp.MustCompile(`^([a-z]+)([0-9]+)`)
)

// NormalizeProductID derives the canonical product key from a source name
// and a source-local identifier. It is a pure function: case variants and
// separator variants of the same code always produce the same key, so the
// canonical identity is stable before any row exists.
func NormalizeProductID(source, localID string) string {
	code := strings.ToLower(strings.TrimSpace(localID))
	code = separatorPattern.ReplaceAllString(code, "")

	if source == "fanza" {
		if m := fanzaCidPattern.FindStringSubmatch(code); m != nil {
			code = m[1]
		}
	}

	return code
}

// SplitCode splits a normalized code into its alphabetic label prefix and
// numeric part. Returns ok=false when the code does not follow the usual
// label+number shape.
func SplitCode(code string) (prefix string, number string, ok bool) {
	m := codePattern.FindStringSubmatch(strings.ToLower(code))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// DisplayCode renders a normalized code in the conventional hyphenated
// uppercase form, e.g. abp123 -> ABP-123.
func DisplayCode(code string) string {
	prefix, number, ok := SplitCode(code)
	if !ok {
		return strings.ToUpper(code)
	}
	number = strings.TrimLeft(number, "0")
	if number == "" {
		number = "0"
	}
	return strings.ToUpper(prefix) + "-" + number
}

// nonNameTokens are strings that show up where performer names are expected
// but are never actual names: genre labels, availability text, UI chrome.
var nonNameTokens = map[string]bool{
	"素人":     true,
	"企画":     true,
	"単体作品":   true,
	"複数":     true,
	"その他":    true,
	"不明":     true,
	"名前":     true,
	"出演者":    true,
	"---":    true,
	"…":      true,
	"n/a":    true,
	"unknown": true,
}

// structuralRunes inside a candidate name indicate markup or annotations
// rather than a person's name.
const structuralRunes = "()（）[]【】<>《》「」/\\|:;=?？!！#@*※■◆●★☆"

// IsValidPerformerName reports whether a raw string is plausibly a
// performer name at all, independent of any product context.
func IsValidPerformerName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	runes := []rune(name)
	if len(runes) < 2 || len(runes) > 25 {
		return false
	}
	if nonNameTokens[strings.ToLower(name)] {
		return false
	}
	if strings.ContainsAny(name, structuralRunes) {
		return false
	}
	for _, r := range runes {
		if unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// NameFitsProduct applies the contextual check: a candidate name scraped
// off a detail page must not simply repeat the product title or its code.
func NameFitsProduct(name, productTitle, productCode string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if productTitle != "" && strings.EqualFold(name, strings.TrimSpace(productTitle)) {
		return false
	}
	if productCode != "" && strings.EqualFold(separatorPattern.ReplaceAllString(name, ""), productCode) {
		return false
	}
	return true
}

// PerformerStore is the subset of the writer the resolver needs.
type PerformerStore interface {
	FindPerformerByName(ctx context.Context, name string) (int64, bool, error)
	CreatePerformer(ctx context.Context, name string) (int64, error)
}

// StagingLookup resolves a product code to a wiki-sourced candidate name.
type StagingLookup interface {
	StagedNameForCode(ctx context.Context, code string) (string, bool, error)
}

// Resolver maps raw scraped names to canonical performer rows. Wiki data
// has priority: when the staging table holds a name for the product's code,
// that name replaces whatever the detail page said.
type Resolver struct {
	store   PerformerStore
	staging StagingLookup
	log     *logger.Logger
}

// NewResolver creates a resolver
func NewResolver(store PerformerStore, staging StagingLookup) *Resolver {
	return &Resolver{
		store:   store,
		staging: staging,
		log:     logger.ForStore(),
	}
}

// ResolvePerformer resolves a raw on-page name in the context of a product
// into a performer row ID, creating the row when no exact match exists.
func (r *Resolver) ResolvePerformer(ctx context.Context, rawName, productCode, productTitle string) (int64, error) {
	name := strings.TrimSpace(rawName)
	if !IsValidPerformerName(name) {
		return 0, errors.NewValidation("", "implausible performer name: "+rawName)
	}
	if !NameFitsProduct(name, productTitle, productCode) {
		return 0, errors.NewValidation("", "name does not fit product context: "+rawName)
	}

	// Wiki data overrides on-page text when it disagrees.
	if r.staging != nil && productCode != "" {
		staged, ok, err := r.staging.StagedNameForCode(ctx, productCode)
		if err != nil {
			r.log.Warn().Err(err).Str("code", productCode).Msg("Staging lookup failed, using on-page name")
		} else if ok && staged != "" && staged != name {
			r.log.Debug().
				Str("code", productCode).
				Str("page_name", name).
				Str("wiki_name", staged).
				Msg("Wiki name takes priority over page name")
			name = staged
		}
	}

	id, found, err := r.store.FindPerformerByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	return r.store.CreatePerformer(ctx, name)
}
