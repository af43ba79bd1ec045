package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProductIDDeterminism(t *testing.T) {
	// case and separator variants of the same code collapse to one key
	a := NormalizeProductID("mgs", "abc-123")
	b := NormalizeProductID("mgs", "ABC123")
	c := NormalizeProductID("mgs", "Abc_123")
	assert.Equal(t, "abc123", a)
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestNormalizeProductIDStripsFanzaPrefix(t *testing.T) {
	assert.Equal(t, "abp123", NormalizeProductID("fanza", "118abp123"))
	assert.Equal(t, "mild777re01", NormalizeProductID("fanza", "h_086mild777re01"))
	// codes without a distribution prefix pass through
	assert.Equal(t, "ssis001", NormalizeProductID("fanza", "SSIS-001"))
}

func TestSplitAndDisplayCode(t *testing.T) {
	prefix, number, ok := SplitCode("abp00123")
	require.True(t, ok)
	assert.Equal(t, "abp", prefix)
	assert.Equal(t, "00123", number)

	assert.Equal(t, "ABP-123", DisplayCode("abp00123"))
	assert.Equal(t, "SSIS-1", DisplayCode("ssis001"))
	assert.Equal(t, "300MIUM", DisplayCode("300mium")) // no label+number shape
}

func TestIsValidPerformerName(t *testing.T) {
	valid := []string{"深田えいみ", "Jane Doe", "三上悠亜"}
	for _, name := range valid {
		assert.True(t, IsValidPerformerName(name), "expected valid: %q", name)
	}

	invalid := []string{
		"",
		"あ",                 // too short
		"素人",                // non-name token
		"深田えいみ（単体作品）",      // structural punctuation
		"abc123",            // digits
		"これはとても長い名前でありえないはずのもの超過超過超過", // too long
	}
	for _, name := range invalid {
		assert.False(t, IsValidPerformerName(name), "expected invalid: %q", name)
	}
}

func TestNameFitsProduct(t *testing.T) {
	assert.True(t, NameFitsProduct("深田えいみ", "新人デビュー作品", "abp123"))
	assert.False(t, NameFitsProduct("新人デビュー作品", "新人デビュー作品", "abp123"), "name equal to title is rejected")
	assert.False(t, NameFitsProduct("ABP-123", "新人デビュー作品", "abp123"), "name equal to code is rejected")
}

// fakePerformerStore backs the resolver with a map
type fakePerformerStore struct {
	byName map[string]int64
	nextID int64
}

func newFakePerformerStore() *fakePerformerStore {
	return &fakePerformerStore{byName: make(map[string]int64), nextID: 1}
}

func (s *fakePerformerStore) FindPerformerByName(_ context.Context, name string) (int64, bool, error) {
	id, ok := s.byName[name]
	return id, ok, nil
}

func (s *fakePerformerStore) CreatePerformer(_ context.Context, name string) (int64, error) {
	id := s.nextID
	s.nextID++
	s.byName[name] = id
	return id, nil
}

type fakeStaging struct {
	byCode map[string]string
}

func (s *fakeStaging) StagedNameForCode(_ context.Context, code string) (string, bool, error) {
	name, ok := s.byCode[code]
	return name, ok, nil
}

func TestResolvePerformerExactMatchWins(t *testing.T) {
	store := newFakePerformerStore()
	store.byName["深田えいみ"] = 42
	r := NewResolver(store, &fakeStaging{byCode: map[string]string{}})

	id, err := r.ResolvePerformer(context.Background(), "深田えいみ", "abp123", "タイトル")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestResolvePerformerCreatesWhenMissing(t *testing.T) {
	store := newFakePerformerStore()
	r := NewResolver(store, &fakeStaging{byCode: map[string]string{}})

	id, err := r.ResolvePerformer(context.Background(), "三上悠亜", "ssis001", "タイトル")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	// resolving again returns the same row
	again, err := r.ResolvePerformer(context.Background(), "三上悠亜", "ssis001", "タイトル")
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestResolvePerformerWikiPriority(t *testing.T) {
	store := newFakePerformerStore()
	staging := &fakeStaging{byCode: map[string]string{"mium300": "本田みお"}}
	r := NewResolver(store, staging)

	id, err := r.ResolvePerformer(context.Background(), "みおちゃん", "mium300", "タイトル")
	require.NoError(t, err)

	// the staged wiki name, not the on-page nickname, became the row
	stored, found, _ := store.FindPerformerByName(context.Background(), "本田みお")
	assert.True(t, found)
	assert.Equal(t, stored, id)
}

func TestResolvePerformerRejectsInvalid(t *testing.T) {
	r := NewResolver(newFakePerformerStore(), nil)
	_, err := r.ResolvePerformer(context.Background(), "素人", "abp123", "タイトル")
	assert.Error(t, err)
}

func TestLookupMaker(t *testing.T) {
	info, ok := LookupMaker("abp123")
	require.True(t, ok)
	assert.Equal(t, "プレステージ", info.Maker)

	_, ok = LookupMaker("zzzz999")
	assert.False(t, ok)
}

func TestSynthesizeCoverURL(t *testing.T) {
	url := SynthesizeCoverURL("abp123")
	assert.Equal(t, "https://pics.dmm.co.jp/digital/video/abp00123/abp00123pl.jpg", url)

	assert.Empty(t, SynthesizeCoverURL("zzzz999"), "unknown maker yields no synthetic URL")
	assert.Empty(t, SynthesizeCoverURL("no-number"), "codes without numeric part yield nothing")
}
