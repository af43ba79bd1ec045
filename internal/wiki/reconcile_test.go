package wiki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/productworker/internal/store"
)

type fakeReconcileStore struct {
	staging    []store.StagingRow
	products   map[string]int64 // code -> id
	performers map[string]int64
	nextID     int64
	links      map[[2]int64]bool
	processed  map[int64]bool
}

func newFakeReconcileStore() *fakeReconcileStore {
	return &fakeReconcileStore{
		products:   map[string]int64{},
		performers: map[string]int64{},
		nextID:     100,
		links:      map[[2]int64]bool{},
		processed:  map[int64]bool{},
	}
}

func (f *fakeReconcileStore) UnprocessedStaging(_ context.Context, limit int) ([]store.StagingRow, error) {
	var out []store.StagingRow
	for _, r := range f.staging {
		if !f.processed[r.ID] {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeReconcileStore) FindProductBySimilarCode(_ context.Context, code string) (int64, string, bool, error) {
	if id, ok := f.products[code]; ok {
		return id, "", true, nil
	}
	for stored, id := range f.products {
		if len(stored) > len(code) && stored[len(stored)-len(code):] == code {
			return id, "", true, nil
		}
	}
	return 0, "", false, nil
}

func (f *fakeReconcileStore) FindPerformerByName(_ context.Context, name string) (int64, bool, error) {
	id, ok := f.performers[name]
	return id, ok, nil
}

func (f *fakeReconcileStore) CreatePerformer(_ context.Context, name string) (int64, error) {
	f.nextID++
	f.performers[name] = f.nextID
	return f.nextID, nil
}

func (f *fakeReconcileStore) LinkPerformer(_ context.Context, productID, performerID int64) error {
	f.links[[2]int64{productID, performerID}] = true
	return nil
}

func (f *fakeReconcileStore) MarkStagingProcessed(_ context.Context, id int64) error {
	f.processed[id] = true
	return nil
}

func TestReconcileLinksStagedNames(t *testing.T) {
	s := newFakeReconcileStore()
	s.products["abp123"] = 1
	s.staging = []store.StagingRow{
		{ID: 10, Site: "av-wiki", ProductCode: "abp123", PerformerName: "深田えいみ"},
	}

	sum, err := NewReconciler(s).Run(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Linked)
	performerID := s.performers["深田えいみ"]
	assert.True(t, s.links[[2]int64{1, performerID}], "performer linked to product")
	assert.True(t, s.processed[10], "row stamped processed")
}

func TestReconcileMatchesPrefixedCodes(t *testing.T) {
	s := newFakeReconcileStore()
	s.products["300mium300"] = 2
	s.staging = []store.StagingRow{
		{ID: 11, Site: "shiroutoname", ProductCode: "mium300", PerformerName: "三上悠亜"},
	}

	sum, err := NewReconciler(s).Run(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Linked)
	assert.True(t, s.links[[2]int64{2, s.performers["三上悠亜"]}])
}

func TestReconcileLeavesUnmatchedRowsPending(t *testing.T) {
	s := newFakeReconcileStore()
	s.staging = []store.StagingRow{
		{ID: 12, Site: "av-wiki", ProductCode: "zzz999", PerformerName: "深田えいみ"},
	}

	sum, err := NewReconciler(s).Run(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Pending)
	assert.False(t, s.processed[12], "row stays for a later pass")
	assert.Empty(t, s.links)
}

func TestReconcileRetiresInvalidNames(t *testing.T) {
	s := newFakeReconcileStore()
	s.products["abp123"] = 1
	s.staging = []store.StagingRow{
		{ID: 13, Site: "av-wiki", ProductCode: "abp123", PerformerName: "素人"},
	}

	sum, err := NewReconciler(s).Run(context.Background(), 100)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Skipped)
	assert.True(t, s.processed[13], "invalid row retired, not retried forever")
	assert.Empty(t, s.links)
}

func TestReconcileReusesExistingPerformer(t *testing.T) {
	s := newFakeReconcileStore()
	s.products["abp123"] = 1
	s.performers["深田えいみ"] = 55
	s.staging = []store.StagingRow{
		{ID: 14, Site: "av-wiki", ProductCode: "abp123", PerformerName: "深田えいみ"},
	}

	_, err := NewReconciler(s).Run(context.Background(), 100)
	require.NoError(t, err)

	assert.True(t, s.links[[2]int64{1, 55}], "existing performer row reused")
	assert.Equal(t, int64(55), s.performers["深田えいみ"], "no duplicate created")
}
