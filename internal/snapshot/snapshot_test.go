package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashStability(t *testing.T) {
	a := ContentHash([]byte("<html>same</html>"))
	b := ContentHash([]byte("<html>same</html>"))
	c := ContentHash([]byte("<html>different</html>"))

	assert.Equal(t, a, b, "identical payloads hash identically")
	assert.NotEqual(t, a, c, "changed payloads change the hash")
	assert.Len(t, a, 64)
}

func TestBlobPathDeterministic(t *testing.T) {
	p1 := BlobPath("/data/snapshots", "fanza", "118abp123")
	p2 := BlobPath("/data/snapshots", "fanza", "118abp123")
	assert.Equal(t, p1, p2)
	assert.Equal(t, filepath.Join("/data/snapshots", "fanza", "118abp123.html"), p1)
}

func TestBlobPathSanitizesKey(t *testing.T) {
	p := BlobPath("/data", "mgs", "300MIUM-300/?x=1")
	assert.NotContains(t, filepath.Base(p), "/")
	assert.NotContains(t, p, "?")
	assert.Equal(t, filepath.Join("/data", "mgs", "300MIUM-300__x_1.html"), p)
}

func TestStorePayloadBlobRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := &Store{blobDir: dir}

	ref, inline, err := s.storePayload("fanza", "abp123", []byte("<html>page</html>"))
	require.NoError(t, err)
	assert.Nil(t, inline, "blob mode must not inline")

	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "<html>page</html>", string(data))

	// overwriting the same page reuses the same path
	ref2, _, err := s.storePayload("fanza", "abp123", []byte("<html>v2</html>"))
	require.NoError(t, err)
	assert.Equal(t, ref, ref2)
}

func TestStorePayloadInlineMode(t *testing.T) {
	s := &Store{blobDir: ""}
	ref, inline, err := s.storePayload("fanza", "abp123", []byte("page"))
	require.NoError(t, err)
	assert.Empty(t, ref)
	assert.Equal(t, []byte("page"), inline)
}
