package utils

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technova/config"
)

func TestDiskStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()

	storage, err := NewStorage(config.StorageConfig{
		Backend:   "disk",
		LocalDir:  dir,
		PublicURL: "/uploads",
	})
	require.NoError(t, err)

	url, err := storage.Upload("My Report.PDF", strings.NewReader("%PDF-content"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".pdf"), "extension should be kept, lowercased: %s", url)
	assert.NotContains(t, url, "My Report", "original file name must not leak")

	data, err := os.ReadFile(filepath.Join(dir, path.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-content", string(data))

	require.NoError(t, storage.Delete(url))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewStorageUnknownBackend(t *testing.T) {
	_, err := NewStorage(config.StorageConfig{Backend: "carrier-pigeon"})
	assert.Error(t, err)
}
