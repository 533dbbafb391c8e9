package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:4000/files/")
	require.NoError(t, err)

	url, err := store.Put(ctx, "abc/my file.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000/files/abc/my%20file.pdf", url)

	body, err := os.ReadFile(filepath.Join(dir, "abc", "my file.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))

	require.NoError(t, store.Delete(ctx, "abc/my file.pdf"))
	_, err = os.Stat(filepath.Join(dir, "abc", "my file.pdf"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, "abc/my file.pdf"), "deleting a missing object is not an error")
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://localhost/files")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../outside.pdf", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
	_, err = store.Put(context.Background(), "", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
}
