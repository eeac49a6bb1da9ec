package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/libraryhub/internal/storage"
)

func TestClient_RoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	c, err := NewClient(root)
	require.NoError(t, err)

	require.NoError(t, c.Upload(ctx, "snapshots/one.json", strings.NewReader(`{"a":1}`)))
	require.NoError(t, c.Upload(ctx, "snapshots/two.json", strings.NewReader(`{"b":2}`)))
	require.NoError(t, c.Upload(ctx, "other/three.json", strings.NewReader(`{}`)))

	files, err := c.List(ctx, "snapshots/")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "snapshots/one.json", files[0].Path)
	assert.Equal(t, int64(7), files[0].Size)

	rc, err := c.Download(ctx, "snapshots/two.json")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, `{"b":2}`, string(data))

	meta, err := c.GetMetadata(ctx, "snapshots/one.json")
	require.NoError(t, err)
	assert.Len(t, meta.ContentHash, 64)

	exists, err := c.Exists(ctx, "snapshots/one.json")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "snapshots/one.json"))
	require.NoError(t, c.Delete(ctx, "snapshots/one.json"))
	exists, err = c.Exists(ctx, "snapshots/one.json")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = c.Download(ctx, "snapshots/one.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	target := filepath.Join(t.TempDir(), "restored", "two.json")
	require.NoError(t, storage.DownloadToFile(ctx, c, "snapshots/two.json", target))
	restored, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(restored))
}

func TestClient_PathsStayUnderRoot(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	c, err := NewClient(root)
	require.NoError(t, err)

	require.NoError(t, c.Upload(ctx, "../escape.json", strings.NewReader("x")))
	_, err = os.Stat(filepath.Join(parent, "escape.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "escape.json"))
	assert.NoError(t, err)

	assert.ErrorIs(t, c.Upload(ctx, "", strings.NewReader("x")), ErrInvalidPath)
}
