package local_fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_PutCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	client, err := NewClient(&Config{SavePath: dir})
	require.NoError(t, err)

	key, err := client.Put(context.Background(), "2026/10/diagram.png", []byte("hello content"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "2026/10/diagram.png", key)

	got, err := os.ReadFile(filepath.Join(dir, "2026", "10", "diagram.png"))
	require.NoError(t, err)
	assert.Equal(t, "hello content", string(got))

	// overwrite keeps the latest content
	_, err = client.Put(context.Background(), "2026/10/diagram.png", []byte("v2"), "image/png")
	require.NoError(t, err)
	got, _ = os.ReadFile(filepath.Join(dir, "2026", "10", "diagram.png"))
	assert.Equal(t, "v2", string(got))
}

func TestLocalFS_DeleteMissingIsNoop(t *testing.T) {
	client, err := NewClient(&Config{SavePath: t.TempDir(), CustomPath: "images"})
	require.NoError(t, err)
	assert.NoError(t, client.Delete(context.Background(), "nothing.png"))
}

func TestLocalFS_CancelledContext(t *testing.T) {
	client, err := NewClient(&Config{SavePath: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Put(ctx, "a.png", []byte("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_RequiresSavePath(t *testing.T) {
	_, err := NewClient(&Config{})
	assert.Error(t, err)
}
