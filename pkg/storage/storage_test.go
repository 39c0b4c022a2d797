package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/haierkeys/omni-blogger/pkg/storage"
	"github.com/haierkeys/omni-blogger/pkg/storage/aws_s3"
	"github.com/haierkeys/omni-blogger/pkg/storage/local_fs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Local(t *testing.T) {
	dir := t.TempDir()
	client, err := storage.NewClient(&storage.Config{
		Type:       storage.LOCAL,
		SavePath:   dir,
		CustomPath: "images",
	}, nil)
	require.NoError(t, err)
	require.IsType(t, &local_fs.LocalFS{}, client)

	key, err := client.Put(context.Background(), "cat.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "images/cat.png", key)

	data, err := os.ReadFile(filepath.Join(dir, "images", "cat.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, client.Delete(context.Background(), "cat.png"))
	_, err = os.Stat(filepath.Join(dir, "images", "cat.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewClient_S3Family(t *testing.T) {
	for _, typ := range []storage.Type{storage.S3, storage.R2, storage.MinIO} {
		t.Run(typ, func(t *testing.T) {
			client, err := storage.NewClient(&storage.Config{
				Type:            typ,
				Region:          "us-east-1",
				Endpoint:        "http://127.0.0.1:9000",
				AccountID:       "acc",
				BucketName:      "blog",
				AccessKeyID:     "id",
				AccessKeySecret: "secret",
			}, nil)
			require.NoError(t, err)
			assert.IsType(t, &aws_s3.S3{}, client)
		})
	}
}

func TestNewClient_Invalid(t *testing.T) {
	_, err := storage.NewClient(&storage.Config{Type: "invalid"}, nil)
	assert.Error(t, err)

	_, err = storage.NewClient(nil, nil)
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "", storage.PublicURL(&storage.Config{}, "images/a.png"))
	assert.Equal(t, "https://cdn.example.com/images/a.png",
		storage.PublicURL(&storage.Config{PublicURL: "https://cdn.example.com/"}, "/images/a.png"))
}
