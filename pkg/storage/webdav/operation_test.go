package webdav

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebdav "golang.org/x/net/webdav"
)

func TestWebDAV_PutAndDelete(t *testing.T) {
	fs := xwebdav.NewMemFS()
	srv := httptest.NewServer(&xwebdav.Handler{FileSystem: fs, LockSystem: xwebdav.NewMemLS()})
	defer srv.Close()

	client, err := NewClient(&Config{Endpoint: srv.URL, CustomPath: "blog/images"})
	require.NoError(t, err)

	key, err := client.Put(context.Background(), "hello.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "blog/images/hello.png", key)

	data, err := client.Client.Read(key)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, client.Delete(context.Background(), "hello.png"))
	_, err = client.Client.Stat(key)
	assert.Error(t, err)
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient(&Config{})
	assert.Error(t, err)
}
