package service

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/omni-blogger/internal/dao"
	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/contentapi"
	"github.com/haierkeys/omni-blogger/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBuilder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (b *countingBuilder) Build(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return b.err
}

func (b *countingBuilder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type postFixture struct {
	repo    *dao.GitPostRepository
	builder *countingBuilder
	svc     PostService
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	wq := writequeue.New(nil, nil)
	t.Cleanup(func() { _ = wq.Shutdown(context.Background()) })

	repo := dao.NewGitPostRepository(dao.WorkspaceConfig{
		Path:      filepath.Join(t.TempDir(), "blog"),
		PostsDir:  "content/posts",
		ImagesDir: "static/images",
		Git:       dao.GitConfig{AuthorName: "tester", AuthorEmail: "tester@localhost"},
	}, wq, nil)
	require.NoError(t, repo.Prepare(context.Background()))

	b := &countingBuilder{}
	svc := NewPostService(repo, NewMediaService(nil, nil, nil, nil), b, &BlogServiceConfig{
		URL:    "https://blog.example",
		APIURL: "https://api.example",
	}, nil)
	return &postFixture{repo: repo, builder: b, svc: svc}
}

const samplePost = "---\ntitle: \"Hello World\"\ndate: 2024-03-01T08:00:00.000Z\ndraft: false\ntags: [\"go\", \"web\"]\n---\n\nHi **there**"

func TestPostServiceCreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture(t)

	png := base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})
	res, err := f.svc.Create(ctx, &contentapi.CreateRequest{
		Filename: "hello-world.md",
		Content:  samplePost,
		Images:   []contentapi.Image{{Filename: "cat.png", Content: "data:image/png;base64," + png}},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Post published successfully", res.Message)
	assert.Equal(t, "hello-world.md", res.Filename)
	assert.Equal(t, dao.Version([]byte(samplePost)), res.Version)
	assert.Equal(t, 1, res.ImagesUploaded)
	assert.Equal(t, 1, f.builder.count())

	img, err := os.ReadFile(filepath.Join(f.repo.Workspace(), "static", "images", "cat.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img)

	msg, err := f.repo.HeadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Add post: hello-world", msg)

	post, err := f.svc.Get(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, "Hi **there**", post.Content)
	assert.Equal(t, "Hello World", post.FrontMatter.Title)
	assert.Equal(t, []string{"go", "web"}, post.FrontMatter.Tags)
	assert.Equal(t, res.Version, post.Version)

	_, err = f.svc.Get(ctx, "missing")
	assert.True(t, errors.Is(err, code.ErrorPostNotFound))
}

func TestPostServiceCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture(t)

	_, err := f.svc.Create(ctx, &contentapi.CreateRequest{Filename: "hello.txt", Content: "x"})
	assert.True(t, errors.Is(err, code.ErrorPostFilenameInvalid))

	_, err = f.svc.Create(ctx, &contentapi.CreateRequest{Filename: "../x.md", Content: "x"})
	assert.True(t, errors.Is(err, code.ErrorPostFilenameInvalid))

	_, err = f.svc.Create(ctx, &contentapi.CreateRequest{Filename: "ok.md", Content: "  "})
	assert.True(t, errors.Is(err, code.ErrorInvalidParams))

	_, err = f.svc.Create(ctx, &contentapi.CreateRequest{
		Filename: "ok.md",
		Content:  "x",
		Images:   []contentapi.Image{{Filename: "evil.exe", Content: "AAAA"}},
	})
	assert.True(t, errors.Is(err, code.ErrorImageInvalid))

	_, err = f.svc.Create(ctx, &contentapi.CreateRequest{
		Filename: "ok.md",
		Content:  "x",
		Images:   []contentapi.Image{{Filename: "a.png", Content: "%%%"}},
	})
	assert.True(t, errors.Is(err, code.ErrorImageInvalid))
	assert.Equal(t, 0, f.builder.count())
}

func TestPostServiceUpdateConflictAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture(t)

	created, err := f.svc.Create(ctx, &contentapi.CreateRequest{Filename: "p.md", Content: samplePost})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, "p", &contentapi.UpdateRequest{Content: "new", Version: "stale"})
	assert.True(t, errors.Is(err, code.ErrorPostConflict))

	upd, err := f.svc.Update(ctx, "p", &contentapi.UpdateRequest{Content: "new", Version: created.Version})
	require.NoError(t, err)
	assert.True(t, upd.Success)
	assert.Equal(t, dao.Version([]byte("new")), upd.NewVersion)

	msg, err := f.repo.HeadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Update post: p", msg)

	// 旧版本不能再用于更新或删除
	_, err = f.svc.Update(ctx, "p", &contentapi.UpdateRequest{Content: "newer", Version: created.Version})
	assert.True(t, errors.Is(err, code.ErrorPostConflict))
	assert.True(t, errors.Is(f.svc.Delete(ctx, "p", created.Version), code.ErrorPostConflict))

	require.NoError(t, f.svc.Delete(ctx, "p", upd.NewVersion))
	msg, err = f.repo.HeadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Delete post: p", msg)

	assert.True(t, errors.Is(f.svc.Delete(ctx, "p", upd.NewVersion), code.ErrorPostNotFound))
	_, err = f.svc.Update(ctx, "p", &contentapi.UpdateRequest{Content: "x", Version: upd.NewVersion})
	assert.True(t, errors.Is(err, code.ErrorPostNotFound))

	assert.True(t, errors.Is(f.svc.Delete(ctx, "p", ""), code.ErrorInvalidParams))
}

func TestPostServiceBuildFailureSurfaces(t *testing.T) {
	f := newPostFixture(t)
	f.builder.err = code.ErrorBuildFailed.WithDetails("boom")

	_, err := f.svc.Create(context.Background(), &contentapi.CreateRequest{Filename: "p.md", Content: "x"})
	assert.True(t, errors.Is(err, code.ErrorBuildFailed))
}

func TestPostServiceListOrder(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture(t)

	older := "---\ntitle: \"Older\"\ndate: 2024-01-01T00:00:00.000Z\n---\n\nold body"
	newer := "---\ntitle: \"Newer\"\ndate: 2024-06-01T00:00:00.000Z\ntags: [\"x\"]\n---\n\nnew body"
	for name, content := range map[string]string{"older.md": older, "newer.md": newer} {
		_, err := f.svc.Create(ctx, &contentapi.CreateRequest{Filename: name, Content: content})
		require.NoError(t, err)
	}
	// 无头部的文章回退到 slug 与文件修改时间
	_, err := f.svc.Create(ctx, &contentapi.CreateRequest{Filename: "plain.md", Content: "just text"})
	require.NoError(t, err)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "plain", list[0].Slug)
	assert.Equal(t, "plain", list[0].Title)
	assert.Equal(t, []string{}, list[0].Tags)
	assert.WithinDuration(t, time.Now(), list[0].Date, time.Hour)

	assert.Equal(t, "newer", list[1].Slug)
	assert.Equal(t, "Newer", list[1].Title)
	assert.Equal(t, []string{"x"}, list[1].Tags)
	assert.Equal(t, "new body", list[1].Excerpt)

	assert.Equal(t, "older", list[2].Slug)
}

func TestPostServiceSiteConfig(t *testing.T) {
	f := newPostFixture(t)
	rc := f.svc.SiteConfig()
	assert.Equal(t, "https://blog.example", rc.BlogURL)
	assert.Equal(t, "https://api.example", rc.APIURL)
}
