package dao

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDao(t *testing.T) *Dao {
	t.Helper()
	cfg := DatabaseConfig{
		Type:        "sqlite",
		Path:        filepath.Join(t.TempDir(), "db", "test.sqlite3"),
		AutoMigrate: true,
	}
	db, err := NewDBEngineWithConfig(cfg, nil)
	require.NoError(t, err)

	wq := writequeue.New(nil, nil)
	t.Cleanup(func() {
		_ = wq.Shutdown(context.Background())
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	d := New(db, context.Background(), WithConfig(cfg), WithWriteQueueManager(wq))
	require.NoError(t, d.Migrate())
	return d
}

func TestKVRepository(t *testing.T) {
	ctx := context.Background()
	kv := NewKVRepository(newTestDao(t))

	_, found, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Put(ctx, "k", []byte(`{"a":1}`)))
	require.NoError(t, kv.Put(ctx, "k", []byte(`{"a":2}`)))

	v, found, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"a":2}`, string(v))

	require.NoError(t, kv.Delete(ctx, "k"))
	require.NoError(t, kv.Delete(ctx, "k"))
	_, found, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	assert.Error(t, kv.Put(ctx, "", nil))
}

func TestDraftRepository(t *testing.T) {
	ctx := context.Background()
	kv := NewKVRepository(newTestDao(t))
	repo := NewDraftRepository(kv)

	drafts, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	in := []*domain.Document{
		{ID: "draft-1", Title: "Hello", Tags: []string{"go"}, Body: "<p>x</p>", CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, repo.SaveAll(ctx, in))

	raw, found, err := kv.Get(ctx, DraftsKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(raw), `"content":"<p>x</p>"`)
	assert.Contains(t, string(raw), `"createdAt":"2024-05-01T10:00:00Z"`)

	out, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Hello", out[0].Title)
	assert.True(t, now.Equal(out[0].UpdatedAt))

	require.NoError(t, kv.Put(ctx, DraftsKey, []byte("not json")))
	_, err = repo.LoadAll(ctx)
	assert.Error(t, err)
}

func newTestWorkspace(t *testing.T) *GitPostRepository {
	t.Helper()
	wq := writequeue.New(nil, nil)
	t.Cleanup(func() { _ = wq.Shutdown(context.Background()) })

	r := NewGitPostRepository(WorkspaceConfig{
		Path:      filepath.Join(t.TempDir(), "blog"),
		PostsDir:  "content/posts",
		ImagesDir: "static/images",
		Git:       GitConfig{AuthorName: "tester", AuthorEmail: "tester@localhost"},
	}, wq, nil)
	require.NoError(t, r.Prepare(context.Background()))
	return r
}

func TestGitPostRepositoryVersions(t *testing.T) {
	ctx := context.Background()
	r := newTestWorkspace(t)

	_, err := r.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	v1, err := r.Put(ctx, "hello", "first")
	require.NoError(t, err)
	assert.Equal(t, Version([]byte("first")), v1)

	// 重复写入相同内容版本不变
	again, err := r.Put(ctx, "hello", "first")
	require.NoError(t, err)
	assert.Equal(t, v1, again)

	p, err := r.Get(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "first", p.Content)
	assert.Equal(t, v1, p.Version)

	_, err = r.Replace(ctx, "hello", "second", "stale")
	assert.ErrorIs(t, err, domain.ErrVersionMismatch)

	v2, err := r.Replace(ctx, "hello", "second", v1)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)

	assert.ErrorIs(t, r.Remove(ctx, "hello", v1), domain.ErrVersionMismatch)
	require.NoError(t, r.Remove(ctx, "hello", v2))
	assert.ErrorIs(t, r.Remove(ctx, "hello", v2), domain.ErrPostNotFound)

	_, err = r.Replace(ctx, "missing", "x", "y")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestGitPostRepositoryRejectsUnsafeSlug(t *testing.T) {
	ctx := context.Background()
	r := newTestWorkspace(t)

	for _, slug := range []string{"", "../etc", "a/b", ".hidden"} {
		_, err := r.Put(ctx, slug, "x")
		assert.ErrorIs(t, err, domain.ErrInvalidSlug, slug)
	}
}

func TestGitPostRepositoryListAndImages(t *testing.T) {
	ctx := context.Background()
	r := newTestWorkspace(t)

	_, err := r.Put(ctx, "b-post", "b")
	require.NoError(t, err)
	_, err = r.Put(ctx, "a-post", "a")
	require.NoError(t, err)

	posts, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "a-post", posts[0].Slug)
	assert.Equal(t, "b-post", posts[1].Slug)

	paths, err := r.SaveImages(ctx, []domain.Image{{Filename: "cat.png", Data: []byte{1, 2, 3}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"static/images/cat.png"}, paths)

	_, err = r.SaveImages(ctx, []domain.Image{{Filename: "../evil.png", Data: []byte{1}}})
	assert.Error(t, err)
}

func TestGitPostRepositoryCommit(t *testing.T) {
	ctx := context.Background()
	r := newTestWorkspace(t)

	msg, err := r.HeadMessage()
	require.NoError(t, err)
	assert.Empty(t, msg)

	v, err := r.Put(ctx, "hello", "content")
	require.NoError(t, err)
	require.NoError(t, r.Commit(ctx, "Add post: hello", r.PostPath("hello")))

	msg, err = r.HeadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Add post: hello", msg)

	// 无变更时不产生新提交
	require.NoError(t, r.Commit(ctx, "noop", r.PostPath("hello")))
	msg, err = r.HeadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Add post: hello", msg)

	require.NoError(t, r.Remove(ctx, "hello", v))
	require.NoError(t, r.Commit(ctx, "Delete post: hello", r.PostPath("hello")))
	msg, err = r.HeadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Delete post: hello", msg)
}
