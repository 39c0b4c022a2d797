package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/internal/editor"
	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/contentapi"
	apperrors "github.com/haierkeys/omni-blogger/pkg/errors"
	"github.com/haierkeys/omni-blogger/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI 可编排返回值的内容 API
type fakeAPI struct {
	mu      sync.Mutex
	calls   []string
	creates []string
	create  func(n int) (*contentapi.CreateResult, error)
	update  func(n int) (*contentapi.UpdateResult, error)
	fetch   func(slug string) (*contentapi.Post, error)
	del     func(slug, version string) error
	list    []contentapi.PostSummary
	blogURL string
}

func (f *fakeAPI) record(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) Create(_ context.Context, filename, content string, _ ...contentapi.Image) (*contentapi.CreateResult, error) {
	n := f.record("create")
	f.mu.Lock()
	f.creates = append(f.creates, content)
	f.mu.Unlock()
	if f.create != nil {
		return f.create(n)
	}
	return &contentapi.CreateResult{Success: true, Filename: filename, Version: "v1"}, nil
}

func (f *fakeAPI) Update(_ context.Context, _, _, _ string) (*contentapi.UpdateResult, error) {
	n := f.record("update")
	if f.update != nil {
		return f.update(n)
	}
	return &contentapi.UpdateResult{Success: true, NewVersion: "v2"}, nil
}

func (f *fakeAPI) Fetch(_ context.Context, slug string) (*contentapi.Post, error) {
	f.record("fetch")
	if f.fetch != nil {
		return f.fetch(slug)
	}
	return nil, apperrors.New(apperrors.KindNotFound, "not found", nil)
}

func (f *fakeAPI) Delete(_ context.Context, slug, version string) error {
	f.record("delete")
	if f.del != nil {
		return f.del(slug, version)
	}
	return nil
}

func (f *fakeAPI) List(context.Context) ([]contentapi.PostSummary, error) {
	f.record("list")
	return f.list, nil
}

func (f *fakeAPI) Config(context.Context) (*contentapi.RemoteConfig, error) {
	f.record("config")
	return &contentapi.RemoteConfig{BlogURL: f.blogURL}, nil
}

type recordedSleeps struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

type publishFixture struct {
	api    *fakeAPI
	drafts DraftService
	svc    PublishService
	sleeps *recordedSleeps
	export string
}

func newPublishFixture(t *testing.T, api *fakeAPI, blogURL string) *publishFixture {
	t.Helper()
	f := &publishFixture{
		api:    api,
		drafts: NewDraftService(newTestDraftRepo(t), nil),
		sleeps: &recordedSleeps{},
		export: filepath.Join(t.TempDir(), "exports"),
	}
	f.svc = NewPublishService(api, f.drafts, &PublishServiceConfig{
		BlogURL:    blogURL,
		ExportPath: f.export,
		Policy:     retry.DefaultPolicy(),
	}, nil,
		WithSleeper(f.sleeps.sleep),
		WithClock(func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }),
	)
	return f
}

func (f *publishFixture) session(t *testing.T, title, tags, body string) *editor.Session {
	t.Helper()
	s := editor.NewSession(f.drafts, editor.WithAutosaveDelay(time.Hour))
	t.Cleanup(s.Close)
	s.SetTitle(title)
	s.SetTags(tags)
	s.SetBody(body)
	_, err := s.Flush(context.Background())
	require.NoError(t, err)
	return s
}

func TestPublish_NewPostWithoutTags(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t, &fakeAPI{}, "https://blog.example/")
	sess := f.session(t, "Hello World", "", "<p>Hi <strong>there</strong></p>")
	draftID := sess.DraftID()
	require.NotEmpty(t, draftID)

	res, err := f.svc.Publish(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", res.Slug)
	assert.Equal(t, "hello-world.md", res.Filename)
	assert.Equal(t, "https://blog.example/posts/hello-world/", res.URL)
	assert.Equal(t, 1, res.Attempts)
	assert.False(t, res.Updated)

	require.Len(t, f.api.creates, 1)
	content := f.api.creates[0]
	assert.True(t, strings.HasPrefix(content, "---\ntitle: \"Hello World\"\ndate: 2024-03-01T08:00:00.000Z\ndraft: false\n---\n\n"))
	assert.NotContains(t, content, "tags:")
	assert.True(t, strings.HasSuffix(content, "Hi **there**"))

	// 发布成功后草稿被删除，会话重置
	_, err = f.drafts.Get(ctx, draftID)
	assert.True(t, errors.Is(err, code.ErrorDraftNotFound))
	assert.Equal(t, editor.Snapshot{}, sess.Snapshot())
}

func TestPublish_RemovesDraftSavedByAutosave(t *testing.T) {
	ctx := context.Background()
	var sess *editor.Session
	api := &fakeAPI{}
	api.create = func(int) (*contentapi.CreateResult, error) {
		// 发布过程中继续编辑，自动保存不应写出新草稿
		sess.SetBody("<p>typed while publishing</p>")
		time.Sleep(150 * time.Millisecond)
		return &contentapi.CreateResult{Success: true, Version: "v1"}, nil
	}
	f := newPublishFixture(t, api, "https://blog.example")

	sess = editor.NewSession(f.drafts, editor.WithAutosaveDelay(50*time.Millisecond))
	t.Cleanup(sess.Close)
	sess.SetTitle("Quick Post")
	sess.SetBody("<p>written fast</p>")

	_, err := f.svc.Publish(ctx, sess)
	require.NoError(t, err)

	time.Sleep(120 * time.Millisecond)
	drafts, err := f.drafts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, drafts)
	assert.Equal(t, editor.Snapshot{}, sess.Snapshot())
}

func TestPublish_WaitsForAutosaveInFlight(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t, &fakeAPI{}, "https://blog.example")
	slow := &slowSaver{DraftService: f.drafts, started: make(chan struct{}), delay: 80 * time.Millisecond}

	sess := editor.NewSession(slow, editor.WithAutosaveDelay(10*time.Millisecond))
	t.Cleanup(sess.Close)
	sess.SetTitle("Racing")
	sess.SetBody("<p>body</p>")
	<-slow.started

	_, err := f.svc.Publish(ctx, sess)
	require.NoError(t, err)

	drafts, err := f.drafts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestPublish_NetworkFailureExportsFallback(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{
		create: func(int) (*contentapi.CreateResult, error) {
			return nil, apperrors.New(apperrors.KindNetwork, "connection refused", nil)
		},
	}
	f := newPublishFixture(t, api, "https://blog.example")
	sess := f.session(t, "Offline Post", "go", "<p>body</p>")
	draftID := sess.DraftID()

	_, err := f.svc.Publish(ctx, sess)
	require.Error(t, err)

	var pe *PublishError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, apperrors.KindNetwork, pe.Kind)
	assert.Equal(t, filepath.Join(f.export, "offline-post.md"), pe.FallbackPath)
	assert.Nil(t, pe.Conflict)

	assert.Equal(t, 3, api.count("create"))
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, f.sleeps.delays)

	data, err := os.ReadFile(pe.FallbackPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tags: ["go"]`)
	assert.Contains(t, string(data), "body")

	// 草稿保留
	d, err := f.drafts.Get(ctx, draftID)
	require.NoError(t, err)
	assert.Equal(t, "Offline Post", d.Title)
	assert.Equal(t, draftID, sess.DraftID())
}

func TestPublish_RetriesThenSucceeds(t *testing.T) {
	api := &fakeAPI{
		create: func(n int) (*contentapi.CreateResult, error) {
			if n < 3 {
				return nil, apperrors.New(apperrors.KindServer, "bad gateway", nil)
			}
			return &contentapi.CreateResult{Success: true, Version: "v3"}, nil
		},
	}
	f := newPublishFixture(t, api, "https://blog.example")
	sess := f.session(t, "Flaky", "", "<p>x</p>")

	res, err := f.svc.Publish(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "v3", res.Version)
}

func TestPublish_ConflictIsNotRetried(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{
		update: func(int) (*contentapi.UpdateResult, error) {
			return nil, apperrors.FromResponse(409, nil, true)
		},
		fetch: func(string) (*contentapi.Post, error) {
			return &contentapi.Post{Content: "line one\nremote line", Version: "v-remote"}, nil
		},
	}
	f := newPublishFixture(t, api, "https://blog.example")

	sess := editor.NewSession(f.drafts, editor.WithAutosaveDelay(time.Hour))
	defer sess.Close()
	sess.LoadPost(editor.PostState{Slug: "hello", Version: "v-old", Title: "Hello", BodyHTML: "<p>line one</p>", Base: "line one"})
	sess.SetBody("<p>line one</p><p>local line</p>")

	_, err := f.svc.Publish(ctx, sess)
	var pe *PublishError
	require.True(t, errors.As(err, &pe))
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 1, api.count("update"))
	assert.Equal(t, 0, api.count("create"))
	assert.Empty(t, f.sleeps.delays)

	require.NotNil(t, pe.Conflict)
	assert.Equal(t, "v-remote", pe.Conflict.RemoteVersion)
	assert.True(t, pe.Conflict.Diff.HasChanges())
	assert.Contains(t, pe.Conflict.Merged, "remote line")
	assert.Contains(t, pe.Conflict.Merged, "local line")

	// 会话仍处于编辑状态，版本不变
	assert.Equal(t, "v-old", sess.Snapshot().Version)
}

func TestPublish_Validation(t *testing.T) {
	f := newPublishFixture(t, &fakeAPI{}, "")
	ctx := context.Background()

	s := editor.NewSession(nil)
	s.SetBody("<p>x</p>")
	_, err := f.svc.Publish(ctx, s)
	assert.True(t, errors.Is(err, code.ErrorDraftTitleEmpty))

	s.SetTitle("Title")
	s.SetBody("<p> </p>")
	_, err = f.svc.Publish(ctx, s)
	assert.True(t, errors.Is(err, code.ErrorDraftBodyEmpty))

	s.SetTitle("!!!")
	s.SetBody("<p>x</p>")
	_, err = f.svc.Publish(ctx, s)
	assert.True(t, errors.Is(err, code.ErrorDraftSlugEmpty))
	assert.Equal(t, 0, f.api.count("create"))
}

func TestPublish_BlogURLFromRemoteConfig(t *testing.T) {
	api := &fakeAPI{blogURL: "https://remote.example/"}
	f := newPublishFixture(t, api, "")
	sess := f.session(t, "Remote", "", "<p>x</p>")

	res, err := f.svc.Publish(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "https://remote.example/posts/remote/", res.URL)
}

func TestLoadForEditingAndUpdate(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{
		fetch: func(slug string) (*contentapi.Post, error) {
			return &contentapi.Post{
				Content:     "Some **bold** text",
				FrontMatter: contentapi.FrontMatter{Title: "Loaded", Tags: []string{"a", "b"}},
				Version:     "v1",
			}, nil
		},
	}
	f := newPublishFixture(t, api, "https://blog.example")

	sess := editor.NewSession(f.drafts, editor.WithAutosaveDelay(time.Hour))
	defer sess.Close()
	require.NoError(t, f.svc.LoadForEditing(ctx, "loaded", sess))

	snap := sess.Snapshot()
	assert.True(t, sess.IsEditing())
	assert.Equal(t, "loaded", snap.Slug)
	assert.Equal(t, "v1", snap.Version)
	assert.Equal(t, "a, b", snap.RawTags)
	assert.Contains(t, snap.Body, "<strong>bold</strong>")

	res, err := f.svc.Publish(ctx, sess)
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, "v2", res.Version)
	assert.Equal(t, "loaded", res.Slug)
	assert.Equal(t, 1, api.count("update"))
}

func TestDeletePostUsesFreshVersion(t *testing.T) {
	var gotVersion string
	api := &fakeAPI{
		fetch: func(string) (*contentapi.Post, error) {
			return &contentapi.Post{Version: "fresh"}, nil
		},
		del: func(_, version string) error {
			gotVersion = version
			return nil
		},
	}
	f := newPublishFixture(t, api, "")
	require.NoError(t, f.svc.DeletePost(context.Background(), "x"))
	assert.Equal(t, "fresh", gotVersion)
	assert.Equal(t, []string{"fetch", "delete"}, api.calls)
}

func TestDeletePostConflictSurfaces(t *testing.T) {
	api := &fakeAPI{
		fetch: func(string) (*contentapi.Post, error) {
			return &contentapi.Post{Version: "v1"}, nil
		},
		del: func(string, string) error {
			return apperrors.FromResponse(404, nil, true)
		},
	}
	f := newPublishFixture(t, api, "")
	err := f.svc.DeletePost(context.Background(), "x")
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 1, api.count("delete"))
}

func TestListPosts(t *testing.T) {
	api := &fakeAPI{list: []contentapi.PostSummary{{Slug: "a"}}}
	f := newPublishFixture(t, api, "")
	posts, err := f.svc.ListPosts(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestDraftServiceIsEditorSaver(t *testing.T) {
	var s editor.Saver = NewDraftService(newTestDraftRepo(t), nil)
	d, err := s.Save(context.Background(), &domain.Document{Title: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
}

// slowSaver 首次保存时阻塞一段时间
type slowSaver struct {
	DraftService
	started chan struct{}
	once    sync.Once
	delay   time.Duration
}

func (s *slowSaver) Save(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	first := false
	s.once.Do(func() {
		first = true
		close(s.started)
	})
	if first {
		time.Sleep(s.delay)
	}
	return s.DraftService.Save(ctx, doc)
}
