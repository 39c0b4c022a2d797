package api_router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/omni-blogger/internal/middleware"
	pkgapp "github.com/haierkeys/omni-blogger/pkg/app"
	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/contentapi"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePostService struct {
	posts   map[string]*contentapi.Post
	created []*contentapi.CreateRequest
	deleted []string
}

func newFakePostService() *fakePostService {
	return &fakePostService{posts: map[string]*contentapi.Post{
		"hello": {Content: "Hi", FrontMatter: contentapi.FrontMatter{Title: "Hello", Tags: []string{"go"}}, Version: "v1"},
	}}
}

func (f *fakePostService) Create(_ context.Context, req *contentapi.CreateRequest) (*contentapi.CreateResult, error) {
	f.created = append(f.created, req)
	return &contentapi.CreateResult{Success: true, Filename: req.Filename, Version: "v0", ImagesUploaded: len(req.Images)}, nil
}

func (f *fakePostService) Update(_ context.Context, slug string, req *contentapi.UpdateRequest) (*contentapi.UpdateResult, error) {
	p, ok := f.posts[slug]
	if !ok || p.Version != req.Version {
		return nil, code.ErrorPostConflict
	}
	p.Version = "v2"
	return &contentapi.UpdateResult{Success: true, NewVersion: p.Version}, nil
}

func (f *fakePostService) Get(_ context.Context, slug string) (*contentapi.Post, error) {
	p, ok := f.posts[slug]
	if !ok {
		return nil, code.ErrorPostNotFound
	}
	return p, nil
}

func (f *fakePostService) Delete(_ context.Context, slug, version string) error {
	p, ok := f.posts[slug]
	if !ok || p.Version != version {
		return code.ErrorPostConflict
	}
	delete(f.posts, slug)
	f.deleted = append(f.deleted, slug)
	return nil
}

func (f *fakePostService) List(context.Context) ([]contentapi.PostSummary, error) {
	if len(f.posts) == 0 {
		return nil, nil
	}
	return []contentapi.PostSummary{{Slug: "hello", Title: "Hello", Date: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)}}, nil
}

func (f *fakePostService) SiteConfig() *contentapi.RemoteConfig {
	return &contentapi.RemoteConfig{BlogURL: "https://blog.example", APIURL: "https://api.example"}
}

func newPostEngine(svc *fakePostService) *gin.Engine {
	h := NewPostHandler(svc, nil)
	r := gin.New()
	r.Use(middleware.TraceMiddlewareWithConfig(true, ""))
	r.POST("/", h.Create)
	r.GET("/posts", h.List)
	r.GET("/posts/:slug", h.Get)
	r.PUT("/posts/:slug", h.Update)
	r.DELETE("/posts/:slug", h.Delete)
	r.GET("/config", h.Config)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostHandlerCreate(t *testing.T) {
	svc := newFakePostService()
	r := newPostEngine(svc)

	before := testutil.ToFloat64(postOperations.WithLabelValues("create", "success"))
	w := serve(r, http.MethodPost, "/", `{"filename":"a.md","content":"x","images":[{"filename":"c.png","content":"AA=="}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"filename":"a.md","sha":"v0","imagesUploaded":1}`, w.Body.String())
	require.Len(t, svc.created, 1)
	assert.Equal(t, "c.png", svc.created[0].Images[0].Filename)
	assert.Equal(t, before+1, testutil.ToFloat64(postOperations.WithLabelValues("create", "success")))

	w = serve(r, http.MethodPost, "/", `{"filename":"a.md"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "traceId")
	assert.Len(t, svc.created, 1)
}

func TestPostHandlerGetAndConflict(t *testing.T) {
	r := newPostEngine(newFakePostService())

	w := serve(r, http.MethodGet, "/posts/hello", "")
	require.Equal(t, http.StatusOK, w.Code)
	var post contentapi.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, "Hello", post.FrontMatter.Title)
	assert.Equal(t, "v1", post.Version)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/posts/missing", "").Code)

	w = serve(r, http.MethodPut, "/posts/hello", `{"content":"new","sha":"stale"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(r, http.MethodPut, "/posts/hello", `{"content":"new","sha":"v1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"sha":"v2"}`, w.Body.String())

	// sha 必填
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPut, "/posts/hello", `{"content":"new"}`).Code)
}

func TestPostHandlerDelete(t *testing.T) {
	svc := newFakePostService()
	r := newPostEngine(svc)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodDelete, "/posts/hello", "").Code)
	assert.Equal(t, http.StatusConflict, serve(r, http.MethodDelete, "/posts/hello", `{"sha":"old"}`).Code)

	w := serve(r, http.MethodDelete, "/posts/hello?sha=v1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Equal(t, []string{"hello"}, svc.deleted)

	w = serve(r, http.MethodGet, "/posts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"posts":[]}`, w.Body.String())
}

func TestPostHandlerListAndConfig(t *testing.T) {
	r := newPostEngine(newFakePostService())

	w := serve(r, http.MethodGet, "/posts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list contentapi.PostList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "hello", list.Posts[0].Slug)

	w = serve(r, http.MethodGet, "/config", "")
	assert.JSONEq(t, `{"blogUrl":"https://blog.example","apiUrl":"https://api.example"}`, w.Body.String())
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(pkgVersion(), time.Now().Add(-time.Minute), nil, nil)
	r := gin.New()
	r.GET("/health", h.Check)

	w := serve(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"version":"9.9.9"`)

	failing := NewHealthHandler(pkgVersion(), time.Now(), func(context.Context) error { return assert.AnError }, nil)
	r = gin.New()
	r.GET("/health", failing.Check)
	w = serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"error"`)
}

func pkgVersion() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{Version: "9.9.9", GitTag: "v9.9.9", BuildTime: "2024-03-01"}
}
