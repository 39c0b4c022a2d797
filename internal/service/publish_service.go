package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/omni-blogger/internal/editor"
	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/contentapi"
	"github.com/haierkeys/omni-blogger/pkg/diff"
	apperrors "github.com/haierkeys/omni-blogger/pkg/errors"
	"github.com/haierkeys/omni-blogger/pkg/logger"
	"github.com/haierkeys/omni-blogger/pkg/markdown"
	"github.com/haierkeys/omni-blogger/pkg/retry"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

// 发布流程中的步骤 ID
const (
	stepPublish = "publish"
	stepFetch   = "fetch"
	stepDelete  = "delete"
	stepList    = "list"
)

// PublishResult 发布成功的结果
type PublishResult struct {
	Slug           string
	Filename       string
	URL            string
	Version        string
	Updated        bool
	ImagesUploaded int
	Attempts       int
}

// Conflict describes how the local post differs from the remote copy after
// a version conflict.
// Conflict 版本冲突详情
type Conflict struct {
	// RemoteDeleted 远端文章已被删除
	RemoteDeleted bool
	RemoteVersion string
	// Diff 远端到本地的行级差异
	Diff diff.Report
	// Merged 本地修改应用到远端后的结果，Clean 为 false 时需人工确认
	Merged string
	Clean  bool
}

// PublishError is returned when publishing failed. The post was written to
// FallbackPath and the draft is kept.
// PublishError 发布失败，内容已导出到 FallbackPath
type PublishError struct {
	Err          error
	Kind         apperrors.Kind
	FallbackPath string
	Conflict     *Conflict
}

func (e *PublishError) Error() string {
	if e.FallbackPath == "" {
		return fmt.Sprintf("publish failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("publish failed (%s), saved to %s: %v", e.Kind, e.FallbackPath, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// PublishService 客户端发布流程接口
type PublishService interface {
	// Publish 发布会话中的文章：新建或更新
	Publish(ctx context.Context, sess *editor.Session) (*PublishResult, error)
	// LoadForEditing 加载已发布文章到会话
	LoadForEditing(ctx context.Context, slug string, sess *editor.Session) error
	// DeletePost 以当前远端版本删除文章
	DeletePost(ctx context.Context, slug string) error
	// ListPosts 列出已发布文章
	ListPosts(ctx context.Context) ([]contentapi.PostSummary, error)
}

// PublishOption 发布服务配置选项
type PublishOption func(*publishService)

// WithSleeper 替换重试等待函数（测试用）
func WithSleeper(sl retry.Sleeper) PublishOption {
	return func(s *publishService) { s.sleeper = sl }
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) PublishOption {
	return func(s *publishService) { s.now = now }
}

// WithTransitionHook 订阅步骤状态变化
func WithTransitionHook(fn func(retry.Transition)) PublishOption {
	return func(s *publishService) { s.onTransition = fn }
}

type publishService struct {
	api    contentapi.API
	drafts DraftService
	config PublishServiceConfig
	logger *zap.Logger

	sleeper      retry.Sleeper
	onTransition func(retry.Transition)
	now          func() time.Time

	mu      sync.Mutex
	blogURL string
}

// NewPublishService 创建 PublishService 实例
func NewPublishService(api contentapi.API, drafts DraftService, config *PublishServiceConfig, lg *zap.Logger, opts ...PublishOption) PublishService {
	s := &publishService{
		api:     api,
		drafts:  drafts,
		logger:  logger.OrNop(lg),
		sleeper: retry.TimerSleep,
		now:     time.Now,
	}
	if config != nil {
		s.config = *config
	}
	if s.config.ExportPath == "" {
		s.config.ExportPath = "storage/exports"
	}
	s.blogURL = strings.TrimRight(s.config.BlogURL, "/")
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *publishService) orchestrator() *retry.Orchestrator {
	opts := []retry.Option{
		retry.WithPolicy(s.config.Policy),
		retry.WithSleeper(s.sleeper),
		retry.WithLogger(s.logger),
	}
	if s.onTransition != nil {
		opts = append(opts, retry.OnTransition(s.onTransition))
	}
	return retry.New(opts...)
}

// Publish converts the session to Markdown with front matter and creates or
// updates the remote post, retrying transient failures. On success the draft
// is removed and the session reset. On failure the Markdown file is exported
// and a *PublishError returned; a version conflict additionally carries the
// difference to the remote copy. Auto-save is held for the whole call so the
// draft removed on success is the one the session saved.
func (s *publishService) Publish(ctx context.Context, sess *editor.Session) (*PublishResult, error) {
	release := sess.Hold()
	defer release()

	// 先落盘，得到稳定的草稿 ID
	if _, err := sess.Flush(ctx); err != nil {
		s.logger.Warn("save draft before publish failed", zap.Error(err))
	}
	snap := sess.Snapshot()

	title := strings.TrimSpace(snap.Title)
	if title == "" {
		return nil, code.ErrorDraftTitleEmpty
	}
	if strings.TrimSpace(snap.Body) == "" || strings.TrimSpace(markdown.PlainText(snap.Body)) == "" {
		return nil, code.ErrorDraftBodyEmpty
	}

	body, err := markdown.ToCanonicalHTML(snap.Body)
	if err != nil {
		return nil, code.ErrorInvalidParams.WithDetails(err.Error())
	}

	editing := snap.Mode == editor.ModeEditing && snap.Slug != "" && snap.Version != ""
	slug := markdown.Slugify(title)
	if editing {
		slug = snap.Slug
	}
	if slug == "" {
		return nil, code.ErrorDraftSlugEmpty
	}

	filename := markdown.Filename(slug)
	content := markdown.Compose(title, snap.Tags(), s.now(), body)
	res := &PublishResult{Slug: slug, Filename: filename, Updated: editing}

	orch := s.orchestrator()
	err = orch.Do(ctx, stepPublish, func(ctx context.Context) error {
		if editing {
			r, err := s.api.Update(ctx, slug, content, snap.Version)
			if err != nil {
				return err
			}
			res.Version = r.NewVersion
			return nil
		}
		r, err := s.api.Create(ctx, filename, content)
		if err != nil {
			return err
		}
		res.Version = r.Version
		res.ImagesUploaded = r.ImagesUploaded
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, sess, snap, slug, filename, content, body, err)
	}
	res.Attempts = orch.RunAttempts(stepPublish) + 1

	res.URL = s.postURL(ctx, slug)

	if id := sess.DraftID(); id != "" {
		if err := s.drafts.Delete(ctx, id); err != nil {
			s.logger.Warn("remove published draft failed", zap.String(logger.FieldDraftID, id), zap.Error(err))
		}
	}
	sess.Reset()

	s.logger.Info("post published",
		zap.String(logger.FieldSlug, slug),
		zap.String(logger.FieldVersion, res.Version),
		zap.Bool("updated", editing))
	return res, nil
}

// fail 写出导出文件、保留草稿并构造 PublishError
func (s *publishService) fail(ctx context.Context, sess *editor.Session, snap editor.Snapshot, slug, filename, content, body string, cause error) error {
	pe := &PublishError{Err: cause, Kind: apperrors.Classify(cause)}

	path, err := s.export(filename, content)
	if err != nil {
		s.logger.Error("export fallback file failed", zap.String(logger.FieldPath, path), zap.Error(err))
	} else {
		pe.FallbackPath = path
	}

	// 保留草稿，失败时允许稍后重试
	if _, err := sess.Flush(ctx); err != nil {
		s.logger.Warn("keep draft failed", zap.String(logger.FieldSlug, slug), zap.Error(err))
	}

	if pe.Kind == apperrors.KindConflict && snap.Mode == editor.ModeEditing {
		pe.Conflict = s.conflict(ctx, slug, snap.Base, body)
	}

	s.logger.Warn("publish failed",
		zap.String(logger.FieldSlug, slug),
		zap.String(logger.FieldKind, pe.Kind.String()),
		zap.String(logger.FieldPath, pe.FallbackPath),
		zap.Error(cause))
	return pe
}

func (s *publishService) conflict(ctx context.Context, slug, base, local string) *Conflict {
	remote, err := s.api.Fetch(ctx, slug)
	if apperrors.IsNotFound(err) {
		return &Conflict{RemoteDeleted: true, Diff: diff.Lines("", local), Merged: local}
	}
	if err != nil {
		s.logger.Warn("fetch remote post for conflict failed", zap.String(logger.FieldSlug, slug), zap.Error(err))
		return nil
	}
	remoteBody := strings.TrimSpace(remote.Content)
	merged, clean := diff.Merge(base, local, remoteBody)
	return &Conflict{
		RemoteVersion: remote.Version,
		Diff:          diff.Lines(remoteBody, local),
		Merged:        merged,
		Clean:         clean,
	}
}

func (s *publishService) export(filename, content string) (string, error) {
	path := filepath.Join(s.config.ExportPath, filename)
	if err := os.MkdirAll(s.config.ExportPath, 0755); err != nil {
		return path, err
	}
	if err := atomic.WriteFile(path, bytes.NewReader([]byte(content))); err != nil {
		return path, err
	}
	return path, nil
}

// postURL 文章地址 {blogURL}/posts/{slug}/
func (s *publishService) postURL(ctx context.Context, slug string) string {
	s.mu.Lock()
	base := s.blogURL
	s.mu.Unlock()

	if base == "" {
		if rc, err := s.api.Config(ctx); err == nil && rc.BlogURL != "" {
			base = strings.TrimRight(rc.BlogURL, "/")
			s.mu.Lock()
			s.blogURL = base
			s.mu.Unlock()
		}
	}
	return base + "/posts/" + slug + "/"
}

// LoadForEditing 加载已发布文章
func (s *publishService) LoadForEditing(ctx context.Context, slug string, sess *editor.Session) error {
	var post *contentapi.Post
	err := s.orchestrator().Do(ctx, stepFetch, func(ctx context.Context) error {
		p, err := s.api.Fetch(ctx, slug)
		if err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return err
	}

	sess.LoadPost(editor.PostState{
		Slug:     slug,
		Version:  post.Version,
		Title:    post.FrontMatter.Title,
		Tags:     post.FrontMatter.Tags,
		BodyHTML: markdown.FromCanonical(strings.TrimSpace(post.Content)),
		Base:     strings.TrimSpace(post.Content),
	})
	s.logger.Info("post loaded for editing", zap.String(logger.FieldSlug, slug), zap.String(logger.FieldVersion, post.Version))
	return nil
}

// DeletePost reads the current remote version and deletes the post with it.
// A conflict is returned as is and never retried with the same version.
func (s *publishService) DeletePost(ctx context.Context, slug string) error {
	orch := s.orchestrator()

	var version string
	err := orch.Do(ctx, stepFetch, func(ctx context.Context) error {
		p, err := s.api.Fetch(ctx, slug)
		if err != nil {
			return err
		}
		version = p.Version
		return nil
	})
	if err != nil {
		return err
	}

	err = orch.Do(ctx, stepDelete, func(ctx context.Context) error {
		return s.api.Delete(ctx, slug, version)
	})
	if err != nil {
		return err
	}
	s.logger.Info("post deleted", zap.String(logger.FieldSlug, slug))
	return nil
}

// ListPosts 列出已发布文章
func (s *publishService) ListPosts(ctx context.Context) ([]contentapi.PostSummary, error) {
	var posts []contentapi.PostSummary
	err := s.orchestrator().Do(ctx, stepList, func(ctx context.Context) error {
		p, err := s.api.List(ctx)
		if err != nil {
			return err
		}
		posts = p
		return nil
	})
	return posts, err
}
