package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/contentapi"
	"github.com/haierkeys/omni-blogger/pkg/logger"
	"github.com/haierkeys/omni-blogger/pkg/markdown"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultExcerptLength 列表摘要默认长度
const DefaultExcerptLength = 150

// PostService 内容 API 的文章服务接口
type PostService interface {
	// Create 写入文章与图片，重复提交相同内容结果不变
	Create(ctx context.Context, req *contentapi.CreateRequest) (*contentapi.CreateResult, error)
	// Update 版本一致时更新文章
	Update(ctx context.Context, slug string, req *contentapi.UpdateRequest) (*contentapi.UpdateResult, error)
	// Get 读取文章
	Get(ctx context.Context, slug string) (*contentapi.Post, error)
	// Delete 版本一致时删除文章
	Delete(ctx context.Context, slug, version string) error
	// List 列出文章，按日期倒序
	List(ctx context.Context) ([]contentapi.PostSummary, error)
	// SiteConfig 站点地址
	SiteConfig() *contentapi.RemoteConfig
}

type postService struct {
	repo    domain.PostRepository
	media   MediaService
	builder SiteBuilder
	config  BlogServiceConfig
	logger  *zap.Logger
	sf      singleflight.Group
}

// NewPostService 创建 PostService 实例
func NewPostService(repo domain.PostRepository, media MediaService, builder SiteBuilder, config *BlogServiceConfig, lg *zap.Logger) PostService {
	s := &postService{
		repo:    repo,
		media:   media,
		builder: builder,
		logger:  logger.OrNop(lg),
	}
	if config != nil {
		s.config = *config
	}
	if s.config.ExcerptLength <= 0 {
		s.config.ExcerptLength = DefaultExcerptLength
	}
	return s
}

// repoError 将仓储错误映射为错误码
func repoError(err error, fallback *code.Code) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrVersionMismatch):
		return code.ErrorPostConflict
	case errors.Is(err, domain.ErrPostNotFound):
		return code.ErrorPostNotFound
	case errors.Is(err, domain.ErrInvalidSlug):
		return code.ErrorPostFilenameInvalid
	}
	var c *code.Code
	if errors.As(err, &c) {
		return c
	}
	return fallback.WithDetails(err.Error())
}

// publishChanges 提交变更并重新构建站点
func (s *postService) publishChanges(ctx context.Context, message string, paths ...string) error {
	if err := s.repo.Commit(ctx, message, paths...); err != nil {
		return repoError(err, code.ErrorPostCommit)
	}
	if s.builder != nil {
		if err := s.builder.Build(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Create 发布文章
func (s *postService) Create(ctx context.Context, req *contentapi.CreateRequest) (*contentapi.CreateResult, error) {
	filename := strings.TrimSpace(req.Filename)
	if !strings.HasSuffix(filename, ".md") {
		return nil, code.ErrorPostFilenameInvalid.WithDetails(req.Filename)
	}
	slug := markdown.SlugFromFilename(filename)
	if strings.TrimSpace(req.Content) == "" {
		return nil, code.ErrorInvalidParams.WithDetails("content is required")
	}

	var images []domain.Image
	if s.media != nil && len(req.Images) > 0 {
		var err error
		if images, err = s.media.Decode(req.Images); err != nil {
			return nil, err
		}
	}

	version, err := s.repo.Put(ctx, slug, req.Content)
	if err != nil {
		return nil, repoError(err, code.ErrorPostWrite)
	}
	imagePaths, err := s.repo.SaveImages(ctx, images)
	if err != nil {
		return nil, repoError(err, code.ErrorPostWrite)
	}

	paths := append([]string{s.repo.PostPath(slug)}, imagePaths...)
	if err := s.publishChanges(ctx, "Add post: "+slug, paths...); err != nil {
		return nil, err
	}

	if len(images) > 0 {
		s.media.Mirror(ctx, images)
	}

	s.logger.Info("post created",
		zap.String(logger.FieldSlug, slug),
		zap.String(logger.FieldVersion, version),
		zap.Int("images", len(images)))

	return &contentapi.CreateResult{
		Success:        true,
		Message:        "Post published successfully",
		Filename:       filename,
		Version:        version,
		ImagesUploaded: len(images),
	}, nil
}

// Update 更新文章
func (s *postService) Update(ctx context.Context, slug string, req *contentapi.UpdateRequest) (*contentapi.UpdateResult, error) {
	if strings.TrimSpace(req.Content) == "" || req.Version == "" {
		return nil, code.ErrorInvalidParams.WithDetails("content and sha are required")
	}
	version, err := s.repo.Replace(ctx, slug, req.Content, req.Version)
	if err != nil {
		return nil, repoError(err, code.ErrorPostWrite)
	}
	if err := s.publishChanges(ctx, "Update post: "+slug, s.repo.PostPath(slug)); err != nil {
		return nil, err
	}
	s.logger.Info("post updated", zap.String(logger.FieldSlug, slug), zap.String(logger.FieldVersion, version))
	return &contentapi.UpdateResult{Success: true, NewVersion: version}, nil
}

// Get 读取文章，正文不含头部
func (s *postService) Get(ctx context.Context, slug string) (*contentapi.Post, error) {
	p, err := s.repo.Get(ctx, slug)
	if err != nil {
		return nil, repoError(err, code.ErrorServerInternal)
	}
	fm, body, ok := markdown.ParseFrontMatter(p.Content)
	if !ok {
		body = p.Content
	}
	tags := fm.Tags
	if tags == nil {
		tags = []string{}
	}
	return &contentapi.Post{
		Content:     strings.TrimSpace(body),
		FrontMatter: contentapi.FrontMatter{Title: fm.Title, Tags: tags},
		Version:     p.Version,
	}, nil
}

// Delete 删除文章
func (s *postService) Delete(ctx context.Context, slug, version string) error {
	if version == "" {
		return code.ErrorInvalidParams.WithDetails("sha is required")
	}
	if err := s.repo.Remove(ctx, slug, version); err != nil {
		return repoError(err, code.ErrorPostWrite)
	}
	if err := s.publishChanges(ctx, "Delete post: "+slug, s.repo.PostPath(slug)); err != nil {
		return err
	}
	s.logger.Info("post deleted", zap.String(logger.FieldSlug, slug))
	return nil
}

// List 列出文章，并发请求共享同一次读取
func (s *postService) List(ctx context.Context) ([]contentapi.PostSummary, error) {
	v, err, _ := s.sf.Do("list", func() (interface{}, error) {
		return s.list(ctx)
	})
	if err != nil {
		return nil, err
	}
	src := v.([]contentapi.PostSummary)
	out := make([]contentapi.PostSummary, len(src))
	copy(out, src)
	return out, nil
}

func (s *postService) list(ctx context.Context) ([]contentapi.PostSummary, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}

	summaries := make([]contentapi.PostSummary, 0, len(posts))
	for _, p := range posts {
		fm, body, ok := markdown.ParseFrontMatter(p.Content)
		if !ok {
			body = p.Content
		}
		sum := contentapi.PostSummary{
			Slug:    p.Slug,
			Title:   fm.Title,
			Date:    fm.Date,
			Tags:    fm.Tags,
			Excerpt: markdown.Excerpt(body, s.config.ExcerptLength),
		}
		if sum.Title == "" {
			sum.Title = p.Slug
		}
		if sum.Date.IsZero() {
			sum.Date = p.ModTime
		}
		if sum.Tags == nil {
			sum.Tags = []string{}
		}
		summaries = append(summaries, sum)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Date.Equal(summaries[j].Date) {
			return summaries[i].Slug < summaries[j].Slug
		}
		return summaries[i].Date.After(summaries[j].Date)
	})
	return summaries, nil
}

// SiteConfig 站点地址
func (s *postService) SiteConfig() *contentapi.RemoteConfig {
	return &contentapi.RemoteConfig{BlogURL: s.config.URL, APIURL: s.config.APIURL}
}
