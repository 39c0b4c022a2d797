package dao

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/pkg/fileurl"
	"github.com/haierkeys/omni-blogger/pkg/writequeue"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

// workspaceKey 工作区所有写操作共用的写队列键
const workspaceKey = "workspace"

// GitConfig 博客仓库的 Git 设置
type GitConfig struct {
	RepoURL     string
	Branch      string
	Username    string
	Password    string
	AuthorName  string
	AuthorEmail string
	Push        bool
	SkipCommit  bool
}

// WorkspaceConfig 博客工作区配置
type WorkspaceConfig struct {
	// Path 工作区根目录
	Path string
	// PostsDir 文章目录，相对 Path
	PostsDir string
	// ImagesDir 图片目录，相对 Path
	ImagesDir string
	Git       GitConfig
}

// GitPostRepository stores posts as Markdown files in a Git workspace. The
// version of a post is the Git blob hash of its file.
// GitPostRepository 基于 Git 工作区的文章仓储
type GitPostRepository struct {
	cfg    WorkspaceConfig
	queue  *writequeue.Manager
	logger *zap.Logger

	mu   sync.Mutex // 无写队列时串行化写操作
	rmu  sync.Mutex
	repo *git.Repository
}

var _ domain.PostRepository = (*GitPostRepository)(nil)

// NewGitPostRepository 创建文章仓储
func NewGitPostRepository(cfg WorkspaceConfig, queue *writequeue.Manager, lg *zap.Logger) *GitPostRepository {
	if cfg.Git.Branch == "" {
		cfg.Git.Branch = "main"
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &GitPostRepository{cfg: cfg, queue: queue, logger: lg}
}

// Workspace 工作区根目录
func (r *GitPostRepository) Workspace() string {
	return r.cfg.Path
}

// Version returns the content hash a post with content would have.
// Version 计算内容版本（Git blob 哈希）
func Version(content []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, content).String()
}

func (r *GitPostRepository) auth() *http.BasicAuth {
	if r.cfg.Git.Username == "" && r.cfg.Git.Password == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: r.cfg.Git.Username,
		Password: r.cfg.Git.Password,
	}
}

// Prepare opens the workspace repository, cloning or initialising it first
// when needed, and makes sure the post and image directories exist.
// Prepare 准备工作区：打开、克隆或初始化仓库
func (r *GitPostRepository) Prepare(ctx context.Context) error {
	r.rmu.Lock()
	defer r.rmu.Unlock()

	ws := r.cfg.Path
	branch := plumbing.NewBranchReferenceName(r.cfg.Git.Branch)

	var repo *git.Repository
	var err error

	if fileurl.IsExist(filepath.Join(ws, ".git")) {
		repo, err = git.PlainOpen(ws)
		if err != nil {
			return fmt.Errorf("git open failed: %w", err)
		}
		if r.cfg.Git.RepoURL != "" {
			if err := r.pull(ctx, repo); err != nil {
				return err
			}
		}
	} else if r.cfg.Git.RepoURL != "" && isEmptyDir(ws) {
		r.logger.Info("cloning blog repository", zap.String("path", ws), zap.String("repo", r.cfg.Git.RepoURL))
		repo, err = git.PlainCloneContext(ctx, ws, false, &git.CloneOptions{
			URL:           r.cfg.Git.RepoURL,
			Auth:          r.auth(),
			ReferenceName: branch,
			SingleBranch:  true,
		})
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			_ = os.RemoveAll(filepath.Join(ws, ".git"))
			repo, err = r.initRepo(ws, branch)
		}
		if err != nil {
			return fmt.Errorf("git clone failed: %w", err)
		}
	} else {
		r.logger.Info("initializing blog repository", zap.String("path", ws))
		if repo, err = r.initRepo(ws, branch); err != nil {
			return fmt.Errorf("git init failed: %w", err)
		}
	}

	for _, dir := range []string{r.cfg.PostsDir, r.cfg.ImagesDir} {
		if err := os.MkdirAll(filepath.Join(ws, dir), 0755); err != nil {
			return err
		}
	}

	r.repo = repo
	return nil
}

func (r *GitPostRepository) initRepo(ws string, branch plumbing.ReferenceName) (*git.Repository, error) {
	if err := os.MkdirAll(ws, 0755); err != nil {
		return nil, err
	}
	repo, err := git.PlainInitWithOptions(ws, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: branch},
	})
	if err != nil {
		return nil, err
	}
	if r.cfg.Git.RepoURL != "" {
		_, err = repo.CreateRemote(&config.RemoteConfig{
			Name: "origin",
			URLs: []string{r.cfg.Git.RepoURL},
		})
		if err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func (r *GitPostRepository) pull(ctx context.Context, repo *git.Repository) error {
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    "origin",
		Auth:          r.auth(),
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Git.Branch),
		SingleBranch:  true,
	})
	switch {
	case err == nil,
		errors.Is(err, git.NoErrAlreadyUpToDate),
		errors.Is(err, transport.ErrEmptyRemoteRepository),
		errors.Is(err, plumbing.ErrReferenceNotFound):
		return nil
	}
	return fmt.Errorf("git pull failed: %w", err)
}

func (r *GitPostRepository) repository() (*git.Repository, error) {
	r.rmu.Lock()
	defer r.rmu.Unlock()
	if r.repo != nil {
		return r.repo, nil
	}
	repo, err := git.PlainOpen(r.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("git open failed: %w", err)
	}
	r.repo = repo
	return repo, nil
}

// write 串行执行工作区写操作
func (r *GitPostRepository) write(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.queue != nil {
		return r.queue.Execute(ctx, workspaceKey, fn)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

// PostPath 文章文件相对工作区的路径
func (r *GitPostRepository) PostPath(slug string) string {
	return filepath.ToSlash(filepath.Join(r.cfg.PostsDir, slug+".md"))
}

func (r *GitPostRepository) postFile(slug string) (string, error) {
	if fileurl.SafeBaseName(slug) == "" {
		return "", domain.ErrInvalidSlug
	}
	return filepath.Join(r.cfg.Path, r.cfg.PostsDir, slug+".md"), nil
}

func readPost(file, slug string) (*domain.Post, error) {
	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	p := &domain.Post{Slug: slug, Content: string(data), Version: Version(data)}
	if info, err := os.Stat(file); err == nil {
		p.ModTime = info.ModTime()
	}
	return p, nil
}

// Get 读取文章
func (r *GitPostRepository) Get(ctx context.Context, slug string) (*domain.Post, error) {
	file, err := r.postFile(slug)
	if err != nil {
		return nil, err
	}
	return readPost(file, slug)
}

// List 列出全部文章
func (r *GitPostRepository) List(ctx context.Context) ([]*domain.Post, error) {
	dir := filepath.Join(r.cfg.Path, r.cfg.PostsDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []*domain.Post{}, nil
	}
	if err != nil {
		return nil, err
	}

	posts := make([]*domain.Post, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slug := strings.TrimSuffix(e.Name(), ".md")
		p, err := readPost(filepath.Join(dir, e.Name()), slug)
		if err != nil {
			r.logger.Warn("skip unreadable post", zap.String("slug", slug), zap.Error(err))
			continue
		}
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Slug < posts[j].Slug })
	return posts, nil
}

// Put 无条件写入文章，重复写入相同内容结果不变
func (r *GitPostRepository) Put(ctx context.Context, slug, content string) (string, error) {
	file, err := r.postFile(slug)
	if err != nil {
		return "", err
	}
	var version string
	err = r.write(ctx, func(ctx context.Context) error {
		version, err = writeFile(file, []byte(content))
		return err
	})
	return version, err
}

// Replace 版本一致时覆盖文章
func (r *GitPostRepository) Replace(ctx context.Context, slug, content, expectedVersion string) (string, error) {
	file, err := r.postFile(slug)
	if err != nil {
		return "", err
	}
	var version string
	err = r.write(ctx, func(ctx context.Context) error {
		cur, err := readPost(file, slug)
		if err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return domain.ErrVersionMismatch
		}
		version, err = writeFile(file, []byte(content))
		return err
	})
	return version, err
}

// Remove 版本一致时删除文章
func (r *GitPostRepository) Remove(ctx context.Context, slug, expectedVersion string) error {
	file, err := r.postFile(slug)
	if err != nil {
		return err
	}
	return r.write(ctx, func(ctx context.Context) error {
		cur, err := readPost(file, slug)
		if err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return domain.ErrVersionMismatch
		}
		return os.Remove(file)
	})
}

// SaveImages 写入图片，文件名需为普通文件名
func (r *GitPostRepository) SaveImages(ctx context.Context, images []domain.Image) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}
	paths := make([]string, 0, len(images))
	err := r.write(ctx, func(ctx context.Context) error {
		for _, img := range images {
			name := fileurl.SafeBaseName(img.Filename)
			if name == "" {
				return fmt.Errorf("invalid image filename %q", img.Filename)
			}
			rel := filepath.Join(r.cfg.ImagesDir, name)
			if _, err := writeFile(filepath.Join(r.cfg.Path, rel), img.Data); err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Commit stages the given workspace-relative paths (all changes when none
// are given), commits them and pushes when enabled. Nothing is committed when
// no staged change remains.
// Commit 提交变更
func (r *GitPostRepository) Commit(ctx context.Context, message string, paths ...string) error {
	if r.cfg.Git.SkipCommit {
		return nil
	}
	repo, err := r.repository()
	if err != nil {
		return err
	}

	return r.write(ctx, func(ctx context.Context) error {
		wt, err := repo.Worktree()
		if err != nil {
			return err
		}

		if len(paths) == 0 {
			if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
				return err
			}
		}
		for _, p := range paths {
			if fileurl.IsExist(filepath.Join(r.cfg.Path, filepath.FromSlash(p))) {
				_, err = wt.Add(p)
			} else {
				_, err = wt.Remove(p)
				if errors.Is(err, index.ErrEntryNotFound) {
					err = nil
				}
			}
			if err != nil {
				return fmt.Errorf("git stage %s failed: %w", p, err)
			}
		}

		status, err := wt.Status()
		if err != nil {
			return err
		}
		if !hasStaged(status) {
			r.logger.Debug("no changes to commit")
			return nil
		}

		hash, err := wt.Commit(message, &git.CommitOptions{
			Author: &object.Signature{
				Name:  r.cfg.Git.AuthorName,
				Email: r.cfg.Git.AuthorEmail,
				When:  time.Now(),
			},
		})
		if err != nil {
			return fmt.Errorf("git commit failed: %w", err)
		}
		r.logger.Info("committed post changes", zap.String("commit", hash.String()), zap.String("message", message))

		if !r.cfg.Git.Push || r.cfg.Git.RepoURL == "" {
			return nil
		}
		err = repo.PushContext(ctx, &git.PushOptions{
			RemoteName: "origin",
			Auth:       r.auth(),
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("git push failed: %w", err)
		}
		return nil
	})
}

// HeadMessage 返回最新提交的说明，仓库为空时返回空字符串
func (r *GitPostRepository) HeadMessage() (string, error) {
	repo, err := r.repository()
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	c, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(c.Message), nil
}

func hasStaged(status git.Status) bool {
	for _, s := range status {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			return true
		}
	}
	return false
}

func writeFile(file string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return "", err
	}
	if err := atomic.WriteFile(file, bytes.NewReader(data)); err != nil {
		return "", err
	}
	return Version(data), nil
}

func isEmptyDir(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return os.IsNotExist(err)
	}
	return len(entries) == 0
}
