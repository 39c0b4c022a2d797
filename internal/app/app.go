// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/omni-blogger/internal/dao"
	"github.com/haierkeys/omni-blogger/internal/domain"
	"github.com/haierkeys/omni-blogger/internal/editor"
	"github.com/haierkeys/omni-blogger/internal/service"
	"github.com/haierkeys/omni-blogger/internal/setup"
	"github.com/haierkeys/omni-blogger/internal/upgrade"
	pkgapp "github.com/haierkeys/omni-blogger/pkg/app"
	"github.com/haierkeys/omni-blogger/pkg/contentapi"
	"github.com/haierkeys/omni-blogger/pkg/progress"
	"github.com/haierkeys/omni-blogger/pkg/storage"
	"github.com/haierkeys/omni-blogger/pkg/workerpool"
	"github.com/haierkeys/omni-blogger/pkg/writequeue"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// Repository 层
	KVRepo    domain.KVRepository
	DraftRepo domain.DraftRepository
	PostRepo  *dao.GitPostRepository

	// 对象存储，未启用时为 nil
	Storage storage.Storager

	// 服务端 Service
	PostService  service.PostService
	MediaService service.MediaService
	SiteBuilder  service.SiteBuilder

	// 客户端 Service
	ContentClient  *contentapi.Client
	ContentAPI     contentapi.API
	DraftService   service.DraftService
	PublishService service.PublishService
	Progress       *progress.Manager

	// StartTime 启动时间
	StartTime time.Time

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	// 初始化 DAO
	a.Dao = dao.New(db, context.Background(),
		dao.WithConfig(cfg.GetDatabaseConfig()),
		dao.WithLogger(logger),
		dao.WithWriteQueueManager(a.writeQueueMgr),
	)
	if err := a.Dao.Migrate(); err != nil {
		return nil, fmt.Errorf("database migrate failed: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := upgrade.Execute(context.Background(), db, logger, Version); err != nil {
			return nil, fmt.Errorf("upgrade.Execute: %w", err)
		}
	}

	// 初始化 Repository 层
	a.KVRepo = dao.NewKVRepository(a.Dao)
	a.DraftRepo = dao.NewDraftRepository(a.KVRepo)
	a.PostRepo = dao.NewGitPostRepository(cfg.GetWorkspaceConfig(), a.writeQueueMgr, logger)

	// 对象存储（镜像上传的图片）
	if cfg.Storage.IsEnabled {
		st, err := storage.NewClient(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		a.Storage = st
	}

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	svcConfig := &service.ServiceConfig{
		Blog: service.BlogServiceConfig{
			URL:            cfg.Blog.URL,
			APIURL:         cfg.Blog.APIURL,
			WorkDir:        cfg.Blog.Path,
			BuildCommand:   cfg.Blog.BuildCommand,
			DeployCommand:  cfg.Blog.DeployCommand,
			CommandTimeout: cfg.CommandTimeout(),
		},
		Publish: service.PublishServiceConfig{
			BlogURL:    cfg.Client.BlogURL,
			ExportPath: cfg.Client.ExportPath,
			Policy:     cfg.GetRetryPolicy(),
		},
	}

	// 服务端
	a.MediaService = service.NewMediaService(a.workerPool, a.Storage, &cfg.Storage, logger)
	a.SiteBuilder = service.NewSiteBuilder(&svcConfig.Blog, a.writeQueueMgr, logger)
	a.PostService = service.NewPostService(a.PostRepo, a.MediaService, a.SiteBuilder, &svcConfig.Blog, logger)

	// 客户端
	a.ContentClient = contentapi.New(contentapi.Config{
		BaseURL:   cfg.Client.APIURL,
		Timeout:   cfg.ClientTimeout(),
		AuthToken: cfg.Client.AuthToken,
		Logger:    logger,
	})
	a.ContentAPI = a.ContentClient
	a.DraftService = service.NewDraftService(a.DraftRepo, logger)
	a.PublishService = service.NewPublishService(a.ContentAPI, a.DraftService, &svcConfig.Publish, logger)
	a.Progress = progress.NewManager(a.KVRepo,
		progress.WithMaxAge(cfg.ResumeMaxAge()),
		progress.WithLogger(logger),
	)

	logger.Info("App container initialized successfully",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity),
		zap.Bool("storageEnabled", a.Storage != nil))

	return a, nil
}

// NewEditorSession 创建编辑会话，草稿通过 DraftService 自动保存
func (a *App) NewEditorSession(opts ...editor.Option) *editor.Session {
	base := []editor.Option{
		editor.WithAutosaveDelay(a.config.AutosaveDelay()),
		editor.WithLogger(a.logger),
	}
	return editor.NewSession(a.DraftService, append(base, opts...)...)
}

// NewSetupRunner builds the site setup runner. Resolved URLs are written back
// into the config file by the save_config step.
// NewSetupRunner 创建站点初始化执行器
func (a *App) NewSetupRunner(opts ...setup.Option) *setup.Runner {
	deps := setup.Deps{
		Workspace:   a.PostRepo,
		API:         a.ContentAPI,
		Storage:     a.Storage,
		StorageType: a.config.Storage.Type,
		WriteConfig: a.writeResolvedConfig,
		Defaults: map[string]string{
			setup.ConfigBlogURL: a.config.Blog.URL,
			setup.ConfigAPIURL:  a.config.Client.APIURL,
		},
	}
	base := []setup.Option{
		setup.WithPolicy(a.config.GetRetryPolicy()),
		setup.WithAutosaveInterval(a.config.ResumeAutosaveInterval()),
		setup.WithLogger(a.logger),
	}
	return setup.NewRunner(deps, a.Progress, append(base, opts...)...)
}

func (a *App) writeResolvedConfig(_ context.Context, resolved map[string]string) error {
	if v := resolved[setup.ConfigBlogURL]; v != "" {
		a.config.Blog.URL = v
		a.config.Client.BlogURL = v
	}
	if v := resolved[setup.ConfigAPIURL]; v != "" {
		a.config.Blog.APIURL = v
		a.config.Client.APIURL = v
	}
	return a.config.Save()
}

// Ping 检查数据库连接
func (a *App) Ping(ctx context.Context) error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// CompareVersion compares the running version with other, both with or
// without a "v" prefix. The result is -1, 0 or +1 as in semver.Compare; an
// invalid version sorts before any valid one.
// CompareVersion 比较当前版本与 other
func CompareVersion(other string) int {
	return semver.Compare(canonicalVersion(Version), canonicalVersion(other))
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// IsProductionMode 是否为生产模式
// 根据日志配置中的 Production 字段判断
func (a *App) IsProductionMode() bool {
	return a.config.Log.Production
}

// WorkerPool 获取 Worker Pool（用于高级操作）
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// WriteQueueManager 获取 Write Queue Manager（用于高级操作）
func (a *App) WriteQueueManager() *writequeue.Manager {
	return a.writeQueueMgr
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Worker Pool -> Write Queue Manager -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	// 如果没有提供 context，使用默认超时
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	// 标记关闭
	select {
	case <-a.shutdownCh:
		// 已经关闭
		return nil
	default:
		close(a.shutdownCh)
	}

	var errs []error

	// 1. 关闭 Worker Pool（等待镜像上传完成）
	if a.workerPool != nil {
		a.logger.Info("Shutting down worker pool...")
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		} else {
			a.logger.Info("Worker pool shutdown completed")
		}
	}

	// 2. 关闭 Write Queue Manager（排空工作区写入与构建）
	if a.writeQueueMgr != nil {
		a.logger.Info("Shutting down write queue manager...")
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue manager shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", err))
		} else {
			a.logger.Info("write queue manager shutdown completed")
		}
	}

	// 3. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 4. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 返回关闭信号通道（用于监听关闭事件）
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}
