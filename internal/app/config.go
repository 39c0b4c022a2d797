// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/omni-blogger/internal/dao"
	"github.com/haierkeys/omni-blogger/pkg/retry"
	"github.com/haierkeys/omni-blogger/pkg/storage"
	"github.com/haierkeys/omni-blogger/pkg/util"
	"github.com/haierkeys/omni-blogger/pkg/workerpool"
	"github.com/haierkeys/omni-blogger/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string         `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Security SecurityConfig `yaml:"security"`
	Tracer   TracerConfig   `yaml:"tracer"`
	Blog     BlogConfig     `yaml:"blog"`
	Client   ClientConfig   `yaml:"client"`
	Retry    RetryConfig    `yaml:"retry"`
	Resume   ResumeConfig   `yaml:"resume"`
	Storage  storage.Config `yaml:"storage"`
	App      AppSettings    `yaml:"app"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File 日志文件路径
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 内容 API 服务配置
type ServerConfig struct {
	// RunMode 运行模式 debug / release / test
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 监听地址
	HttpPort string `yaml:"http-port" default:":3000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒），需要覆盖构建与部署耗时
	WriteTimeout int `yaml:"write-timeout" default:"600"`
	// PrivateHttpListen 私有监听地址（/metrics、/debug/vars）
	PrivateHttpListen string `yaml:"private-http-listen" default:":3001"`
	// MaxBodySize 请求体上限（含 base64 图片）
	MaxBodySize string `yaml:"max-body-size" default:"32MB"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	// AuthToken 内容 API 的 Bearer Token，为空表示不校验
	AuthToken string `yaml:"auth-token"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称
	Header string `yaml:"header" default:"X-Trace-ID"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type 数据库类型 sqlite / mysql / postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/blogger.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机
	Host string `yaml:"host"`
	// Port 端口（postgres）
	Port int `yaml:"port"`
	// Name 数据库名
	Name string `yaml:"name"`
	// TablePrefix 表前缀
	TablePrefix string `yaml:"table-prefix"`
	// AutoMigrate 是否启用自动迁移
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// Charset 字符集
	Charset string `yaml:"charset" default:"utf8mb4"`
	// ParseTime 是否解析时间
	ParseTime bool `yaml:"parse-time" default:"true"`
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
}

// BlogConfig 博客仓库（服务端）配置
type BlogConfig struct {
	// Path Hugo 站点所在的 Git 工作区
	Path string `yaml:"path" default:"storage/blog"`
	// PostsDir 文章目录，相对 Path
	PostsDir string `yaml:"posts-dir" default:"content/posts"`
	// ImagesDir 图片目录，相对 Path
	ImagesDir string `yaml:"images-dir" default:"static/images"`
	// URL 站点公开地址
	URL string `yaml:"url" default:"http://localhost:1313"`
	// APIURL 内容 API 的公开地址
	APIURL string `yaml:"api-url" default:"http://localhost:3000"`
	// BuildCommand 文章变更后执行的构建命令，为空则跳过
	BuildCommand string `yaml:"build-command" default:"hugo --minify"`
	// DeployCommand 构建后执行的部署命令，为空则跳过
	DeployCommand string `yaml:"deploy-command"`
	// CommandTimeout 构建与部署命令的超时时间
	CommandTimeout string `yaml:"command-timeout" default:"5m"`
	// RebuildInterval 定时重新构建站点（发布定时文章），为空不启用
	RebuildInterval string `yaml:"rebuild-interval"`
	// Git 仓库设置
	Git GitConfig `yaml:"git"`
}

// GitConfig 博客仓库的 Git 设置
type GitConfig struct {
	// RepoURL 远端仓库，为空时在本地初始化
	RepoURL string `yaml:"repo-url"`
	// Branch 分支
	Branch string `yaml:"branch" default:"main"`
	// Username / Password 远端认证（Token 可放在 Password）
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// AuthorName / AuthorEmail 提交作者
	AuthorName  string `yaml:"author-name" default:"Omni Blogger"`
	AuthorEmail string `yaml:"author-email" default:"blogger@localhost"`
	// SkipCommit 仅写文件，不提交
	SkipCommit bool `yaml:"skip-commit"`
	// Push 提交后推送到远端
	Push bool `yaml:"push"`
	// PullInterval 定时从远端拉取，为空不启用
	PullInterval string `yaml:"pull-interval"`
}

// ClientConfig 编辑器客户端配置
type ClientConfig struct {
	// APIURL 内容 API 地址
	APIURL string `yaml:"api-url" default:"http://localhost:3000"`
	// BlogURL 站点地址，用于生成文章链接；为空时从 /config 获取
	BlogURL string `yaml:"blog-url"`
	// Timeout 单次请求超时
	Timeout string `yaml:"timeout" default:"30s"`
	// AuthToken 请求内容 API 使用的 Token
	AuthToken string `yaml:"auth-token"`
	// ExportPath 发布失败时导出 Markdown 的目录
	ExportPath string `yaml:"export-path" default:"storage/exports"`
	// AutosaveDelay 编辑停止后自动保存草稿的延迟
	AutosaveDelay string `yaml:"autosave-delay" default:"2s"`
}

// RetryConfig 重试策略
type RetryConfig struct {
	MaxAttempts int     `yaml:"max-attempts" default:"3"`
	BaseDelay   string  `yaml:"base-delay" default:"2s"`
	Multiplier  float64 `yaml:"multiplier" default:"2"`
}

// ResumeConfig 多步骤操作的进度保存
type ResumeConfig struct {
	// MaxAge 进度记录有效期
	MaxAge string `yaml:"max-age" default:"24h"`
	// AutosaveInterval 操作进行中定时保存间隔
	AutosaveInterval string `yaml:"autosave-interval" default:"30s"`
	// ShareBaseURL 分享续传链接的基础地址
	ShareBaseURL string `yaml:"share-base-url" default:"http://localhost:3000/setup"`
}

// AppSettings 应用设置
type AppSettings struct {
	// Language 接口消息语言 en / zh_cn
	Language string `yaml:"language" default:"en"`
	// DefaultContextTimeout 请求上下文超时（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"600"`
	// RateLimitCapacity 写接口令牌桶容量
	RateLimitCapacity int64 `yaml:"rate-limit-capacity" default:"30"`
	// RateLimitInterval 令牌填充间隔
	RateLimitInterval string `yaml:"rate-limit-interval" default:"1s"`

	// Worker Pool 配置（图片镜像上传）
	WorkerPoolMaxWorkers  int    `yaml:"worker-pool-max-workers" default:"8"`
	WorkerPoolQueueSize   int    `yaml:"worker-pool-queue-size" default:"256"`
	WorkerPoolTaskTimeout string `yaml:"worker-pool-task-timeout" default:"2m"`

	// Write Queue 配置（工作区写入串行化）
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"10m"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	if err = yaml.Unmarshal(file, c); err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}
	if err := os.MkdirAll(filepath.Dir(c.File), 0754); err != nil {
		return errors.Wrap(err, "create config dir failed")
	}
	if err := atomic.WriteFile(c.File, bytes.NewReader(data)); err != nil {
		return errors.Wrap(err, "write config file failed")
	}
	return nil
}

// GetDatabaseConfig 获取 DAO 使用的数据库配置
func (c *AppConfig) GetDatabaseConfig() dao.DatabaseConfig {
	return dao.DatabaseConfig{
		Type:            c.Database.Type,
		Path:            c.Database.Path,
		UserName:        c.Database.UserName,
		Password:        c.Database.Password,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		Name:            c.Database.Name,
		TablePrefix:     c.Database.TablePrefix,
		AutoMigrate:     c.Database.AutoMigrate,
		Charset:         c.Database.Charset,
		ParseTime:       c.Database.ParseTime,
		MaxIdleConns:    c.Database.MaxIdleConns,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: util.DurationOr(c.Database.ConnMaxLifetime, 30*time.Minute),
		ConnMaxIdleTime: util.DurationOr(c.Database.ConnMaxIdleTime, 10*time.Minute),
		RunMode:         c.Server.RunMode,
	}
}

// GetWorkspaceConfig 获取博客工作区配置
func (c *AppConfig) GetWorkspaceConfig() dao.WorkspaceConfig {
	return dao.WorkspaceConfig{
		Path:      c.Blog.Path,
		PostsDir:  c.Blog.PostsDir,
		ImagesDir: c.Blog.ImagesDir,
		Git: dao.GitConfig{
			RepoURL:     c.Blog.Git.RepoURL,
			Branch:      c.Blog.Git.Branch,
			Username:    c.Blog.Git.Username,
			Password:    c.Blog.Git.Password,
			AuthorName:  c.Blog.Git.AuthorName,
			AuthorEmail: c.Blog.Git.AuthorEmail,
			Push:        c.Blog.Git.Push,
			SkipCommit:  c.Blog.Git.SkipCommit,
		},
	}
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()
	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}
	cfg.TaskTimeout = util.DurationOr(c.App.WorkerPoolTaskTimeout, 0)
	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()
	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	cfg.WriteTimeout = util.DurationOr(c.App.WriteQueueTimeout, cfg.WriteTimeout)
	cfg.IdleTimeout = util.DurationOr(c.App.WriteQueueIdleTime, cfg.IdleTimeout)
	return cfg
}

// GetRetryPolicy 获取重试策略
func (c *AppConfig) GetRetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	if c.Retry.MaxAttempts > 0 {
		p.MaxAttempts = c.Retry.MaxAttempts
	}
	if c.Retry.Multiplier > 0 {
		p.Multiplier = c.Retry.Multiplier
	}
	p.BaseDelay = util.DurationOr(c.Retry.BaseDelay, p.BaseDelay)
	return p
}

// ClientTimeout 客户端单次请求超时
func (c *AppConfig) ClientTimeout() time.Duration {
	return util.DurationOr(c.Client.Timeout, 30*time.Second)
}

// AutosaveDelay 草稿自动保存延迟
func (c *AppConfig) AutosaveDelay() time.Duration {
	return util.DurationOr(c.Client.AutosaveDelay, 2*time.Second)
}

// ResumeMaxAge 进度记录有效期
func (c *AppConfig) ResumeMaxAge() time.Duration {
	return util.DurationOr(c.Resume.MaxAge, 24*time.Hour)
}

// ResumeAutosaveInterval 进度定时保存间隔
func (c *AppConfig) ResumeAutosaveInterval() time.Duration {
	return util.DurationOr(c.Resume.AutosaveInterval, 30*time.Second)
}

// CommandTimeout 构建与部署命令超时
func (c *AppConfig) CommandTimeout() time.Duration {
	return util.DurationOr(c.Blog.CommandTimeout, 5*time.Minute)
}

// RebuildInterval 定时构建间隔，0 表示不启用
func (c *AppConfig) RebuildInterval() time.Duration {
	return util.DurationOr(c.Blog.RebuildInterval, 0)
}

// PullInterval 定时拉取间隔，未配置远端仓库时为 0
func (c *AppConfig) PullInterval() time.Duration {
	if c.Blog.Git.RepoURL == "" {
		return 0
	}
	return util.DurationOr(c.Blog.Git.PullInterval, 0)
}

// RateLimitInterval 限流令牌填充间隔
func (c *AppConfig) RateLimitInterval() time.Duration {
	return util.DurationOr(c.App.RateLimitInterval, time.Second)
}

// MaxBodySize 请求体上限（字节）
func (c *AppConfig) MaxBodySize() int64 {
	return util.ParseSize(c.Server.MaxBodySize, 32*1024*1024)
}
