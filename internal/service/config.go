// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import (
	"time"

	"github.com/haierkeys/omni-blogger/pkg/retry"
)

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Blog    BlogServiceConfig    // Server side blog config // 服务端博客配置
	Publish PublishServiceConfig // Client side publish config // 客户端发布配置
}

// BlogServiceConfig content API server configuration
// BlogServiceConfig 内容 API 服务配置
type BlogServiceConfig struct {
	URL            string        // Public blog URL // 站点公开地址
	APIURL         string        // Public API URL // 内容 API 公开地址
	WorkDir        string        // Directory build commands run in // 构建命令工作目录
	BuildCommand   string        // Build command, empty to skip // 构建命令，为空跳过
	DeployCommand  string        // Deploy command, empty to skip // 部署命令，为空跳过
	CommandTimeout time.Duration // Build/deploy timeout // 构建与部署超时
	ExcerptLength  int           // Excerpt length in listings // 列表摘要长度
}

// PublishServiceConfig publish pipeline configuration
// PublishServiceConfig 发布流程配置
type PublishServiceConfig struct {
	BlogURL    string       // Blog URL for post links, fetched from /config when empty // 站点地址，为空时从 /config 获取
	ExportPath string       // Fallback export directory // 发布失败时的导出目录
	Policy     retry.Policy // Retry policy // 重试策略
}
