package service

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/haierkeys/omni-blogger/pkg/code"
	"github.com/haierkeys/omni-blogger/pkg/logger"
	"github.com/haierkeys/omni-blogger/pkg/writequeue"

	"go.uber.org/zap"
)

// buildQueueKey 站点构建串行执行的写队列键
const buildQueueKey = "site-build"

// maxCommandOutput 错误详情中保留的命令输出长度
const maxCommandOutput = 2000

const waitDelay = 2 * time.Second

// SiteBuilder 站点构建与部署
type SiteBuilder interface {
	// Build 依次执行构建命令与部署命令，空命令跳过
	Build(ctx context.Context) error
}

type siteBuilder struct {
	config BlogServiceConfig
	queue  *writequeue.Manager
	logger *zap.Logger
}

// NewSiteBuilder 创建 SiteBuilder 实例；queue 为 nil 时不串行化
func NewSiteBuilder(config *BlogServiceConfig, queue *writequeue.Manager, lg *zap.Logger) SiteBuilder {
	b := &siteBuilder{queue: queue, logger: logger.OrNop(lg)}
	if config != nil {
		b.config = *config
	}
	if b.config.CommandTimeout <= 0 {
		b.config.CommandTimeout = 5 * time.Minute
	}
	return b
}

// Build 构建并部署站点
func (b *siteBuilder) Build(ctx context.Context) error {
	build := func(ctx context.Context) error {
		if err := b.run(ctx, b.config.BuildCommand); err != nil {
			return code.ErrorBuildFailed.WithDetails(err.Error())
		}
		if err := b.run(ctx, b.config.DeployCommand); err != nil {
			return code.ErrorDeployFailed.WithDetails(err.Error())
		}
		return nil
	}
	if b.queue == nil {
		return build(ctx)
	}
	return b.queue.Execute(ctx, buildQueueKey, build)
}

func (b *siteBuilder) run(ctx context.Context, command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.CommandTimeout)
	defer cancel()

	start := time.Now()
	cmd := shellCommand(ctx, command)
	cmd.Dir = b.config.WorkDir
	// 子进程持有输出管道时不无限等待
	cmd.WaitDelay = waitDelay
	out, err := cmd.CombinedOutput()
	if err != nil {
		b.logger.Error("site command failed",
			zap.String(logger.FieldCommand, command),
			zap.Duration(logger.FieldDuration, time.Since(start)),
			zap.Error(err))
		return fmt.Errorf("%s: %w: %s", command, err, tail(string(out), maxCommandOutput))
	}

	b.logger.Info("site command finished",
		zap.String(logger.FieldCommand, command),
		zap.Duration(logger.FieldDuration, time.Since(start)))
	return nil
}

// shellCommand 通过系统 shell 执行命令，支持管道与参数
func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
