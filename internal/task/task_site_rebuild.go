package task

import (
	"context"
	"time"

	"github.com/haierkeys/omni-blogger/internal/app"
	"github.com/haierkeys/omni-blogger/internal/service"
)

// init 自动注册定时构建任务
func init() {
	Register(NewSiteRebuildTask)
}

// SiteRebuildTask periodically rebuilds and deploys the site so posts dated
// in the future go live without a new publish.
// SiteRebuildTask 定时构建站点
type SiteRebuildTask struct {
	builder  service.SiteBuilder
	interval time.Duration
}

// NewSiteRebuildTask 创建定时构建任务，未配置间隔时返回 nil
func NewSiteRebuildTask(a *app.App) (Task, error) {
	interval := a.Config().RebuildInterval()
	if interval <= 0 || a.SiteBuilder == nil {
		return nil, nil
	}
	return &SiteRebuildTask{builder: a.SiteBuilder, interval: interval}, nil
}

// Name 返回任务名称
func (t *SiteRebuildTask) Name() string {
	return "SiteRebuildTask"
}

// Run 执行构建与部署
func (t *SiteRebuildTask) Run(ctx context.Context) error {
	return t.builder.Build(ctx)
}

// LoopInterval 返回执行间隔
func (t *SiteRebuildTask) LoopInterval() time.Duration {
	return t.interval
}

// IsStartupRun 启动时不执行
func (t *SiteRebuildTask) IsStartupRun() bool {
	return false
}
