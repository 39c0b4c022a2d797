package task

import (
	"context"
	"time"

	"github.com/haierkeys/omni-blogger/internal/app"
)

// init 自动注册工作区拉取任务
func init() {
	Register(NewWorkspacePullTask)
}

// Preparer 可重新同步的工作区
type Preparer interface {
	Prepare(ctx context.Context) error
}

// WorkspacePullTask 定时从远端仓库拉取文章
type WorkspacePullTask struct {
	workspace Preparer
	interval  time.Duration
}

// NewWorkspacePullTask 创建拉取任务，未配置远端或间隔时返回 nil
func NewWorkspacePullTask(a *app.App) (Task, error) {
	interval := a.Config().PullInterval()
	if interval <= 0 || a.PostRepo == nil {
		return nil, nil
	}
	return &WorkspacePullTask{workspace: a.PostRepo, interval: interval}, nil
}

// Name 返回任务名称
func (t *WorkspacePullTask) Name() string {
	return "WorkspacePullTask"
}

// Run 拉取远端变更
func (t *WorkspacePullTask) Run(ctx context.Context) error {
	return t.workspace.Prepare(ctx)
}

// LoopInterval 返回执行间隔
func (t *WorkspacePullTask) LoopInterval() time.Duration {
	return t.interval
}

// IsStartupRun 启动时已准备过工作区
func (t *WorkspacePullTask) IsStartupRun() bool {
	return false
}
