package setup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/haierkeys/omni-blogger/pkg/logger"
	"github.com/haierkeys/omni-blogger/pkg/progress"
	"github.com/haierkeys/omni-blogger/pkg/retry"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// checkpointTimeout 单次进度保存的超时
const checkpointTimeout = 5 * time.Second

// StepStatus is the rendering projection of one step.
// StepStatus 步骤状态（用于展示）
type StepStatus struct {
	ID       StepID
	State    retry.StepState
	Attempts int
	// Failures 累计失败执行次数
	Failures int
	Err      error
}

// Option 配置 Runner
type Option func(*Runner)

// WithPolicy 设置重试策略
func WithPolicy(p retry.Policy) Option {
	return func(r *Runner) { r.policy = p }
}

// WithSleeper 替换重试等待函数
func WithSleeper(s retry.Sleeper) Option {
	return func(r *Runner) { r.sleeper = s }
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger.OrNop(l) }
}

// WithAutosaveInterval 设置定时保存间隔
func WithAutosaveInterval(d time.Duration) Option {
	return func(r *Runner) { r.interval = d }
}

// OnStepChange registers a callback for every step transition.
func OnStepChange(fn func(StepStatus)) Option {
	return func(r *Runner) { r.observers = append(r.observers, fn) }
}

// Runner executes the setup steps in order and checkpoints every transition
// into the resume record.
// Runner 站点初始化执行器
type Runner struct {
	deps      Deps
	progress  *progress.Manager
	policy    retry.Policy
	sleeper   retry.Sleeper
	interval  time.Duration
	logger    *zap.Logger
	observers []func(StepStatus)

	mu    sync.Mutex
	orch  *retry.Orchestrator
	state progress.State
	// loaded 本进程内是否已建立状态（Run 或 Resume）
	loaded bool
}

// NewRunner 创建 Runner
func NewRunner(deps Deps, pm *progress.Manager, opts ...Option) *Runner {
	r := &Runner{
		deps:     deps,
		progress: pm,
		policy:   retry.DefaultPolicy(),
		sleeper:  retry.TimerSleep,
		interval: progress.DefaultAutoSaveInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reset(progress.State{})
	return r
}

// reset 以给定进度重建步骤状态
func (r *Runner) reset(st progress.State) {
	orch := retry.New(
		retry.WithPolicy(r.policy),
		retry.WithSleeper(r.sleeper),
		retry.WithLogger(r.logger),
		retry.OnTransition(r.onTransition),
	)
	for _, id := range Steps {
		orch.Register(id.String())
	}
	for _, id := range st.CompletedSteps {
		orch.Restore(id, retry.StateCompleted)
	}
	for _, id := range st.FailedSteps {
		orch.Restore(id, retry.StateFailed)
	}
	for id, n := range st.Failures {
		orch.RestoreFailures(id, n)
	}

	cfg := make(map[string]string, len(r.deps.Defaults)+len(st.Config))
	for k, v := range r.deps.Defaults {
		cfg[k] = v
	}
	for k, v := range st.Config {
		cfg[k] = v
	}
	st.Config = cfg

	r.mu.Lock()
	r.orch = orch
	r.state = st
	r.mu.Unlock()
}

func (r *Runner) orchestrator() *retry.Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orch
}

func (r *Runner) setConfig(key, value string) {
	if value == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Config[key] = value
}

// Config 当前解析出的配置副本
func (r *Runner) Config() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.state.Config))
	for k, v := range r.state.Config {
		out[k] = v
	}
	return out
}

// Snapshot returns the resume state reflecting the current step states.
// Snapshot 当前进度快照
func (r *Runner) Snapshot() progress.State {
	orch := r.orchestrator()
	completed, failed := orch.Completed(), orch.Failed()

	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.state
	st.Config = make(map[string]string, len(r.state.Config))
	for k, v := range r.state.Config {
		st.Config[k] = v
	}
	st.CompletedSteps = completed
	st.FailedSteps = failed
	st.Failures = nil
	for _, id := range Steps {
		if n := orch.Failures(id.String()); n > 0 {
			if st.Failures == nil {
				st.Failures = make(map[string]int)
			}
			st.Failures[id.String()] = n
		}
	}
	return st
}

// Status 各步骤状态，按声明顺序
func (r *Runner) Status() []StepStatus {
	orch := r.orchestrator()
	out := make([]StepStatus, 0, len(Steps))
	for _, id := range Steps {
		out = append(out, StepStatus{
			ID:       id,
			State:    orch.State(id.String()),
			Attempts: orch.RunAttempts(id.String()),
			Failures: orch.Failures(id.String()),
			Err:      orch.LastError(id.String()),
		})
	}
	return out
}

func (r *Runner) onTransition(t retry.Transition) {
	ctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
	defer cancel()
	r.checkpoint(ctx)

	st := StepStatus{ID: StepID(t.StepID), State: t.To, Attempts: t.Attempts, Failures: t.Failures, Err: t.Err}
	for _, fn := range r.observers {
		fn(st)
	}
}

func (r *Runner) checkpoint(ctx context.Context) {
	if r.progress == nil {
		return
	}
	if err := r.progress.Save(ctx, r.Snapshot()); err != nil {
		r.logger.Warn("save setup progress failed", zap.Error(err))
	}
}

// Run starts a fresh setup, discarding any saved progress.
// Run 重新开始初始化
func (r *Runner) Run(ctx context.Context) error {
	if r.progress != nil {
		if err := r.progress.Clear(ctx); err != nil {
			return err
		}
	}
	r.reset(progress.State{Started: true})
	r.mu.Lock()
	r.loaded = true
	r.mu.Unlock()
	return r.runFrom(ctx, 0)
}

// Resume continues from the saved checkpoint. It returns progress.ErrNoProgress
// when there is nothing to resume.
// Resume 从断点继续
func (r *Runner) Resume(ctx context.Context) error {
	st, err := r.restore(ctx)
	if err != nil {
		return err
	}
	start := st.CurrentStep
	if start < 0 || start >= len(Steps) {
		start = 0
	}
	return r.runFrom(ctx, start)
}

// restore 加载保存的进度
func (r *Runner) restore(ctx context.Context) (*progress.State, error) {
	if r.progress == nil {
		return nil, progress.ErrNoProgress
	}
	st, err := r.progress.Load(ctx)
	if err != nil {
		return nil, err
	}
	st.Started = true
	r.reset(*st)
	r.mu.Lock()
	r.loaded = true
	r.mu.Unlock()
	r.logger.Info("setup progress restored",
		zap.Int("currentStep", st.CurrentStep),
		zap.Strings("completed", st.CompletedSteps),
		zap.Strings("failed", st.FailedSteps))
	return st, nil
}

// runFrom runs the steps from index start in order. Completed steps are
// skipped; the first failure stops the run and later steps stay pending.
func (r *Runner) runFrom(ctx context.Context, start int) error {
	saver := progress.NewAutoSaver(r.progress, r.interval, r.Snapshot, r.logger)
	if r.progress != nil {
		if err := saver.Start(); err != nil {
			r.logger.Warn("start progress autosave failed", zap.Error(err))
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
			defer cancel()
			if err := saver.Stop(sctx); err != nil {
				r.logger.Warn("final progress save failed", zap.Error(err))
			}
		}()
	}

	ops := r.operations()
	orch := r.orchestrator()
	for i := start; i < len(Steps); i++ {
		id := Steps[i]
		if orch.State(id.String()) == retry.StateCompleted {
			continue
		}

		r.mu.Lock()
		r.state.CurrentStep = i
		r.mu.Unlock()

		if err := orch.Do(ctx, id.String(), ops[id]); err != nil {
			return pkgerrors.Wrapf(err, "setup step %s", id)
		}
	}

	r.mu.Lock()
	r.state.CurrentStep = len(Steps)
	r.state.Started = false
	r.mu.Unlock()
	r.logger.Info("setup completed", zap.Any("config", r.Config()))
	return nil
}

// RecoverFailed re-runs every failed step independently and reports which
// ones succeeded. Saved progress is loaded first when nothing ran in this
// process. The returned error is a *retry.PartialError when any step is
// still failed. A step that already failed in as many runs as the policy
// allows is reported as given up instead of being run again.
// RecoverFailed 逐个恢复失败步骤
func (r *Runner) RecoverFailed(ctx context.Context) (*retry.Report, error) {
	r.mu.Lock()
	loaded := r.loaded
	r.mu.Unlock()
	if !loaded {
		if _, err := r.restore(ctx); err != nil && !errors.Is(err, progress.ErrNoProgress) {
			return nil, err
		}
	}

	ops := r.operations()
	ids := make([]string, len(Steps))
	for i, id := range Steps {
		ids[i] = id.String()
	}
	report := r.orchestrator().Recover(ctx, ids, func(id string) (retry.Func, bool) {
		fn, ok := ops[StepID(id)]
		return fn, ok
	})

	ctx2, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
	defer cancel()
	r.checkpoint(ctx2)
	return report, report.Err()
}

// Done 是否所有步骤都已完成
func (r *Runner) Done() bool {
	return len(r.orchestrator().Completed()) == len(Steps)
}
