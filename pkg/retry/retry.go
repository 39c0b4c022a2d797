// Package retry runs named steps with bounded exponential backoff, tracks each
// step's state and re-runs failed steps in a recovery sweep.
// Package retry 以有限次数的指数退避执行命名步骤，记录步骤状态，并支持失败步骤的恢复
package retry

import (
	"context"
	"math"
	"sync"
	"time"

	apperrors "github.com/haierkeys/omni-blogger/pkg/errors"
	"github.com/haierkeys/omni-blogger/pkg/logger"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrGaveUp is reported for a step whose failed runs reached the policy bound.
// ErrGaveUp 步骤失败次数已达上限，不再自动恢复
var ErrGaveUp = pkgerrors.New("step gave up after repeated failures")

// StepState 步骤状态
type StepState string

const (
	StatePending    StepState = "pending"
	StateInProgress StepState = "in_progress"
	StateCompleted  StepState = "completed"
	StateFailed     StepState = "failed"
)

// Policy backoff configuration
// Policy 退避策略配置
type Policy struct {
	// MaxAttempts 最大尝试次数（含首次）
	MaxAttempts int
	// BaseDelay 首次重试前的等待时间
	BaseDelay time.Duration
	// Multiplier 每次重试等待时间的倍数
	Multiplier float64
}

// DefaultPolicy returns three attempts waiting 2s then 4s.
// DefaultPolicy 默认策略：最多 3 次，间隔 2s、4s
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Multiplier:  2,
	}
}

// Delay is the wait after failed attempt n (1-based): BaseDelay * Multiplier^(n-1).
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(n-1)))
}

func (p Policy) normalize() Policy {
	d := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = d.Multiplier
	}
	return p
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// TimerSleep is the production Sleeper.
func TimerSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Transition is reported every time a step changes state.
type Transition struct {
	StepID   string
	From     StepState
	To       StepState
	// Attempts 本次执行中的失败尝试次数
	Attempts int
	// Failures 累计以失败结束的执行次数
	Failures int
	Err      error
}

// Func is one step's operation.
type Func func(ctx context.Context) error

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPolicy 设置退避策略
func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) { o.policy = p.normalize() }
}

// WithSleeper replaces the wait between attempts.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger.OrNop(l) }
}

// OnTransition registers a hook called after every state change, outside the lock.
func OnTransition(fn func(Transition)) Option {
	return func(o *Orchestrator) { o.hooks = append(o.hooks, fn) }
}

type tracker struct {
	state       StepState
	// attempts 所有执行累计的失败尝试次数
	attempts    int
	// runAttempts 最近一次执行中的失败尝试次数
	runAttempts int
	// failures 以失败结束的执行次数
	failures    int
	lastErr     error
}

// Orchestrator executes steps and remembers their outcome.
// Orchestrator 步骤执行器，记录每个步骤的状态与失败次数
type Orchestrator struct {
	policy Policy
	sleep  Sleeper
	logger *zap.Logger
	hooks  []func(Transition)

	mu    sync.Mutex
	steps map[string]*tracker
	order []string
}

// New 创建 Orchestrator
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		policy: DefaultPolicy(),
		sleep:  TimerSleep,
		logger: zap.NewNop(),
		steps:  make(map[string]*tracker),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Policy returns the active backoff policy.
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

// Register declares steps as pending without running them.
func (o *Orchestrator) Register(ids ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range ids {
		o.trackerLocked(id)
	}
}

// Restore sets a step's state, used when resuming from a checkpoint.
func (o *Orchestrator) Restore(id string, state StepState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.trackerLocked(id).state = state
}

// RestoreFailures sets how many runs of a step already ended failed, used
// together with Restore so the give-up bound survives a restart.
func (o *Orchestrator) RestoreFailures(id string, n int) {
	if n < 0 {
		n = 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.trackerLocked(id).failures = n
}

func (o *Orchestrator) trackerLocked(id string) *tracker {
	t, ok := o.steps[id]
	if !ok {
		t = &tracker{state: StatePending}
		o.steps[id] = t
		o.order = append(o.order, id)
	}
	return t
}

func (o *Orchestrator) transition(id string, to StepState, err error, newRun bool) {
	o.mu.Lock()
	t := o.trackerLocked(id)
	from := t.state
	t.state = to
	if newRun {
		t.runAttempts = 0
		t.lastErr = nil
	}
	if to == StateFailed {
		t.failures++
	}
	if err != nil {
		t.lastErr = err
	}
	tr := Transition{StepID: id, From: from, To: to, Attempts: t.runAttempts, Failures: t.failures, Err: err}
	o.mu.Unlock()

	for _, h := range o.hooks {
		h(tr)
	}
}

func (o *Orchestrator) recordFailure(id string, err error) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	t := o.trackerLocked(id)
	t.attempts++
	t.runAttempts++
	t.lastErr = err
	return t.runAttempts
}

// Do runs fn for step id. Retryable failures are attempted again after the
// policy delay until MaxAttempts is reached; a non-retryable failure stops
// immediately. The last error is returned and the step is left failed.
// Cancelling ctx stops waiting and returns ctx.Err().
// Do 执行步骤，可重试错误按策略退避重试，不可重试错误立即失败
func (o *Orchestrator) Do(ctx context.Context, id string, fn Func) error {
	o.transition(id, StateInProgress, nil, true)

	for {
		if err := ctx.Err(); err != nil {
			o.transition(id, StateFailed, err, false)
			return err
		}

		err := fn(ctx)
		if err == nil {
			o.transition(id, StateCompleted, nil, false)
			return nil
		}

		attempt := o.recordFailure(id, err)
		kind := apperrors.Classify(err)

		if !kind.Retryable() || attempt >= o.policy.MaxAttempts {
			o.logger.Warn("step failed",
				zap.String(logger.FieldStep, id),
				zap.Int(logger.FieldAttempt, attempt),
				zap.String(logger.FieldKind, kind.String()),
				zap.Error(err),
			)
			o.transition(id, StateFailed, err, false)
			return err
		}

		delay := o.policy.Delay(attempt)
		o.logger.Info("step attempt failed, retrying",
			zap.String(logger.FieldStep, id),
			zap.Int(logger.FieldAttempt, attempt),
			zap.String(logger.FieldKind, kind.String()),
			zap.Duration(logger.FieldDelay, delay),
			zap.Error(err),
		)

		if serr := o.sleep(ctx, delay); serr != nil {
			o.transition(id, StateFailed, serr, false)
			return serr
		}
	}
}

// State 返回步骤状态，未知步骤为 pending
func (o *Orchestrator) State(id string) StepState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if t, ok := o.steps[id]; ok {
		return t.state
	}
	return StatePending
}

// HasFailed 步骤是否处于失败状态
func (o *Orchestrator) HasFailed(id string) bool {
	return o.State(id) == StateFailed
}

// Attempts is the cumulative number of failed attempts over every run of
// the step.
// Attempts 累计失败尝试次数
func (o *Orchestrator) Attempts(id string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if t, ok := o.steps[id]; ok {
		return t.attempts
	}
	return 0
}

// RunAttempts is the number of failed attempts in the step's latest run.
func (o *Orchestrator) RunAttempts(id string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if t, ok := o.steps[id]; ok {
		return t.runAttempts
	}
	return 0
}

// Failures is the number of runs of the step that ended failed.
// Failures 以失败结束的执行次数
func (o *Orchestrator) Failures(id string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if t, ok := o.steps[id]; ok {
		return t.failures
	}
	return 0
}

// LastError 最近一次失败的错误
func (o *Orchestrator) LastError(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if t, ok := o.steps[id]; ok {
		return t.lastErr
	}
	return nil
}

// ShouldGiveUp reports whether the step failed in MaxAttempts runs. Each run
// already retries within the policy, so the bound counts whole runs.
// ShouldGiveUp 失败执行次数是否已达上限
func (o *Orchestrator) ShouldGiveUp(id string) bool {
	return o.Failures(id) >= o.policy.MaxAttempts
}

// Failed returns the ids of failed steps in registration order.
// Failed 返回失败步骤列表（按注册顺序）
func (o *Orchestrator) Failed() []string {
	return o.withState(StateFailed)
}

// Completed returns the ids of completed steps in registration order.
func (o *Orchestrator) Completed() []string {
	return o.withState(StateCompleted)
}

func (o *Orchestrator) withState(s StepState) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var ids []string
	for _, id := range o.order {
		if o.steps[id].state == s {
			ids = append(ids, id)
		}
	}
	return ids
}

// Snapshot returns every known step with its state.
func (o *Orchestrator) Snapshot() map[string]StepState {
	o.mu.Lock()
	defer o.mu.Unlock()
	m := make(map[string]StepState, len(o.steps))
	for id, t := range o.steps {
		m[id] = t.state
	}
	return m
}
