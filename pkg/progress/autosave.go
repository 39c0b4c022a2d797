package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/omni-blogger/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultAutoSaveInterval 操作进行中的定时保存间隔
const DefaultAutoSaveInterval = 30 * time.Second

// AutoSaver keeps the resume record current while an operation runs: on every
// explicit SaveNow (step transitions, completion, shutdown) and periodically
// between Start and Stop.
// AutoSaver 操作进行中自动保存进度
type AutoSaver struct {
	manager  *Manager
	snapshot func() State
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	active  bool
}

// NewAutoSaver creates a saver that persists snapshot() through m.
func NewAutoSaver(m *Manager, interval time.Duration, snapshot func() State, lg *zap.Logger) *AutoSaver {
	if interval <= 0 {
		interval = DefaultAutoSaveInterval
	}
	return &AutoSaver{
		manager:  m,
		snapshot: snapshot,
		interval: interval,
		logger:   logger.OrNop(lg),
	}
}

// Start begins periodic saving. Calling Start on an active saver is a no-op.
func (a *AutoSaver) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active {
		return nil
	}

	c := cron.New()
	id, err := c.AddFunc(fmt.Sprintf("@every %s", a.interval), func() {
		if err := a.SaveNow(context.Background()); err != nil {
			a.logger.Warn("periodic progress save failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	c.Start()

	a.cron = c
	a.entryID = id
	a.active = true
	return nil
}

// Active 是否处于定时保存状态
func (a *AutoSaver) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// SaveNow persists the current snapshot.
func (a *AutoSaver) SaveNow(ctx context.Context) error {
	return a.manager.Save(ctx, a.snapshot())
}

// Stop ends periodic saving, waits for a running save and writes a final one.
// Stop 停止定时保存，并做最后一次保存
func (a *AutoSaver) Stop(ctx context.Context) error {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.active = false
	a.mu.Unlock()

	if c != nil {
		c.Remove(a.entryID)
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	return a.SaveNow(ctx)
}
