package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/omni-blogger/pkg/safe_close"

	"github.com/stretchr/testify/assert"
)

type countingTask struct {
	runs     int32
	interval time.Duration
	startup  bool
	block    bool
	canceled int32
}

func (t *countingTask) Name() string { return "counting" }

func (t *countingTask) Run(ctx context.Context) error {
	atomic.AddInt32(&t.runs, 1)
	if t.block {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.Canceled) {
			atomic.AddInt32(&t.canceled, 1)
		}
		return ctx.Err()
	}
	return nil
}

func (t *countingTask) LoopInterval() time.Duration { return t.interval }
func (t *countingTask) IsStartupRun() bool          { return t.startup }

type panicTask struct{ countingTask }

func (t *panicTask) Run(context.Context) error {
	atomic.AddInt32(&t.runs, 1)
	panic("boom")
}

func TestSchedulerRunsStartupAndLoop(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(nil, sc, 0)
	task := &countingTask{interval: 10 * time.Millisecond, startup: true}
	s.AddTask(task)
	s.Start()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&task.runs) >= 3 }, 2*time.Second, 5*time.Millisecond)
	sc.SendCloseSignal(nil)
	assert.NoError(t, sc.WaitClosed())
}

func TestSchedulerOneShotTask(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(nil, sc, 0)
	task := &countingTask{startup: true}
	s.AddTask(task)
	s.Start()

	// 间隔为 0 的任务只在启动时执行一次，随后自行退出
	assert.NoError(t, sc.WaitClosed())
	assert.Equal(t, int32(1), atomic.LoadInt32(&task.runs))
}

func TestSchedulerCloseCancelsRunningTask(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(nil, sc, time.Hour)
	task := &countingTask{startup: true, block: true}
	s.AddTask(task)
	s.Start()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&task.runs) == 1 }, time.Second, 5*time.Millisecond)
	sc.SendCloseSignal(nil)
	assert.NoError(t, sc.WaitClosed())
	assert.Equal(t, int32(1), atomic.LoadInt32(&task.canceled))
}

func TestSchedulerRecoversPanics(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(nil, sc, 0)
	task := &panicTask{countingTask{interval: 10 * time.Millisecond, startup: true}}
	s.AddTask(task)
	s.Start()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&task.runs) >= 2 }, 2*time.Second, 5*time.Millisecond)
	sc.SendCloseSignal(nil)
	assert.NoError(t, sc.WaitClosed())
}
