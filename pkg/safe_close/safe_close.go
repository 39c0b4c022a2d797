// Package safe_close coordinates the shutdown of long-running goroutines.
// Package safe_close 协调多个常驻协程的关闭
package safe_close

import (
	"sync"

	"go.uber.org/multierr"
)

// SafeClose broadcasts one close signal to every attached worker and waits
// until all of them have called done.
// SafeClose 向所有挂载的协程广播关闭信号，并等待它们全部退出
type SafeClose struct {
	once    sync.Once
	closeCh chan struct{}
	wg      sync.WaitGroup

	mu  sync.Mutex
	err error
}

// NewSafeClose 创建 SafeClose
func NewSafeClose() *SafeClose {
	return &SafeClose{closeCh: make(chan struct{})}
}

// Attach starts fn in a new goroutine. fn must call done when it returns and
// should stop its work once closeSignal is closed.
// Attach 挂载协程
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() { once.Do(s.wg.Done) }
	go fn(done, s.closeCh)
}

// SendCloseSignal closes the signal channel. Only the first call closes it;
// every non-nil err is kept and returned by WaitClosed.
// SendCloseSignal 发送关闭信号，可重复调用
func (s *SafeClose) SendCloseSignal(err error) {
	if err != nil {
		s.mu.Lock()
		s.err = multierr.Append(s.err, err)
		s.mu.Unlock()
	}
	s.once.Do(func() { close(s.closeCh) })
}

// Closed 关闭信号是否已发出
func (s *SafeClose) Closed() bool {
	select {
	case <-s.closeCh:
		return true
	default:
		return false
	}
}

// CloseSignal 关闭信号通道
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeCh
}

// WaitClosed blocks until every attached goroutine called done.
// WaitClosed 等待所有协程退出，返回关闭原因
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
