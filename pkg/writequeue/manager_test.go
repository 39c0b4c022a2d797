package writequeue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SameKeyIsSerialized(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Execute(context.Background(), "posts/hello", func(context.Context) error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, peak.Load())
	assert.EqualValues(t, 10, m.GetMetrics().Executed)
}

func TestManager_DifferentKeysRunInParallel(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = m.Execute(context.Background(), "a", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	done := make(chan error, 1)
	go func() {
		done <- m.Execute(context.Background(), "b", func(context.Context) error { return nil })
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("key b blocked behind key a")
	}
	close(release)
	assert.Equal(t, 2, m.QueueCount())
}

func TestManager_PanicIsReturned(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	err := m.Execute(context.Background(), "k", func(context.Context) error { panic("disk gone") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")

	assert.NoError(t, m.Execute(context.Background(), "k", func(context.Context) error { return nil }))
}

func TestManager_WriteTimeout(t *testing.T) {
	m := New(&Config{WriteTimeout: 20 * time.Millisecond}, nil)
	defer m.Shutdown(context.Background())

	release := make(chan struct{})
	defer close(release)
	err := m.Execute(context.Background(), "k", func(context.Context) error {
		<-release
		return nil
	})
	assert.ErrorIs(t, err, ErrWriteTimeout)
}

func TestManager_ClosedRejects(t *testing.T) {
	m := New(nil, nil)
	require.NoError(t, m.Execute(context.Background(), "k", func(context.Context) error { return nil }))
	require.NoError(t, m.Shutdown(context.Background()))
	assert.True(t, m.IsClosed())

	err := m.Execute(context.Background(), "k", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueClosed)
}

func TestManager_IdleCleanup(t *testing.T) {
	m := New(&Config{IdleTimeout: time.Millisecond}, nil)
	defer m.Shutdown(context.Background())

	require.NoError(t, m.Execute(context.Background(), "k", func(context.Context) error { return nil }))
	assert.Eventually(t, func() bool { return m.QueueCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}
