package safe_close

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeCloseWaitsForAllWorkers(t *testing.T) {
	sc := NewSafeClose()
	var stopped int32

	for i := 0; i < 3; i++ {
		sc.Attach(func(done func(), closeSignal <-chan struct{}) {
			defer done()
			<-closeSignal
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&stopped, 1)
		})
	}

	assert.False(t, sc.Closed())
	sc.SendCloseSignal(nil)
	sc.SendCloseSignal(nil)
	assert.NoError(t, sc.WaitClosed())
	assert.Equal(t, int32(3), atomic.LoadInt32(&stopped))
	assert.True(t, sc.Closed())
}

func TestSafeCloseKeepsErrors(t *testing.T) {
	sc := NewSafeClose()
	boom := errors.New("listen failed")

	sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		sc.SendCloseSignal(boom)
	})
	sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		done()
		<-closeSignal
	})

	err := sc.WaitClosed()
	assert.ErrorIs(t, err, boom)
}
