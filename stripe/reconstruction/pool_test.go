package reconstruction

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskPoolRunsEverything(t *testing.T) {
	pool := newTaskPool(2)
	defer pool.Shutdown()

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
		})
	}
	wg.Wait()
	assert.EqualValues(t, 20, atomic.LoadInt32(&ran))
}

func TestTaskPoolDropsAfterShutdown(t *testing.T) {
	pool := newTaskPool(1)
	pool.Shutdown()

	done := make(chan struct{})
	pool.Submit(func() { close(done) })
	select {
	case <-done:
		t.Fatal("task ran on a shut down pool")
	case <-time.After(100 * time.Millisecond):
	}
}

// With every slot taken, a submission runs on the submitting goroutine
// instead of queueing: by the time Execute returns the job has run.
func TestReaderPoolCallerRuns(t *testing.T) {
	pool := newReaderPool(1)

	block := make(chan struct{})
	started := make(chan struct{})
	pool.Execute(func() {
		close(started)
		<-block
	})
	<-started

	ran := false
	pool.Execute(func() { ran = true })
	require.True(t, ran)
	close(block)
}

func TestReaderPoolReleasesSlots(t *testing.T) {
	pool := newReaderPool(2)

	var wg sync.WaitGroup
	var ran int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		pool.Execute(func() {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
		})
	}
	wg.Wait()
	assert.EqualValues(t, 50, atomic.LoadInt32(&ran))
}
