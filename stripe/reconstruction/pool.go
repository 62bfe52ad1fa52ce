package reconstruction

import (
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/semaphore"

	"github.com/stripefs/stripefs/stripe/util"
)

const poolIdleTimeout = 60 * time.Second

// taskPool runs whole reconstruction tasks: an unbounded FIFO queue drained
// by worker goroutines that are spawned on demand up to max and evicted
// after sitting idle.
type taskPool struct {
	queue  *util.Queue
	notify chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	max     int
	workers int
	closed  bool
}

func newTaskPool(max int) *taskPool {
	if max < 1 {
		max = 1
	}
	return &taskPool{
		queue:  util.NewQueue(),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		max:    max,
	}
}

func (p *taskPool) Submit(task func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		glog.V(0).Infof("task pool is shut down, dropping task")
		return
	}
	p.queue.Enqueue(task)
	if p.workers < p.max {
		p.workers++
		go p.worker()
	}
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *taskPool) worker() {
	idle := time.NewTimer(poolIdleTimeout)
	defer idle.Stop()
	for {
		if item := p.queue.Dequeue(); item != nil {
			item.(func())()
			continue
		}
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(poolIdleTimeout)
		select {
		case <-p.notify:
		case <-idle.C:
			p.mu.Lock()
			if p.queue.Len() == 0 {
				p.workers--
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
		case <-p.done:
			p.mu.Lock()
			p.workers--
			p.mu.Unlock()
			return
		}
	}
}

// Shutdown stops accepting work and releases idle workers. In-flight tasks
// are not waited for.
func (p *taskPool) Shutdown() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.done)
	}
	p.mu.Unlock()
}

// readerPool executes per-slice block reads. Submissions hand off directly
// to a free slot; when all slots are taken the read runs on the submitting
// goroutine instead, trading latency for back-pressure.
type readerPool struct {
	slots *semaphore.Weighted
}

func newReaderPool(max int) *readerPool {
	if max < 1 {
		max = 1
	}
	return &readerPool{
		slots: semaphore.NewWeighted(int64(max)),
	}
}

func (p *readerPool) Execute(job func()) {
	if p.slots.TryAcquire(1) {
		go func() {
			defer p.slots.Release(1)
			job()
		}()
		return
	}
	glog.V(0).Infof("Execution for striped reading rejected, executing in current goroutine")
	job()
}
