package gfx

import (
	"context"
	"sync"

	"github.com/TheBitDrifter/bark"
)

type submission struct {
	frame  uint64
	cmd    *CommandBuffer
	target *target
	wait   *Semaphore
	signal *Semaphore
	fence  *Fence
}

// queue executes submissions in order on its own goroutine. A failed
// submission marks the queue lost; later work is skipped but still
// signals its fence so the host never blocks forever.
type queue struct {
	work   chan submission
	done   chan struct{}
	raster rasterizer

	mu  sync.Mutex
	err error
}

func newQueue(depth int) *queue {
	q := &queue{
		work: make(chan submission, depth),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *queue) run() {
	defer close(q.done)
	for s := range q.work {
		if s.wait != nil {
			s.wait.Wait(context.Background())
		}
		if s.cmd != nil && q.Err() == nil {
			if err := q.raster.execute(s.cmd.commands, s.target); err != nil {
				err = SubmitError{Frame: s.frame, Err: err}
				logger.Error("queue halted", "frame", s.frame, bark.KeyError, bark.AddTrace(err))
				q.setErr(err)
			}
		}
		if s.signal != nil {
			s.signal.Signal()
		}
		if s.fence != nil {
			s.fence.Signal()
		}
	}
}

func (q *queue) submit(s submission) {
	q.work <- s
}

func (q *queue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

func (q *queue) setErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err == nil {
		q.err = err
	}
}

// stop drains pending work and ends the worker.
func (q *queue) stop() {
	close(q.work)
	<-q.done
}
