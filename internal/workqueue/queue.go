package workqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by Submit once the queue no longer accepts input.
var ErrClosed = errors.New("workqueue: closed")

// Func processes one input. Implementations must be safe for concurrent use.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// Result is the outcome of one input. Seq is the order in which the input
// left the queue, which matches submission order.
type Result[Out any] struct {
	Seq   int
	Value Out
	Err   error
}

// Queue runs inputs on a fixed pool of workers and hands results back in
// submission order regardless of completion order.
type Queue[In, Out any] struct {
	fn       Func[In, Out]
	workers  int
	capacity int

	mu       sync.Mutex
	cond     *sync.Cond
	inputs   []In
	pending  map[int]Result[Out]
	dequeued int // next sequence handed to a worker
	next     int // next sequence handed to the consumer
	active   int
	finished bool
	closed   bool
	started  bool
	wg       sync.WaitGroup
}

// New builds a queue with the given worker count and outstanding capacity.
// Capacity counts queued, in-flight and unconsumed results together.
func New[In, Out any](workers, capacity int, fn Func[In, Out]) *Queue[In, Out] {
	if workers < 1 {
		workers = 1
	}
	if capacity < workers {
		capacity = workers
	}
	q := &Queue[In, Out]{
		fn:       fn,
		workers:  workers,
		capacity: capacity,
		pending:  make(map[int]Result[Out]),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start launches the worker pool. Calling it more than once has no effect.
func (q *Queue[In, Out]) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started || q.closed {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	q.wg.Add(q.workers)
	for i := 0; i < q.workers; i++ {
		go q.work(ctx)
	}
}

// Submit enqueues an input, blocking while the queue is at capacity.
func (q *Queue[In, Out]) Submit(in In) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.closed && !q.finished && q.outstanding() >= q.capacity {
		q.cond.Wait()
	}
	if q.closed || q.finished {
		return ErrClosed
	}
	q.inputs = append(q.inputs, in)
	q.cond.Broadcast()
	return nil
}

// Finish marks the end of input. Take reports exhaustion once every
// submitted input has been consumed.
func (q *Queue[In, Out]) Finish() {
	q.mu.Lock()
	q.finished = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Take blocks until the result for the next sequence number is ready. It
// returns false when the queue is finished and drained or has been shut down.
func (q *Queue[In, Out]) Take() (Result[Out], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if res, ok := q.pending[q.next]; ok {
			delete(q.pending, q.next)
			q.next++
			q.cond.Broadcast()
			return res, true
		}
		if q.closed {
			return Result[Out]{}, false
		}
		if q.finished && len(q.inputs) == 0 && q.active == 0 && q.next >= q.dequeued {
			return Result[Out]{}, false
		}
		q.cond.Wait()
	}
}

// Shutdown drops inputs no worker has picked up, waits for in-flight work and
// rejects further submissions. It is safe to call more than once.
func (q *Queue[In, Out]) Shutdown() {
	q.mu.Lock()
	q.closed = true
	q.inputs = nil
	q.cond.Broadcast()
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Queue[In, Out]) outstanding() int {
	return len(q.inputs) + (q.dequeued - q.next)
}

func (q *Queue[In, Out]) work(ctx context.Context) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		for !q.closed && len(q.inputs) == 0 && !q.finished {
			q.cond.Wait()
		}
		if q.closed || len(q.inputs) == 0 {
			q.mu.Unlock()
			return
		}
		in := q.inputs[0]
		var zero In
		q.inputs[0] = zero
		q.inputs = q.inputs[1:]
		seq := q.dequeued
		q.dequeued++
		q.active++
		q.mu.Unlock()

		res := q.run(ctx, seq, in)

		q.mu.Lock()
		q.active--
		q.pending[seq] = res
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

func (q *Queue[In, Out]) run(ctx context.Context, seq int, in In) (res Result[Out]) {
	res.Seq = seq
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("workqueue: item %d panicked: %v", seq, r)
		}
	}()
	res.Value, res.Err = q.fn(ctx, in)
	return res
}
