package workqueue_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/milam/VodParser/internal/workqueue"
)

func TestResultsArriveInSubmissionOrder(t *testing.T) {
	const items = 200
	rng := rand.New(rand.NewSource(7))
	delays := make([]time.Duration, items)
	for i := range delays {
		delays[i] = time.Duration(rng.Intn(3000)) * time.Microsecond
	}

	q := workqueue.New(8, 16, func(ctx context.Context, in int) (int, error) {
		time.Sleep(delays[in])
		return in * 10, nil
	})
	q.Start(context.Background())

	go func() {
		for i := 0; i < items; i++ {
			if err := q.Submit(i); err != nil {
				t.Errorf("submit %d: %v", i, err)
				return
			}
		}
		q.Finish()
	}()

	for want := 0; want < items; want++ {
		res, ok := q.Take()
		if !ok {
			t.Fatalf("queue exhausted early at %d", want)
		}
		if res.Seq != want {
			t.Fatalf("expected seq %d, got %d", want, res.Seq)
		}
		if res.Err != nil {
			t.Fatalf("unexpected error for %d: %v", want, res.Err)
		}
		if res.Value != want*10 {
			t.Fatalf("expected value %d, got %d", want*10, res.Value)
		}
	}
	if _, ok := q.Take(); ok {
		t.Fatal("expected exhaustion after all items")
	}
	q.Shutdown()
}

func TestWorkerErrorsAndPanicsAreCaptured(t *testing.T) {
	boom := errors.New("boom")
	q := workqueue.New(2, 4, func(ctx context.Context, in int) (string, error) {
		switch in {
		case 1:
			return "", boom
		case 2:
			panic("bad chunk")
		}
		return "ok", nil
	})
	q.Start(context.Background())
	for i := 0; i < 4; i++ {
		if err := q.Submit(i); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	q.Finish()

	var results []workqueue.Result[string]
	for {
		res, ok := q.Take()
		if !ok {
			break
		}
		results = append(results, res)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if !errors.Is(results[1].Err, boom) {
		t.Fatalf("expected boom for item 1, got %v", results[1].Err)
	}
	if results[2].Err == nil {
		t.Fatal("expected panic to surface as error")
	}
	if results[0].Value != "ok" || results[3].Value != "ok" {
		t.Fatalf("pool should keep running after failures: %+v", results)
	}
	q.Shutdown()
}

func TestSubmitBlocksAtCapacity(t *testing.T) {
	release := make(chan struct{})
	q := workqueue.New(1, 2, func(ctx context.Context, in int) (int, error) {
		<-release
		return in, nil
	})
	q.Start(context.Background())

	if err := q.Submit(0); err != nil {
		t.Fatalf("submit 0: %v", err)
	}
	if err := q.Submit(1); err != nil {
		t.Fatalf("submit 1: %v", err)
	}

	var third atomic.Bool
	done := make(chan struct{})
	go func() {
		_ = q.Submit(2)
		third.Store(true)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if third.Load() {
		t.Fatal("submit should block while capacity is exhausted")
	}

	close(release)
	if res, ok := q.Take(); !ok || res.Value != 0 {
		t.Fatalf("unexpected first result %+v %v", res, ok)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not unblock after a result was consumed")
	}
	q.Finish()
	for {
		if _, ok := q.Take(); !ok {
			break
		}
	}
	q.Shutdown()
}

func TestShutdownDiscardsUnstartedWork(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var ran atomic.Int32
	q := workqueue.New(1, 10, func(ctx context.Context, in int) (int, error) {
		ran.Add(1)
		if in == 0 {
			close(started)
			<-release
		}
		return in, nil
	})
	q.Start(context.Background())
	for i := 0; i < 5; i++ {
		if err := q.Submit(i); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	<-started

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		q.Shutdown()
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := ran.Load(); got != 1 {
		t.Fatalf("expected only the in-flight item to run, got %d", got)
	}
	if err := q.Submit(9); !errors.Is(err, workqueue.ErrClosed) {
		t.Fatalf("expected ErrClosed after shutdown, got %v", err)
	}
	// The in-flight result is still handed out, then the queue reports closed.
	if res, ok := q.Take(); !ok || res.Seq != 0 {
		t.Fatalf("expected in-flight result, got %+v %v", res, ok)
	}
	if _, ok := q.Take(); ok {
		t.Fatal("expected Take to report closed")
	}
	q.Shutdown()
}

func TestSubmitAfterFinish(t *testing.T) {
	q := workqueue.New(1, 1, func(ctx context.Context, in int) (int, error) { return in, nil })
	q.Finish()
	if err := q.Submit(1); !errors.Is(err, workqueue.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	q.Shutdown()
}
