package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEnqueueSync(t *testing.T) {
	mgr := NewLaneManager()
	defer mgr.Shutdown()

	var ran bool
	err := mgr.Enqueue(context.Background(), LaneUI, func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("task did not run")
	}
}

func TestEnqueueSyncError(t *testing.T) {
	mgr := NewLaneManager()
	defer mgr.Shutdown()

	want := fmt.Errorf("task failed")
	err := mgr.Enqueue(context.Background(), "test", func(ctx context.Context) error {
		return want
	})
	if err != want {
		t.Fatalf("got error %v, want %v", err, want)
	}
}

func TestEnqueueAsyncOutlivesCaller(t *testing.T) {
	mgr := NewLaneManager()
	defer mgr.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	mgr.EnqueueAsync(ctx, LaneLaunch, func(ctx context.Context) error {
		done <- ctx.Err()
		return nil
	})

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("task context already cancelled: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("async task did not run within timeout")
	}
}

func TestConcurrencyLimit(t *testing.T) {
	mgr := NewLaneManager()
	defer mgr.Shutdown()
	mgr.SetConcurrency(LaneCheck, 2)

	var running atomic.Int32
	var maxSeen atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mgr.Enqueue(context.Background(), LaneCheck, func(ctx context.Context) error {
				cur := running.Add(1)
				for {
					old := maxSeen.Load()
					if cur <= old || maxSeen.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}

	wg.Wait()
	if maxSeen.Load() > 2 {
		t.Fatalf("max concurrent = %d, want <= 2", maxSeen.Load())
	}
}

func TestUILaneIsSerialized(t *testing.T) {
	mgr := NewLaneManager()
	defer mgr.Shutdown()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		i := i
		mgr.EnqueueAsync(context.Background(), LaneUI, func(ctx context.Context) error {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}
	wg.Wait()

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want FIFO", order)
		}
	}
}

func TestNoLostWakeup(t *testing.T) {
	mgr := NewLaneManager()
	defer mgr.Shutdown()
	mgr.SetConcurrency("test", 1)

	gate := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = mgr.Enqueue(context.Background(), "test", func(ctx context.Context) error {
			close(started)
			<-gate
			return nil
		})
	}()
	<-started

	done := make(chan struct{})
	go func() {
		_ = mgr.Enqueue(context.Background(), "test", func(ctx context.Context) error {
			return nil
		})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	close(gate)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second task hung")
	}
}

func TestShutdownResolvesQueued(t *testing.T) {
	mgr := NewLaneManager()
	mgr.SetConcurrency("test", 1)

	gate := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = mgr.Enqueue(context.Background(), "test", func(ctx context.Context) error {
			close(started)
			<-gate
			return nil
		})
	}()
	<-started

	var ran atomic.Int32
	errCh := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			errCh <- mgr.Enqueue(context.Background(), "test", func(ctx context.Context) error {
				ran.Add(1)
				return nil
			})
		}()
	}
	for mgr.Stats()["test"].Queued < 3 {
		time.Sleep(time.Millisecond)
	}

	mgr.Shutdown()
	for i := 0; i < 3; i++ {
		select {
		case err := <-errCh:
			if !errors.Is(err, ErrShutdown) {
				t.Fatalf("got %v, want ErrShutdown", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("queued Enqueue never resolved")
		}
	}
	if s := mgr.Stats()["test"]; s.Active != 1 || s.Queued != 0 {
		t.Fatalf("stats %+v, want 1 active and none queued", s)
	}

	close(gate)
	if ran.Load() != 0 {
		t.Fatalf("%d queued tasks ran after shutdown", ran.Load())
	}
}

func TestContextCancellation(t *testing.T) {
	mgr := NewLaneManager()
	defer mgr.Shutdown()
	mgr.SetConcurrency("test", 1)

	gate := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = mgr.Enqueue(context.Background(), "test", func(ctx context.Context) error {
			close(started)
			<-gate
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- mgr.Enqueue(ctx, "test", func(ctx context.Context) error {
			return nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Enqueue did not return after context cancellation")
	}

	close(gate)
}

func TestPanicRecovery(t *testing.T) {
	mgr := NewLaneManager()
	defer mgr.Shutdown()

	err := mgr.Enqueue(context.Background(), LaneLaunch, func(ctx context.Context) error {
		panic("test panic")
	})
	if err == nil || err.Error() != "panic in lane task: test panic" {
		t.Fatalf("unexpected error: %v", err)
	}

	var ran bool
	err = mgr.Enqueue(context.Background(), LaneLaunch, func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("lane unusable after panic: ran=%v err=%v", ran, err)
	}
}

func TestWait(t *testing.T) {
	mgr := NewLaneManager()
	defer mgr.Shutdown()

	var done atomic.Int32
	for i := 0; i < 4; i++ {
		mgr.EnqueueAsync(context.Background(), LaneCheck, func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			done.Add(1)
			return nil
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mgr.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if done.Load() != 4 {
		t.Fatalf("done = %d, want 4", done.Load())
	}
}

func TestShutdown(t *testing.T) {
	mgr := NewLaneManager()

	_ = mgr.Enqueue(context.Background(), "test", func(ctx context.Context) error { return nil })
	mgr.Shutdown()
	mgr.Shutdown()

	err := mgr.Enqueue(context.Background(), "test", func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrShutdown) {
		t.Fatalf("got %v, want ErrShutdown", err)
	}
}

func TestStatsAndEvents(t *testing.T) {
	mgr := NewLaneManager()
	defer mgr.Shutdown()
	mgr.SetConcurrency("test", 1)

	var (
		mu    sync.Mutex
		types []string
	)
	mgr.OnEvent(func(e Event) {
		mu.Lock()
		types = append(types, e.Type)
		mu.Unlock()
	})

	gate := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = mgr.Enqueue(context.Background(), "test", func(ctx context.Context) error {
			close(started)
			<-gate
			return nil
		}, WithDescription("blocker"))
	}()
	<-started

	mgr.EnqueueAsync(context.Background(), "test", func(ctx context.Context) error {
		return nil
	})

	s := mgr.Stats()["test"]
	if s.Active != 1 || s.Queued != 1 || s.MaxConcurrent != 1 {
		t.Fatalf("stats %+v", s)
	}
	if len(s.ActiveTasks) != 1 || s.ActiveTasks[0].Description != "blocker" {
		t.Fatalf("active tasks %+v", s.ActiveTasks)
	}
	if total := mgr.TotalQueueSize(); total != 2 {
		t.Fatalf("total %d, want 2", total)
	}

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mgr.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := 0
		for _, ty := range types {
			if ty == EventCompleted {
				n++
			}
		}
		mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("completed events = %d, want 2", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
