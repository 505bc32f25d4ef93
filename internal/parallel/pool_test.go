package parallel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewWorkerPool(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pool with max workers", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 4, false)
		if pool == nil {
			t.Fatal("NewWorkerPool returned nil")
		}
		if pool.MaxWorkers() != 4 {
			t.Errorf("expected maxWorkers=4, got %d", pool.MaxWorkers())
		}
		if pool.failFast {
			t.Error("expected failFast=false")
		}
	})

	t.Run("creates pool with failFast", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 2, true)
		if !pool.failFast {
			t.Error("expected failFast=true")
		}
	})

	t.Run("negative means unlimited", func(t *testing.T) {
		pool := NewWorkerPool(ctx, -3, false)
		if pool.MaxWorkers() != 0 {
			t.Errorf("expected maxWorkers=0 for unlimited, got %d", pool.MaxWorkers())
		}
	})
}

func TestWorkerPool_SubmitAndWait(t *testing.T) {
	ctx := context.Background()

	t.Run("single unit", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 2, false)

		var executed atomic.Bool
		pool.Submit("agent-1", func() error {
			executed.Store(true)
			return nil
		})

		errs := pool.Wait()
		if len(errs) != 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
		if !executed.Load() {
			t.Error("work was not executed")
		}
		if pool.Completed() != 1 {
			t.Errorf("expected 1 completed, got %d", pool.Completed())
		}
	})

	t.Run("respects max workers limit", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 2, false)

		maxConcurrent := 0
		currentConcurrent := 0
		var mu sync.Mutex

		for i := 0; i < 5; i++ {
			pool.Submit("", func() error {
				mu.Lock()
				currentConcurrent++
				if currentConcurrent > maxConcurrent {
					maxConcurrent = currentConcurrent
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				currentConcurrent--
				mu.Unlock()
				return nil
			})
		}

		pool.Wait()

		if maxConcurrent > 2 {
			t.Errorf("expected max 2 concurrent units, got %d", maxConcurrent)
		}
		if pool.Completed() != 5 {
			t.Errorf("expected 5 completed, got %d", pool.Completed())
		}
	})

	t.Run("unlimited workers", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 0, false)

		count := 10
		for i := 0; i < count; i++ {
			pool.Submit("", func() error {
				time.Sleep(5 * time.Millisecond)
				return nil
			})
		}

		pool.Wait()
		if pool.Completed() != int64(count) {
			t.Errorf("expected %d completed, got %d", count, pool.Completed())
		}
	})

	t.Run("submit blocks at capacity", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 1, false)
		release := make(chan struct{})
		pool.Submit("first", func() error {
			<-release
			return nil
		})

		submitted := make(chan bool)
		go func() {
			submitted <- pool.Submit("second", func() error { return nil })
		}()

		select {
		case <-submitted:
			t.Fatal("Submit returned while the only worker was busy")
		case <-time.After(30 * time.Millisecond):
		}
		close(release)
		if ok := <-submitted; !ok {
			t.Error("second unit should have been scheduled")
		}
		pool.Wait()
		if pool.Completed() != 2 {
			t.Errorf("expected 2 completed, got %d", pool.Completed())
		}
	})
}

func TestWorkerPool_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("error is wrapped with the id", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 2, false)
		sentinel := errors.New("visit failed")

		pool.Submit("agent-1", func() error { return nil })
		pool.Submit("agent-2", func() error { return sentinel })

		errs := pool.Wait()
		if len(errs) != 1 {
			t.Fatalf("expected 1 error, got %d", len(errs))
		}
		if !errors.Is(errs[0], sentinel) {
			t.Errorf("expected wrapped sentinel, got %v", errs[0])
		}
		if !strings.HasPrefix(errs[0].Error(), "agent-2:") {
			t.Errorf("expected id prefix, got %q", errs[0].Error())
		}
	})

	t.Run("failFast cancels the pool", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 2, true)

		var executed atomic.Int32
		for i := 0; i < 5; i++ {
			pool.Submit("", func() error {
				if executed.Add(1) == 2 {
					return errors.New("fail fast test")
				}
				time.Sleep(50 * time.Millisecond)
				return nil
			})
		}

		errs := pool.Wait()
		if executed.Load() == 5 {
			t.Error("failFast did not stop execution early")
		}
		if len(errs) == 0 {
			t.Error("expected at least one error")
		}
		select {
		case <-pool.Done():
		default:
			t.Error("expected pool to be cancelled")
		}
	})

	t.Run("continue on error without failFast", func(t *testing.T) {
		pool := NewWorkerPool(ctx, 4, false)

		for i := 0; i < 5; i++ {
			idx := i
			pool.Submit("", func() error {
				if idx == 2 {
					return errors.New("unit error")
				}
				return nil
			})
		}

		errs := pool.Wait()
		if pool.Completed() != 5 {
			t.Errorf("expected 5 completed, got %d", pool.Completed())
		}
		if len(errs) != 1 {
			t.Errorf("expected 1 error, got %d", len(errs))
		}
	})
}

func TestWorkerPool_Cancel(t *testing.T) {
	t.Run("submit after cancel is dropped", func(t *testing.T) {
		pool := NewWorkerPool(context.Background(), 4, false)
		pool.Cancel()

		var executed atomic.Bool
		pool.Submit("", func() error {
			executed.Store(true)
			return nil
		})
		pool.Wait()

		if executed.Load() {
			t.Error("work submitted after cancel should not run")
		}
		if !errors.Is(pool.Err(), context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", pool.Err())
		}
	})

	t.Run("cancel with parent context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		pool := NewWorkerPool(ctx, 2, false)

		// Submit blocks while both slots are busy, so cancel from the side.
		go func() {
			time.Sleep(75 * time.Millisecond)
			cancel()
		}()

		var executed atomic.Int32
		dropped := 0
		for i := 0; i < 10; i++ {
			ok := pool.Submit("", func() error {
				executed.Add(1)
				time.Sleep(50 * time.Millisecond)
				return nil
			})
			if !ok {
				dropped++
			}
		}

		pool.Wait()

		if executed.Load() >= 10 {
			t.Errorf("expected fewer than 10 executed units due to cancel, got %d", executed.Load())
		}
		if dropped == 0 {
			t.Error("expected Submit to report dropped units after cancel")
		}
	})
}

func TestWorkerPool_ErrorsSnapshot(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, false)
	pool.Submit("", func() error { return errors.New("error 1") })
	pool.Wait()

	errs := pool.Errors()
	errs[0] = nil
	if pool.Errors()[0] == nil {
		t.Error("Errors should return a copy")
	}
}
