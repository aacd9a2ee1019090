package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocalSerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			unlock, err := l.Lock(ctx, "user@example.com")
			if err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			_ = unlock(ctx)
		})
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxInside)
	}
	if n := l.size(); n != 0 {
		t.Fatalf("entries left after release = %d, want 0", n)
	}
}

func TestLocalDifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("Lock(a) error = %v", err)
	}
	defer unlockA(ctx)

	ctxB, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctxB, "b@example.com")
	if err != nil {
		t.Fatalf("Lock(b) error = %v", err)
	}
	_ = unlockB(ctx)
}

func TestLocalHonorsContext(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "k")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(waitCtx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Lock() error = %v, want deadline exceeded", err)
	}

	_ = unlock(ctx)
	_ = unlock(ctx) // second call is a no-op

	if n := l.size(); n != 0 {
		t.Fatalf("entries left = %d, want 0", n)
	}
}

func TestLocalCanceledContextNeverAcquires(t *testing.T) {
	l := NewLocal()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 100; i++ {
		unlock, err := l.Lock(ctx, "free")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("attempt %d: Lock() error = %v, want canceled", i, err)
		}
		if unlock != nil {
			t.Fatalf("attempt %d: unlock returned with error", i)
		}
	}

	if n := l.size(); n != 0 {
		t.Fatalf("entries left = %d, want 0", n)
	}
}
