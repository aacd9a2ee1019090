package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestManagerRunsAndCollectsErrors(t *testing.T) {
	m := NewManager(4)
	errBoom := errors.New("boom")

	var ran atomic.Int32
	for i := range 3 {
		ok := m.Go(context.Background(), "task", func(context.Context) error {
			ran.Add(1)
			if i == 0 {
				return errBoom
			}
			return nil
		})
		if !ok {
			t.Fatalf("task %d was not scheduled", i)
		}
	}

	err := m.Wait()
	if !errors.Is(err, errBoom) {
		t.Fatalf("Wait() error = %v, want boom", err)
	}
	if ran.Load() != 3 {
		t.Fatalf("ran = %d, want 3", ran.Load())
	}
}

func TestManagerLimit(t *testing.T) {
	m := NewManager(1)
	release := make(chan struct{})
	started := make(chan struct{})

	if !m.Go(context.Background(), "blocker", func(context.Context) error {
		close(started)
		<-release
		return nil
	}) {
		t.Fatal("first task should be scheduled")
	}
	<-started

	if m.Go(context.Background(), "extra", func(context.Context) error { return nil }) {
		t.Fatal("second task should be rejected at the limit")
	}

	close(release)
	if err := m.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestManagerClosedAndPanics(t *testing.T) {
	m := NewManager(2)
	m.Go(context.Background(), "panics", func(context.Context) error {
		panic("oops")
	})
	if err := m.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if m.Go(context.Background(), "late", func(context.Context) error { return nil }) {
		t.Fatal("closed manager should reject tasks")
	}

	var nilManager *Manager
	if nilManager.Go(context.Background(), "nil", nil) {
		t.Fatal("nil manager should reject tasks")
	}
	if err := nilManager.Wait(); err != nil {
		t.Fatalf("nil Wait() error = %v", err)
	}
}

func TestManagerSkipsCanceledContext(t *testing.T) {
	m := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	m.Go(ctx, "canceled", func(context.Context) error {
		ran.Store(true)
		return nil
	})
	if err := m.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if ran.Load() {
		t.Fatal("task should not run with a canceled context")
	}
}
