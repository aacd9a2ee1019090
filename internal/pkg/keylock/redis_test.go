package keylock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate redis: %v", err)
		}
	})

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLock(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	locker := NewRedis(client, WithMaxWait(100*time.Millisecond), WithLease(time.Second), WithPrefix("test:"))

	unlock, err := locker.Lock(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	if _, err := locker.Lock(ctx, "user@example.com"); !errors.Is(err, ErrLockBusy) {
		t.Fatalf("second Lock() error = %v, want ErrLockBusy", err)
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unlock() error = %v", err)
	}
	if n, err := client.Exists(ctx, "test:user@example.com").Result(); err != nil || n != 0 {
		t.Fatalf("key still present after unlock: n=%d err=%v", n, err)
	}

	unlock, err = locker.Lock(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Lock() after unlock error = %v", err)
	}
	_ = unlock(ctx)
}

func TestRedisUnlockKeepsForeignLease(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	locker := NewRedis(client, WithLease(50*time.Millisecond), WithPrefix("test:"))
	unlock, err := locker.Lock(ctx, "k")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	// lease expires and another holder takes the key
	time.Sleep(100 * time.Millisecond)
	if err := client.Set(ctx, "test:k", "other", time.Minute).Err(); err != nil {
		t.Fatalf("set foreign lease: %v", err)
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unlock() error = %v", err)
	}
	if v, err := client.Get(ctx, "test:k").Result(); err != nil || v != "other" {
		t.Fatalf("foreign lease changed: v=%q err=%v", v, err)
	}
}
