package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/mailotp/internal/otp/entity"
	"github.com/shandysiswandi/mailotp/internal/otp/outbound/storetest"
	"github.com/shandysiswandi/mailotp/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newClient(t *testing.T) *redis.Client {
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

func TestCacheStore(t *testing.T) {
	storetest.Run(t, New(newClient(t), instrument.NewNoop(), 24*time.Hour), "redis-")
}

func TestCacheKeyOutlivesExpiry(t *testing.T) {
	client := newClient(t)
	store := New(client, instrument.NewNoop(), time.Hour)
	ctx := context.Background()

	issued := time.Now().UTC()
	in := entity.OTP{ID: 1, Identity: "ttl@example.com", Code: "123456", IssuedAt: issued, ExpiresAt: issued.Add(entity.CodeTTL)}
	if err := store.Create(ctx, in); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ttl, err := client.TTL(ctx, keyPrefix+in.Identity).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= entity.CodeTTL {
		t.Fatalf("key ttl %s must exceed the code lifetime", ttl)
	}
}
