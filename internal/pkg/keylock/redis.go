package keylock

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/mailotp/internal/pkg/uid"
)

const (
	defaultLease    = 10 * time.Second
	defaultMaxWait  = 5 * time.Second
	defaultInterval = 25 * time.Millisecond
)

// releaseScript deletes the key only when it still holds our token, so an
// expired lease re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOption configures a Redis locker.
type RedisOption func(*Redis)

// WithLease sets how long a lock survives without an explicit unlock.
func WithLease(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.lease = d
		}
	}
}

// WithMaxWait bounds how long Lock polls for a busy key.
func WithMaxWait(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.maxWait = d
		}
	}
}

// WithPrefix namespaces lock keys.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// Redis is a distributed lock backed by SET NX PX.
type Redis struct {
	client  *redis.Client
	token   uid.StringID
	prefix  string
	lease   time.Duration
	maxWait time.Duration
}

// NewRedis returns a Redis locker using client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client:  client,
		token:   uid.NewUUID(),
		prefix:  "keylock:",
		lease:   defaultLease,
		maxWait: defaultMaxWait,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lock polls SET NX until it wins, ctx is done, or the wait budget is spent.
func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	fk := r.prefix + key
	token := r.token.Generate()

	backoff := retry.NewConstant(defaultInterval)
	backoff = retry.WithJitterPercent(20, backoff)
	backoff = retry.WithMaxDuration(r.maxWait, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		acquired, err := r.client.SetNX(ctx, fk, token, r.lease).Result()
		if err != nil {
			return err
		}
		if !acquired {
			return retry.RetryableError(ErrLockBusy)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ErrLockBusy) {
			return nil, ctxErr
		}
		return nil, err
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, r.client, []string{fk}, token).Err()
	}, nil
}
