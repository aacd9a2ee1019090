package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/mailotp/internal/otp/entity"
	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
	"github.com/shandysiswandi/mailotp/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "otp:code:"

type otpValue struct {
	ID        int64     `json:"id"`
	Identity  string    `json:"identity"`
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Cache stores one key per identity. Create overwrites whatever the key holds.
type Cache struct {
	client    *redis.Client
	ins       instrument.Instrumentation
	retention time.Duration
	now       func() time.Time
}

// New returns a store whose keys expire retention after the code does.
func New(client *redis.Client, ins instrument.Instrumentation, retention time.Duration) *Cache {
	if retention < 0 {
		retention = 0
	}
	return &Cache{client: client, ins: ins, retention: retention, now: time.Now}
}

func (s *Cache) FindByIdentity(ctx context.Context, identity string) (_ *entity.OTP, err error) {
	ctx, span := s.startSpan(ctx, "FindByIdentity")
	defer func() { s.endSpan(span, err) }()

	raw, err := s.client.Get(ctx, keyPrefix+identity).Bytes()
	if errors.Is(err, redis.Nil) {
		err = goerror.ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	var v otpValue
	if err = json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	return &entity.OTP{
		ID:        v.ID,
		Identity:  v.Identity,
		Code:      v.Code,
		IssuedAt:  v.IssuedAt.UTC(),
		ExpiresAt: v.ExpiresAt.UTC(),
	}, nil
}

func (s *Cache) DeleteByIdentity(ctx context.Context, identity string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteByIdentity")
	defer func() { s.endSpan(span, err) }()

	err = s.client.Del(ctx, keyPrefix+identity).Err()
	return err
}

func (s *Cache) Create(ctx context.Context, in entity.OTP) (err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer func() { s.endSpan(span, err) }()

	raw, err := json.Marshal(otpValue{
		ID:        in.ID,
		Identity:  in.Identity,
		Code:      in.Code,
		IssuedAt:  in.IssuedAt,
		ExpiresAt: in.ExpiresAt,
	})
	if err != nil {
		return err
	}

	// never shorter than a second so the key is not dropped on write
	ttl := max(in.ExpiresAt.Add(s.retention).Sub(s.now()), time.Second)

	err = s.client.Set(ctx, keyPrefix+in.Identity, raw, ttl).Err()
	return err
}

func (s *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.outbound.cache").Start(ctx, name)
}

func (s *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
