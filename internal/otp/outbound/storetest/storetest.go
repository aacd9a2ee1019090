// Package storetest checks an OTP store against the behaviour the issuer
// relies on. Every store backend runs it from its own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shandysiswandi/mailotp/internal/otp/entity"
	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
)

// Store is the contract under test.
type Store interface {
	FindByIdentity(ctx context.Context, identity string) (*entity.OTP, error)
	DeleteByIdentity(ctx context.Context, identity string) error
	Create(ctx context.Context, in entity.OTP) error
}

// Run exercises find, delete and create. identityPrefix keeps runs against a
// shared backend apart.
func Run(t *testing.T, store Store, identityPrefix string) {
	t.Helper()

	ctx := context.Background()
	issued := time.Now().UTC().Truncate(time.Millisecond)
	identity := func(name string) string {
		return fmt.Sprintf("%s%s@example.com", identityPrefix, name)
	}

	t.Run("find missing returns not found", func(t *testing.T) {
		_, err := store.FindByIdentity(ctx, identity("missing"))
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("FindByIdentity() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete missing is not an error", func(t *testing.T) {
		if err := store.DeleteByIdentity(ctx, identity("nobody")); err != nil {
			t.Fatalf("DeleteByIdentity() error = %v", err)
		}
	})

	t.Run("create then find", func(t *testing.T) {
		in := entity.OTP{
			ID:        1001,
			Identity:  identity("alice"),
			Code:      "123456",
			IssuedAt:  issued,
			ExpiresAt: issued.Add(entity.CodeTTL),
		}
		if err := store.Create(ctx, in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		got, err := store.FindByIdentity(ctx, in.Identity)
		if err != nil {
			t.Fatalf("FindByIdentity() error = %v", err)
		}
		if got.Identity != in.Identity || got.Code != in.Code {
			t.Fatalf("FindByIdentity() = %+v, want %+v", got, in)
		}
		if !got.IssuedAt.Equal(in.IssuedAt) || !got.ExpiresAt.Equal(in.ExpiresAt) {
			t.Fatalf("timestamps = %s/%s, want %s/%s", got.IssuedAt, got.ExpiresAt, in.IssuedAt, in.ExpiresAt)
		}
	})

	t.Run("delete then find", func(t *testing.T) {
		in := entity.OTP{
			ID:        1002,
			Identity:  identity("bob"),
			Code:      "654321",
			IssuedAt:  issued,
			ExpiresAt: issued.Add(entity.CodeTTL),
		}
		if err := store.Create(ctx, in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := store.DeleteByIdentity(ctx, in.Identity); err != nil {
			t.Fatalf("DeleteByIdentity() error = %v", err)
		}
		if _, err := store.FindByIdentity(ctx, in.Identity); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("FindByIdentity() after delete error = %v", err)
		}
		if err := store.DeleteByIdentity(ctx, in.Identity); err != nil {
			t.Fatalf("second DeleteByIdentity() error = %v", err)
		}
	})

	t.Run("identities are independent", func(t *testing.T) {
		a := entity.OTP{ID: 1003, Identity: identity("carol"), Code: "111111", IssuedAt: issued, ExpiresAt: issued.Add(entity.CodeTTL)}
		b := entity.OTP{ID: 1004, Identity: identity("dave"), Code: "222222", IssuedAt: issued, ExpiresAt: issued.Add(entity.CodeTTL)}
		for _, in := range []entity.OTP{a, b} {
			if err := store.Create(ctx, in); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
		}

		if err := store.DeleteByIdentity(ctx, a.Identity); err != nil {
			t.Fatalf("DeleteByIdentity() error = %v", err)
		}
		got, err := store.FindByIdentity(ctx, b.Identity)
		if err != nil || got.Code != b.Code {
			t.Fatalf("other identity affected: %+v, %v", got, err)
		}
	})

	t.Run("expired record is still found", func(t *testing.T) {
		old := issued.Add(-time.Hour)
		in := entity.OTP{ID: 1005, Identity: identity("erin"), Code: "333333", IssuedAt: old, ExpiresAt: old.Add(entity.CodeTTL)}
		if err := store.Create(ctx, in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		got, err := store.FindByIdentity(ctx, in.Identity)
		if err != nil {
			t.Fatalf("FindByIdentity() error = %v", err)
		}
		if !got.IsExpired(issued) {
			t.Fatal("record should report expired")
		}
	})
}
